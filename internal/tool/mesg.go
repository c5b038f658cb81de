package tool

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	biffserver "github.com/biffhq/biff/internal/server"
)

// Mesg returns the "mesg" tool handler bound to state: toggle whether the
// invoking session's inbox accepts messages, BSD-mesg style. The flag is
// recorded on the session and shown by finger; delivery, the unread count
// and read_messages' description are not affected by it.
func Mesg(state *biffserver.State) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if res := heartbeatOrFail(ctx, state); res != nil {
			return res, nil
		}

		enabled, ok := argBool(req, "enabled")
		if !ok {
			enabled = true
		}

		if err := state.Relay.SetMesg(ctx, state.Repo, state.Session.Key, enabled); err != nil {
			afterAction(ctx, state)
			return mcp.NewToolResultText("Relay unavailable."), nil
		}
		state.Session.MessagesEnabled = enabled

		afterAction(ctx, state)
		if enabled {
			return mcp.NewToolResultText("is y"), nil
		}
		return mcp.NewToolResultText("is n"), nil
	}
}

// mesgTool defines the "mesg" tool's schema.
func mesgTool() mcp.Tool {
	return mcp.NewTool("mesg",
		mcp.WithDescription("Enable or disable receiving messages, BSD mesg style."),
		mcp.WithBoolean("enabled",
			mcp.Required(),
			mcp.Description("true to accept messages, false to decline."),
		),
	)
}
