package tool

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/biffhq/biff/internal/model"
	biffserver "github.com/biffhq/biff/internal/server"
)

const messageMaxLen = 4096

// Write returns the "write" tool handler bound to state: parse the
// destination address, validate the body, and deliver the message.
func Write(state *biffserver.State) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if res := heartbeatOrFail(ctx, state); res != nil {
			return res, nil
		}

		to, _ := argString(req, "to")
		body, _ := argString(req, "message")

		addr, err := model.ParseAddress(to)
		if err != nil {
			afterAction(ctx, state)
			return mcp.NewToolResultText(failedWrite(model.ErrInvalidAddress)), nil
		}
		if n := utf8.RuneCountInString(body); n == 0 || n > messageMaxLen {
			afterAction(ctx, state)
			return mcp.NewToolResultText(failedWrite(model.ErrEmptyMessage)), nil
		}

		msg := model.NewMessage(state.Session.Key, addr, body, time.Now().UTC())
		if err := state.Relay.Deliver(ctx, state.Repo, msg); err != nil {
			afterAction(ctx, state)
			return mcp.NewToolResultText(failedWrite(model.ErrRelayUnavailable)), nil
		}

		afterAction(ctx, state)
		if addr.Kind == model.AddrUser {
			return mcp.NewToolResultText("Message sent to @" + addr.Login), nil
		}
		return mcp.NewToolResultText("Message sent to " + addr.String()), nil
	}
}

// writeTool defines the "write" tool's schema.
func writeTool() mcp.Tool {
	return mcp.NewTool("write",
		mcp.WithDescription("Send a message to a login's broadcast inbox (\"u\") or one targeted session (\"u:t\")."),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description(`Destination address: "u" or "u:t".`),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Message body, 1 to 4096 characters."),
		),
	)
}
