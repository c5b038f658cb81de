package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	biffserver "github.com/biffhq/biff/internal/server"
)

// Finger returns the "finger" tool handler bound to state: a BSD-finger
// style block for a login's freshest live session, or "Never logged in."
// when the login has no live session. Absence is a legitimate answer, not
// an error.
func Finger(state *biffserver.State) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if res := heartbeatOrFail(ctx, state); res != nil {
			return res, nil
		}

		login, ok := argString(req, "user")
		if !ok || login == "" {
			afterAction(ctx, state)
			return mcp.NewToolResultText("Never logged in."), nil
		}

		session, found, err := state.Relay.GetSession(ctx, state.Repo, login)
		if err != nil {
			afterAction(ctx, state)
			return mcp.NewToolResultText("Relay unavailable."), nil
		}
		if !found {
			afterAction(ctx, state)
			return mcp.NewToolResultText("Never logged in."), nil
		}

		mesg := "off"
		if session.MessagesEnabled {
			mesg = "on"
		}
		plan := session.Plan
		if plan == "" {
			plan = "(none)"
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Login: %s\n", session.Login)
		fmt.Fprintf(&b, "Name: %s\n", session.DisplayName)
		fmt.Fprintf(&b, "TTY: %s\n", session.Key.TTY)
		fmt.Fprintf(&b, "On since %s, idle %s\n", localTime(session.StartedAt), idleString(time.Since(session.LastActive)))
		fmt.Fprintf(&b, "Messages: %s\n", mesg)
		fmt.Fprintf(&b, "Plan: %s\n", plan)

		afterAction(ctx, state)
		return mcp.NewToolResultText(b.String()), nil
	}
}

// fingerTool defines the "finger" tool's schema.
func fingerTool() mcp.Tool {
	return mcp.NewTool("finger",
		mcp.WithDescription("Show presence details for one login, BSD finger style."),
		mcp.WithString("user",
			mcp.Required(),
			mcp.Description("Login to look up."),
		),
	)
}
