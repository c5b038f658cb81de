package tool

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/biffhq/biff/internal/model"
	biffserver "github.com/biffhq/biff/internal/server"
)

const (
	lastDefaultCount = 25
	lastMaxCount     = 200
)

// Last returns the "last" tool handler bound to state: columnar
// login/logout history, newest first, optionally filtered by login.
func Last(state *biffserver.State) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if res := heartbeatOrFail(ctx, state); res != nil {
			return res, nil
		}

		login, _ := argString(req, "user")
		count, ok := argInt(req, "count")
		if !ok || count <= 0 {
			count = lastDefaultCount
		}
		if count > lastMaxCount {
			count = lastMaxCount
		}

		events, err := state.Relay.RecentEvents(ctx, state.Repo, login, count)
		if err != nil {
			afterAction(ctx, state)
			return mcp.NewToolResultText("Relay unavailable."), nil
		}

		afterAction(ctx, state)

		rows := make([][]string, 0, len(events))
		for _, ev := range events {
			reason := ""
			if ev.Kind == model.EventLogout {
				reason = string(ev.Reason)
			}
			rows = append(rows, []string{
				ev.Session.User,
				ev.Session.TTY,
				string(ev.Kind),
				reason,
				localTime(ev.Timestamp),
			})
		}
		return mcp.NewToolResultText(render([]string{"LOGIN", "TTY", "EVENT", "REASON", "WHEN"}, rows)), nil
	}
}

// lastTool defines the "last" tool's schema.
func lastTool() mcp.Tool {
	return mcp.NewTool("last",
		mcp.WithDescription("Show login/logout history, newest first."),
		mcp.WithString("user", mcp.Description("Restrict to one login; omit for everyone.")),
		mcp.WithNumber("count", mcp.Description("How many events to show (default 25, max 200).")),
	)
}
