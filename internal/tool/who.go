package tool

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	biffserver "github.com/biffhq/biff/internal/server"
)

// Who returns the "who" tool handler bound to state: a point-in-time
// snapshot of every live session in the repository.
func Who(state *biffserver.State) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if res := heartbeatOrFail(ctx, state); res != nil {
			return res, nil
		}

		sessions, err := state.Relay.ListSessions(ctx, state.Repo)
		if err != nil {
			afterAction(ctx, state)
			return mcp.NewToolResultText("Relay unavailable."), nil
		}

		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].Key.String() < sessions[j].Key.String()
		})

		rows := make([][]string, 0, len(sessions))
		now := time.Now()
		for _, s := range sessions {
			rows = append(rows, []string{
				"@" + s.Login,
				s.Key.TTY,
				idleString(now.Sub(s.LastActive)),
				localTime(s.StartedAt),
				s.Plan,
			})
		}

		afterAction(ctx, state)
		return mcp.NewToolResultText(render([]string{"NAME", "TTY", "IDLE", "SINCE", "PLAN"}, rows)), nil
	}
}

// whoTool defines the "who" tool's schema.
func whoTool() mcp.Tool {
	return mcp.NewTool("who", mcp.WithDescription("List every live session in this repository."))
}

func idleString(d time.Duration) string {
	if d < time.Minute {
		return "-"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}
