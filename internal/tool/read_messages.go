package tool

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	biffserver "github.com/biffhq/biff/internal/server"
)

// ReadMessages returns the "read_messages" tool handler bound to state:
// drain and display every pending message addressed to the invoking
// session, ascending by sent time. A relay failure leaves unread state
// untouched and is reported distinctly from "no messages".
func ReadMessages(state *biffserver.State) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if res := heartbeatOrFail(ctx, state); res != nil {
			return res, nil
		}

		msgs, err := state.Relay.DrainFor(ctx, state.Repo, state.Session.Key.User, state.Session.Key.TTY)
		if err != nil {
			afterAction(ctx, state)
			return mcp.NewToolResultText("Relay unavailable."), nil
		}

		afterAction(ctx, state)

		if len(msgs) == 0 {
			return mcp.NewToolResultText("No new messages."), nil
		}

		rows := make([][]string, 0, len(msgs))
		for _, m := range msgs {
			rows = append(rows, []string{
				localTime(m.SentAt),
				"from " + m.FromSession.User,
				m.Body,
			})
		}
		return mcp.NewToolResultText(render([]string{"SENT", "FROM", "MESSAGE"}, rows)), nil
	}
}

// readMessagesTool defines the "read_messages" tool's schema. Its
// description is overwritten at runtime by the awareness engine; this is
// only the description a fresh server starts with.
func readMessagesTool() mcp.Tool {
	return mcp.NewTool("read_messages", mcp.WithDescription("Check messages."))
}
