package tool

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/biffhq/biff/internal/model"
	biffserver "github.com/biffhq/biff/internal/server"
)

const planMaxLen = 200

// Plan returns the "plan" tool handler bound to state: set the invoking
// session's plan text, displayed by who and finger.
func Plan(state *biffserver.State) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if res := heartbeatOrFail(ctx, state); res != nil {
			return res, nil
		}

		message, ok := argString(req, "message")
		if !ok {
			afterAction(ctx, state)
			return mcp.NewToolResultText(fmt.Sprintf("Plan failed: %s", model.Kind(model.ErrInvalidInput))), nil
		}
		if utf8.RuneCountInString(message) > planMaxLen {
			afterAction(ctx, state)
			return mcp.NewToolResultText(fmt.Sprintf("Plan failed: %s", model.Kind(model.ErrInvalidInput))), nil
		}

		if err := state.Relay.SetPlan(ctx, state.Repo, state.Session.Key, message); err != nil {
			afterAction(ctx, state)
			return mcp.NewToolResultText("Relay unavailable."), nil
		}
		state.Session.Plan = message

		afterAction(ctx, state)
		return mcp.NewToolResultText(fmt.Sprintf("Plan set to: %s", message)), nil
	}
}

// planTool defines the "plan" tool's schema.
func planTool() mcp.Tool {
	return mcp.NewTool("plan",
		mcp.WithDescription("Set your plan, shown to others via who and finger."),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Plan text, at most 200 characters."),
		),
	)
}
