package tool

import (
	"context"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/biffhq/biff/internal/model"
	biffserver "github.com/biffhq/biff/internal/server"
)

const timestampFormat = "Jan 2 15:04"

// afterAction runs the common tail every tool handler shares once its
// primary action has completed: capture the live transport session for the
// awareness poller, then synchronously refresh description/status-file
// state for the invoking session (§4.4's "every tool call invokes the
// awareness engine synchronously once").
func afterAction(ctx context.Context, state *biffserver.State) {
	state.Awareness.CaptureSession(mcpserver.ClientSessionFromContext(ctx))
	state.Awareness.Refresh(ctx, state.Session.Key.User, state.Session.Key.TTY)
}

// heartbeatOrFail touches the session before a tool's primary action runs.
// A relay failure here is reported as RelayUnavailable rather than letting
// the handler proceed against a stale session.
func heartbeatOrFail(ctx context.Context, state *biffserver.State) *mcpgo.CallToolResult {
	if err := state.Heartbeat(ctx); err != nil {
		return mcpgo.NewToolResultText("Relay unavailable.")
	}
	return nil
}

func localTime(t time.Time) string {
	return t.Local().Format(timestampFormat)
}

func failedWrite(err error) string {
	return "Message failed: " + model.Kind(err)
}

// argString extracts a string argument the way calculator.go's sumHandler
// extracts its array argument: pull the raw value out of GetArguments and
// type-assert it, rather than trust a request-binding helper.
func argString(req mcpgo.CallToolRequest, key string) (string, bool) {
	v, ok := req.GetArguments()[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func argBool(req mcpgo.CallToolRequest, key string) (bool, bool) {
	v, ok := req.GetArguments()[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// argInt extracts an integer argument; JSON numbers decode as float64.
func argInt(req mcpgo.CallToolRequest, key string) (int, bool) {
	v, ok := req.GetArguments()[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}
