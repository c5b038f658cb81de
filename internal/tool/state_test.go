package tool

import (
	"context"
	"testing"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/biffhq/biff/internal/awareness"
	"github.com/biffhq/biff/internal/event"
	"github.com/biffhq/biff/internal/model"
	biffserver "github.com/biffhq/biff/internal/server"
)

// newTestState builds a *server.State bound to a real awareness.Engine and
// a caller-supplied relay fake, with one live session already populated
// (as server.Start would have left it). The returned event.Bus must be
// closed by the caller.
func newTestState(t *testing.T, r *fakeRelay, login, tty string) (*biffserver.State, *mcpserver.MCPServer, *event.Bus) {
	t.Helper()

	now := time.Now().UTC()
	session := model.UserSession{
		Key:             model.SessionKey{User: login, TTY: tty},
		Login:           login,
		DisplayName:     login,
		Host:            "devbox",
		StartedAt:       now,
		LastActive:      now,
		MessagesEnabled: true,
	}
	if err := r.PutSession(context.Background(), "myrepo", session); err != nil {
		t.Fatalf("put session: %v", err)
	}

	s := mcpserver.NewMCPServer("biff", "test", mcpserver.WithToolCapabilities(true))
	bus := event.NewBus()

	state := &biffserver.State{
		Identity: model.Identity{Login: login, DisplayName: login},
		Session:  session,
		Repo:     "myrepo",
		Relay:    r,
		Log:      zerolog.Nop(),
	}
	readMessages := Register(s, state)
	state.Awareness = awareness.New(s, readMessages, r, "myrepo", bus, zerolog.Nop())

	return state, s, bus
}
