package tool

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/biffhq/biff/internal/model"
)

func TestLast_FiltersByLoginAndOrdersNewestFirst(t *testing.T) {
	r := newFakeRelay()
	state, _, bus := newTestState(t, r, "kai", "aabb1122")
	defer bus.Close()

	now := time.Now().UTC()
	r.LogEvent(context.Background(), "myrepo", model.SessionEvent{
		Kind: model.EventLogin, Session: model.SessionKey{User: "eric", TTY: "xx"}, Timestamp: now.Add(-time.Minute),
	})
	r.LogEvent(context.Background(), "myrepo", model.SessionEvent{
		Kind: model.EventLogout, Session: model.SessionKey{User: "kai", TTY: "aabb1122"}, Timestamp: now, Reason: model.ReasonOrphan,
	})

	out := callTool(Last(state), map[string]any{"user": "kai"})
	if !strings.Contains(out, "orphan") {
		t.Fatalf("expected orphan reason in output, got %q", out)
	}
	if strings.Contains(out, "eric") {
		t.Fatalf("expected output filtered to kai only, got %q", out)
	}
}

func TestLast_CapsCountAtMax(t *testing.T) {
	r := newFakeRelay()
	state, _, bus := newTestState(t, r, "kai", "aabb1122")
	defer bus.Close()

	now := time.Now().UTC()
	for i := 0; i < lastMaxCount+50; i++ {
		r.LogEvent(context.Background(), "myrepo", model.SessionEvent{
			Kind: model.EventLogin, Session: model.SessionKey{User: "kai", TTY: "aabb1122"}, Timestamp: now.Add(time.Duration(i) * time.Second),
		})
	}

	out := callTool(Last(state), map[string]any{"count": float64(10000)})
	if out == "error" {
		t.Fatalf("expected handler not to error on an oversized count")
	}
	if got := strings.Count(out, "\n"); got != lastMaxCount+1 {
		t.Fatalf("expected header plus %d rows, got %d lines", lastMaxCount, got)
	}
}
