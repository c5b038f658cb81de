package tool

import (
	"context"
	"strings"
	"testing"
)

func TestMesg_TogglesOnAndOff(t *testing.T) {
	r := newFakeRelay()
	state, _, bus := newTestState(t, r, "kai", "aabb1122")
	defer bus.Close()

	out := callTool(Mesg(state), map[string]any{"enabled": false})
	if strings.TrimSpace(out) != "is n" {
		t.Fatalf("expected %q, got %q", "is n", out)
	}

	s, found, err := r.GetSession(context.Background(), "myrepo", "kai")
	if err != nil || !found {
		t.Fatalf("expected session to exist: %v %v", found, err)
	}
	if s.MessagesEnabled {
		t.Fatalf("expected messages_enabled to be false")
	}

	out = callTool(Mesg(state), map[string]any{"enabled": true})
	if strings.TrimSpace(out) != "is y" {
		t.Fatalf("expected %q, got %q", "is y", out)
	}
}
