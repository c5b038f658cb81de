package tool

import (
	"strings"
	"testing"
)

func TestWho_ListsLiveSessionsWithPlan(t *testing.T) {
	r := newFakeRelay()
	state, _, bus := newTestState(t, r, "kai", "aabb1122")
	defer bus.Close()

	callTool(Plan(state), map[string]any{"message": "fixing auth"})

	out := callTool(Who(state), nil)
	if !strings.Contains(out, "@kai") {
		t.Fatalf("expected NAME column to include @kai, got %q", out)
	}
	if !strings.Contains(out, "fixing auth") {
		t.Fatalf("expected PLAN column to include plan text, got %q", out)
	}
}

func TestWho_RelayUnavailable(t *testing.T) {
	r := newFakeRelay()
	r.failList = true
	state, _, bus := newTestState(t, r, "kai", "aabb1122")
	defer bus.Close()

	out := callTool(Who(state), nil)
	if !strings.Contains(out, "Relay unavailable") {
		t.Fatalf("expected relay-unavailable message, got %q", out)
	}
}
