package tool

import (
	"strings"
	"testing"
)

func TestFinger_KnownLoginReturnsBlock(t *testing.T) {
	r := newFakeRelay()
	state, _, bus := newTestState(t, r, "kai", "aabb1122")
	defer bus.Close()

	callTool(Plan(state), map[string]any{"message": "fixing auth"})

	out := callTool(Finger(state), map[string]any{"user": "kai"})
	for _, want := range []string{"Login: kai", "Plan: fixing auth", "Messages: on"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestFinger_UnknownLoginReturnsNeverLoggedIn(t *testing.T) {
	r := newFakeRelay()
	state, _, bus := newTestState(t, r, "kai", "aabb1122")
	defer bus.Close()

	out := callTool(Finger(state), map[string]any{"user": "eric"})
	if strings.TrimSpace(out) != "Never logged in." {
		t.Fatalf("expected %q, got %q", "Never logged in.", out)
	}
}
