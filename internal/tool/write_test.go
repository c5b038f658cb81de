package tool

import (
	"strings"
	"testing"
)

func TestWrite_TargetedDelivery(t *testing.T) {
	r := newFakeRelay()
	state, _, bus := newTestState(t, r, "eric", "ccdd3344")
	defer bus.Close()

	out := callTool(Write(state), map[string]any{"to": "kai:aabb1122", "message": "hi"})
	if !strings.Contains(out, "Message sent to kai:aabb1122") {
		t.Fatalf("expected targeted confirmation, got %q", out)
	}
	if len(r.inbox) != 1 {
		t.Fatalf("expected one message delivered, got %d", len(r.inbox))
	}
}

func TestWrite_BroadcastDelivery(t *testing.T) {
	r := newFakeRelay()
	state, _, bus := newTestState(t, r, "eric", "ccdd3344")
	defer bus.Close()

	out := callTool(Write(state), map[string]any{"to": "kai", "message": "standup"})
	if !strings.Contains(out, "Message sent to @kai") {
		t.Fatalf("expected broadcast confirmation, got %q", out)
	}
}

func TestWrite_InvalidAddress(t *testing.T) {
	r := newFakeRelay()
	state, _, bus := newTestState(t, r, "eric", "ccdd3344")
	defer bus.Close()

	out := callTool(Write(state), map[string]any{"to": "", "message": "hi"})
	if !strings.Contains(out, "InvalidAddress") {
		t.Fatalf("expected InvalidAddress failure, got %q", out)
	}
}

func TestWrite_EmptyMessage(t *testing.T) {
	r := newFakeRelay()
	state, _, bus := newTestState(t, r, "eric", "ccdd3344")
	defer bus.Close()

	out := callTool(Write(state), map[string]any{"to": "kai", "message": ""})
	if !strings.Contains(out, "EmptyMessage") {
		t.Fatalf("expected EmptyMessage failure, got %q", out)
	}
}
