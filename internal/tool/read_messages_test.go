package tool

import (
	"strings"
	"testing"
)

func TestReadMessages_DrainsTargetedAndBroadcast(t *testing.T) {
	r := newFakeRelay()
	senderState, _, senderBus := newTestState(t, r, "eric", "ccdd3344")
	defer senderBus.Close()

	callTool(Write(senderState), map[string]any{"to": "kai:aabb1122", "message": "hi"})
	callTool(Write(senderState), map[string]any{"to": "kai", "message": "standup"})

	receiverState, _, receiverBus := newTestState(t, r, "kai", "aabb1122")
	defer receiverBus.Close()

	out := callTool(ReadMessages(receiverState), nil)
	if !strings.Contains(out, "hi") || !strings.Contains(out, "eric") {
		t.Fatalf("expected drained message from eric, got %q", out)
	}
	if !strings.Contains(out, "standup") {
		t.Fatalf("expected drained broadcast message, got %q", out)
	}

	out = callTool(ReadMessages(receiverState), nil)
	if strings.TrimSpace(out) != "No new messages." {
		t.Fatalf("expected drain to be empty on second call, got %q", out)
	}
}

func TestReadMessages_RelayUnavailable(t *testing.T) {
	r := newFakeRelay()
	r.failDrain = true
	state, _, bus := newTestState(t, r, "kai", "aabb1122")
	defer bus.Close()

	out := callTool(ReadMessages(state), nil)
	if !strings.Contains(out, "Relay unavailable") {
		t.Fatalf("expected relay-unavailable message, got %q", out)
	}
}
