// Package server wires together the one process-wide ServerState —
// identity, the active session, the selected Relay, and the awareness
// engine — and drives the startup/shutdown lifecycle around it. Apart from
// the global logging.Logger, session state flows through one State value
// constructed in the startup path and passed explicitly to the tool layer
// and the background poller.
package server

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/biffhq/biff/internal/awareness"
	"github.com/biffhq/biff/internal/model"
	"github.com/biffhq/biff/internal/relay"
)

// State is the single mutable process-wide value every tool handler and
// the background poller receive explicitly. Session is touched on every
// tool call's heartbeat; everything else is set once at startup.
type State struct {
	Identity  model.Identity
	Session   model.UserSession
	Repo      string
	Relay     relay.Relay
	Awareness *awareness.Engine
	Log       zerolog.Logger
}

// Key returns the active session's composite address.
func (s *State) Key() model.SessionKey {
	return s.Session.Key
}

// Heartbeat refreshes last_active both locally and in the relay; every
// tool handler calls this before its primary action (§4.4's "only
// heartbeat"). Errors are returned, not swallowed: a tool handler that
// cannot reach the relay should report RelayUnavailable, not silently
// proceed against a stale session.
func (s *State) Heartbeat(ctx context.Context) error {
	now := time.Now().UTC()
	s.Session.Touch(now)
	return s.Relay.TouchSession(ctx, s.Repo, s.Session.Key, now)
}
