package server

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/biffhq/biff/internal/awareness"
	"github.com/biffhq/biff/internal/event"
	"github.com/biffhq/biff/internal/identity"
	"github.com/biffhq/biff/internal/model"
	"github.com/biffhq/biff/internal/relay"
)

// OrphanThreshold bounds how stale a same-host, same-login session entry
// must be before startup treats it as an unclean-shutdown leftover rather
// than a second live process.
const OrphanThreshold = 10 * time.Minute

// Deps are the already-constructed collaborators Start wires into a State:
// the MCPServer instance (for the awareness engine's description mutation
// and notifications), the selected Relay, the resolved repository, and the
// event bus backing the awareness engine.
type Deps struct {
	MCPServer    *server.MCPServer
	ReadMessages server.ToolHandlerFunc
	Relay        relay.Relay
	Repo         string
	Bus          *event.Bus
	Log          zerolog.Logger
}

// Start runs the full startup sequence (§4.6): resolve identity, allocate
// a tty, reconcile orphaned sessions from this host, put_session, and
// start the awareness poller as a goroutine in the returned errgroup.
//
// state is populated in place rather than allocated here: the tool layer
// builds its read_messages handler as a closure over state before Start
// runs (so Start can hand that handler to the awareness engine), and that
// closure only ever fires after Start has returned and the transport is
// serving requests. The caller owns the returned errgroup's context and
// cancels it to stop the poller before invoking Shutdown.
func Start(ctx context.Context, state *State, deps Deps) (*errgroup.Group, error) {
	id, err := identity.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}

	tty, err := model.NewTTY()
	if err != nil {
		return nil, fmt.Errorf("allocate tty: %w", err)
	}

	if err := reconcileOrphans(ctx, deps.Relay, deps.Repo, id.Login, identity.Hostname(), deps.Log); err != nil {
		deps.Log.Warn().Err(err).Msg("orphan reconciliation failed")
	}

	now := time.Now().UTC()
	cwd, _ := workingDirectory()
	session := model.UserSession{
		Key:             model.SessionKey{User: id.Login, TTY: tty},
		Login:           id.Login,
		DisplayName:     id.DisplayName,
		Host:            identity.Hostname(),
		CWD:             cwd,
		StartedAt:       now,
		LastActive:      now,
		MessagesEnabled: true,
	}
	if err := deps.Relay.PutSession(ctx, deps.Repo, session); err != nil {
		return nil, fmt.Errorf("put session: %w", err)
	}
	if err := deps.Relay.LogEvent(ctx, deps.Repo, model.SessionEvent{
		Kind: model.EventLogin, Session: session.Key, Timestamp: now,
	}); err != nil {
		deps.Log.Warn().Err(err).Msg("log login event failed")
	}

	engine := awareness.New(deps.MCPServer, deps.ReadMessages, deps.Relay, deps.Repo, deps.Bus, deps.Log)

	state.Identity = id
	state.Session = session
	state.Repo = deps.Repo
	state.Relay = deps.Relay
	state.Awareness = engine
	state.Log = deps.Log

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		engine.Run(gctx, session.Key.User, session.Key.TTY)
		return nil
	})

	if watcher, ok := deps.Relay.(relay.TTLWatcher); ok {
		group.Go(func() error {
			return watcher.WatchExpirations(gctx, deps.Repo, func(key model.SessionKey) {
				if err := deps.Relay.LogEvent(gctx, deps.Repo, model.SessionEvent{
					Kind: model.EventLogout, Session: key, Timestamp: time.Now().UTC(), Reason: model.ReasonTTL,
				}); err != nil {
					deps.Log.Warn().Err(err).Str("session", key.String()).Msg("log ttl logout failed")
				}
			})
		})
	}

	return group, nil
}

// Shutdown performs the graceful shutdown sequence: emit logout{normal},
// remove the session entry, close the relay. The poller goroutine is
// expected to already be stopped by canceling the context passed to Start.
func Shutdown(ctx context.Context, s *State) error {
	now := time.Now().UTC()
	if err := s.Relay.LogEvent(ctx, s.Repo, model.SessionEvent{
		Kind: model.EventLogout, Session: s.Session.Key, Timestamp: now, Reason: model.ReasonNormal,
	}); err != nil {
		s.Log.Warn().Err(err).Msg("log logout event failed")
	}
	if err := s.Relay.RemoveSession(ctx, s.Repo, s.Session.Key); err != nil {
		s.Log.Warn().Err(err).Msg("remove session failed")
	}
	return s.Relay.Close()
}

// reconcileOrphans removes same-host, same-login sessions whose heartbeat
// is older than OrphanThreshold, logging logout{reason=orphan} for each.
// This recovers from crashes where graceful Shutdown never ran.
func reconcileOrphans(ctx context.Context, r relay.Relay, repo, login, host string, log zerolog.Logger) error {
	sessions, err := r.ListSessions(ctx, repo)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	cutoff := time.Now().Add(-OrphanThreshold)
	for _, s := range sessions {
		if s.Login != login || s.Host != host {
			continue
		}
		if s.LastActive.After(cutoff) {
			continue
		}

		if err := r.LogEvent(ctx, repo, model.SessionEvent{
			Kind: model.EventLogout, Session: s.Key, Timestamp: time.Now().UTC(), Reason: model.ReasonOrphan,
		}); err != nil {
			log.Warn().Err(err).Str("session", s.Key.String()).Msg("log orphan logout failed")
		}
		if err := r.RemoveSession(ctx, repo, s.Key); err != nil {
			log.Warn().Err(err).Str("session", s.Key.String()).Msg("remove orphan session failed")
		}
	}
	return nil
}

func workingDirectory() (string, error) {
	return os.Getwd()
}
