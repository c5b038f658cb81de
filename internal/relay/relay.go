// Package relay defines the capability set every biff storage/transport
// backend must satisfy, and a factory that selects between the two
// concrete implementations: LocalRelay (filesystem) and ClusterRelay
// (NATS JetStream pub/sub + KV).
package relay

import (
	"context"
	"time"

	"github.com/biffhq/biff/internal/model"
)

// DefaultTimeout is five seconds. No Relay implementation or caller applies
// it: each operation is bounded only by the deadline of the ctx it is given.
const DefaultTimeout = 5 * time.Second

// Relay is the capability set the tool layer and awareness engine consume.
// Every method is atomic with respect to itself.
type Relay interface {
	// PutSession upserts the caller's session.
	PutSession(ctx context.Context, repo string, s model.UserSession) error

	// TouchSession refreshes last_active to now for the given session.
	TouchSession(ctx context.Context, repo string, key model.SessionKey, now time.Time) error

	// ListSessions returns every live session in this repository.
	ListSessions(ctx context.Context, repo string) ([]model.UserSession, error)

	// GetSession returns the freshest live session for a login, or
	// (model.UserSession{}, false, nil) if none exists.
	GetSession(ctx context.Context, repo, login string) (model.UserSession, bool, error)

	// RemoveSession deletes a session entry (used by graceful shutdown and
	// orphan reconciliation).
	RemoveSession(ctx context.Context, repo string, key model.SessionKey) error

	// SetPlan updates a session's plan text.
	SetPlan(ctx context.Context, repo string, key model.SessionKey, plan string) error

	// SetMesg updates a session's messages_enabled flag.
	SetMesg(ctx context.Context, repo string, key model.SessionKey, enabled bool) error

	// Deliver writes a message to the inbox implied by msg.To: the
	// broadcast inbox if msg.To is AddrUser, else the targeted inbox.
	Deliver(ctx context.Context, repo string, msg model.Message) error

	// DrainFor returns and removes every pending message addressed to
	// User(login) or Session(login,tty), merged and sorted ascending by
	// SentAt.
	DrainFor(ctx context.Context, repo, login, tty string) ([]model.Message, error)

	// PeekUnreadCount reports the same merged count DrainFor would return,
	// without removing anything.
	PeekUnreadCount(ctx context.Context, repo, login, tty string) (int, error)

	// PeekPreview returns a short, non-destructive preview of the oldest
	// pending message for (login, tty), or "" if none is pending. Used
	// only to populate the awareness engine's tool-description text; it
	// never affects what DrainFor later returns.
	PeekPreview(ctx context.Context, repo, login, tty string) (string, error)

	// LogEvent appends one entry to the session-history log.
	LogEvent(ctx context.Context, repo string, ev model.SessionEvent) error

	// RecentEvents returns the newest `limit` events, optionally filtered
	// to one login.
	RecentEvents(ctx context.Context, repo string, login string, limit int) ([]model.SessionEvent, error)

	// Close releases all backing resources. Safe to call once.
	Close() error
}

// TTLWatcher is implemented by Relay backends whose sessions can vanish
// without a client-driven RemoveSession call: ClusterRelay's KV bucket
// evicts entries on its own TTL, so that eviction must be observed and
// logged as logout{reason=ttl} rather than relying on an explicit
// Shutdown. LocalRelay has no such channel and does not implement this.
type TTLWatcher interface {
	// WatchExpirations blocks until ctx is canceled, invoking onExpire for
	// every session entry evicted by TTL rather than explicit removal.
	WatchExpirations(ctx context.Context, repo string, onExpire func(model.SessionKey)) error
}
