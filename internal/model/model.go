// Package model defines biff's immutable data types: identities, sessions,
// messages, inbox addresses, and session-history events. Nothing in this
// package touches storage or the network; it exists so the relay and tool
// layers share one vocabulary.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Identity is resolved once per process from an external authority and is
// immutable for the lifetime of the process.
type Identity struct {
	Login       string
	DisplayName string
}

// SessionKey is the composite "{user}:{tty}" address of one live session.
// A bare "{user}" (no colon) denotes the broadcast address for that login.
type SessionKey struct {
	User string
	TTY  string
}

// String renders the canonical "user:tty" form.
func (k SessionKey) String() string {
	if k.TTY == "" {
		return k.User
	}
	return k.User + ":" + k.TTY
}

// Broadcast reports whether this key addresses the user's broadcast inbox
// rather than one specific session.
func (k SessionKey) Broadcast() bool {
	return k.TTY == ""
}

// NewTTY generates an 8-hex-character random token, stable for the life of
// the process and unique (with overwhelming probability) across concurrent
// sessions.
func NewTTY() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate tty token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// UserSession is one live process instance bound to one identity and tty.
type UserSession struct {
	Key             SessionKey
	Login           string
	DisplayName     string
	Host            string
	CWD             string
	StartedAt       time.Time
	LastActive      time.Time
	MessagesEnabled bool
	Plan            string
}

// Touch advances LastActive to now, never moving it backwards (last_active
// is monotonically non-decreasing per session).
func (s *UserSession) Touch(now time.Time) {
	if now.After(s.LastActive) {
		s.LastActive = now
	}
}

// AddrKind distinguishes the two InboxRef shapes.
type AddrKind int

const (
	AddrUser AddrKind = iota
	AddrSession
)

// InboxRef is the logical address of one message queue: either a per-login
// broadcast inbox (AddrUser) or a per-session targeted inbox (AddrSession).
type InboxRef struct {
	Kind  AddrKind
	Login string
	TTY   string
}

// String renders the canonical inbox address.
func (r InboxRef) String() string {
	if r.Kind == AddrUser {
		return r.Login
	}
	return r.Login + ":" + r.TTY
}

var loginTTYPattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// ParseAddress parses a "write" destination: "u" for the broadcast inbox of
// login u, or "u:t" for the targeted inbox of session (u,t). It never
// performs a session lookup; address shape alone decides the inbox kind.
func ParseAddress(raw string) (InboxRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return InboxRef{}, ErrInvalidAddress
	}
	parts := strings.SplitN(raw, ":", 2)
	login := parts[0]
	if login == "" || !loginTTYPattern.MatchString(login) {
		return InboxRef{}, ErrInvalidAddress
	}
	if len(parts) == 1 {
		return InboxRef{Kind: AddrUser, Login: login}, nil
	}
	tty := parts[1]
	if tty == "" || !loginTTYPattern.MatchString(tty) {
		return InboxRef{}, ErrInvalidAddress
	}
	return InboxRef{Kind: AddrSession, Login: login, TTY: tty}, nil
}

// Message is an immutable, once-delivered unit of text sent between
// sessions or from a session to a login's broadcast inbox.
type Message struct {
	ID         string
	FromSession SessionKey
	To         InboxRef
	Body       string
	SentAt     time.Time
}

// NewMessage constructs a Message with a fresh UUID and the given send time.
func NewMessage(from SessionKey, to InboxRef, body string, sentAt time.Time) Message {
	return Message{
		ID:          uuid.NewString(),
		FromSession: from,
		To:          to,
		Body:        body,
		SentAt:      sentAt,
	}
}

// EventKind is the kind of a SessionEvent.
type EventKind string

const (
	EventLogin  EventKind = "login"
	EventLogout EventKind = "logout"
)

// LogoutReason classifies why a logout event was recorded.
type LogoutReason string

const (
	ReasonNormal LogoutReason = "normal"
	ReasonOrphan LogoutReason = "orphan"
	ReasonTTL    LogoutReason = "ttl"
)

// SessionEvent is one append-only entry in the session-history log.
type SessionEvent struct {
	Kind      EventKind
	Session   SessionKey
	Timestamp time.Time
	Reason    LogoutReason // only meaningful for EventLogout
}

var repoNamePattern = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SanitizeRepoName maps an arbitrary repository name to the alphanumeric,
// dash, underscore subset used to scope relay resources. An empty result
// falls back to "_default" verbatim, per spec.
func SanitizeRepoName(name string) string {
	name = repoNamePattern.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_-")
	if name == "" {
		return "_default"
	}
	return name
}
