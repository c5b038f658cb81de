package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/biffhq/biff/internal/model"
)

// sessionRecord is the JSON value stored under one KV key.
type sessionRecord struct {
	Login           string    `json:"login"`
	TTY             string    `json:"tty"`
	DisplayName     string    `json:"display_name"`
	Host            string    `json:"host"`
	CWD             string    `json:"cwd"`
	StartedAt       time.Time `json:"started_at"`
	LastActive      time.Time `json:"last_active"`
	MessagesEnabled bool      `json:"messages_enabled"`
	Plan            string    `json:"plan"`
}

func toSessionRecord(s model.UserSession) sessionRecord {
	return sessionRecord{
		Login:           s.Key.User,
		TTY:             s.Key.TTY,
		DisplayName:     s.DisplayName,
		Host:            s.Host,
		CWD:             s.CWD,
		StartedAt:       s.StartedAt,
		LastActive:      s.LastActive,
		MessagesEnabled: s.MessagesEnabled,
		Plan:            s.Plan,
	}
}

func (rec sessionRecord) toModel() model.UserSession {
	return model.UserSession{
		Key:             model.SessionKey{User: rec.Login, TTY: rec.TTY},
		Login:           rec.Login,
		DisplayName:     rec.DisplayName,
		Host:            rec.Host,
		CWD:             rec.CWD,
		StartedAt:       rec.StartedAt,
		LastActive:      rec.LastActive,
		MessagesEnabled: rec.MessagesEnabled,
		Plan:            rec.Plan,
	}
}

func sessionKVKey(login, tty string) string {
	return login + "." + tty
}

// PutSession upserts the caller's session snapshot. TTL on the bucket
// itself retires abandoned entries after sessionKVTTL even if a process
// never calls RemoveSession.
func (r *Relay) PutSession(ctx context.Context, repo string, s model.UserSession) error {
	kv, err := r.sessionKV(ctx, repo)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrRelayUnavailable, err)
	}

	data, err := json.Marshal(toSessionRecord(s))
	if err != nil {
		return fmt.Errorf("%w: marshal session: %v", model.ErrInternal, err)
	}
	if _, err := kv.Put(ctx, sessionKVKey(s.Key.User, s.Key.TTY), data); err != nil {
		return fmt.Errorf("%w: put session: %v", model.ErrRelayUnavailable, err)
	}
	return nil
}

// TouchSession refreshes last_active, never moving it backwards, and
// refreshes the KV TTL by rewriting the entry.
func (r *Relay) TouchSession(ctx context.Context, repo string, key model.SessionKey, now time.Time) error {
	kv, err := r.sessionKV(ctx, repo)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrRelayUnavailable, err)
	}

	entry, err := kv.Get(ctx, sessionKVKey(key.User, key.TTY))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("%w: touch unknown session %s", model.ErrInternal, key)
		}
		return fmt.Errorf("%w: touch session: %v", model.ErrRelayUnavailable, err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(entry.Value(), &rec); err != nil {
		return fmt.Errorf("%w: decode session: %v", model.ErrInternal, err)
	}
	if now.After(rec.LastActive) {
		rec.LastActive = now
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: marshal session: %v", model.ErrInternal, err)
	}
	if _, err := kv.Put(ctx, sessionKVKey(key.User, key.TTY), data); err != nil {
		return fmt.Errorf("%w: touch session: %v", model.ErrRelayUnavailable, err)
	}
	return nil
}

// ListSessions returns every live entry in this repository's bucket.
// Unlike LocalRelay, staleness is enforced by the bucket TTL rather than
// a client-side cutoff check, so every key returned by Keys is live.
func (r *Relay) ListSessions(ctx context.Context, repo string) ([]model.UserSession, error) {
	kv, err := r.sessionKV(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRelayUnavailable, err)
	}

	keys, err := kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: list sessions: %v", model.ErrRelayUnavailable, err)
	}

	sessions := make([]model.UserSession, 0, len(keys))
	for _, k := range keys {
		entry, err := kv.Get(ctx, k)
		if err != nil {
			continue // evicted between Keys and Get; treat as already-gone
		}
		var rec sessionRecord
		if err := json.Unmarshal(entry.Value(), &rec); err != nil {
			continue
		}
		sessions = append(sessions, rec.toModel())
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Key.String() < sessions[j].Key.String()
	})
	return sessions, nil
}

// GetSession returns the freshest live session for login, if any.
func (r *Relay) GetSession(ctx context.Context, repo, login string) (model.UserSession, bool, error) {
	sessions, err := r.ListSessions(ctx, repo)
	if err != nil {
		return model.UserSession{}, false, err
	}

	var best *model.UserSession
	for i := range sessions {
		if sessions[i].Login != login {
			continue
		}
		if best == nil || sessions[i].LastActive.After(best.LastActive) {
			best = &sessions[i]
		}
	}
	if best == nil {
		return model.UserSession{}, false, nil
	}
	return *best, true, nil
}

// RemoveSession deletes a session's KV entry. It marks the key in the
// tombstone bucket first (and waits for that write to land) so every
// live process's WatchExpirations sees the mark before it sees the
// Delete, and can tell this apart from a true TTL eviction of the same
// key.
func (r *Relay) RemoveSession(ctx context.Context, repo string, key model.SessionKey) error {
	kv, err := r.sessionKV(ctx, repo)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrRelayUnavailable, err)
	}

	tombstones, err := r.tombstoneKV(ctx, repo)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrRelayUnavailable, err)
	}
	kvKey := sessionKVKey(key.User, key.TTY)
	if _, err := tombstones.Put(ctx, kvKey, []byte("1")); err != nil {
		return fmt.Errorf("%w: mark session removed: %v", model.ErrRelayUnavailable, err)
	}

	if err := kv.Delete(ctx, kvKey); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("%w: remove session: %v", model.ErrRelayUnavailable, err)
	}
	return nil
}

// SetPlan updates a session's plan text.
func (r *Relay) SetPlan(ctx context.Context, repo string, key model.SessionKey, plan string) error {
	return r.mutateSession(ctx, repo, key, func(rec *sessionRecord) { rec.Plan = plan })
}

// SetMesg updates a session's messages_enabled flag.
func (r *Relay) SetMesg(ctx context.Context, repo string, key model.SessionKey, enabled bool) error {
	return r.mutateSession(ctx, repo, key, func(rec *sessionRecord) { rec.MessagesEnabled = enabled })
}

func (r *Relay) mutateSession(ctx context.Context, repo string, key model.SessionKey, mutate func(*sessionRecord)) error {
	kv, err := r.sessionKV(ctx, repo)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrRelayUnavailable, err)
	}

	entry, err := kv.Get(ctx, sessionKVKey(key.User, key.TTY))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("%w: unknown session %s", model.ErrInternal, key)
		}
		return fmt.Errorf("%w: %v", model.ErrRelayUnavailable, err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(entry.Value(), &rec); err != nil {
		return fmt.Errorf("%w: decode session: %v", model.ErrInternal, err)
	}
	mutate(&rec)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: marshal session: %v", model.ErrInternal, err)
	}
	if _, err := kv.Put(ctx, sessionKVKey(key.User, key.TTY), data); err != nil {
		return fmt.Errorf("%w: %v", model.ErrRelayUnavailable, err)
	}
	return nil
}
