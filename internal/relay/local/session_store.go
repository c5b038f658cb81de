package local

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/biffhq/biff/internal/model"
	"github.com/biffhq/biff/internal/storage"
)

// sessionRecord is the JSON-on-disk shape of a model.UserSession.
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

func toRecord(s model.UserSession) sessionRecord {
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

// PutSession upserts the caller's session snapshot.
func (r *Relay) PutSession(ctx context.Context, repo string, s model.UserSession) error {
	key := []string{repo, sessionRecordKey(s.Key.User, s.Key.TTY)}
	if err := r.store.Put(ctx, key, toRecord(s)); err != nil {
		return fmt.Errorf("%w: put session: %v", model.ErrRelayUnavailable, err)
	}
	return nil
}

// TouchSession refreshes last_active to now, leaving everything else
// unchanged.
func (r *Relay) TouchSession(ctx context.Context, repo string, key model.SessionKey, now time.Time) error {
	path := []string{repo, sessionRecordKey(key.User, key.TTY)}
	var rec sessionRecord
	if err := r.store.Get(ctx, path, &rec); err != nil {
		if err == storage.ErrNotFound {
			return fmt.Errorf("%w: touch unknown session %s", model.ErrInternal, key)
		}
		return fmt.Errorf("%w: touch session: %v", model.ErrRelayUnavailable, err)
	}
	if now.After(rec.LastActive) {
		rec.LastActive = now
	}
	if err := r.store.Put(ctx, path, rec); err != nil {
		return fmt.Errorf("%w: touch session: %v", model.ErrRelayUnavailable, err)
	}
	return nil
}

// ListSessions returns every non-stale session in repo.
func (r *Relay) ListSessions(ctx context.Context, repo string) ([]model.UserSession, error) {
	var sessions []model.UserSession
	cutoff := time.Now().Add(-StaleAfter)

	err := r.store.Scan(ctx, []string{repo}, func(key string, data json.RawMessage) error {
		var rec sessionRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil // skip corrupt/unrelated files
		}
		if rec.LastActive.Before(cutoff) {
			return nil // stale, ignored per §4.2
		}
		sessions = append(sessions, rec.toModel())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", model.ErrRelayUnavailable, err)
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

// RemoveSession deletes a session's on-disk snapshot.
func (r *Relay) RemoveSession(ctx context.Context, repo string, key model.SessionKey) error {
	path := []string{repo, sessionRecordKey(key.User, key.TTY)}
	if err := r.store.Delete(ctx, path); err != nil {
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
	path := []string{repo, sessionRecordKey(key.User, key.TTY)}
	var rec sessionRecord
	if err := r.store.Get(ctx, path, &rec); err != nil {
		if err == storage.ErrNotFound {
			return fmt.Errorf("%w: unknown session %s", model.ErrInternal, key)
		}
		return fmt.Errorf("%w: %v", model.ErrRelayUnavailable, err)
	}
	mutate(&rec)
	if err := r.store.Put(ctx, path, rec); err != nil {
		return fmt.Errorf("%w: %v", model.ErrRelayUnavailable, err)
	}
	return nil
}
