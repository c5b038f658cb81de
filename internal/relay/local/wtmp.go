package local

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/biffhq/biff/internal/model"
	"github.com/biffhq/biff/internal/storage"
)

// eventRecord is the JSON-on-disk shape of a model.SessionEvent.
type eventRecord struct {
	Kind      string    `json:"kind"`
	User      string    `json:"user"`
	TTY       string    `json:"tty"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason,omitempty"`
}

func toEventRecord(ev model.SessionEvent) eventRecord {
	return eventRecord{
		Kind:      string(ev.Kind),
		User:      ev.Session.User,
		TTY:       ev.Session.TTY,
		Timestamp: ev.Timestamp,
		Reason:    string(ev.Reason),
	}
}

func (rec eventRecord) toModel() model.SessionEvent {
	return model.SessionEvent{
		Kind:      model.EventKind(rec.Kind),
		Session:   model.SessionKey{User: rec.User, TTY: rec.TTY},
		Timestamp: rec.Timestamp,
		Reason:    model.LogoutReason(rec.Reason),
	}
}

// LogEvent appends one login/logout record to this repository's
// session-history log, rotating by line count once it exceeds MaxWtmpLines.
func (r *Relay) LogEvent(ctx context.Context, repo string, ev model.SessionEvent) error {
	if err := storage.AppendJSONLBounded(r.wtmpPath(repo), toEventRecord(ev), MaxWtmpLines); err != nil {
		return fmt.Errorf("%w: log event: %v", model.ErrRelayUnavailable, err)
	}
	return nil
}

// RecentEvents returns the newest `limit` events, newest first, optionally
// filtered to one login.
func (r *Relay) RecentEvents(ctx context.Context, repo string, login string, limit int) ([]model.SessionEvent, error) {
	lines, err := storage.ReadJSONL(r.wtmpPath(repo))
	if err != nil {
		return nil, fmt.Errorf("%w: read session history: %v", model.ErrRelayUnavailable, err)
	}

	var all []model.SessionEvent
	for _, line := range lines {
		var rec eventRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		ev := rec.toModel()
		if login != "" && ev.Session.User != login {
			continue
		}
		all = append(all, ev)
	}

	// wtmp is append-only in chronological order; reverse for newest-first.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
