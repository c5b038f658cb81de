package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/biffhq/biff/internal/model"
)

// eventRecord is the JSON payload published to the wtmp subject.
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

// LogEvent publishes one login/logout record onto this repository's
// session-history stream. Retention is time-bounded by wtmpStreamTTL at
// the stream level rather than by line count.
func (r *Relay) LogEvent(ctx context.Context, repo string, ev model.SessionEvent) error {
	if _, err := r.wtmpStream(ctx, repo); err != nil {
		return fmt.Errorf("%w: %v", model.ErrRelayUnavailable, err)
	}

	data, err := json.Marshal(toEventRecord(ev))
	if err != nil {
		return fmt.Errorf("%w: marshal event: %v", model.ErrInternal, err)
	}
	if _, err := r.js.Publish(ctx, wtmpSubject(repo), data); err != nil {
		return fmt.Errorf("%w: log event: %v", model.ErrRelayUnavailable, err)
	}
	return nil
}

// historyReadBatch is the fetch size used when replaying session history:
// unlike the inbox streams, reading history is non-destructive, so one
// ephemeral ordered consumer per call is enough.
const historyReadBatch = 4096

// RecentEvents replays the stream from the start and returns the newest
// `limit` events, optionally filtered to one login.
func (r *Relay) RecentEvents(ctx context.Context, repo, login string, limit int) ([]model.SessionEvent, error) {
	stream, err := r.wtmpStream(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRelayUnavailable, err)
	}

	consumer, err := stream.OrderedConsumer(ctx, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{wtmpSubject(repo)},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: provision history reader: %v", model.ErrRelayUnavailable, err)
	}

	var all []model.SessionEvent
	for {
		batch, err := consumer.Fetch(historyReadBatch, jetstream.FetchMaxWait(inboxFetchWait))
		if err != nil {
			return nil, fmt.Errorf("%w: read history: %v", model.ErrRelayUnavailable, err)
		}

		got := 0
		for msg := range batch.Messages() {
			got++
			var rec eventRecord
			if err := json.Unmarshal(msg.Data(), &rec); err != nil {
				continue
			}
			ev := rec.toModel()
			if login != "" && ev.Session.User != login {
				continue
			}
			all = append(all, ev)
		}
		if got < historyReadBatch {
			break
		}
	}

	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
