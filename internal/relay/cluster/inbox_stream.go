package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/biffhq/biff/internal/model"
)

// messageRecord is the JSON payload published on an inbox subject.
type messageRecord struct {
	ID       string    `json:"id"`
	FromUser string    `json:"from_user"`
	FromTTY  string    `json:"from_tty"`
	Body     string    `json:"body"`
	SentAt   time.Time `json:"sent_at"`
}

func toMessageRecord(m model.Message) messageRecord {
	return messageRecord{
		ID:       m.ID,
		FromUser: m.FromSession.User,
		FromTTY:  m.FromSession.TTY,
		Body:     m.Body,
		SentAt:   m.SentAt,
	}
}

func (rec messageRecord) toModel(to model.InboxRef) model.Message {
	return model.Message{
		ID:          rec.ID,
		FromSession: model.SessionKey{User: rec.FromUser, TTY: rec.FromTTY},
		To:          to,
		Body:        rec.Body,
		SentAt:      rec.SentAt,
	}
}

// userSubject is the 4-token broadcast subject: biff.{repo}.inbox.{login}
func userSubject(repo, login string) string {
	return inboxSubjectPrefix(repo) + "." + login
}

// sessionSubject is the 5-token targeted subject:
// biff.{repo}.inbox.{login}.{tty}
func sessionSubject(repo, login, tty string) string {
	return inboxSubjectPrefix(repo) + "." + login + "." + tty
}

func userConsumerName(login string) string        { return "drain_user_" + login }
func sessionConsumerName(login, tty string) string { return "drain_session_" + login + "_" + tty }

// Deliver publishes msg to the broadcast subject if addressed to a User,
// else to the targeted session subject.
func (r *Relay) Deliver(ctx context.Context, repo string, msg model.Message) error {
	if _, err := r.inboxStream(ctx, repo); err != nil {
		return fmt.Errorf("%w: %v", model.ErrRelayUnavailable, err)
	}

	var subject string
	switch msg.To.Kind {
	case model.AddrUser:
		subject = userSubject(repo, msg.To.Login)
	case model.AddrSession:
		subject = sessionSubject(repo, msg.To.Login, msg.To.TTY)
	default:
		return model.ErrInvalidAddress
	}

	data, err := json.Marshal(toMessageRecord(msg))
	if err != nil {
		return fmt.Errorf("%w: marshal message: %v", model.ErrInternal, err)
	}
	if _, err := r.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("%w: deliver message: %v", model.ErrRelayUnavailable, err)
	}
	return nil
}

// drainConsumer fetches and acks every pending message on a durable,
// explicit-ack, non-redelivering consumer, so concurrent drainers never
// both observe the same message.
func (r *Relay) drainConsumer(ctx context.Context, stream jetstream.Stream, name, subject string) ([]messageRecord, error) {
	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       name,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("provision consumer %s: %w", name, err)
	}

	batch, err := consumer.Fetch(256, jetstream.FetchMaxWait(inboxFetchWait))
	if err != nil {
		return nil, fmt.Errorf("fetch from %s: %w", name, err)
	}

	var recs []messageRecord
	for msg := range batch.Messages() {
		var rec messageRecord
		if err := json.Unmarshal(msg.Data(), &rec); err == nil {
			recs = append(recs, rec)
		}
		_ = msg.Ack()
	}
	if err := batch.Error(); err != nil && err != context.DeadlineExceeded {
		return recs, fmt.Errorf("drain %s: %w", name, err)
	}
	return recs, nil
}

// DrainFor drains both the broadcast consumer for login and the targeted
// consumer for (login,tty), merging and sorting by SentAt ascending.
func (r *Relay) DrainFor(ctx context.Context, repo, login, tty string) ([]model.Message, error) {
	stream, err := r.inboxStream(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRelayUnavailable, err)
	}

	broadcastRecs, err := r.drainConsumer(ctx, stream, userConsumerName(login), userSubject(repo, login))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRelayUnavailable, err)
	}
	targetedRecs, err := r.drainConsumer(ctx, stream, sessionConsumerName(login, tty), sessionSubject(repo, login, tty))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRelayUnavailable, err)
	}

	broadcastRef := model.InboxRef{Kind: model.AddrUser, Login: login}
	targetedRef := model.InboxRef{Kind: model.AddrSession, Login: login, TTY: tty}

	msgs := make([]model.Message, 0, len(broadcastRecs)+len(targetedRecs))
	for _, rec := range broadcastRecs {
		msgs = append(msgs, rec.toModel(broadcastRef))
	}
	for _, rec := range targetedRecs {
		msgs = append(msgs, rec.toModel(targetedRef))
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].SentAt.Before(msgs[j].SentAt)
	})
	return msgs, nil
}

// PeekUnreadCount reports pending message counts on both consumers without
// fetching or acking anything.
func (r *Relay) PeekUnreadCount(ctx context.Context, repo, login, tty string) (int, error) {
	stream, err := r.inboxStream(ctx, repo)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrRelayUnavailable, err)
	}

	broadcast, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       userConsumerName(login),
		FilterSubject: userSubject(repo, login),
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    1,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: provision broadcast consumer: %v", model.ErrRelayUnavailable, err)
	}
	targeted, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       sessionConsumerName(login, tty),
		FilterSubject: sessionSubject(repo, login, tty),
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    1,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: provision targeted consumer: %v", model.ErrRelayUnavailable, err)
	}

	broadcastInfo, err := broadcast.Info(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: broadcast consumer info: %v", model.ErrRelayUnavailable, err)
	}
	targetedInfo, err := targeted.Info(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: targeted consumer info: %v", model.ErrRelayUnavailable, err)
	}

	return int(broadcastInfo.NumPending) + int(targetedInfo.NumPending), nil
}

// peekOldestPending returns the oldest undelivered message on subject, via
// an ephemeral, AckPolicy-none consumer that never touches the durable
// drain consumer's delivery/ack state for that same subject, so peeking
// never changes what DrainFor later returns.
func (r *Relay) peekOldestPending(ctx context.Context, stream jetstream.Stream, subject string) (*messageRecord, error) {
	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject:     subject,
		AckPolicy:         jetstream.AckNonePolicy,
		DeliverPolicy:     jetstream.DeliverAllPolicy,
		InactiveThreshold: 30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("provision peek consumer for %s: %w", subject, err)
	}

	batch, err := consumer.Fetch(1, jetstream.FetchMaxWait(inboxFetchWait))
	if err != nil {
		return nil, fmt.Errorf("fetch peek for %s: %w", subject, err)
	}
	for msg := range batch.Messages() {
		var rec messageRecord
		if err := json.Unmarshal(msg.Data(), &rec); err == nil {
			return &rec, nil
		}
	}
	if err := batch.Error(); err != nil && err != context.DeadlineExceeded {
		return nil, fmt.Errorf("peek %s: %w", subject, err)
	}
	return nil, nil
}

// PeekPreview returns a non-destructive preview of the oldest pending
// message across both subjects, matching LocalRelay's semantics (the
// Relay interface's contract: oldest pending, never affecting what
// DrainFor later returns).
func (r *Relay) PeekPreview(ctx context.Context, repo, login, tty string) (string, error) {
	stream, err := r.inboxStream(ctx, repo)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrRelayUnavailable, err)
	}

	var candidates []messageRecord
	for _, subject := range []string{userSubject(repo, login), sessionSubject(repo, login, tty)} {
		rec, err := r.peekOldestPending(ctx, stream, subject)
		if err != nil || rec == nil {
			continue // no message pending on this subject
		}
		candidates = append(candidates, *rec)
	}
	if len(candidates) == 0 {
		return "", nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].SentAt.Before(candidates[j].SentAt)
	})
	return candidates[0].Body, nil
}
