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

// messageRecord is the JSON-on-disk shape of a model.Message.
type messageRecord struct {
	ID         string    `json:"id"`
	FromUser   string    `json:"from_user"`
	FromTTY    string    `json:"from_tty"`
	ToKind     string    `json:"to_kind"` // "user" | "session"
	ToLogin    string    `json:"to_login"`
	ToTTY      string    `json:"to_tty,omitempty"`
	Body       string    `json:"body"`
	SentAt     time.Time `json:"sent_at"`
}

func toMessageRecord(m model.Message) messageRecord {
	rec := messageRecord{
		ID:       m.ID,
		FromUser: m.FromSession.User,
		FromTTY:  m.FromSession.TTY,
		ToLogin:  m.To.Login,
		Body:     m.Body,
		SentAt:   m.SentAt,
	}
	if m.To.Kind == model.AddrUser {
		rec.ToKind = "user"
	} else {
		rec.ToKind = "session"
		rec.ToTTY = m.To.TTY
	}
	return rec
}

func (rec messageRecord) toModel() model.Message {
	to := model.InboxRef{Login: rec.ToLogin}
	if rec.ToKind == "session" {
		to.Kind = model.AddrSession
		to.TTY = rec.ToTTY
	} else {
		to.Kind = model.AddrUser
	}
	return model.Message{
		ID:          rec.ID,
		FromSession: model.SessionKey{User: rec.FromUser, TTY: rec.FromTTY},
		To:          to,
		Body:        rec.Body,
		SentAt:      rec.SentAt,
	}
}

// Deliver appends msg to the broadcast inbox if addressed to a User, else
// to the targeted per-session inbox.
func (r *Relay) Deliver(ctx context.Context, repo string, msg model.Message) error {
	var path string
	switch msg.To.Kind {
	case model.AddrUser:
		path = r.broadcastInboxPath(repo, msg.To.Login)
	case model.AddrSession:
		path = r.targetedInboxPath(repo, msg.To.Login, msg.To.TTY)
	default:
		return model.ErrInvalidAddress
	}

	if err := storage.AppendJSONL(path, toMessageRecord(msg)); err != nil {
		return fmt.Errorf("%w: deliver message: %v", model.ErrRelayUnavailable, err)
	}
	return nil
}

// DrainFor atomically drains both the broadcast inbox for login and the
// targeted inbox for (login,tty), merging and sorting by SentAt ascending.
func (r *Relay) DrainFor(ctx context.Context, repo, login, tty string) ([]model.Message, error) {
	broadcastLines, err := storage.DrainJSONL(r.broadcastInboxPath(repo, login))
	if err != nil {
		return nil, fmt.Errorf("%w: drain broadcast inbox: %v", model.ErrRelayUnavailable, err)
	}
	targetedLines, err := storage.DrainJSONL(r.targetedInboxPath(repo, login, tty))
	if err != nil {
		return nil, fmt.Errorf("%w: drain targeted inbox: %v", model.ErrRelayUnavailable, err)
	}

	msgs, err := decodeMessages(append(broadcastLines, targetedLines...))
	if err != nil {
		return nil, fmt.Errorf("%w: decode drained messages: %v", model.ErrRelayUnavailable, err)
	}
	sortMessages(msgs)
	return msgs, nil
}

// PeekUnreadCount reports the merged count DrainFor would return, without
// removing anything.
func (r *Relay) PeekUnreadCount(ctx context.Context, repo, login, tty string) (int, error) {
	broadcastLines, err := storage.ReadJSONL(r.broadcastInboxPath(repo, login))
	if err != nil {
		return 0, fmt.Errorf("%w: peek broadcast inbox: %v", model.ErrRelayUnavailable, err)
	}
	targetedLines, err := storage.ReadJSONL(r.targetedInboxPath(repo, login, tty))
	if err != nil {
		return 0, fmt.Errorf("%w: peek targeted inbox: %v", model.ErrRelayUnavailable, err)
	}
	return len(broadcastLines) + len(targetedLines), nil
}

// PeekPreview returns a short preview of the oldest pending message for
// (login, tty), without draining anything.
func (r *Relay) PeekPreview(ctx context.Context, repo, login, tty string) (string, error) {
	broadcastLines, err := storage.ReadJSONL(r.broadcastInboxPath(repo, login))
	if err != nil {
		return "", fmt.Errorf("%w: peek broadcast inbox: %v", model.ErrRelayUnavailable, err)
	}
	targetedLines, err := storage.ReadJSONL(r.targetedInboxPath(repo, login, tty))
	if err != nil {
		return "", fmt.Errorf("%w: peek targeted inbox: %v", model.ErrRelayUnavailable, err)
	}

	msgs, err := decodeMessages(append(broadcastLines, targetedLines...))
	if err != nil {
		return "", fmt.Errorf("%w: decode pending messages: %v", model.ErrRelayUnavailable, err)
	}
	if len(msgs) == 0 {
		return "", nil
	}
	sortMessages(msgs)
	return msgs[0].Body, nil
}

func decodeMessages(lines []json.RawMessage) ([]model.Message, error) {
	msgs := make([]model.Message, 0, len(lines))
	for _, line := range lines {
		var rec messageRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, err
		}
		msgs = append(msgs, rec.toModel())
	}
	return msgs, nil
}

func sortMessages(msgs []model.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].SentAt.Before(msgs[j].SentAt)
	})
}
