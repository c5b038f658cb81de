package tool

import (
	"context"
	"sync"
	"time"

	"github.com/biffhq/biff/internal/model"
)

// fakeRelay is an in-memory relay.Relay fake for tool-handler tests.
type fakeRelay struct {
	mu       sync.Mutex
	sessions map[string]model.UserSession
	inbox    []model.Message
	events   []model.SessionEvent

	failDeliver bool
	failDrain   bool
	failList    bool
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{sessions: make(map[string]model.UserSession)}
}

func (r *fakeRelay) PutSession(_ context.Context, _ string, s model.UserSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.Key.String()] = s
	return nil
}
func (r *fakeRelay) TouchSession(_ context.Context, _ string, key model.SessionKey, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sessions[key.String()]
	s.Touch(now)
	r.sessions[key.String()] = s
	return nil
}
func (r *fakeRelay) ListSessions(_ context.Context, _ string) ([]model.UserSession, error) {
	if r.failList {
		return nil, model.ErrRelayUnavailable
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.UserSession
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out, nil
}
func (r *fakeRelay) GetSession(_ context.Context, _, login string) (model.UserSession, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.Login == login {
			return s, true, nil
		}
	}
	return model.UserSession{}, false, nil
}
func (r *fakeRelay) RemoveSession(_ context.Context, _ string, key model.SessionKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, key.String())
	return nil
}
func (r *fakeRelay) SetPlan(_ context.Context, _ string, key model.SessionKey, plan string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sessions[key.String()]
	s.Plan = plan
	r.sessions[key.String()] = s
	return nil
}
func (r *fakeRelay) SetMesg(_ context.Context, _ string, key model.SessionKey, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sessions[key.String()]
	s.MessagesEnabled = enabled
	r.sessions[key.String()] = s
	return nil
}
func (r *fakeRelay) Deliver(_ context.Context, _ string, msg model.Message) error {
	if r.failDeliver {
		return model.ErrRelayUnavailable
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inbox = append(r.inbox, msg)
	return nil
}
func (r *fakeRelay) DrainFor(_ context.Context, _, login, tty string) ([]model.Message, error) {
	if r.failDrain {
		return nil, model.ErrRelayUnavailable
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Message
	var rest []model.Message
	for _, m := range r.inbox {
		if m.To.Kind == model.AddrUser && m.To.Login == login {
			out = append(out, m)
			continue
		}
		if m.To.Kind == model.AddrSession && m.To.Login == login && m.To.TTY == tty {
			out = append(out, m)
			continue
		}
		rest = append(rest, m)
	}
	r.inbox = rest
	return out, nil
}
func (r *fakeRelay) PeekUnreadCount(ctx context.Context, repo, login, tty string) (int, error) {
	msgs, err := r.peek(login, tty)
	return len(msgs), err
}
func (r *fakeRelay) PeekPreview(ctx context.Context, repo, login, tty string) (string, error) {
	msgs, err := r.peek(login, tty)
	if err != nil || len(msgs) == 0 {
		return "", err
	}
	return msgs[0].Body, nil
}
func (r *fakeRelay) peek(login, tty string) ([]model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Message
	for _, m := range r.inbox {
		if m.To.Kind == model.AddrUser && m.To.Login == login {
			out = append(out, m)
		}
		if m.To.Kind == model.AddrSession && m.To.Login == login && m.To.TTY == tty {
			out = append(out, m)
		}
	}
	return out, nil
}
func (r *fakeRelay) LogEvent(_ context.Context, _ string, ev model.SessionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}
func (r *fakeRelay) RecentEvents(_ context.Context, _, login string, limit int) ([]model.SessionEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.SessionEvent
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		if login == "" || r.events[i].Session.User == login {
			out = append(out, r.events[i])
		}
	}
	return out, nil
}
func (r *fakeRelay) Close() error { return nil }
