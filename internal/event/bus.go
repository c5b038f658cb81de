// Package event provides a small pub/sub bus, built on watermill's
// gochannel transport, that decouples the awareness engine's unread-count
// detection from the surfaces that react to a change (tool-description
// mutation and tools/list_changed notification); the status file is written
// by the engine directly, not through the bus.
package event

import (
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Type names the kind of event carried on the bus.
type Type string

// UnreadChanged fires whenever a session's unread message count changes,
// carrying an UnreadChangedData payload.
const UnreadChanged Type = "unread.changed"

// UnreadChangedData is the payload of an UnreadChanged event.
type UnreadChangedData struct {
	Session string // SessionKey.String() of the affected session
	Count   int
	Preview string // body of the oldest unread message cut to 40 runes, if any
}

// Event is one message published on the bus.
type Event struct {
	Type Type
	Data any
}

// Subscriber receives published events.
type Subscriber func(Event)

type subscriberEntry struct {
	id uint64
	fn Subscriber
}

// Bus is a single process's event bus. biff constructs exactly one Bus in
// the startup path and passes it to the awareness engine through
// server.Deps; no package-level global instance exists.
type Bus struct {
	mu          sync.RWMutex
	pubsub      *gochannel.GoChannel
	subscribers map[Type][]subscriberEntry
	nextID      uint64
	closed      bool
}

// NewBus creates a new, ready-to-use event bus.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 16, Persistent: false},
			watermill.NopLogger{},
		),
		subscribers: make(map[Type][]subscriberEntry),
	}
}

// Subscribe registers fn for events of the given type, returning an
// unsubscribe function.
func (b *Bus) Subscribe(t Type, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := atomic.AddUint64(&b.nextID, 1)
	b.subscribers[t] = append(b.subscribers[t], subscriberEntry{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[t]
		for i, e := range subs {
			if e.id == id {
				b.subscribers[t] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// PublishSync delivers ev to every current subscriber of its type,
// synchronously, in the calling goroutine. The awareness engine uses this
// exclusively: ordering between "count changed" and "surfaces updated"
// matters, and each subscriber is required to return quickly.
func (b *Bus) PublishSync(ev Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := make([]Subscriber, len(b.subscribers[ev.Type]))
	for i, e := range b.subscribers[ev.Type] {
		subs[i] = e.fn
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		sub(ev)
	}
}

// Close releases the bus's underlying watermill pub/sub and drops all
// subscribers.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.subscribers = make(map[Type][]subscriberEntry)
	b.mu.Unlock()

	return b.pubsub.Close()
}
