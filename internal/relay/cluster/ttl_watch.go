package cluster

import (
	"context"
	"errors"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/biffhq/biff/internal/model"
)

// WatchExpirations implements relay.TTLWatcher: it watches this
// repository's session bucket and reports every entry the bucket's own
// TTL aged out as an expiration. A key deleted by a call to
// RemoveSession (graceful shutdown, orphan reconciliation) produces the
// identical KeyValueDelete event but is first marked in the tombstone
// bucket by RemoveSession itself, so it's excluded here rather than
// reported a second time as reason=ttl.
func (r *Relay) WatchExpirations(ctx context.Context, repo string, onExpire func(model.SessionKey)) error {
	kv, err := r.sessionKV(ctx, repo)
	if err != nil {
		return err
	}
	tombstones, err := r.tombstoneKV(ctx, repo)
	if err != nil {
		return err
	}

	watcher, err := kv.WatchAll(ctx)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case entry, ok := <-watcher.Updates():
			if !ok {
				return nil
			}
			if entry == nil {
				continue // init-complete marker
			}
			if entry.Operation() != jetstream.KeyValueDelete && entry.Operation() != jetstream.KeyValuePurge {
				continue
			}
			if _, err := tombstones.Get(ctx, entry.Key()); err == nil {
				continue // explicit RemoveSession, not a TTL eviction
			} else if !errors.Is(err, jetstream.ErrKeyNotFound) {
				continue // can't tell; don't misreport as ttl
			}
			if key, ok := sessionKeyFromKVKey(entry.Key()); ok {
				onExpire(key)
			}
		}
	}
}

func sessionKeyFromKVKey(kvKey string) (model.SessionKey, bool) {
	parts := strings.SplitN(kvKey, ".", 2)
	if len(parts) != 2 {
		return model.SessionKey{}, false
	}
	return model.SessionKey{User: parts[0], TTY: parts[1]}, true
}
