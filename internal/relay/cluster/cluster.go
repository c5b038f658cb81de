// Package cluster implements relay.Relay over NATS JetStream: one key/value
// bucket per repository for live sessions, and two JetStream streams per
// repository — inbox messages and session-history events. Inboxes are
// drained through durable, explicit-ack consumers so a message is handed to
// exactly one drainer and never redelivered; session history is read
// non-destructively through an ephemeral ordered consumer per call.
package cluster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	connectTimeout  = 10 * time.Second
	reconnectWait   = 2 * time.Second
	maxReconnects   = -1 // retry forever; outages are expected, not fatal
	sessionKVTTL    = 30 * 24 * time.Hour
	wtmpStreamTTL   = 30 * 24 * time.Hour
	inboxFetchWait  = 2 * time.Second
	provisionMaxElapsed = 30 * time.Second
	// tombstoneTTL only needs to outlive the gap between an explicit
	// RemoveSession's Delete and every live watcher observing it.
	tombstoneTTL = 5 * time.Minute
)

// Options configures the NATS connection. config.RelayConfig.Validate
// enforces that at most one of Token, NkeysSeed, UserCredentials is set
// before it ever reaches New.
type Options struct {
	URL             string
	Token           string
	NkeysSeed       string
	UserCredentials string
	// ClientName identifies this connection in server-side monitoring,
	// conventionally "biff-{repo}-{login}". Optional.
	ClientName string
}

// Relay is the NATS JetStream-backed implementation of relay.Relay.
// Buckets and streams are provisioned lazily, once per repository, and
// cached for the life of the connection.
type Relay struct {
	nc *nats.Conn
	js jetstream.JetStream

	mu              sync.Mutex
	sessionBuckets  map[string]jetstream.KeyValue
	tombstoneBuckets map[string]jetstream.KeyValue
	inboxStreams    map[string]jetstream.Stream
	wtmpStreams     map[string]jetstream.Stream
}

// New connects to the NATS server described by opts and wraps it in a
// JetStream context. The connection itself uses NATS's built-in
// reconnect loop; provisioning of per-repo buckets/streams on top of an
// established connection is retried with exponential backoff, since a
// freshly (re)connected server may not have finished electing a JetStream
// leader yet.
func New(ctx context.Context, opts Options) (*Relay, error) {
	natsOpts := []nats.Option{
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(true),
	}
	if opts.ClientName != "" {
		natsOpts = append(natsOpts, nats.Name(opts.ClientName))
	}
	switch {
	case opts.UserCredentials != "":
		natsOpts = append(natsOpts, nats.UserCredentials(opts.UserCredentials))
	case opts.NkeysSeed != "":
		opt, err := nats.NkeyOptionFromSeed(opts.NkeysSeed)
		if err != nil {
			return nil, fmt.Errorf("load nkeys seed: %w", err)
		}
		natsOpts = append(natsOpts, opt)
	case opts.Token != "":
		natsOpts = append(natsOpts, nats.Token(opts.Token))
	}

	nc, err := nats.Connect(opts.URL, natsOpts...)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", opts.URL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("open jetstream context: %w", err)
	}

	return &Relay{
		nc:               nc,
		js:               js,
		sessionBuckets:   make(map[string]jetstream.KeyValue),
		tombstoneBuckets: make(map[string]jetstream.KeyValue),
		inboxStreams:     make(map[string]jetstream.Stream),
		wtmpStreams:      make(map[string]jetstream.Stream),
	}, nil
}

// Close drains and closes the underlying NATS connection.
func (r *Relay) Close() error {
	if r.nc == nil {
		return nil
	}
	return r.nc.Drain()
}

func provisionBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = provisionMaxElapsed
	return backoff.WithContext(b, ctx)
}

func sessionBucketName(repo string) string   { return "biff-" + repo + "-sessions" }
func tombstoneBucketName(repo string) string { return "biff-" + repo + "-removed" }
func inboxStreamName(repo string) string     { return "BIFF_" + repo + "_INBOX" }
func wtmpStreamName(repo string) string      { return "BIFF_" + repo + "_WTMP" }

// sessionKV returns the per-repo session bucket, creating it on first use.
func (r *Relay) sessionKV(ctx context.Context, repo string) (jetstream.KeyValue, error) {
	r.mu.Lock()
	if kv, ok := r.sessionBuckets[repo]; ok {
		r.mu.Unlock()
		return kv, nil
	}
	r.mu.Unlock()

	var kv jetstream.KeyValue
	op := func() error {
		var err error
		kv, err = r.js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket: sessionBucketName(repo),
			TTL:    sessionKVTTL,
		})
		return err
	}
	if err := backoff.Retry(op, provisionBackoff(ctx)); err != nil {
		return nil, fmt.Errorf("provision session bucket for %s: %w", repo, err)
	}

	r.mu.Lock()
	r.sessionBuckets[repo] = kv
	r.mu.Unlock()
	return kv, nil
}

// tombstoneKV returns the per-repo bucket RemoveSession marks a key in
// just before deleting it from the session bucket, so every live
// process's WatchExpirations can tell a graceful removal apart from a
// true TTL eviction of the same key. Entries expire on their own TTL;
// nothing ever explicitly deletes them, so marking one never produces a
// watch event a reader has to filter out in turn.
func (r *Relay) tombstoneKV(ctx context.Context, repo string) (jetstream.KeyValue, error) {
	r.mu.Lock()
	if kv, ok := r.tombstoneBuckets[repo]; ok {
		r.mu.Unlock()
		return kv, nil
	}
	r.mu.Unlock()

	var kv jetstream.KeyValue
	op := func() error {
		var err error
		kv, err = r.js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket: tombstoneBucketName(repo),
			TTL:    tombstoneTTL,
		})
		return err
	}
	if err := backoff.Retry(op, provisionBackoff(ctx)); err != nil {
		return nil, fmt.Errorf("provision tombstone bucket for %s: %w", repo, err)
	}

	r.mu.Lock()
	r.tombstoneBuckets[repo] = kv
	r.mu.Unlock()
	return kv, nil
}

// inboxStream returns the per-repo inbox stream, creating it on first use.
// Subjects are addressed "biff.{repo}.inbox.{login}" (broadcast) or
// "biff.{repo}.inbox.{login}.{tty}" (targeted): a 4-token vs 5-token split
// on the same stream, filtered per-consumer.
func (r *Relay) inboxStream(ctx context.Context, repo string) (jetstream.Stream, error) {
	r.mu.Lock()
	if s, ok := r.inboxStreams[repo]; ok {
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	var stream jetstream.Stream
	op := func() error {
		var err error
		stream, err = r.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:      inboxStreamName(repo),
			Subjects:  []string{inboxSubjectPrefix(repo) + ".>"},
			Retention: jetstream.WorkQueuePolicy,
		})
		return err
	}
	if err := backoff.Retry(op, provisionBackoff(ctx)); err != nil {
		return nil, fmt.Errorf("provision inbox stream for %s: %w", repo, err)
	}

	r.mu.Lock()
	r.inboxStreams[repo] = stream
	r.mu.Unlock()
	return stream, nil
}

// wtmpStream returns the per-repo session-history stream, creating it on
// first use. Retention is time-bounded (wtmpStreamTTL), the cluster
// analogue of LocalRelay's line-count rotation.
func (r *Relay) wtmpStream(ctx context.Context, repo string) (jetstream.Stream, error) {
	r.mu.Lock()
	if s, ok := r.wtmpStreams[repo]; ok {
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	var stream jetstream.Stream
	op := func() error {
		var err error
		stream, err = r.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:      wtmpStreamName(repo),
			Subjects:  []string{"biff." + repo + ".wtmp.>"},
			Retention: jetstream.LimitsPolicy,
			MaxAge:    wtmpStreamTTL,
		})
		return err
	}
	if err := backoff.Retry(op, provisionBackoff(ctx)); err != nil {
		return nil, fmt.Errorf("provision wtmp stream for %s: %w", repo, err)
	}

	r.mu.Lock()
	r.wtmpStreams[repo] = stream
	r.mu.Unlock()
	return stream, nil
}

func inboxSubjectPrefix(repo string) string { return "biff." + repo + ".inbox" }

func wtmpSubject(repo string) string { return "biff." + repo + ".wtmp.events" }
