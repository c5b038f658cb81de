package relay

import (
	"context"
	"fmt"

	"github.com/biffhq/biff/internal/config"
	"github.com/biffhq/biff/internal/relay/cluster"
	"github.com/biffhq/biff/internal/relay/local"
)

// New selects LocalRelay or ClusterRelay based on the presence of a relay
// URL in the per-repo configuration, per spec.md §9 ("Duck-typed relay...
// Formalize into the capability set... with a single factory that selects
// by presence of a relay URL in config").
func New(ctx context.Context, cfg config.RelayConfig, dataDir string) (Relay, error) {
	if !cfg.UsesCluster() {
		return local.New(dataDir)
	}

	opts := cluster.Options{
		URL:             cfg.URL,
		Token:           cfg.Token,
		NkeysSeed:       cfg.NkeysSeed,
		UserCredentials: cfg.UserCredentials,
	}
	r, err := cluster.New(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect cluster relay: %w", err)
	}
	return r, nil
}
