// Package config loads biff's per-repository TOML configuration file and
// resolves the standard XDG paths biff uses for its own state.
//
// # Configuration file
//
// Each repository may carry a ".biff/config.toml" file:
//
//	[team]
//	members = ["kai", "eric"]
//
//	[relay]
//	url = "nats://relay.example.internal:4222"
//	token = "..."
//
// Omitting [relay] (or its url) selects LocalRelay; [relay] with a url
// selects ClusterRelay. At most one of token, nkeys_seed, and
// user_credentials may be set.
//
// The loader treats a missing config file as valid — it yields a
// LocalRelay-scoped, team-less configuration rather than an error, since
// biff works standalone in any repository.
package config
