package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the per-repo configuration file, TOML-shaped per the
// specification:
//
//	[team]   members = ["login", ...]
//	[relay]  url = "scheme://host:port"            # omit -> LocalRelay
//	         token = "..."                         # at most one of:
//	         nkeys_seed = "/abs/path"
//	         user_credentials = "/abs/path"
type Config struct {
	Team  TeamConfig  `toml:"team"`
	Relay RelayConfig `toml:"relay"`
}

// TeamConfig lists the repository's known members.
type TeamConfig struct {
	Members []string `toml:"members"`
}

// RelayConfig selects and authenticates a Relay backend. An empty URL
// selects LocalRelay; otherwise ClusterRelay is used. At most one
// authentication field may be set.
type RelayConfig struct {
	URL             string `toml:"url"`
	Token           string `toml:"token"`
	NkeysSeed       string `toml:"nkeys_seed"`
	UserCredentials string `toml:"user_credentials"`
}

// UsesCluster reports whether this configuration selects ClusterRelay.
func (c RelayConfig) UsesCluster() bool {
	return c.URL != ""
}

// Validate enforces the "at most one of token/nkeys_seed/user_credentials"
// rule.
func (c RelayConfig) Validate() error {
	set := 0
	if c.Token != "" {
		set++
	}
	if c.NkeysSeed != "" {
		set++
	}
	if c.UserCredentials != "" {
		set++
	}
	if set > 1 {
		return fmt.Errorf("relay config: at most one of token, nkeys_seed, user_credentials may be set")
	}
	return nil
}

// Load reads and decodes the per-repo TOML config at the given path. A
// missing file yields a zero-value Config (LocalRelay, no team list) and no
// error, since the config file is optional.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Relay.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadForDirectory loads the per-repo config for the repository containing
// directory, using the standard ".biff/config.toml" location.
func LoadForDirectory(directory string) (*Config, error) {
	return Load(ProjectConfigPath(directory))
}
