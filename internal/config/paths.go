// Package config provides per-repo TOML configuration loading and
// standard path management for biff.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Paths contains the standard XDG paths for biff's own state.
type Paths struct {
	Data   string // ~/.local/share/biff
	Config string // ~/.config/biff
	Cache  string // ~/.cache/biff
	State  string // ~/.local/state/biff
}

// GetPaths returns the standard XDG paths for biff.
func GetPaths() *Paths {
	return &Paths{
		Data:   filepath.Join(getEnvOrDefault("XDG_DATA_HOME", defaultDataHome()), "biff"),
		Config: filepath.Join(getEnvOrDefault("XDG_CONFIG_HOME", defaultConfigHome()), "biff"),
		Cache:  filepath.Join(getEnvOrDefault("XDG_CACHE_HOME", defaultCacheHome()), "biff"),
		State:  filepath.Join(getEnvOrDefault("XDG_STATE_HOME", defaultStateHome()), "biff"),
	}
}

// EnsurePaths creates all required directories.
func (p *Paths) EnsurePaths() error {
	for _, dir := range []string{p.Data, p.Config, p.Cache, p.State} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// RelayDataPath returns the directory LocalRelay roots its per-repo state in.
func (p *Paths) RelayDataPath() string {
	return filepath.Join(p.Data, "relay")
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func defaultDataHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share")
}

func defaultConfigHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".config")
}

func defaultCacheHome() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "cache")
	}
	return filepath.Join(os.Getenv("HOME"), ".cache")
}

func defaultStateHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "state")
}

// HomeDotBiff returns the literal "{home}/.biff" directory the spec uses
// for the status-line collaborator's per-repository unread files,
// independent of XDG_* overrides.
func HomeDotBiff() string {
	return filepath.Join(os.Getenv("HOME"), ".biff")
}

// UnreadDir returns "{home}/.biff/unread", where per-repository unread
// status files live.
func UnreadDir() string {
	return filepath.Join(HomeDotBiff(), "unread")
}

// UnreadFilePath returns the unread status file path for a given
// sanitized repository name.
func UnreadFilePath(repoName string) string {
	return filepath.Join(UnreadDir(), repoName+".json")
}

// ProjectConfigPath returns the path to the per-repo TOML config file.
func ProjectConfigPath(directory string) string {
	return filepath.Join(directory, ".biff", "config.toml")
}
