package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Missing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-such-file.toml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Team.Members)
	assert.False(t, cfg.Relay.UsesCluster())
}

func TestLoad_LocalRelayByOmission(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[team]
members = ["kai", "eric"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"kai", "eric"}, cfg.Team.Members)
	assert.False(t, cfg.Relay.UsesCluster())
}

func TestLoad_ClusterRelay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[relay]
url = "nats://relay.internal:4222"
token = "s3cr3t"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Relay.UsesCluster())
	assert.Equal(t, "s3cr3t", cfg.Relay.Token)
}

func TestLoad_RejectsMultipleAuthFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[relay]
url = "nats://relay.internal:4222"
token = "s3cr3t"
nkeys_seed = "/abs/path/seed.nk"
`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
