package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths_HomeOverride(t *testing.T) {
	base := t.TempDir()
	t.Setenv("STANDUPBOT_HOME", base)

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, base, p.Base)
	assert.Equal(t, filepath.Join(base, "config.yaml"), p.Config)
	assert.Equal(t, filepath.Join(base, "data"), p.Data)
	assert.Equal(t, filepath.Join(base, "logs"), p.Logs)
}

func TestEnsureDirs(t *testing.T) {
	t.Setenv("STANDUPBOT_HOME", filepath.Join(t.TempDir(), "nested"))

	p, err := ResolvePaths()
	require.NoError(t, err)
	require.NoError(t, p.EnsureDirs())

	for _, d := range []string{p.Base, p.Data, p.Logs} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestRosterPath(t *testing.T) {
	p := Paths{Data: "/var/lib/standupbot"}
	assert.Equal(t, "/var/lib/standupbot/roster.db", p.RosterPath(RosterConfig{}))
	assert.Equal(t, "/tmp/r.db", p.RosterPath(RosterConfig{Path: "/tmp/r.db"}))
}

func TestParseConfigPath(t *testing.T) {
	parts, err := ParseConfigPath("session.ttl")
	require.NoError(t, err)
	assert.Equal(t, []string{"session", "ttl"}, parts)

	_, err = ParseConfigPath("")
	assert.Error(t, err)

	_, err = ParseConfigPath("session..ttl")
	assert.Error(t, err)
}

func TestGetSetValueAtPath(t *testing.T) {
	root := map[string]any{"admin": "flat"}

	SetValueAtPath(root, []string{"admin", "port"}, 9000)
	v, ok := GetValueAtPath(root, []string{"admin", "port"})
	require.True(t, ok)
	assert.Equal(t, 9000, v)

	_, ok = GetValueAtPath(root, []string{"admin", "missing"})
	assert.False(t, ok)
}
