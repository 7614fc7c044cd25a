package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lineascope.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults apply without any source", func(t *testing.T) {
		cfg, err := Load("", nil)

		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.ListenAddr)
		assert.Equal(t, "data/feed_loads.csv", cfg.DataPath)
		assert.True(t, cfg.Watch)
		assert.Equal(t, "snapshot", cfg.SearchScope)
		assert.Equal(t, 8*time.Second, cfg.PhysicsGrace)
		assert.Equal(t, 3*time.Second, cfg.GraceLR)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("config file overrides defaults", func(t *testing.T) {
		path := writeConfig(t, "listen: \":9000\"\nsearch_scope: all-snapshots\nphysics_grace: 12s\n")

		cfg, err := Load(path, nil)

		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.ListenAddr)
		assert.Equal(t, "all-snapshots", cfg.SearchScope)
		assert.Equal(t, 12*time.Second, cfg.PhysicsGrace)
		assert.Equal(t, 3*time.Second, cfg.GraceLR, "untouched keys keep their defaults")
	})

	t.Run("environment overrides the config file", func(t *testing.T) {
		path := writeConfig(t, "listen: \":9000\"\n")
		t.Setenv("LINEASCOPE_LISTEN", ":7000")

		cfg, err := Load(path, nil)

		require.NoError(t, err)
		assert.Equal(t, ":7000", cfg.ListenAddr)
	})

	t.Run("changed flags override everything", func(t *testing.T) {
		path := writeConfig(t, "listen: \":9000\"\n")
		t.Setenv("LINEASCOPE_LISTEN", ":7000")
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		RegisterFlags(flags)
		require.NoError(t, flags.Parse([]string{"--listen", ":6000", "--watch=false"}))

		cfg, err := Load(path, flags)

		require.NoError(t, err)
		assert.Equal(t, ":6000", cfg.ListenAddr)
		assert.False(t, cfg.Watch)
	})

	t.Run("unchanged flags do not mask lower sources", func(t *testing.T) {
		path := writeConfig(t, "listen: \":9000\"\n")
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		RegisterFlags(flags)
		require.NoError(t, flags.Parse(nil))

		cfg, err := Load(path, flags)

		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.ListenAddr, "flag default must not beat the config file")
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
		require.Error(t, err)
	})

	t.Run("per-snapshot scope is accepted", func(t *testing.T) {
		path := writeConfig(t, "search_scope: per-snapshot\n")
		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "per-snapshot", cfg.SearchScope)
	})

	t.Run("unknown search scope is rejected", func(t *testing.T) {
		path := writeConfig(t, "search_scope: everything\n")
		_, err := Load(path, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "search scope")
	})

	t.Run("non-positive grace is rejected", func(t *testing.T) {
		path := writeConfig(t, "physics_grace: 0s\n")
		_, err := Load(path, nil)
		require.Error(t, err)
	})
}
