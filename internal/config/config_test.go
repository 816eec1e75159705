package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"voicegrab/internal/config"
)

func TestDefaultValues(t *testing.T) {
	cfg := config.Default()
	require.EqualValues(t, 5, cfg.Store.ToleranceMs)
	require.Equal(t, 60, cfg.Store.MaxAgeMinutes)
	require.Equal(t, 30, cfg.Store.SweepIntervalMinutes)
	require.Equal(t, 32, cfg.Extractor.FallbackBitrateKbps)
	require.EqualValues(t, 500, cfg.Extractor.MinDurationMs)
	require.EqualValues(t, 1_200_000, cfg.Extractor.MaxDurationMs)
	require.True(t, cfg.History.Enabled)
	require.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
api_bind = "127.0.0.1:0"

[store]
tolerance_ms = 10
max_age_minutes = 120

[logging]
format = "json"
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, path, resolved)
	require.EqualValues(t, 10, cfg.Store.ToleranceMs)
	require.Equal(t, 120, cfg.Store.MaxAgeMinutes)
	require.Equal(t, "json", cfg.Logging.Format)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, filepath.Join(dir, "data"), cfg.Paths.DataDir)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)
	require.False(t, exists)
	require.EqualValues(t, 5, cfg.Store.ToleranceMs)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"tolerance too wide", func(c *config.Config) { c.Store.ToleranceMs = 5000 }},
		{"sweep exceeds max age", func(c *config.Config) {
			c.Store.SweepIntervalMinutes = 120
			c.Store.MaxAgeMinutes = 60
		}},
		{"inverted duration clamps", func(c *config.Config) {
			c.Extractor.MinDurationMs = 2_000_000
		}},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, config.CreateSample(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[store]")
	require.Contains(t, string(data), "tolerance_ms")
}

func TestDerivedDurations(t *testing.T) {
	cfg := config.Default()
	require.Equal(t, cfg.MaxRecordAge().Minutes(), 60.0)
	require.Equal(t, cfg.SweepInterval().Minutes(), 30.0)
	require.Equal(t, cfg.HistoryRetention().Hours(), 30.0*24)
}
