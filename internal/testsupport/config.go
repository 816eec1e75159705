package testsupport

import (
	"path/filepath"
	"testing"

	"voicegrab/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithTolerance overrides the duration-match tolerance on the test config.
func WithTolerance(ms int64) ConfigOption {
	return func(c *config.Config) {
		c.Store.ToleranceMs = ms
	}
}

// WithHistoryDisabled turns the history archive off on the test config.
func WithHistoryDisabled() ConfigOption {
	return func(c *config.Config) {
		c.History.Enabled = false
	}
}
