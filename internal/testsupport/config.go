// Package testsupport provides shared helpers for dubmux tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"dubmux/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.HistoryDBPath = filepath.Join(base, "history.db")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithPreferredLanguage overrides the preferred video audio language.
func WithPreferredLanguage(language string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Merge.PreferredLanguage = language
	}
}

// WithHistoryDisabled turns off merge history persistence.
func WithHistoryDisabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.History.Enabled = false
	}
}
