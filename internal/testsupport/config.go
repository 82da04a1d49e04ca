// Package testsupport provides builders shared across package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"curator/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OrganizeRoot = filepath.Join(base, "organized")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Watcher.DebounceMs = 50
	cfg.Watcher.ProbeIntervalSeconds = 1
	cfg.Retry.BaseDelayMs = 10
	cfg.Retry.MaxDelayMs = 100

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithRoutes replaces the routing table on the test config.
func WithRoutes(routes map[string][]string) ConfigOption {
	return func(c *config.Config) {
		c.Routes = routes
	}
}

// WithHistoryCapacity overrides the move history capacity.
func WithHistoryCapacity(capacity int) ConfigOption {
	return func(c *config.Config) {
		c.History.Capacity = capacity
	}
}

// WithWatchedFolder appends an enabled local watched folder.
func WithWatchedFolder(path string, recursive bool) ConfigOption {
	return func(c *config.Config) {
		c.WatchedFolders = append(c.WatchedFolders, config.WatchedFolder{
			Path:      path,
			Recursive: recursive,
			Enabled:   true,
			Kind:      config.FolderLocal,
		})
	}
}
