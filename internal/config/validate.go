package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. A failure here must abort
// startup; the engine never runs against a partially valid configuration.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRoutes(); err != nil {
		return err
	}
	if err := c.validateFolders(); err != nil {
		return err
	}
	if err := c.validateTiming(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OrganizeRoot) == "" {
		return errors.New("paths.organize_root must be set")
	}
	return nil
}

func (c *Config) validateRoutes() error {
	claimed := make(map[string]string)
	for category, extensions := range c.Routes {
		if category == "" {
			return errors.New("routes: category name must not be empty")
		}
		for _, ext := range extensions {
			if owner, ok := claimed[ext]; ok && owner != category {
				return fmt.Errorf("routes: extension %q claimed by both %q and %q", ext, owner, category)
			}
			claimed[ext] = category
		}
	}
	for i, rule := range c.TagRules {
		if rule.Match == "" {
			return fmt.Errorf("tag_rules[%d].match must not be empty", i)
		}
		if rule.Category == "" {
			return fmt.Errorf("tag_rules[%d].category must not be empty", i)
		}
	}
	return nil
}

func (c *Config) validateFolders() error {
	for i, folder := range c.WatchedFolders {
		if folder.Path == "" {
			return fmt.Errorf("watched_folders[%d].path must be set", i)
		}
		switch folder.Kind {
		case FolderLocal, FolderUNC:
		default:
			return fmt.Errorf("watched_folders[%d].kind must be %q or %q, got %q", i, FolderLocal, FolderUNC, folder.Kind)
		}
	}
	return nil
}

func (c *Config) validateTiming() error {
	return ensurePositiveMap(map[string]int{
		"retry.base_delay_ms":            c.Retry.BaseDelayMs,
		"retry.max_delay_ms":             c.Retry.MaxDelayMs,
		"retry.max_attempts":             c.Retry.MaxAttempts,
		"history.capacity":               c.History.Capacity,
		"watcher.debounce_ms":            c.Watcher.DebounceMs,
		"watcher.probe_interval_seconds": c.Watcher.ProbeIntervalSeconds,
		"watcher.settle_checks":          c.Watcher.SettleChecks,
		"cleanup.interval_minutes":       c.Cleanup.IntervalMinutes,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", key, value)
		}
	}
	return nil
}
