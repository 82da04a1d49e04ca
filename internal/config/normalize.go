package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeFolders(); err != nil {
		return err
	}
	c.normalizeRoutes()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OrganizeRoot) == "" {
		c.Paths.OrganizeRoot = defaultOrganizeRoot
	}
	if c.Paths.OrganizeRoot, err = expandPath(c.Paths.OrganizeRoot); err != nil {
		return fmt.Errorf("paths.organize_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CredentialsFile) != "" {
		if c.Paths.CredentialsFile, err = expandPath(c.Paths.CredentialsFile); err != nil {
			return fmt.Errorf("paths.credentials_file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeFolders() error {
	for i := range c.WatchedFolders {
		folder := &c.WatchedFolders[i]
		folder.Path = strings.TrimSpace(folder.Path)
		folder.CredentialRef = strings.TrimSpace(folder.CredentialRef)
		folder.Kind = FolderKind(strings.ToLower(strings.TrimSpace(string(folder.Kind))))
		if folder.Kind == "" {
			folder.Kind = FolderLocal
		}
		// UNC paths keep their literal form; only local paths are expanded.
		if folder.Kind == FolderLocal && folder.Path != "" {
			expanded, err := expandPath(folder.Path)
			if err != nil {
				return fmt.Errorf("watched_folders[%d].path: %w", i, err)
			}
			folder.Path = expanded
		}
	}
	return nil
}

func (c *Config) normalizeRoutes() {
	normalized := make(map[string][]string, len(c.Routes))
	for category, extensions := range c.Routes {
		category = strings.TrimSpace(category)
		cleaned := make([]string, 0, len(extensions))
		for _, ext := range extensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			ext = strings.TrimPrefix(ext, ".")
			if ext == "" {
				continue
			}
			cleaned = append(cleaned, ext)
		}
		normalized[category] = cleaned
	}
	c.Routes = normalized

	for i := range c.TagRules {
		c.TagRules[i].Match = strings.TrimSpace(c.TagRules[i].Match)
		c.TagRules[i].Category = strings.TrimSpace(c.TagRules[i].Category)
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("CURATOR_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
