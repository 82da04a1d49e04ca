package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// FolderKind distinguishes local directories from UNC network shares.
type FolderKind string

const (
	FolderLocal FolderKind = "local"
	FolderUNC   FolderKind = "unc"
)

// DefaultCategory receives files no route claims.
const DefaultCategory = "Other"

// Paths contains directory configuration.
type Paths struct {
	OrganizeRoot    string `toml:"organize_root"`
	StateDir        string `toml:"state_dir"`
	LogDir          string `toml:"log_dir"`
	CredentialsFile string `toml:"credentials_file"`
}

// WatchedFolder describes one monitored directory.
type WatchedFolder struct {
	Path          string     `toml:"path"`
	Recursive     bool       `toml:"recursive"`
	Enabled       bool       `toml:"enabled"`
	CredentialRef string     `toml:"credential_ref"`
	Kind          FolderKind `toml:"kind"`
}

// TagRule maps a filename substring to a category. Rules are evaluated in
// order before extension routes; first match wins.
type TagRule struct {
	Match    string `toml:"match"`
	Category string `toml:"category"`
}

// Retry contains backoff tuning for deferred operations.
type Retry struct {
	BaseDelayMs int `toml:"base_delay_ms"`
	MaxDelayMs  int `toml:"max_delay_ms"`
	MaxAttempts int `toml:"max_attempts"`
}

// History bounds the persisted move record log.
type History struct {
	Capacity int `toml:"capacity"`
}

// Watcher contains file-settlement and reachability tuning.
type Watcher struct {
	DebounceMs           int `toml:"debounce_ms"`
	ProbeIntervalSeconds int `toml:"probe_interval_seconds"`
	SettleChecks         int `toml:"settle_checks"`
}

// Workers bounds the shared processing pool. Zero means one worker per CPU.
type Workers struct {
	Count int `toml:"count"`
}

// Cleanup schedules the periodic hash ledger pruning pass.
type Cleanup struct {
	IntervalMinutes int `toml:"interval_minutes"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for curator.
type Config struct {
	Paths          Paths               `toml:"paths"`
	WatchedFolders []WatchedFolder     `toml:"watched_folders"`
	Routes         map[string][]string `toml:"routes"`
	TagRules       []TagRule           `toml:"tag_rules"`
	Retry          Retry               `toml:"retry"`
	History        History             `toml:"history"`
	Watcher        Watcher             `toml:"watcher"`
	Workers        Workers             `toml:"workers"`
	Cleanup        Cleanup             `toml:"cleanup"`
	Notifications  Notifications       `toml:"notifications"`
	Logging        Logging             `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/curator/config.toml")
}

// ExpandPath resolves ~ prefixes and returns an absolute, cleaned path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return value
// is the resolved path, the third reports whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("curator.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation. The
// organize root is created on a best-effort basis so the daemon can run when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.OrganizeRoot) != "" {
		_ = os.MkdirAll(c.Paths.OrganizeRoot, 0o755)
	}
	return nil
}

// DatabasePath returns the location of the ledger database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "ledger.db")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "curatord.lock")
}

// EnabledFolders returns the watched folders that should be monitored.
func (c *Config) EnabledFolders() []WatchedFolder {
	folders := make([]WatchedFolder, 0, len(c.WatchedFolders))
	for _, folder := range c.WatchedFolders {
		if folder.Enabled {
			folders = append(folders, folder)
		}
	}
	return folders
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
