package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"curator/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OrganizeRoot = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.Retry.MaxAttempts != 10 {
		t.Fatalf("expected default max attempts, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.History.Capacity != 100 {
		t.Fatalf("expected default history capacity, got %d", cfg.History.Capacity)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	doc := `
[paths]
organize_root = "` + filepath.Join(dir, "organized") + `"
state_dir = "` + filepath.Join(dir, "state") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[[watched_folders]]
path = "` + filepath.Join(dir, "inbox") + `"
enabled = true

[routes]
Images = [".JPG", "png", ""]

[[tag_rules]]
match = " invoice "
category = "Finance"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	exts := cfg.Routes["Images"]
	if len(exts) != 2 || exts[0] != "jpg" || exts[1] != "png" {
		t.Fatalf("expected normalized extensions, got %v", exts)
	}
	if cfg.TagRules[0].Match != "invoice" {
		t.Fatalf("expected trimmed tag match, got %q", cfg.TagRules[0].Match)
	}
	if cfg.WatchedFolders[0].Kind != config.FolderLocal {
		t.Fatalf("expected default folder kind local, got %q", cfg.WatchedFolders[0].Kind)
	}
}

func TestLoadRejectsDuplicateExtensionClaims(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	doc := `
[routes]
Images = ["jpg"]
Photos = ["jpg"]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for extension claimed twice")
	} else if !strings.Contains(err.Error(), "jpg") {
		t.Fatalf("expected extension in error, got %v", err)
	}
}

func TestLoadRejectsBadFolderKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	doc := `
[[watched_folders]]
path = "/tmp/in"
kind = "smb"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unknown folder kind")
	}
}

func TestLoadRejectsNonPositiveRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	doc := `
[retry]
max_attempts = 0
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for zero max_attempts")
	}
}

func TestEnabledFolders(t *testing.T) {
	cfg := config.Default()
	cfg.WatchedFolders = []config.WatchedFolder{
		{Path: "/a", Enabled: true, Kind: config.FolderLocal},
		{Path: "/b", Enabled: false, Kind: config.FolderLocal},
	}
	folders := cfg.EnabledFolders()
	if len(folders) != 1 || folders[0].Path != "/a" {
		t.Fatalf("unexpected enabled folders: %v", folders)
	}
}

func TestSampleConfigParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(config.SampleConfig()), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
}
