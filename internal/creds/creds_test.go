package creds_test

import (
	"errors"
	"testing"

	"curator/internal/creds"
	"curator/internal/faults"
	"curator/internal/testsupport"
)

func TestResolveFromFile(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteFile(t, dir, "credentials.toml", `
[nas]
username = "backup"
secret = "hunter2"
auth_type = "ntlm"
`)

	store := creds.NewFileStore(path)
	cred, err := store.Resolve("nas")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cred.Username != "backup" || cred.Secret != "hunter2" || cred.AuthType != "ntlm" {
		t.Fatalf("unexpected credential: %#v", cred)
	}
}

func TestResolveUnknownRefIsNotFound(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteFile(t, dir, "credentials.toml", `
[nas]
username = "backup"
secret = "x"
`)

	store := creds.NewFileStore(path)
	if _, err := store.Resolve("other"); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveMissingFileIsNotFound(t *testing.T) {
	store := creds.NewFileStore("/nonexistent/credentials.toml")
	if _, err := store.Resolve("nas"); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveEmptyRef(t *testing.T) {
	store := creds.NewFileStore("")
	if _, err := store.Resolve(""); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
