package creds

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"curator/internal/faults"
)

// Credential holds the secrets needed to reach a network share.
type Credential struct {
	Username string `toml:"username"`
	Secret   string `toml:"secret"`
	AuthType string `toml:"auth_type"`
}

// Store resolves credential references to secrets.
type Store interface {
	Resolve(ref string) (Credential, error)
}

// FileStore reads credentials from a TOML file of named entries:
//
//	[nas]
//	username = "backup"
//	secret = "..."
//	auth_type = "ntlm"
//
// The file is parsed lazily on first use and cached.
type FileStore struct {
	path string

	once    sync.Once
	loadErr error
	entries map[string]Credential
}

// NewFileStore builds a credential store over the given file path. An empty
// path yields a store that fails every lookup, which is valid for
// configurations without UNC folders.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: strings.TrimSpace(path)}
}

// Resolve returns the credential for ref. Failures are tagged ErrNotFound so
// callers mark the folder degraded instead of aborting startup.
func (s *FileStore) Resolve(ref string) (Credential, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Credential{}, faults.Wrap(faults.ErrNotFound, "creds", "resolve", "empty credential reference", nil)
	}

	s.once.Do(s.load)
	if s.loadErr != nil {
		return Credential{}, faults.Wrap(faults.ErrNotFound, "creds", "load", s.path, s.loadErr)
	}

	cred, ok := s.entries[ref]
	if !ok {
		return Credential{}, faults.Wrap(faults.ErrNotFound, "creds", "resolve", fmt.Sprintf("no credential named %q", ref), nil)
	}
	return cred, nil
}

func (s *FileStore) load() {
	if s.path == "" {
		s.loadErr = fmt.Errorf("no credentials file configured")
		return
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.loadErr = fmt.Errorf("read credentials file: %w", err)
		return
	}
	entries := make(map[string]Credential)
	if err := toml.Unmarshal(data, &entries); err != nil {
		s.loadErr = fmt.Errorf("parse credentials file: %w", err)
		return
	}
	s.entries = entries
}
