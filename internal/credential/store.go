// Package credential persists per-provider authentication material (API
// keys and OAuth token triples) in a single JSON file, keyed by provider ID.
//
// The store is grounded on the reference Auth class: one file, one entry
// per provider, 0600 permissions re-applied after every write, and writes
// that go through a temp-file-then-rename so a crash mid-write can never
// leave a torn auth.json behind.
package credential

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/forgecode-ai/agent/pkg/types"
)

// Store is a file-backed credential store. Safe for concurrent use.
type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a Store that persists to path. The file is created on first
// Set call; Get/All tolerate a missing file.
func New(path string) *Store {
	return &Store{path: path}
}

// Get returns the credential stored for providerID, or ok=false if none
// exists or the store file cannot be read.
func (s *Store) Get(providerID string) (cred types.Credential, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readLocked()
	if err != nil {
		return types.Credential{}, false
	}
	cred, ok = all[providerID]
	return cred, ok
}

// All returns every stored credential keyed by provider ID. Returns an
// empty map rather than an error when the store file does not exist.
func (s *Store) All() map[string]types.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readLocked()
	if err != nil {
		return map[string]types.Credential{}
	}
	return all
}

// Set stores cred for providerID, overwriting any existing entry.
func (s *Store) Set(providerID string, cred types.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readLocked()
	if err != nil {
		all = map[string]types.Credential{}
	}
	all[providerID] = cred
	return s.writeLocked(all)
}

// Remove deletes the credential for providerID, if any. Removing an
// absent entry is a no-op, not an error.
func (s *Store) Remove(providerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readLocked()
	if err != nil {
		return nil
	}
	if _, ok := all[providerID]; !ok {
		return nil
	}
	delete(all, providerID)
	return s.writeLocked(all)
}

// Path returns the underlying store file path, for display purposes.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) readLocked() (map[string]types.Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]types.Credential{}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return map[string]types.Credential{}, nil
	}
	var all map[string]types.Credential
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	if all == nil {
		all = map[string]types.Credential{}
	}
	return all, nil
}

func (s *Store) writeLocked(all map[string]types.Credential) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return err
	}

	// Re-apply 0600 explicitly: rename can inherit the temp file's mode on
	// some platforms, and the store must never be group/world readable.
	return os.Chmod(s.path, 0o600)
}
