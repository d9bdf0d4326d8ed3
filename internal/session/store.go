package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// A Store persists one session handle. Absence is a valid state and is
// not an error.
type Store interface {
	Get() (Handle, bool, error)
	Put(Handle) error
	Delete() error
}

// FileStore keeps the handle in a single owner-only file. Concurrent
// invocations may share it: reads are lock-free, and writes happen to a
// temporary file which is renamed into place under a file lock, so a
// concurrent reader never observes a partial handle.
type FileStore struct {
	Path string
}

// DefaultStorePath returns the conventional location of the session file.
func DefaultStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".vaultrun", "session.json"), nil
}

// Get reads the cached handle. Unreadable or corrupt content is treated
// identically to absence.
func (s *FileStore) Get() (Handle, bool, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Handle{}, false, nil
	}
	if err != nil {
		return Handle{}, false, nil
	}

	var h Handle
	if err := json.Unmarshal(data, &h); err != nil || h.IsZero() {
		return Handle{}, false, nil
	}

	h.Cached = true
	return h, true, nil
}

// Put writes the handle atomically with owner-only permissions.
func (s *FileStore) Put(h Handle) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating session directory %q: %w", dir, err)
	}

	lock := flock.New(s.Path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking session file: %w", err)
	}
	defer lock.Unlock() //nolint:errcheck // nothing useful to do with it

	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encoding session handle: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("creating temporary session file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone already if renamed

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("restricting session file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session handle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing session handle: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replacing session file: %w", err)
	}

	return nil
}

// Delete removes the cached handle. A missing file is fine.
func (s *FileStore) Delete() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

// MemoryStore holds a handle in process memory only. It is the store used
// in CI contexts, where session handles must never touch disk.
type MemoryStore struct {
	mu     sync.Mutex
	handle Handle
	ok     bool
}

func (s *MemoryStore) Get() (Handle, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.handle
	h.Cached = s.ok
	return h, s.ok, nil
}

func (s *MemoryStore) Put(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handle = h
	s.ok = true
	return nil
}

func (s *MemoryStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handle = Handle{}
	s.ok = false
	return nil
}
