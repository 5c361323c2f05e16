// Package store provides key/value persistence for wallet records,
// connected sites, transaction history, and settings.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Namp88/hoosat-web-extension-sub000/internal/types"
)

// Store is asynchronous key/value persistence. Every operation may fail
// with an I/O error the caller must surface; only explicitly documented
// best-effort paths may swallow one.
type Store interface {
	// Get unmarshals the value for key into out. Returns false when the
	// key is absent.
	Get(ctx context.Context, key string, out interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
	// Clear removes everything. Used by wallet reset.
	Clear(ctx context.Context) error
}

// FileStore persists each key as one JSON document under a data directory.
// Writes go through a temp file and rename so a crash never leaves a
// half-written record.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, types.NewError(types.FaultStore, "failed to create data dir: %v", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	// Keys are internal constants; sanitize anyway.
	safe := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, key)
	return filepath.Join(s.dir, safe+".json")
}

func (s *FileStore) Get(ctx context.Context, key string, out interface{}) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, types.NewError(types.FaultStore, "failed to read %s: %v", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, types.NewError(types.FaultStore, "corrupt record %s: %v", key, err)
	}
	return true, nil
}

func (s *FileStore) Set(ctx context.Context, key string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return types.NewError(types.FaultStore, "failed to marshal %s: %v", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return types.NewError(types.FaultStore, "failed to write %s: %v", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return types.NewError(types.FaultStore, "failed to commit %s: %v", key, err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return types.NewError(types.FaultStore, "failed to delete %s: %v", key, err)
	}
	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return types.NewError(types.FaultStore, "failed to list data dir: %v", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return types.NewError(types.FaultStore, "failed to clear %s: %v", e.Name(), err)
		}
	}
	return nil
}

// MemoryStore is an in-process Store for tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]byte

	// FailNext forces the next operation to fail, for error-path tests.
	FailNext bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

func (s *MemoryStore) fail() bool {
	if s.FailNext {
		s.FailNext = false
		return true
	}
	return false
}

func (s *MemoryStore) Get(ctx context.Context, key string, out interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail() {
		return false, types.NewError(types.FaultStore, "injected store failure")
	}
	data, ok := s.records[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("corrupt record %s: %w", key, err)
	}
	return true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail() {
		return types.NewError(types.FaultStore, "injected store failure")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.records[key] = data
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail() {
		return types.NewError(types.FaultStore, "injected store failure")
	}
	delete(s.records, key)
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail() {
		return types.NewError(types.FaultStore, "injected store failure")
	}
	s.records = make(map[string][]byte)
	return nil
}
