// Package memory provides an in-memory artifact store for tests and
// local development.
package memory

import (
	"context"
	"sync"

	"github.com/lumera/seopilot/internal/storage"
)

// Store keeps artifacts in a map guarded by a mutex.
type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{objects: make(map[string][]byte)}
}

// Put stores a copy of data under path and returns a mem:// URI.
func (s *Store) Put(_ context.Context, path string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[path] = cp
	return "mem://" + path, nil
}

// Get returns the stored bytes or storage.ErrNotFound.
func (s *Store) Get(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[path]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Paths returns every stored path; test helper.
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.objects))
	for p := range s.objects {
		paths = append(paths, p)
	}
	return paths
}
