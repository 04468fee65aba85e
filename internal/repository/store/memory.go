package store

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore keeps keys in a map.
type MemoryStore struct {
	// values holds the keys.
	values map[string]string
	// mu protects values.
	mu sync.RWMutex
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
	}
}

// Get returns the value at path.
func (s *MemoryStore) Get(_ context.Context, path string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[path]
	if !ok {
		return "", ErrNotFound
	}

	return value, nil
}

// Set writes one value.
func (s *MemoryStore) Set(ctx context.Context, path, value string) error {
	return s.SetMany(ctx, map[string]string{path: value})
}

// SetMany writes several values.
func (s *MemoryStore) SetMany(_ context.Context, values map[string]string) error {
	for path := range values {
		if err := checkPath(path); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	maps.Copy(s.values, values)

	return nil
}

// ResetSubtree removes the subtree of path.
func (s *MemoryStore) ResetSubtree(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.values {
		if InSubtree(key, path) {
			delete(s.values, key)
		}
	}

	return nil
}

// Enumerate returns the subtree of prefix.
func (s *MemoryStore) Enumerate(_ context.Context, prefix string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]string)

	for key, value := range s.values {
		if InSubtree(key, prefix) {
			result[key] = value
		}
	}

	return result, nil
}
