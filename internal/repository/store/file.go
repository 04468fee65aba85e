package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/alarm-manager/internal/config"
)

// FileStore persists keys as a flat YAML mapping on disk. The file is read
// once and rewritten after every mutation.
type FileStore struct {
	// path is the filesystem location of the YAML file.
	path string
	// values caches the file contents once loaded.
	values map[string]string
	// mu protects values and the file.
	mu sync.Mutex
}

// NewFileStore creates a store backed by the YAML file at path. A missing
// file is treated as an empty store.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: filepath.Clean(path),
	}
}

// Get returns the value at path.
func (s *FileStore) Get(_ context.Context, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return "", err
	}

	value, ok := s.values[path]
	if !ok {
		return "", ErrNotFound
	}

	return value, nil
}

// Set writes one value.
func (s *FileStore) Set(ctx context.Context, path, value string) error {
	return s.SetMany(ctx, map[string]string{path: value})
}

// SetMany writes several values with a single file rewrite.
func (s *FileStore) SetMany(_ context.Context, values map[string]string) error {
	for path := range values {
		if err := checkPath(path); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}

	next := maps.Clone(s.values)
	maps.Copy(next, values)

	return s.replace(next)
}

// ResetSubtree removes the subtree of path.
func (s *FileStore) ResetSubtree(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}

	next := maps.Clone(s.values)
	maps.DeleteFunc(next, func(key, _ string) bool { return InSubtree(key, path) })

	if len(next) == len(s.values) {
		return nil
	}

	return s.replace(next)
}

// Enumerate returns the subtree of prefix.
func (s *FileStore) Enumerate(_ context.Context, prefix string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}

	result := make(map[string]string)

	for key, value := range s.values {
		if InSubtree(key, prefix) {
			result[key] = value
		}
	}

	return result, nil
}

// load reads the file on first use. Callers hold mu.
func (s *FileStore) load() error {
	if s.values != nil {
		return nil
	}

	contents, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.values = make(map[string]string)

			return nil
		}

		return fmt.Errorf("read store file: %w", err)
	}

	var values map[string]string
	if err = yaml.Unmarshal(contents, &values); err != nil {
		return fmt.Errorf("decode store file: %w", err)
	}

	// An empty or null document decodes to a nil map.
	if values == nil {
		values = make(map[string]string)
	}

	s.values = values

	return nil
}

// replace writes values to the file and makes them the cache once the write
// succeeded. Callers hold mu.
func (s *FileStore) replace(values map[string]string) error {
	if err := s.flush(values); err != nil {
		return err
	}

	s.values = values

	return nil
}

// flush rewrites the file through a temporary sibling.
func (s *FileStore) flush(values map[string]string) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}

	if err = os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}

	return nil
}
