package store

import (
	"context"
	"errors"
	"strings"
)

// Store is the hierarchical key/value contract.
type Store interface {
	// Get returns the value at path or ErrNotFound.
	Get(ctx context.Context, path string) (string, error)
	// Set writes one value.
	Set(ctx context.Context, path, value string) error
	// SetMany writes several values in one operation.
	SetMany(ctx context.Context, values map[string]string) error
	// ResetSubtree removes path and everything below it.
	ResetSubtree(ctx context.Context, path string) error
	// Enumerate returns every key in the subtree of prefix.
	Enumerate(ctx context.Context, prefix string) (map[string]string, error)
}

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("key not found")
	// errInvalidPath is returned for keys that are not absolute paths.
	errInvalidPath = errors.New("path must start with a slash")
)

// Join builds a path from segments.
func Join(segments ...string) string {
	var b strings.Builder

	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s == "" {
			continue
		}

		b.WriteByte('/')
		b.WriteString(s)
	}

	if b.Len() == 0 {
		return "/"
	}

	return b.String()
}

// InSubtree reports whether key equals prefix or lies below it.
func InSubtree(key, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return true
	}

	return key == prefix || strings.HasPrefix(key, prefix+"/")
}

// checkPath validates a key.
func checkPath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return errInvalidPath
	}

	return nil
}
