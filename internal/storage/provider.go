// Package storage defines the key-value persistence boundary of the stash.
package storage

import (
	"fmt"
	"os"
	"regexp"
)

// Backend names accepted by Open.
const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
)

// Provider is a durable key-value store holding whole serialized collections.
type Provider interface {
	// Get returns the value stored under key, or apperr.ErrNotFound.
	Get(key string) ([]byte, error)
	// Put replaces the value stored under key.
	Put(key string, value []byte) error
	// Close releases the backend.
	Close() error
}

var keyRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func validKey(key string) error {
	if !keyRe.MatchString(key) {
		return fmt.Errorf("storage: invalid key %q", key)
	}
	return nil
}

// Open returns the provider for backend rooted at path. For the fs backend
// path is a directory (created if missing); for sqlite it is the database file.
func Open(backend, path string) (Provider, error) {
	switch backend {
	case BackendFS:
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create data dir: %w", err)
		}
		return NewFS(path)
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", backend)
	}
}
