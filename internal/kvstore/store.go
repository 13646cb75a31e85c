// Package kvstore is the durable key-value storage behind the result cache.
// It plays the role a browser's local storage plays for a web client: small
// string values that survive restarts until overwritten or deleted.
package kvstore

import (
	"context"
	"fmt"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// DBFileName is the sqlite database file inside the state directory.
const DBFileName = "state.db"

// Store is a flat string key-value store.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes value for key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// Keys returns every key starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Close releases the backend.
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend     string
	StateDir    string
	RedisURL    string
	RedisPrefix string
}

// Open creates the configured backend. An empty backend means sqlite.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendSQLite:
		return OpenSQLite(ctx, filepath.Join(opts.StateDir, DBFileName))
	case BackendRedis:
		return OpenRedis(ctx, opts.RedisURL, opts.RedisPrefix)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
