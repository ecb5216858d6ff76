// internal/store/open.go
//
// Backend selection from a connection string.
//
//	memory:                     in-process maps, nothing persisted
//	sqlite:///var/lib/cuca.db   sqlite file (a bare path works too)
//	postgres://user@host/db     postgres via a pgx pool
//
// Open applies pending migrations before returning a durable backend.

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// ParseDSN picks the backend for dsn and returns the driver-level target
// (file path or postgres URL).
func ParseDSN(dsn string) (Backend, string, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return "", "", errors.New("store: empty database URL")
	case dsn == "memory" || dsn == "memory:" || strings.HasPrefix(dsn, "memory://"):
		return BackendMemory, "", nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return BackendPostgres, dsn, nil
	}

	path := strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite://"), "sqlite:")
	if path == "" {
		return "", "", fmt.Errorf("store: %q names no sqlite file", dsn)
	}
	if path == ":memory:" || strings.HasPrefix(path, "file::memory:") {
		return "", "", errors.New("store: in-memory sqlite is not shared across connections; use memory:")
	}
	if i := strings.Index(path, "://"); i > 0 {
		return "", "", fmt.Errorf("store: unsupported scheme %q", path[:i])
	}
	return BackendSQLite, path, nil
}

// Open connects to the backend named by dsn, migrating durable ones first.
func Open(ctx context.Context, dsn string) (Store, error) {
	backend, target, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		if err := MigrateUp(dsn); err != nil {
			return nil, err
		}
		return OpenSQLite(ctx, target)
	default:
		if err := MigrateUp(dsn); err != nil {
			return nil, err
		}
		return OpenPostgres(ctx, target)
	}
}
