// Package repomanager selects and owns the account store: PostgreSQL when a
// DSN is configured, process memory otherwise.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/userhub/internal/server/repositories/accounts"
)

type RepositoryManager interface {
	Accounts() accounts.Repository
	RunMigrations(ctx context.Context) error
	// Ping reports whether the store is reachable; used by readiness checks.
	Ping(ctx context.Context) error
	Close() error
	// Kind names the backing store for health output.
	Kind() string
}

// New returns a PostgreSQL manager for a non-empty dsn and an in-memory one
// otherwise.
func New(ctx context.Context, dsn string) (RepositoryManager, error) {
	if dsn == "" {
		return NewMemoryRepositoryManager(), nil
	}
	return NewPostgresRepositoryManager(ctx, dsn)
}
