// Package store persists policy snapshots per user.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/polisee/polisee-cli/internal/config"
	"github.com/polisee/polisee-cli/internal/model"
)

// Store defines the persistence interface for policy snapshots.
//
// A user's policies are only ever written as a whole batch: ReplacePolicies
// deletes everything the user owns and inserts the new upload as one logical
// operation, so a concurrent reader never observes a half-written snapshot.
type Store interface {
	// ReplacePolicies atomically swaps the user's entire policy set for the
	// given batch and returns the number of rows inserted.
	ReplacePolicies(ctx context.Context, userID string, policies []model.Policy) (int, error)

	// ListPolicies returns the user's current snapshot ordered by category,
	// company, then main branch.
	ListPolicies(ctx context.Context, userID string) ([]model.Policy, error)

	// DeletePolicies removes every policy the user owns and returns the count.
	DeletePolicies(ctx context.Context, userID string) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver and runs migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		s, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL, cfg.InsertBatchSize)
	default:
		return nil, eris.Errorf("store: unknown driver %q (valid: sqlite, postgres)", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
