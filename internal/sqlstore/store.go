package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/captionlog/internal/domain/activity"
)

// Store implements activity.Store over a DB. A Store created by InTx routes
// every statement through its transaction.
type Store struct {
	db *DB
	q  querier
	tx *sql.Tx
}

// NewStore creates a new Store.
func NewStore(db *DB) *Store {
	return &Store{db: db, q: db.DB}
}

// Records returns the record repository.
func (s *Store) Records() activity.RecordRepository {
	return &RecordRepository{q: s.q}
}

// SideData returns the side-data repository.
func (s *Store) SideData() activity.SideDataRepository {
	return &SideDataRepository{q: s.q}
}

// InTx runs fn in a transaction. Nested calls join the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx activity.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{db: s.db, q: tx, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
