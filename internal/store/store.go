// Package store implements the user directory and file records over
// Postgres. Every operation is one short-lived unit of work; nothing here
// holds a transaction open across an external call.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"filehost/internal/domain"
)

const pgUniqueViolation = "23505"

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{DB: db} }

func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{DB: tx})
	})
}

// Migrate creates or updates the backing tables. The email uniqueness
// constraint lives here, in the schema, so concurrent duplicate inserts are
// resolved by the database rather than by a check-then-act in application
// code.
func (s *Store) Migrate() error {
	return s.DB.AutoMigrate(&domain.User{}, &domain.File{})
}

// storeErr classifies a gorm error for callers: row absence maps to
// notFound, a unique-constraint violation on insert maps to conflict, and
// anything else is a fatal store-unavailable condition. Masking an outage as
// "not found" would let the gate treat a store failure as an auth state.
func storeErr(err error, notFound, conflict error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	default:
		var pgErr *pgconn.PgError
		if conflict != nil && errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return conflict
		}
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
}
