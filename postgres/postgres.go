package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/buildgrid/cpm"
)

// PGStore implements cpm.Store using PostgreSQL via pgx.
type PGStore struct {
	db *pgxpool.Pool
}

// New creates a new PGStore backed by the given pgx connection pool.
func New(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// isNoRows checks if the error is a "no rows" error from pgx.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// dateArg converts an optional date to a DATE query parameter.
func dateArg(d *cpm.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time()
	return &t
}

// dateVal converts a scanned nullable DATE column back to an optional date.
func dateVal(t *time.Time) *cpm.Date {
	if t == nil {
		return nil
	}
	d := cpm.DateOf(*t)
	return &d
}
