package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("store: not found")
	ErrConflict          = errors.New("store: duplicate key")
	ErrReference         = errors.New("store: referenced record does not exist or is still referenced")
	ErrInvalidTransition = errors.New("store: invalid status transition")
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

type Row interface {
	Scan(dest ...any) error
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Querier is satisfied by both a DB and a Tx. SQL uses $n placeholders,
// numbered in order of first appearance.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type DB interface {
	Querier
	Begin(ctx context.Context) (Tx, error)
	Ping(ctx context.Context) error
	Close()
	Dialect() string
}

// Open connects to the backend named by driver.
func Open(ctx context.Context, driver, dsn string, maxConns int32) (DB, error) {
	switch driver {
	case DialectPostgres, "pg", "postgresql":
		return OpenPostgres(ctx, dsn, maxConns)
	case DialectSQLite, "sqlite3", "":
		return OpenSQLite(ctx, dsn)
	}
	return nil, errors.New("store: unknown db driver " + driver)
}
