package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

type sqliteDB struct {
	db *sql.DB
}

// OpenSQLite opens a file-backed (or ":memory:") database. The pool is limited
// to one connection: sqlite serialises writers anyway and an in-memory
// database only lives on the connection that created it.
func OpenSQLite(ctx context.Context, dsn string) (DB, error) {
	if dsn == "" {
		dsn = "file:health_records.db"
	}
	db, err := sql.Open("sqlite3", SQLiteDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &sqliteDB{db: db}, nil
}

// SQLiteDSN adds foreign key enforcement and a busy timeout to dsn unless it
// already sets them.
func SQLiteDSN(dsn string) string {
	for _, p := range []string{"_foreign_keys=on", "_busy_timeout=5000"} {
		key, _, _ := strings.Cut(p, "=")
		if strings.Contains(dsn, key+"=") {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + p
	}
	return dsn
}

func (d *sqliteDB) Dialect() string { return DialectSQLite }
func (d *sqliteDB) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }
func (d *sqliteDB) Close() { d.db.Close() }

func (d *sqliteDB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return sqlExec(d.db.ExecContext(ctx, query, args...))
}

func (d *sqliteDB) QueryRow(ctx context.Context, query string, args ...any) Row {
	return sqlRow{d.db.QueryRowContext(ctx, query, args...)}
}

func (d *sqliteDB) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sqliteErr(err)
	}
	return sqlRows{rows}, nil
}

func (d *sqliteDB) Begin(ctx context.Context) (Tx, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return sqliteTx{tx}, nil
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t sqliteTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return sqlExec(t.tx.ExecContext(ctx, query, args...))
}

func (t sqliteTx) QueryRow(ctx context.Context, query string, args ...any) Row {
	return sqlRow{t.tx.QueryRowContext(ctx, query, args...)}
}

func (t sqliteTx) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sqliteErr(err)
	}
	return sqlRows{rows}, nil
}

func (t sqliteTx) Commit(context.Context) error { return t.tx.Commit() }

func (t sqliteTx) Rollback(context.Context) error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

type sqlRow struct {
	row *sql.Row
}

func (r sqlRow) Scan(dest ...any) error { return sqliteErr(r.row.Scan(dest...)) }

type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Close() { r.Rows.Close() }

func sqlExec(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, sqliteErr(err)
	}
	return res.RowsAffected()
}

func sqliteErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %s", ErrConflict, se.Error())
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %s", ErrReference, se.Error())
		}
	}
	return err
}
