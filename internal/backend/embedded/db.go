// Package embedded implements the platform contract in-process on top of
// SQLite: password accounts, JWT sessions and row-level-secured tables.
package embedded

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// timeLayout is fixed width so that text order equals time order
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// DB wraps the database connection
type DB struct {
	*sql.DB
	now func() time.Time
}

// Option configures a DB
type Option func(*DB)

// WithClock overrides the clock used for server-assigned timestamps
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// Open opens (creating if needed) the database at path and initializes the schema
func Open(path string, opts ...Option) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// sqlite has a single writer
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{DB: conn, now: time.Now}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

func (db *DB) timestamp() string {
	return db.now().UTC().Format(timeLayout)
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn in a transaction, committing only when fn succeeds
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
