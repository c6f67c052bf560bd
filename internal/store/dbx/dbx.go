// Package dbx holds the few helpers the stores share on top of database/sql.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Conn is satisfied by both *sql.DB and *sql.Tx.
type Conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func Query(ctx context.Context, c Conn, query string, args ...any) (*sql.Rows, error) {
	return c.QueryContext(ctx, query, args...)
}

func Exec(ctx context.Context, c Conn, query string, args ...any) (sql.Result, error) {
	return c.ExecContext(ctx, query, args...)
}

func Get(ctx context.Context, c Conn, query string, args ...any) *sql.Row {
	return c.QueryRowContext(ctx, query, args...)
}

// ReadCommitted is the isolation every write path in this repo uses.
var ReadCommitted = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

// WithinTx runs fn inside a transaction with default options.
func WithinTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	return WithinTxOpts(ctx, db, nil, fn)
}

// WithinTxOpts commits when fn returns nil and rolls back otherwise,
// including when fn panics. A failed rollback is joined onto fn's error.
func WithinTxOpts(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
