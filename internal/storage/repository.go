// Package storage implements ledger.Store on SQLite via database/sql.
// Documents live in per-entity tables; monetary fields are persisted as
// decimal strings so no precision is lost crossing the store boundary.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"moneta/internal/ledger"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB // nil on a tx-bound view
	q  dbtx
}

var _ ledger.Store = (*Repository)(nil)

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// SQLite allows one writer; serialize access through a single connection
	// so concurrent requests queue instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("SQLite ledger store ready", "path", dbPath)
	return &Repository{db: db, q: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InTx runs fn against a transaction-bound view of the repository. Nested
// calls reuse the surrounding transaction.
func (r *Repository) InTx(ctx context.Context, fn func(ledger.Store) error) error {
	if r.db == nil {
		return fn(r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Repository{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse stored decimal %q: %w", s, err)
	}
	return d, nil
}
