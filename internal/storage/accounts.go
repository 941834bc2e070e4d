package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

func (r *Repository) GetAccount(ctx context.Context, userID, id string) (core.Account, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, balance, currency, is_active, created_at, updated_at
		FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	return scanAccount(row)
}

func (r *Repository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, name, type, balance, currency, is_active, created_at, updated_at
		FROM accounts WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) SaveAccount(ctx context.Context, a core.Account) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, name, type, balance, currency, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			balance = excluded.balance,
			currency = excluded.currency,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`,
		a.ID, a.UserID, a.Name, string(a.Type), a.Balance.String(), a.Currency,
		a.IsActive, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (r *Repository) DeleteAccount(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var (
		a       core.Account
		accType string
		balance string
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &accType, &balance, &a.Currency,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}
	a.Type = core.AccountType(accType)
	if a.Balance, err = parseDecimal(balance); err != nil {
		return core.Account{}, err
	}
	return a, nil
}
