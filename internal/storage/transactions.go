package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

const transactionColumns = `id, user_id, account_id, type, amount, category,
	description, date, tags, is_recurring, created_at`

func (r *Repository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	return scanTransaction(row)
}

func (r *Repository) ListTransactions(ctx context.Context, userID string, f ledger.TransactionFilter) ([]core.Transaction, int, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if f.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Category != "" {
		where = append(where, "category = ? COLLATE NOCASE")
		args = append(args, f.Category)
	}
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, f.To)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := "SELECT " + transactionColumns + " FROM transactions WHERE " + cond +
		" ORDER BY date DESC, id"
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, (page-1)*f.Limit)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *Repository) SaveTransaction(ctx context.Context, t core.Transaction) error {
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	_, err = r.q.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, account_id, type, amount, category,
			description, date, tags, is_recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_id = excluded.account_id,
			type = excluded.type,
			amount = excluded.amount,
			category = excluded.category,
			description = excluded.description,
			date = excluded.date,
			tags = excluded.tags,
			is_recurring = excluded.is_recurring`,
		t.ID, t.UserID, t.AccountID, string(t.Type), t.Amount.String(), t.Category,
		t.Description, t.Date, string(tags), t.IsRecurring, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}
	return nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *Repository) CountByAccount(ctx context.Context, userID, accountID string) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = ? AND account_id = ?`,
		userID, accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions by account: %w", err)
	}
	return n, nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		txnType string
		amount  string
		tags    string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &txnType, &amount, &t.Category,
		&t.Description, &t.Date, &tags, &t.IsRecurring, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Type = core.TransactionType(txnType)
	if t.Amount, err = parseDecimal(amount); err != nil {
		return core.Transaction{}, err
	}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
			return core.Transaction{}, fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	return t, nil
}
