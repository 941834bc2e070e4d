package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

func (r *Repository) GetReminder(ctx context.Context, userID, id string) (core.Reminder, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, title, amount, due_date, repeat, is_done
		FROM reminders WHERE id = ? AND user_id = ?`, id, userID)
	return scanReminder(row)
}

func (r *Repository) ListReminders(ctx context.Context, userID string) ([]core.Reminder, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, title, amount, due_date, repeat, is_done
		FROM reminders WHERE user_id = ? ORDER BY due_date`, userID)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer rows.Close()
	return collectReminders(rows)
}

func (r *Repository) ListDueReminders(ctx context.Context, cutoff time.Time) ([]core.Reminder, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, title, amount, due_date, repeat, is_done
		FROM reminders WHERE is_done = 0 AND due_date <= ? ORDER BY due_date`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query due reminders: %w", err)
	}
	defer rows.Close()
	return collectReminders(rows)
}

func (r *Repository) SaveReminder(ctx context.Context, rem core.Reminder) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO reminders (id, user_id, title, amount, due_date, repeat, is_done)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			amount = excluded.amount,
			due_date = excluded.due_date,
			repeat = excluded.repeat,
			is_done = excluded.is_done`,
		rem.ID, rem.UserID, rem.Title, rem.Amount.String(), rem.DueDate,
		string(rem.Repeat), rem.IsDone)
	if err != nil {
		return fmt.Errorf("save reminder: %w", err)
	}
	return nil
}

func (r *Repository) DeleteReminder(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM reminders WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func collectReminders(rows *sql.Rows) ([]core.Reminder, error) {
	var out []core.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

func scanReminder(row rowScanner) (core.Reminder, error) {
	var (
		rem    core.Reminder
		amount string
		repeat string
	)
	err := row.Scan(&rem.ID, &rem.UserID, &rem.Title, &amount, &rem.DueDate, &repeat, &rem.IsDone)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Reminder{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Reminder{}, fmt.Errorf("scan reminder: %w", err)
	}
	rem.Repeat = core.Recurrence(repeat)
	if rem.Amount, err = parseDecimal(amount); err != nil {
		return core.Reminder{}, err
	}
	return rem, nil
}
