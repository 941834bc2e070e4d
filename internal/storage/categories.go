package storage

import (
	"context"
	"fmt"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

func (r *Repository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, name, kind, color
		FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c    core.Category
			kind string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &kind, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Kind = core.TransactionType(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) SaveCategory(ctx context.Context, c core.Category) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, kind, color)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			color = excluded.color`,
		c.ID, c.UserID, c.Name, string(c.Kind), c.Color)
	if err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

func (r *Repository) DeleteCategory(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
