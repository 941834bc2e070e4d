package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

func (r *Repository) GetInvestment(ctx context.Context, userID, id string) (core.Investment, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, symbol, name, quantity, purchase_price, current_price, broker, purchase_date
		FROM investments WHERE id = ? AND user_id = ?`, id, userID)
	return scanInvestment(row)
}

func (r *Repository) ListInvestments(ctx context.Context, userID string) ([]core.Investment, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, symbol, name, quantity, purchase_price, current_price, broker, purchase_date
		FROM investments WHERE user_id = ? ORDER BY purchase_date`, userID)
	if err != nil {
		return nil, fmt.Errorf("query investments: %w", err)
	}
	defer rows.Close()

	var out []core.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *Repository) SaveInvestment(ctx context.Context, inv core.Investment) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO investments (id, user_id, symbol, name, quantity, purchase_price, current_price, broker, purchase_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			symbol = excluded.symbol,
			name = excluded.name,
			quantity = excluded.quantity,
			purchase_price = excluded.purchase_price,
			current_price = excluded.current_price,
			broker = excluded.broker,
			purchase_date = excluded.purchase_date`,
		inv.ID, inv.UserID, inv.Symbol, inv.Name, inv.Quantity.String(),
		inv.PurchasePrice.String(), inv.CurrentPrice.String(), inv.Broker, inv.PurchaseDate)
	if err != nil {
		return fmt.Errorf("save investment: %w", err)
	}
	return nil
}

func (r *Repository) DeleteInvestment(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM investments WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func scanInvestment(row rowScanner) (core.Investment, error) {
	var (
		inv      core.Investment
		quantity string
		purchase string
		current  string
	)
	err := row.Scan(&inv.ID, &inv.UserID, &inv.Symbol, &inv.Name, &quantity,
		&purchase, &current, &inv.Broker, &inv.PurchaseDate)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Investment{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Investment{}, fmt.Errorf("scan investment: %w", err)
	}
	if inv.Quantity, err = parseDecimal(quantity); err != nil {
		return core.Investment{}, err
	}
	if inv.PurchasePrice, err = parseDecimal(purchase); err != nil {
		return core.Investment{}, err
	}
	if inv.CurrentPrice, err = parseDecimal(current); err != nil {
		return core.Investment{}, err
	}
	return inv, nil
}
