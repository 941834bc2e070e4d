package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

const loanColumns = `id, user_id, lender, principal_amount, current_balance,
	interest_rate, monthly_payment, start_date, end_date, next_payment_date, status, notes`

func (r *Repository) GetLoan(ctx context.Context, userID, id string) (core.Loan, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+loanColumns+`
		FROM loans WHERE id = ? AND user_id = ?`, id, userID)
	return scanLoan(row)
}

func (r *Repository) ListLoans(ctx context.Context, userID string) ([]core.Loan, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+loanColumns+`
		FROM loans WHERE user_id = ? ORDER BY start_date`, userID)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	defer rows.Close()

	var out []core.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Repository) SaveLoan(ctx context.Context, l core.Loan) error {
	var nextPayment any
	if !l.NextPaymentDate.IsZero() {
		nextPayment = l.NextPaymentDate
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO loans (id, user_id, lender, principal_amount, current_balance,
			interest_rate, monthly_payment, start_date, end_date, next_payment_date, status, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			lender = excluded.lender,
			principal_amount = excluded.principal_amount,
			current_balance = excluded.current_balance,
			interest_rate = excluded.interest_rate,
			monthly_payment = excluded.monthly_payment,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			next_payment_date = excluded.next_payment_date,
			status = excluded.status,
			notes = excluded.notes`,
		l.ID, l.UserID, l.Lender, l.PrincipalAmount.String(), l.CurrentBalance.String(),
		l.InterestRate.String(), l.MonthlyPayment.String(), l.StartDate, l.EndDate,
		nextPayment, string(l.Status), l.Notes)
	if err != nil {
		return fmt.Errorf("save loan: %w", err)
	}
	return nil
}

func (r *Repository) DeleteLoan(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM loans WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func scanLoan(row rowScanner) (core.Loan, error) {
	var (
		l           core.Loan
		principal   string
		balance     string
		rate        string
		payment     string
		status      string
		nextPayment sql.NullTime
	)
	err := row.Scan(&l.ID, &l.UserID, &l.Lender, &principal, &balance,
		&rate, &payment, &l.StartDate, &l.EndDate, &nextPayment, &status, &l.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Loan{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Loan{}, fmt.Errorf("scan loan: %w", err)
	}
	l.Status = core.LoanStatus(status)
	if nextPayment.Valid {
		l.NextPaymentDate = nextPayment.Time
	}
	if l.PrincipalAmount, err = parseDecimal(principal); err != nil {
		return core.Loan{}, err
	}
	if l.CurrentBalance, err = parseDecimal(balance); err != nil {
		return core.Loan{}, err
	}
	if l.InterestRate, err = parseDecimal(rate); err != nil {
		return core.Loan{}, err
	}
	if l.MonthlyPayment, err = parseDecimal(payment); err != nil {
		return core.Loan{}, err
	}
	return l, nil
}
