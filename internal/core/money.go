// Package core holds the domain model shared by every layer: entities,
// validation rules, money parsing, and the calendar arithmetic used by the
// loan ledger and the reminder scheduler.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string into a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up to two decimal places. Returns ErrInvalidAmount for malformed input,
// explicit signs, or non-positive values.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Sign is implied by the transaction type, never by the amount
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseSignedAmount is ParseAmount without the positivity requirement. It is
// used for fields like an opening account balance, which may legitimately be
// negative (credit cards) or zero.
func ParseSignedAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// Percentage returns part/total*100 rounded to two decimals, 0 when total is 0.
func Percentage(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).Round(2)
}
