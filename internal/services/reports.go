package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

// ReportService computes read-only summaries from current store state. Every
// view is a pure function of its inputs and is recomputed on request; the
// HTTP layer may cache results as long as it invalidates on every write.
type ReportService struct {
	store   ledger.Store
	budgets map[string]decimal.Decimal
}

// DefaultBudgets is the static category→monthly-limit table used when the
// config does not override it.
var DefaultBudgets = map[string]decimal.Decimal{
	"Housing":       decimal.NewFromInt(1200),
	"Groceries":     decimal.NewFromInt(500),
	"Transport":     decimal.NewFromInt(200),
	"Entertainment": decimal.NewFromInt(150),
	"Health":        decimal.NewFromInt(100),
	"Utilities":     decimal.NewFromInt(250),
}

func NewReportService(store ledger.Store, budgets map[string]decimal.Decimal) *ReportService {
	if budgets == nil {
		budgets = DefaultBudgets
	}
	return &ReportService{store: store, budgets: budgets}
}

type (
	// MonthlySummary is the income/expense overview for one calendar month.
	MonthlySummary struct {
		Year        int
		Month       int
		Income      decimal.Decimal
		Expenses    decimal.Decimal
		Net         decimal.Decimal
		SavingsRate decimal.Decimal
	}

	// CategoryAmount is one slice of the expense breakdown.
	CategoryAmount struct {
		Category   string
		Amount     decimal.Decimal
		Percentage decimal.Decimal
	}

	// NetWorth aggregates the holdings of a user.
	NetWorth struct {
		Accounts    decimal.Decimal
		Investments decimal.Decimal
		Loans       decimal.Decimal
		Total       decimal.Decimal
	}

	// BudgetLine compares month-to-date spending against a static limit.
	BudgetLine struct {
		Category  string
		Limit     decimal.Decimal
		Spent     decimal.Decimal
		Remaining decimal.Decimal
		Used      decimal.Decimal
	}
)

func monthBounds(year, month int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return from, to
}

// Summary returns income, expenses and savings rate for a month. The savings
// rate is (income-expenses)/income*100 and defined as 0 when income is 0.
func (s *ReportService) Summary(ctx context.Context, userID string, year, month int) (MonthlySummary, error) {
	from, to := monthBounds(year, month)
	items, _, err := s.store.ListTransactions(ctx, userID, ledger.TransactionFilter{From: from, To: to})
	if err != nil {
		return MonthlySummary{}, fmt.Errorf("list transactions: %w", err)
	}
	out := MonthlySummary{Year: year, Month: month}
	for _, t := range items {
		if t.Type == core.TransactionIncome {
			out.Income = out.Income.Add(t.Amount)
		} else {
			out.Expenses = out.Expenses.Add(t.Amount)
		}
	}
	out.Net = out.Income.Sub(out.Expenses)
	out.SavingsRate = core.Percentage(out.Net, out.Income)
	return out, nil
}

// NetWorth is sum(active account balances) + sum(investment current values)
// - sum(active loan balances).
func (s *ReportService) NetWorth(ctx context.Context, userID string) (NetWorth, error) {
	var out NetWorth

	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return out, fmt.Errorf("list accounts: %w", err)
	}
	for _, a := range accounts {
		if a.IsActive {
			out.Accounts = out.Accounts.Add(a.Balance)
		}
	}

	investments, err := s.store.ListInvestments(ctx, userID)
	if err != nil {
		return out, fmt.Errorf("list investments: %w", err)
	}
	for _, inv := range investments {
		out.Investments = out.Investments.Add(inv.CurrentValue())
	}

	loans, err := s.store.ListLoans(ctx, userID)
	if err != nil {
		return out, fmt.Errorf("list loans: %w", err)
	}
	for _, l := range loans {
		if l.Status == core.LoanActive {
			out.Loans = out.Loans.Add(l.CurrentBalance)
		}
	}

	out.Total = out.Accounts.Add(out.Investments).Sub(out.Loans)
	return out, nil
}

// CategoryBreakdown groups the month's expenses by category with each
// category's share of the total, largest first.
func (s *ReportService) CategoryBreakdown(ctx context.Context, userID string, year, month int) ([]CategoryAmount, error) {
	from, to := monthBounds(year, month)
	items, _, err := s.store.ListTransactions(ctx, userID, ledger.TransactionFilter{
		Type: core.TransactionExpense,
		From: from,
		To:   to,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	byCat := make(map[string]decimal.Decimal)
	var total decimal.Decimal
	for _, t := range items {
		byCat[t.Category] = byCat[t.Category].Add(t.Amount)
		total = total.Add(t.Amount)
	}

	out := make([]CategoryAmount, 0, len(byCat))
	for cat, amt := range byCat {
		out = append(out, CategoryAmount{
			Category:   cat,
			Amount:     amt,
			Percentage: core.Percentage(amt, total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// BudgetProgress compares the month's spending per category against the
// static limits table. Categories with spending but no limit are omitted.
func (s *ReportService) BudgetProgress(ctx context.Context, userID string, year, month int) ([]BudgetLine, error) {
	breakdown, err := s.CategoryBreakdown(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}
	spent := make(map[string]decimal.Decimal, len(breakdown))
	for _, b := range breakdown {
		spent[b.Category] = b.Amount
	}

	names := make([]string, 0, len(s.budgets))
	for name := range s.budgets {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]BudgetLine, 0, len(names))
	for _, name := range names {
		limit := s.budgets[name]
		used := spent[name]
		out = append(out, BudgetLine{
			Category:  name,
			Limit:     limit,
			Spent:     used,
			Remaining: limit.Sub(used),
			Used:      core.Percentage(used, limit),
		})
	}
	return out, nil
}
