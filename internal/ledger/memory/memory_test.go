package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

func seed(t *testing.T, s *Store, userID, accountID, category string, kind core.TransactionType, day int) core.Transaction {
	t.Helper()
	txn := core.Transaction{
		ID:        fmt.Sprintf("t-%s-%s-%d", accountID, category, day),
		UserID:    userID,
		AccountID: accountID,
		Type:      kind,
		Amount:    decimal.NewFromInt(10),
		Category:  category,
		Date:      time.Date(2025, time.March, day, 12, 0, 0, 0, time.UTC),
		CreatedAt: time.Now(),
	}
	if err := s.SaveTransaction(context.Background(), txn); err != nil {
		t.Fatalf("save transaction: %v", err)
	}
	return txn
}

func TestListTransactionsFilter(t *testing.T) {
	s := New()
	ctx := context.Background()

	seed(t, s, "u1", "acc1", "Groceries", core.TransactionExpense, 1)
	seed(t, s, "u1", "acc1", "Salary", core.TransactionIncome, 5)
	seed(t, s, "u1", "acc2", "groceries", core.TransactionExpense, 10)
	seed(t, s, "u2", "acc3", "Groceries", core.TransactionExpense, 10)

	tests := []struct {
		name      string
		filter    ledger.TransactionFilter
		wantTotal int
	}{
		{"no filter", ledger.TransactionFilter{}, 3},
		{"by account", ledger.TransactionFilter{AccountID: "acc1"}, 2},
		{"by type", ledger.TransactionFilter{Type: core.TransactionIncome}, 1},
		{"category is case-insensitive", ledger.TransactionFilter{Category: "GROCERIES"}, 2},
		{"from", ledger.TransactionFilter{From: time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)}, 2},
		{"to", ledger.TransactionFilter{To: time.Date(2025, time.March, 5, 23, 59, 59, 0, time.UTC)}, 2},
		{"window", ledger.TransactionFilter{
			From: time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC),
		}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := s.ListTransactions(ctx, "u1", tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if total != tt.wantTotal || len(items) != tt.wantTotal {
				t.Errorf("total = %d, len = %d, want %d", total, len(items), tt.wantTotal)
			}
		})
	}
}

func TestListTransactionsPagination(t *testing.T) {
	s := New()
	ctx := context.Background()

	for day := 1; day <= 5; day++ {
		seed(t, s, "u1", "acc1", "Misc", core.TransactionExpense, day)
	}

	items, total, err := s.ListTransactions(ctx, "u1", ledger.TransactionFilter{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 || len(items) != 2 {
		t.Fatalf("page 1: total = %d, len = %d, want 5 and 2", total, len(items))
	}
	// Newest first.
	if items[0].Date.Before(items[1].Date) {
		t.Error("expected descending date order")
	}

	items, _, _ = s.ListTransactions(ctx, "u1", ledger.TransactionFilter{Page: 3, Limit: 2})
	if len(items) != 1 {
		t.Errorf("page 3 len = %d, want 1", len(items))
	}
	items, _, _ = s.ListTransactions(ctx, "u1", ledger.TransactionFilter{Page: 9, Limit: 2})
	if len(items) != 0 {
		t.Errorf("past-the-end page len = %d, want 0", len(items))
	}
}
