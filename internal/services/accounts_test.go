package services

import (
	"context"
	"testing"

	"moneta/internal/core"
	"moneta/internal/ledger/memory"
)

func TestAccountCreateDefaults(t *testing.T) {
	store := memory.New()
	svc := NewAccountService(store)

	a, err := svc.Create(context.Background(), "u1", AccountInput{
		Name: "Wallet",
		Type: core.AccountCash,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Currency != "EUR" {
		t.Errorf("currency = %s, want EUR default", a.Currency)
	}
	if !a.IsActive {
		t.Error("new account must be active")
	}
	if !a.Balance.IsZero() {
		t.Errorf("balance = %s, want 0", a.Balance)
	}
}

func TestAccountUpdateKeepsBalance(t *testing.T) {
	store := memory.New()
	accounts := NewAccountService(store)
	txns := NewTransactionService(store, nil)
	ctx := context.Background()

	acc := seedAccount(t, accounts, "u1", "Main", "100")
	seedTxn(t, txns, "u1", acc.ID, "expense", "40", "Groceries", 5)

	updated, err := accounts.Update(ctx, "u1", acc.ID, AccountUpdate{Name: "Renamed"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Renamed" {
		t.Errorf("name = %s, want Renamed", updated.Name)
	}
	if !updated.Balance.Equal(dec("60")) {
		t.Errorf("balance = %s, want transaction-derived 60", updated.Balance)
	}
}

func TestAccountDeleteWithHistoryRejected(t *testing.T) {
	store := memory.New()
	accounts := NewAccountService(store)
	txns := NewTransactionService(store, nil)
	ctx := context.Background()

	acc := seedAccount(t, accounts, "u1", "Main", "100")
	seedTxn(t, txns, "u1", acc.ID, "expense", "10", "Groceries", 5)

	err := accounts.Delete(ctx, "u1", acc.ID)
	if err == nil {
		t.Fatal("expected delete to be rejected")
	}
	if appErr := core.AsError(err); appErr.Code != core.CodeValidation {
		t.Errorf("error code = %s, want %s", appErr.Code, core.CodeValidation)
	}

	// Account must still be there.
	if _, err := accounts.Get(ctx, "u1", acc.ID); err != nil {
		t.Errorf("account vanished after rejected delete: %v", err)
	}
}

func TestAccountDeleteEmpty(t *testing.T) {
	store := memory.New()
	accounts := NewAccountService(store)
	ctx := context.Background()

	acc := seedAccount(t, accounts, "u1", "Main", "0")
	if err := accounts.Delete(ctx, "u1", acc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := accounts.Get(ctx, "u1", acc.ID); err == nil {
		t.Error("expected account to be gone")
	}
}

func TestAccountCrossUserIsolation(t *testing.T) {
	store := memory.New()
	accounts := NewAccountService(store)
	ctx := context.Background()

	acc := seedAccount(t, accounts, "owner", "Main", "100")

	if _, err := accounts.Get(ctx, "intruder", acc.ID); err == nil {
		t.Error("expected foreign get to fail")
	}
	if err := accounts.Delete(ctx, "intruder", acc.ID); err == nil {
		t.Error("expected foreign delete to fail")
	}
	if _, err := accounts.Update(ctx, "intruder", acc.ID, AccountUpdate{Name: "Hacked"}); err == nil {
		t.Error("expected foreign update to fail")
	}
	got, _ := accounts.Get(ctx, "owner", acc.ID)
	if got.Name != "Main" {
		t.Errorf("name = %s, want untouched Main", got.Name)
	}
}
