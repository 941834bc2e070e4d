package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
	"moneta/internal/ledger/memory"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedAccount(t *testing.T, svc *AccountService, userID, name, balance string) core.Account {
	t.Helper()
	a, err := svc.Create(context.Background(), userID, AccountInput{
		Name:           name,
		Type:           core.AccountCurrent,
		OpeningBalance: dec(balance),
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

func txnInput(accountID, kind, amount string) TransactionInput {
	return TransactionInput{
		AccountID: accountID,
		Type:      core.TransactionType(kind),
		Amount:    dec(amount),
		Category:  "Groceries",
		Date:      time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestTransactionCreateAdjustsBalance(t *testing.T) {
	store := memory.New()
	accounts := NewAccountService(store)
	txns := NewTransactionService(store, nil)
	ctx := context.Background()

	acc := seedAccount(t, accounts, "u1", "Main", "1000")

	if _, err := txns.Create(ctx, "u1", txnInput(acc.ID, "expense", "150")); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if _, err := txns.Create(ctx, "u1", txnInput(acc.ID, "income", "400")); err != nil {
		t.Fatalf("create income: %v", err)
	}

	got, err := accounts.Get(ctx, "u1", acc.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !got.Balance.Equal(dec("1250")) {
		t.Errorf("balance = %s, want 1250", got.Balance)
	}
}

func TestTransactionCreateUnknownAccount(t *testing.T) {
	store := memory.New()
	txns := NewTransactionService(store, nil)

	_, err := txns.Create(context.Background(), "u1", txnInput("missing", "expense", "10"))
	if err == nil {
		t.Fatal("expected error for unknown account")
	}
	if appErr := core.AsError(err); appErr.Code != core.CodeNotFound {
		t.Errorf("error code = %s, want %s", appErr.Code, core.CodeNotFound)
	}
}

func TestTransactionCreateForeignAccount(t *testing.T) {
	store := memory.New()
	accounts := NewAccountService(store)
	txns := NewTransactionService(store, nil)

	acc := seedAccount(t, accounts, "owner", "Main", "100")

	_, err := txns.Create(context.Background(), "intruder", txnInput(acc.ID, "expense", "10"))
	if err == nil {
		t.Fatal("expected error for foreign account")
	}
	if appErr := core.AsError(err); appErr.Code != core.CodeNotFound {
		t.Errorf("error code = %s, want %s", appErr.Code, core.CodeNotFound)
	}
}

func TestTransactionUpdateSameAmountKeepsBalance(t *testing.T) {
	store := memory.New()
	accounts := NewAccountService(store)
	txns := NewTransactionService(store, nil)
	ctx := context.Background()

	acc := seedAccount(t, accounts, "u1", "Main", "1000")
	created, err := txns.Create(ctx, "u1", txnInput(acc.ID, "expense", "200"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	in := txnInput(acc.ID, "expense", "200")
	in.Description = "renamed"
	in.Category = "Utilities"
	if _, err := txns.Update(ctx, "u1", created.ID, in); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := accounts.Get(ctx, "u1", acc.ID)
	if !got.Balance.Equal(dec("800")) {
		t.Errorf("balance = %s, want 800 (descriptive update must not touch balance)", got.Balance)
	}
}

func TestTransactionUpdateAmountAndType(t *testing.T) {
	store := memory.New()
	accounts := NewAccountService(store)
	txns := NewTransactionService(store, nil)
	ctx := context.Background()

	acc := seedAccount(t, accounts, "u1", "Main", "1000")
	created, err := txns.Create(ctx, "u1", txnInput(acc.ID, "expense", "200"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// expense 200 -> income 50: reverse -200, apply +50
	if _, err := txns.Update(ctx, "u1", created.ID, txnInput(acc.ID, "income", "50")); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := accounts.Get(ctx, "u1", acc.ID)
	if !got.Balance.Equal(dec("1050")) {
		t.Errorf("balance = %s, want 1050", got.Balance)
	}
}

func TestTransactionUpdateMovesAccounts(t *testing.T) {
	store := memory.New()
	accounts := NewAccountService(store)
	txns := NewTransactionService(store, nil)
	ctx := context.Background()

	src := seedAccount(t, accounts, "u1", "Source", "500")
	dst := seedAccount(t, accounts, "u1", "Target", "500")
	created, err := txns.Create(ctx, "u1", txnInput(src.ID, "expense", "100"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := txns.Update(ctx, "u1", created.ID, txnInput(dst.ID, "expense", "100")); err != nil {
		t.Fatalf("update: %v", err)
	}

	gotSrc, _ := accounts.Get(ctx, "u1", src.ID)
	gotDst, _ := accounts.Get(ctx, "u1", dst.ID)
	if !gotSrc.Balance.Equal(dec("500")) {
		t.Errorf("source balance = %s, want 500", gotSrc.Balance)
	}
	if !gotDst.Balance.Equal(dec("400")) {
		t.Errorf("target balance = %s, want 400", gotDst.Balance)
	}
}

func TestTransactionUpdateBadTargetLeavesStateIntact(t *testing.T) {
	store := memory.New()
	accounts := NewAccountService(store)
	txns := NewTransactionService(store, nil)
	ctx := context.Background()

	acc := seedAccount(t, accounts, "u1", "Main", "500")
	created, err := txns.Create(ctx, "u1", txnInput(acc.ID, "expense", "100"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := txns.Update(ctx, "u1", created.ID, txnInput("missing", "expense", "300")); err == nil {
		t.Fatal("expected error for missing target account")
	}

	got, _ := accounts.Get(ctx, "u1", acc.ID)
	if !got.Balance.Equal(dec("400")) {
		t.Errorf("balance = %s, want 400 (failed update must not move money)", got.Balance)
	}
	orig, _ := txns.Get(ctx, "u1", created.ID)
	if !orig.Amount.Equal(dec("100")) {
		t.Errorf("transaction amount = %s, want original 100", orig.Amount)
	}
}

func TestTransactionDeleteReversesEffect(t *testing.T) {
	store := memory.New()
	accounts := NewAccountService(store)
	txns := NewTransactionService(store, nil)
	ctx := context.Background()

	acc := seedAccount(t, accounts, "u1", "Main", "1000")
	created, err := txns.Create(ctx, "u1", txnInput(acc.ID, "income", "250"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := txns.Delete(ctx, "u1", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, _ := accounts.Get(ctx, "u1", acc.ID)
	if !got.Balance.Equal(dec("1000")) {
		t.Errorf("balance = %s, want 1000 after round trip", got.Balance)
	}
	if _, err := txns.Get(ctx, "u1", created.ID); err == nil {
		t.Error("expected transaction to be gone")
	}
}

func TestTransactionCreateRejectsInvalid(t *testing.T) {
	store := memory.New()
	accounts := NewAccountService(store)
	txns := NewTransactionService(store, nil)
	ctx := context.Background()

	acc := seedAccount(t, accounts, "u1", "Main", "100")

	in := txnInput(acc.ID, "expense", "10")
	in.Category = ""
	_, err := txns.Create(ctx, "u1", in)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if appErr := core.AsError(err); appErr.Code != core.CodeValidation {
		t.Errorf("error code = %s, want %s", appErr.Code, core.CodeValidation)
	}

	got, _ := accounts.Get(ctx, "u1", acc.ID)
	if !got.Balance.Equal(dec("100")) {
		t.Errorf("balance = %s, want untouched 100", got.Balance)
	}
}
