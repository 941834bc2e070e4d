package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
	"moneta/internal/ledger/memory"
)

func seedLoan(t *testing.T, svc *LoanService, userID string, in LoanInput) LoanView {
	t.Helper()
	v, err := svc.Create(context.Background(), userID, in)
	if err != nil {
		t.Fatalf("seed loan: %v", err)
	}
	return v
}

func baseLoanInput() LoanInput {
	return LoanInput{
		Lender:          "Bank",
		PrincipalAmount: dec("1200"),
		MonthlyPayment:  dec("100"),
		StartDate:       time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestLoanCreateDefaults(t *testing.T) {
	store := memory.New()
	svc := NewLoanService(store)

	v := seedLoan(t, svc, "u1", baseLoanInput())
	if !v.CurrentBalance.Equal(dec("1200")) {
		t.Errorf("balance = %s, want principal 1200", v.CurrentBalance)
	}
	if v.Status != core.LoanActive {
		t.Errorf("status = %s, want active", v.Status)
	}
	want := time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC)
	if !v.NextPaymentDate.Equal(want) {
		t.Errorf("next payment date = %v, want %v", v.NextPaymentDate, want)
	}
}

func TestLoanPaymentSequence(t *testing.T) {
	store := memory.New()
	svc := NewLoanService(store)
	ctx := context.Background()

	v := seedLoan(t, svc, "u1", baseLoanInput())

	// 1200 - 500 = 700
	v, err := svc.RecordPayment(ctx, "u1", v.ID, dec("500"))
	if err != nil {
		t.Fatalf("payment 1: %v", err)
	}
	if !v.CurrentBalance.Equal(dec("700")) {
		t.Errorf("balance after payment 1 = %s, want 700", v.CurrentBalance)
	}
	if v.Status != core.LoanActive {
		t.Errorf("status = %s, want active", v.Status)
	}
	wantNext := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	if !v.NextPaymentDate.Equal(wantNext) {
		t.Errorf("next payment date = %v, want %v", v.NextPaymentDate, wantNext)
	}

	// 700 - 700 = 0 -> paid off, date frozen
	v, err = svc.RecordPayment(ctx, "u1", v.ID, dec("700"))
	if err != nil {
		t.Fatalf("payment 2: %v", err)
	}
	if !v.CurrentBalance.IsZero() {
		t.Errorf("balance after payoff = %s, want 0", v.CurrentBalance)
	}
	if v.Status != core.LoanPaidOff {
		t.Errorf("status = %s, want paid_off", v.Status)
	}
	if !v.NextPaymentDate.Equal(wantNext) {
		t.Errorf("next payment date moved on payoff: %v, want %v", v.NextPaymentDate, wantNext)
	}

	// Further payments are rejected
	if _, err := svc.RecordPayment(ctx, "u1", v.ID, dec("100")); err == nil {
		t.Fatal("expected error paying a paid-off loan")
	}
}

func TestLoanOverpaymentClampsToZero(t *testing.T) {
	store := memory.New()
	svc := NewLoanService(store)

	v := seedLoan(t, svc, "u1", baseLoanInput())
	v, err := svc.RecordPayment(context.Background(), "u1", v.ID, dec("5000"))
	if err != nil {
		t.Fatalf("overpayment: %v", err)
	}
	if !v.CurrentBalance.IsZero() {
		t.Errorf("balance = %s, want clamped 0", v.CurrentBalance)
	}
	if v.Status != core.LoanPaidOff {
		t.Errorf("status = %s, want paid_off", v.Status)
	}
}

func TestLoanPaymentValidation(t *testing.T) {
	store := memory.New()
	svc := NewLoanService(store)
	ctx := context.Background()

	v := seedLoan(t, svc, "u1", baseLoanInput())

	if _, err := svc.RecordPayment(ctx, "u1", v.ID, decimal.Zero); err == nil {
		t.Error("expected error for zero payment")
	}
	if _, err := svc.RecordPayment(ctx, "u1", v.ID, dec("-10")); err == nil {
		t.Error("expected error for negative payment")
	}
	if _, err := svc.RecordPayment(ctx, "u1", "missing", dec("10")); err == nil {
		t.Error("expected error for unknown loan")
	}
	if _, err := svc.RecordPayment(ctx, "other", v.ID, dec("10")); err == nil {
		t.Error("expected error for foreign loan")
	}
}

func TestLoanPaymentNextDateClampsMonthEnd(t *testing.T) {
	store := memory.New()
	svc := NewLoanService(store)
	ctx := context.Background()

	in := baseLoanInput()
	in.NextPaymentDate = time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	v := seedLoan(t, svc, "u1", in)

	v, err := svc.RecordPayment(ctx, "u1", v.ID, dec("100"))
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	want := time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)
	if !v.NextPaymentDate.Equal(want) {
		t.Errorf("next payment date = %v, want clamped %v", v.NextPaymentDate, want)
	}
}

func TestLoanDerivedFields(t *testing.T) {
	store := memory.New()
	svc := NewLoanService(store)

	in := LoanInput{
		Lender:          "Bank",
		PrincipalAmount: dec("10000"),
		CurrentBalance:  dec("7500"),
		MonthlyPayment:  dec("450"),
		StartDate:       time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	v := seedLoan(t, svc, "u1", in)

	// 450 * 24 - 10000 = 800
	if !v.TotalInterest.Equal(dec("800")) {
		t.Errorf("total interest = %s, want 800", v.TotalInterest)
	}
	if !v.PaidAmount.Equal(dec("2500")) {
		t.Errorf("paid amount = %s, want 2500", v.PaidAmount)
	}
	if !v.ProgressPercentage.Equal(dec("25")) {
		t.Errorf("progress = %s, want 25", v.ProgressPercentage)
	}
}

func TestLoanDefaultedRejectsPayments(t *testing.T) {
	store := memory.New()
	svc := NewLoanService(store)
	ctx := context.Background()

	v := seedLoan(t, svc, "u1", baseLoanInput())
	if _, err := svc.Update(ctx, "u1", v.ID, LoanUpdate{Status: core.LoanDefaulted}); err != nil {
		t.Fatalf("mark defaulted: %v", err)
	}
	if _, err := svc.RecordPayment(ctx, "u1", v.ID, dec("100")); err == nil {
		t.Fatal("expected error paying a defaulted loan")
	}
}
