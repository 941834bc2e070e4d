package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

// LoanService applies payments to loans and manages the loan state machine.
// Payments only ever decrease the balance; once it reaches zero the loan is
// paid off for good and further payments are rejected.
type LoanService struct {
	store ledger.Store
}

func NewLoanService(store ledger.Store) *LoanService {
	return &LoanService{store: store}
}

// LoanInput carries the creatable fields of a loan. CurrentBalance defaults
// to the principal when zero.
type LoanInput struct {
	Lender          string
	PrincipalAmount decimal.Decimal
	CurrentBalance  decimal.Decimal
	InterestRate    decimal.Decimal
	MonthlyPayment  decimal.Decimal
	StartDate       time.Time
	EndDate         time.Time
	NextPaymentDate time.Time
	Status          core.LoanStatus
	Notes           string
}

// LoanUpdate carries the editable fields. The balance is driven by payments,
// never by direct edits; status is editable so a loan can be marked
// defaulted, which no payment path ever does.
type LoanUpdate struct {
	Lender         string
	InterestRate   *decimal.Decimal
	MonthlyPayment *decimal.Decimal
	EndDate        time.Time
	Status         core.LoanStatus
	Notes          *string
}

// LoanView is a loan plus its derived read-time fields.
type LoanView struct {
	core.Loan
	MonthsRemaining    int
	TotalInterest      decimal.Decimal
	PaidAmount         decimal.Decimal
	ProgressPercentage decimal.Decimal
}

func (s *LoanService) Create(ctx context.Context, userID string, in LoanInput) (LoanView, error) {
	l := core.Loan{
		ID:              uuid.NewString(),
		UserID:          userID,
		Lender:          in.Lender,
		PrincipalAmount: in.PrincipalAmount,
		CurrentBalance:  in.CurrentBalance,
		InterestRate:    in.InterestRate,
		MonthlyPayment:  in.MonthlyPayment,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		NextPaymentDate: in.NextPaymentDate,
		Status:          in.Status,
		Notes:           in.Notes,
	}
	if l.CurrentBalance.IsZero() {
		l.CurrentBalance = l.PrincipalAmount
	}
	if l.Status == "" {
		l.Status = core.LoanActive
	}
	if l.NextPaymentDate.IsZero() && !l.StartDate.IsZero() {
		l.NextPaymentDate = core.AddCalendarMonths(l.StartDate, 1)
	}
	if err := l.Validate(); err != nil {
		return LoanView{}, core.Invalid(err.Error())
	}
	if err := s.store.SaveLoan(ctx, l); err != nil {
		return LoanView{}, fmt.Errorf("save loan: %w", err)
	}
	slog.InfoContext(ctx, "Loan created", "loan_id", l.ID, "principal", l.PrincipalAmount)
	return s.view(l), nil
}

func (s *LoanService) Get(ctx context.Context, userID, id string) (LoanView, error) {
	l, err := s.store.GetLoan(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return LoanView{}, core.NotFound("loan not found")
		}
		return LoanView{}, fmt.Errorf("load loan: %w", err)
	}
	return s.view(l), nil
}

func (s *LoanService) List(ctx context.Context, userID string) ([]LoanView, error) {
	loans, err := s.store.ListLoans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	views := make([]LoanView, len(loans))
	for i, l := range loans {
		views[i] = s.view(l)
	}
	return views, nil
}

func (s *LoanService) Update(ctx context.Context, userID, id string, in LoanUpdate) (LoanView, error) {
	var out core.Loan
	err := s.store.InTx(ctx, func(tx ledger.Store) error {
		l, err := tx.GetLoan(ctx, userID, id)
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return core.NotFound("loan not found")
			}
			return fmt.Errorf("load loan: %w", err)
		}
		if in.Lender != "" {
			l.Lender = in.Lender
		}
		if in.InterestRate != nil {
			l.InterestRate = *in.InterestRate
		}
		if in.MonthlyPayment != nil {
			l.MonthlyPayment = *in.MonthlyPayment
		}
		if !in.EndDate.IsZero() {
			l.EndDate = in.EndDate
		}
		if in.Status != "" {
			l.Status = in.Status
		}
		if in.Notes != nil {
			l.Notes = *in.Notes
		}
		if err := l.Validate(); err != nil {
			return core.Invalid(err.Error())
		}
		if err := tx.SaveLoan(ctx, l); err != nil {
			return fmt.Errorf("save loan: %w", err)
		}
		out = l
		return nil
	})
	if err != nil {
		return LoanView{}, err
	}
	return s.view(out), nil
}

func (s *LoanService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteLoan(ctx, userID, id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return core.NotFound("loan not found")
		}
		return fmt.Errorf("delete loan: %w", err)
	}
	return nil
}

// RecordPayment decreases the balance by the payment amount, clamped at zero.
// Reaching zero transitions the loan to paid_off, which is terminal for the
// payment path; otherwise the next payment date advances by one calendar
// month with month-end clamping.
func (s *LoanService) RecordPayment(ctx context.Context, userID, id string, amount decimal.Decimal) (LoanView, error) {
	if !amount.IsPositive() {
		return LoanView{}, core.Invalid("payment amount must be positive")
	}
	var out core.Loan
	err := s.store.InTx(ctx, func(tx ledger.Store) error {
		l, err := tx.GetLoan(ctx, userID, id)
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return core.NotFound("loan not found")
			}
			return fmt.Errorf("load loan: %w", err)
		}
		if l.Status != core.LoanActive {
			return core.Invalid("cannot record payment for inactive loan")
		}
		l.CurrentBalance = l.CurrentBalance.Sub(amount)
		if l.CurrentBalance.IsNegative() {
			l.CurrentBalance = decimal.Zero
		}
		if l.CurrentBalance.IsZero() {
			l.Status = core.LoanPaidOff
		} else {
			l.NextPaymentDate = core.AddCalendarMonths(l.NextPaymentDate, 1)
		}
		if err := tx.SaveLoan(ctx, l); err != nil {
			return fmt.Errorf("save loan: %w", err)
		}
		out = l
		return nil
	})
	if err != nil {
		return LoanView{}, err
	}
	slog.InfoContext(ctx, "Loan payment recorded",
		"loan_id", id, "amount", amount, "balance", out.CurrentBalance, "status", out.Status)
	return s.view(out), nil
}

// view computes the derived fields. TotalInterest keeps the legacy
// monthlyPayment*totalMonths-principal formula, which is an approximation and
// not an amortization schedule; callers depend on the exact figure.
func (s *LoanService) view(l core.Loan) LoanView {
	totalMonths := l.TotalMonths()
	totalInterest := l.MonthlyPayment.Mul(decimal.NewFromInt(int64(totalMonths))).Sub(l.PrincipalAmount)
	paid := l.PrincipalAmount.Sub(l.CurrentBalance)
	return LoanView{
		Loan:               l,
		MonthsRemaining:    core.MonthsBetween(time.Now(), l.EndDate),
		TotalInterest:      totalInterest,
		PaidAmount:         paid,
		ProgressPercentage: core.Percentage(paid, l.PrincipalAmount),
	}
}
