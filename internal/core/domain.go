package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	AccountSavings       AccountType = "savings"
	AccountCurrent       AccountType = "current"
	AccountCreditCard    AccountType = "credit_card"
	AccountCash          AccountType = "cash"
	AccountDigitalWallet AccountType = "digital_wallet"
)

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

const (
	LoanActive    LoanStatus = "active"
	LoanPaidOff   LoanStatus = "paid_off"
	LoanDefaulted LoanStatus = "defaulted"
)

const (
	RepeatNone    Recurrence = "none"
	RepeatWeekly  Recurrence = "weekly"
	RepeatMonthly Recurrence = "monthly"
	RepeatYearly  Recurrence = "yearly"
)

type (
	AccountType     string
	TransactionType string
	LoanStatus      string
	Recurrence      string

	User struct {
		ID           string
		Email        string
		PasswordHash string
		Name         string
		CreatedAt    time.Time
	}

	Account struct {
		ID        string
		UserID    string
		Name      string
		Type      AccountType
		Balance   decimal.Decimal
		Currency  string
		IsActive  bool
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Transaction struct {
		ID          string
		UserID      string
		AccountID   string
		Type        TransactionType
		Amount      decimal.Decimal
		Category    string
		Description string
		Date        time.Time
		Tags        []string
		IsRecurring bool
		CreatedAt   time.Time
	}

	Loan struct {
		ID              string
		UserID          string
		Lender          string
		PrincipalAmount decimal.Decimal
		CurrentBalance  decimal.Decimal
		InterestRate    decimal.Decimal
		MonthlyPayment  decimal.Decimal
		StartDate       time.Time
		EndDate         time.Time
		NextPaymentDate time.Time
		Status          LoanStatus
		Notes           string
	}

	Investment struct {
		ID            string
		UserID        string
		Symbol        string
		Name          string
		Quantity      decimal.Decimal
		PurchasePrice decimal.Decimal
		CurrentPrice  decimal.Decimal
		Broker        string
		PurchaseDate  time.Time
	}

	Category struct {
		ID     string
		UserID string
		Name   string
		Kind   TransactionType
		Color  string
	}

	Reminder struct {
		ID      string
		UserID  string
		Title   string
		Amount  decimal.Decimal
		DueDate time.Time
		Repeat  Recurrence
		IsDone  bool
	}
)

var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrInvalidTxnType     = errors.New("invalid transaction type")
	ErrInvalidLoanStatus  = errors.New("invalid loan status")
	ErrInvalidRecurrence  = errors.New("invalid recurrence")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyCategory      = errors.New("empty category")
	ErrZeroDate           = errors.New("date cannot be zero")
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountSavings, AccountCurrent, AccountCreditCard, AccountCash, AccountDigitalWallet:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

func (s LoanStatus) Valid() bool {
	switch s {
	case LoanActive, LoanPaidOff, LoanDefaulted:
		return true
	}
	return false
}

func (r Recurrence) Valid() bool {
	switch r {
	case RepeatNone, RepeatWeekly, RepeatMonthly, RepeatYearly:
		return true
	}
	return false
}

func (a Account) Validate() error {
	if len(strings.TrimSpace(a.Name)) == 0 {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if !a.Type.Valid() {
		return ErrInvalidAccountType
	}
	if a.Currency == "" {
		return errors.New("empty currency")
	}
	return nil
}

// SignedAmount returns the transaction's contribution to its account balance:
// income adds, expense subtracts.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionIncome {
		return t.Amount
	}
	return t.Amount.Neg()
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidTxnType
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if t.AccountID == "" {
		return errors.New("empty account id")
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (l Loan) Validate() error {
	if len(strings.TrimSpace(l.Lender)) == 0 {
		return ErrEmptyName
	}
	if !l.PrincipalAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if l.CurrentBalance.IsNegative() {
		return errors.New("current balance cannot be negative")
	}
	if l.MonthlyPayment.IsNegative() {
		return errors.New("monthly payment cannot be negative")
	}
	if !l.Status.Valid() {
		return ErrInvalidLoanStatus
	}
	if l.StartDate.IsZero() || l.EndDate.IsZero() {
		return ErrZeroDate
	}
	if !l.EndDate.After(l.StartDate) {
		return errors.New("end date must be after start date")
	}
	return nil
}

// TotalMonths returns the number of whole calendar months between the loan's
// start and end dates.
func (l Loan) TotalMonths() int {
	return MonthsBetween(l.StartDate, l.EndDate)
}

func (i Investment) Validate() error {
	if len(strings.TrimSpace(i.Symbol)) == 0 {
		return errors.New("empty symbol")
	}
	if !i.Quantity.IsPositive() {
		return errors.New("quantity must be positive")
	}
	if i.PurchasePrice.IsNegative() || i.CurrentPrice.IsNegative() {
		return errors.New("price cannot be negative")
	}
	if i.PurchaseDate.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// CurrentValue is always derived on read, never stored.
func (i Investment) CurrentValue() decimal.Decimal {
	return i.Quantity.Mul(i.CurrentPrice)
}

// GainLoss is the difference between current and purchase value.
func (i Investment) GainLoss() decimal.Decimal {
	return i.Quantity.Mul(i.CurrentPrice.Sub(i.PurchasePrice))
}

// GainLossPercent returns the gain/loss relative to the purchase value as a
// percentage, 0 when the purchase value is 0.
func (i Investment) GainLossPercent() decimal.Decimal {
	cost := i.Quantity.Mul(i.PurchasePrice)
	if cost.IsZero() {
		return decimal.Zero
	}
	return i.GainLoss().Div(cost).Mul(decimal.NewFromInt(100)).Round(2)
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if !c.Kind.Valid() {
		return ErrInvalidTxnType
	}
	return nil
}

func (r Reminder) Validate() error {
	if len(strings.TrimSpace(r.Title)) == 0 {
		return ErrEmptyName
	}
	if r.DueDate.IsZero() {
		return ErrZeroDate
	}
	if r.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !r.Repeat.Valid() {
		return ErrInvalidRecurrence
	}
	return nil
}

// MonthsBetween counts whole calendar months from a to b, never negative.
func MonthsBetween(a, b time.Time) int {
	if b.Before(a) {
		return 0
	}
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if b.Day() < a.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// AddCalendarMonths advances t by n calendar months keeping the day of month,
// clamping to the last day when the target month is shorter (Jan 31 + 1 month
// is Feb 28/29, not Mar 2).
func AddCalendarMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	lastDay := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
