// Package ledger defines the persistence ports consumed by the services.
// The SQLite store and the in-memory test store both implement Store.
package ledger

import (
	"context"
	"errors"
	"time"

	"moneta/internal/core"
)

// ErrNotFound is returned by every Get when the document does not exist or
// belongs to another user. Stores never distinguish the two cases.
var ErrNotFound = errors.New("not found")

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	AccountID string
	Type      core.TransactionType
	Category  string
	From      time.Time
	To        time.Time
	Page      int
	Limit     int
}

type (
	AccountStore interface {
		GetAccount(ctx context.Context, userID, id string) (core.Account, error)
		ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
		SaveAccount(ctx context.Context, a core.Account) error
		DeleteAccount(ctx context.Context, userID, id string) error
	}

	TransactionStore interface {
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
		// ListTransactions returns the requested page plus the total match count.
		ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]core.Transaction, int, error)
		SaveTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, userID, id string) error
		CountByAccount(ctx context.Context, userID, accountID string) (int, error)
	}

	LoanStore interface {
		GetLoan(ctx context.Context, userID, id string) (core.Loan, error)
		ListLoans(ctx context.Context, userID string) ([]core.Loan, error)
		SaveLoan(ctx context.Context, l core.Loan) error
		DeleteLoan(ctx context.Context, userID, id string) error
	}

	InvestmentStore interface {
		GetInvestment(ctx context.Context, userID, id string) (core.Investment, error)
		ListInvestments(ctx context.Context, userID string) ([]core.Investment, error)
		SaveInvestment(ctx context.Context, inv core.Investment) error
		DeleteInvestment(ctx context.Context, userID, id string) error
	}

	CategoryStore interface {
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
		SaveCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, userID, id string) error
	}

	ReminderStore interface {
		GetReminder(ctx context.Context, userID, id string) (core.Reminder, error)
		ListReminders(ctx context.Context, userID string) ([]core.Reminder, error)
		// ListDueReminders returns open reminders across all users with a due
		// date at or before the cutoff. Used by the reminder worker.
		ListDueReminders(ctx context.Context, cutoff time.Time) ([]core.Reminder, error)
		SaveReminder(ctx context.Context, r core.Reminder) error
		DeleteReminder(ctx context.Context, userID, id string) error
	}

	UserStore interface {
		GetUser(ctx context.Context, id string) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		SaveUser(ctx context.Context, u core.User) error
	}

	// Session is an opaque bearer token record. Only the SHA-256 hash of the
	// token is persisted.
	Session struct {
		TokenHash string
		UserID    string
		ExpiresAt time.Time
	}

	SessionStore interface {
		GetSession(ctx context.Context, tokenHash string) (Session, error)
		SaveSession(ctx context.Context, s Session) error
		DeleteSession(ctx context.Context, tokenHash string) error
		DeleteExpiredSessions(ctx context.Context, now time.Time) error
	}
)

// Store is the full ledger port. InTx runs fn with a store whose writes are
// atomic with respect to each other; the balance maintainer relies on this to
// keep an account mutation and its triggering transaction mutation together.
type Store interface {
	AccountStore
	TransactionStore
	LoanStore
	InvestmentStore
	CategoryStore
	ReminderStore
	UserStore
	SessionStore

	InTx(ctx context.Context, fn func(Store) error) error
	Close() error
}
