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

// AccountService owns account lifecycle. A user-supplied balance is honored
// only at creation time; after that the balance changes exclusively through
// the transaction service.
type AccountService struct {
	store ledger.Store
}

func NewAccountService(store ledger.Store) *AccountService {
	return &AccountService{store: store}
}

// AccountInput carries the creatable fields of an account. OpeningBalance is
// only read by Create.
type AccountInput struct {
	Name           string
	Type           core.AccountType
	Currency       string
	OpeningBalance decimal.Decimal
}

// AccountUpdate carries the editable fields. There is deliberately no balance
// field here: a submitted balance is discarded before this struct is built,
// so direct balance edits cannot diverge from the transaction-derived truth.
type AccountUpdate struct {
	Name     string
	Type     core.AccountType
	Currency string
	IsActive *bool
}

func (s *AccountService) Create(ctx context.Context, userID string, in AccountInput) (core.Account, error) {
	now := time.Now().UTC()
	a := core.Account{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      in.Name,
		Type:      in.Type,
		Balance:   in.OpeningBalance,
		Currency:  in.Currency,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if a.Currency == "" {
		a.Currency = "EUR"
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, core.Invalid(err.Error())
	}
	if err := s.store.SaveAccount(ctx, a); err != nil {
		return core.Account{}, fmt.Errorf("save account: %w", err)
	}
	slog.InfoContext(ctx, "Account created", "account_id", a.ID, "type", a.Type)
	return a, nil
}

func (s *AccountService) Get(ctx context.Context, userID, id string) (core.Account, error) {
	a, err := s.store.GetAccount(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return core.Account{}, core.NotFound("account not found")
		}
		return core.Account{}, fmt.Errorf("load account: %w", err)
	}
	return a, nil
}

func (s *AccountService) List(ctx context.Context, userID string) ([]core.Account, error) {
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// Update edits the descriptive fields of an account. The stored balance is
// carried over untouched regardless of what the client sent.
func (s *AccountService) Update(ctx context.Context, userID, id string, in AccountUpdate) (core.Account, error) {
	var out core.Account
	err := s.store.InTx(ctx, func(tx ledger.Store) error {
		a, err := tx.GetAccount(ctx, userID, id)
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return core.NotFound("account not found")
			}
			return fmt.Errorf("load account: %w", err)
		}
		if in.Name != "" {
			a.Name = in.Name
		}
		if in.Type != "" {
			a.Type = in.Type
		}
		if in.Currency != "" {
			a.Currency = in.Currency
		}
		if in.IsActive != nil {
			a.IsActive = *in.IsActive
		}
		a.UpdatedAt = time.Now().UTC()
		if err := a.Validate(); err != nil {
			return core.Invalid(err.Error())
		}
		if err := tx.SaveAccount(ctx, a); err != nil {
			return fmt.Errorf("save account: %w", err)
		}
		out = a
		return nil
	})
	if err != nil {
		return core.Account{}, err
	}
	return out, nil
}

// Delete removes an account with no transaction history. While transactions
// still reference the account the delete is rejected, which keeps
// transactions from ever outliving their account.
func (s *AccountService) Delete(ctx context.Context, userID, id string) error {
	return s.store.InTx(ctx, func(tx ledger.Store) error {
		if _, err := tx.GetAccount(ctx, userID, id); err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return core.NotFound("account not found")
			}
			return fmt.Errorf("load account: %w", err)
		}
		n, err := tx.CountByAccount(ctx, userID, id)
		if err != nil {
			return fmt.Errorf("count transactions: %w", err)
		}
		if n > 0 {
			return core.Invalid("cannot delete account with transaction history")
		}
		if err := tx.DeleteAccount(ctx, userID, id); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		return nil
	})
}
