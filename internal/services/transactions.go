// Package services holds the business rules between the HTTP layer and the
// ledger store: balance maintenance, the loan ledger, reporting, and auth.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"moneta/internal/amqp"
	"moneta/internal/core"
	"moneta/internal/ledger"
)

// TransactionService owns every transaction mutation and the incremental
// balance bookkeeping that goes with it. An account's stored balance is only
// ever changed here (or at account creation), so the invariant
// "balance == sum of signed transaction amounts since creation" holds as long
// as every path goes through this service.
type TransactionService struct {
	store  ledger.Store
	events *amqp.Client
}

func NewTransactionService(store ledger.Store, events *amqp.Client) *TransactionService {
	return &TransactionService{store: store, events: events}
}

// TransactionInput carries the client-supplied fields of a transaction.
type TransactionInput struct {
	AccountID   string
	Type        core.TransactionType
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        time.Time
	Tags        []string
	IsRecurring bool
}

// Create stores the transaction and applies its signed amount to the account
// balance inside a single store transaction. A missing or foreign account
// fails the whole operation with NotFound; nothing is partially applied.
func (s *TransactionService) Create(ctx context.Context, userID string, in TransactionInput) (core.Transaction, error) {
	t := core.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		AccountID:   in.AccountID,
		Type:        in.Type,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        in.Date,
		Tags:        in.Tags,
		IsRecurring: in.IsRecurring,
		CreatedAt:   time.Now().UTC(),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, core.Invalid(err.Error())
	}

	err := s.store.InTx(ctx, func(tx ledger.Store) error {
		acc, err := tx.GetAccount(ctx, userID, t.AccountID)
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return core.NotFound("account not found")
			}
			return fmt.Errorf("load account: %w", err)
		}
		acc.Balance = acc.Balance.Add(t.SignedAmount())
		acc.UpdatedAt = time.Now().UTC()
		if err := tx.SaveAccount(ctx, acc); err != nil {
			return fmt.Errorf("save account balance: %w", err)
		}
		if err := tx.SaveTransaction(ctx, t); err != nil {
			return fmt.Errorf("save transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	s.publish(ctx, amqp.EventTransactionCreated, t.ID, userID)
	return t, nil
}

// Update replaces the stored transaction. When amount, type, or account
// changed, the old effect is reversed on the old account using the old values
// and the new effect is applied on the (possibly different) new account using
// the new values. The new account is resolved before any mutation so a bad
// reference fails cleanly.
func (s *TransactionService) Update(ctx context.Context, userID, id string, in TransactionInput) (core.Transaction, error) {
	var updated core.Transaction
	err := s.store.InTx(ctx, func(tx ledger.Store) error {
		old, err := tx.GetTransaction(ctx, userID, id)
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return core.NotFound("transaction not found")
			}
			return fmt.Errorf("load transaction: %w", err)
		}

		updated = old
		updated.AccountID = in.AccountID
		updated.Type = in.Type
		updated.Amount = in.Amount
		updated.Category = in.Category
		updated.Description = in.Description
		updated.Date = in.Date
		updated.Tags = in.Tags
		updated.IsRecurring = in.IsRecurring
		if err := updated.Validate(); err != nil {
			return core.Invalid(err.Error())
		}

		balanceUntouched := old.AccountID == updated.AccountID &&
			old.Type == updated.Type &&
			old.Amount.Equal(updated.Amount)
		if balanceUntouched {
			// Only descriptive fields changed; skip the balance writes.
			if err := tx.SaveTransaction(ctx, updated); err != nil {
				return fmt.Errorf("save transaction: %w", err)
			}
			return nil
		}

		oldAcc, err := tx.GetAccount(ctx, userID, old.AccountID)
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return core.NotFound("account not found")
			}
			return fmt.Errorf("load account: %w", err)
		}

		newAcc := oldAcc
		if updated.AccountID != old.AccountID {
			newAcc, err = tx.GetAccount(ctx, userID, updated.AccountID)
			if err != nil {
				if errors.Is(err, ledger.ErrNotFound) {
					return core.NotFound("account not found")
				}
				return fmt.Errorf("load target account: %w", err)
			}
		}

		now := time.Now().UTC()
		// Reverse with the old values, apply with the new ones.
		oldAcc.Balance = oldAcc.Balance.Sub(old.SignedAmount())
		oldAcc.UpdatedAt = now
		if updated.AccountID == old.AccountID {
			oldAcc.Balance = oldAcc.Balance.Add(updated.SignedAmount())
			if err := tx.SaveAccount(ctx, oldAcc); err != nil {
				return fmt.Errorf("save account balance: %w", err)
			}
		} else {
			newAcc.Balance = newAcc.Balance.Add(updated.SignedAmount())
			newAcc.UpdatedAt = now
			if err := tx.SaveAccount(ctx, oldAcc); err != nil {
				return fmt.Errorf("save source account balance: %w", err)
			}
			if err := tx.SaveAccount(ctx, newAcc); err != nil {
				return fmt.Errorf("save target account balance: %w", err)
			}
		}

		if err := tx.SaveTransaction(ctx, updated); err != nil {
			return fmt.Errorf("save transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	s.publish(ctx, amqp.EventTransactionUpdated, id, userID)
	return updated, nil
}

// Delete reverses the transaction's effect on its account, then removes the
// record. Both happen in one store transaction.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	err := s.store.InTx(ctx, func(tx ledger.Store) error {
		t, err := tx.GetTransaction(ctx, userID, id)
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return core.NotFound("transaction not found")
			}
			return fmt.Errorf("load transaction: %w", err)
		}
		acc, err := tx.GetAccount(ctx, userID, t.AccountID)
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return core.NotFound("account not found")
			}
			return fmt.Errorf("load account: %w", err)
		}
		acc.Balance = acc.Balance.Sub(t.SignedAmount())
		acc.UpdatedAt = time.Now().UTC()
		if err := tx.SaveAccount(ctx, acc); err != nil {
			return fmt.Errorf("save account balance: %w", err)
		}
		if err := tx.DeleteTransaction(ctx, userID, id); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, amqp.EventTransactionDeleted, id, userID)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return core.Transaction{}, core.NotFound("transaction not found")
		}
		return core.Transaction{}, fmt.Errorf("load transaction: %w", err)
	}
	return t, nil
}

func (s *TransactionService) List(ctx context.Context, userID string, f ledger.TransactionFilter) ([]core.Transaction, int, error) {
	items, total, err := s.store.ListTransactions(ctx, userID, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return items, total, nil
}

// publish sends a ledger event for downstream consumers. Publish failures are
// logged and never fail the originating request: the local store is the
// source of truth.
func (s *TransactionService) publish(ctx context.Context, kind, entityID, userID string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, amqp.LedgerEvent{
		Kind:       kind,
		EntityID:   entityID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", kind, "entity_id", entityID, "error", err)
	}
}
