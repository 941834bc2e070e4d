// Package worker holds the background consumers: the sheets mirror fed by
// ledger events and the reminder scheduler loop.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"moneta/internal/amqp"
	"moneta/internal/core"
	"moneta/internal/ledger"
)

// TransactionAppender is the sheets side of the mirror.
type TransactionAppender interface {
	AppendTransaction(ctx context.Context, t core.Transaction, acc core.Account) error
}

// MirrorWorker consumes ledger events and appends the affected transaction
// to the spreadsheet. The mirror is an append-only journal: deletes are not
// propagated, and a transaction that vanished between the event and the
// re-read is skipped, not retried.
type MirrorWorker struct {
	store  ledger.Store
	sheets TransactionAppender
}

func NewMirrorWorker(store ledger.Store, sheets TransactionAppender) *MirrorWorker {
	return &MirrorWorker{store: store, sheets: sheets}
}

// HandleEvent processes one ledger event. Returning an error requeues the
// message, so unrecoverable conditions are logged and swallowed instead.
func (w *MirrorWorker) HandleEvent(ctx context.Context, e *amqp.LedgerEvent) error {
	switch e.Kind {
	case amqp.EventTransactionCreated, amqp.EventTransactionUpdated:
	case amqp.EventTransactionDeleted:
		slog.InfoContext(ctx, "Skipping delete event, mirror is append-only",
			"entity_id", e.EntityID)
		return nil
	default:
		return nil
	}

	t, err := w.store.GetTransaction(ctx, e.UserID, e.EntityID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			slog.WarnContext(ctx, "Transaction gone before mirror sync",
				"entity_id", e.EntityID)
			return nil
		}
		return fmt.Errorf("load transaction %s: %w", e.EntityID, err)
	}
	acc, err := w.store.GetAccount(ctx, e.UserID, t.AccountID)
	if err != nil && !errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("load account %s: %w", t.AccountID, err)
	}

	if err := w.sheets.AppendTransaction(ctx, t, acc); err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}
	slog.InfoContext(ctx, "Transaction mirrored",
		"entity_id", e.EntityID, "kind", e.Kind)
	return nil
}
