package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event kinds carried on the ledger_events queue.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionUpdated = "transaction.updated"
	EventTransactionDeleted = "transaction.deleted"
	EventReminderDue        = "reminder.due"
)

// LedgerEvent notifies downstream consumers (the sheets mirror, notifiers)
// that a ledger document changed. The payload is intentionally thin: the
// consumer re-reads the entity from the store by ID.
type LedgerEvent struct {
	Kind       string    `json:"kind"`
	EntityID   string    `json:"entity_id"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal ledger event: %w", err)
	}
	if e.Kind == "" {
		return nil, fmt.Errorf("ledger event missing kind")
	}
	return &e, nil
}
