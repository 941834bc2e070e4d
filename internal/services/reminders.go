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

// ReminderService manages bill reminders and, for the worker, rolls due
// reminders forward when they fire.
type ReminderService struct {
	store  ledger.Store
	events *amqp.Client
}

func NewReminderService(store ledger.Store, events *amqp.Client) *ReminderService {
	return &ReminderService{store: store, events: events}
}

type ReminderInput struct {
	Title   string
	Amount  decimal.Decimal
	DueDate time.Time
	Repeat  core.Recurrence
	IsDone  *bool
}

func (s *ReminderService) Create(ctx context.Context, userID string, in ReminderInput) (core.Reminder, error) {
	r := core.Reminder{
		ID:      uuid.NewString(),
		UserID:  userID,
		Title:   in.Title,
		Amount:  in.Amount,
		DueDate: in.DueDate,
		Repeat:  in.Repeat,
	}
	if r.Repeat == "" {
		r.Repeat = core.RepeatNone
	}
	if err := r.Validate(); err != nil {
		return core.Reminder{}, core.Invalid(err.Error())
	}
	if err := s.store.SaveReminder(ctx, r); err != nil {
		return core.Reminder{}, fmt.Errorf("save reminder: %w", err)
	}
	return r, nil
}

func (s *ReminderService) List(ctx context.Context, userID string) ([]core.Reminder, error) {
	items, err := s.store.ListReminders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return items, nil
}

func (s *ReminderService) Update(ctx context.Context, userID, id string, in ReminderInput) (core.Reminder, error) {
	var out core.Reminder
	err := s.store.InTx(ctx, func(tx ledger.Store) error {
		r, err := tx.GetReminder(ctx, userID, id)
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return core.NotFound("reminder not found")
			}
			return fmt.Errorf("load reminder: %w", err)
		}
		if in.Title != "" {
			r.Title = in.Title
		}
		if !in.Amount.IsZero() {
			r.Amount = in.Amount
		}
		if !in.DueDate.IsZero() {
			r.DueDate = in.DueDate
		}
		if in.Repeat != "" {
			r.Repeat = in.Repeat
		}
		if in.IsDone != nil {
			r.IsDone = *in.IsDone
		}
		if err := r.Validate(); err != nil {
			return core.Invalid(err.Error())
		}
		if err := tx.SaveReminder(ctx, r); err != nil {
			return fmt.Errorf("save reminder: %w", err)
		}
		out = r
		return nil
	})
	if err != nil {
		return core.Reminder{}, err
	}
	return out, nil
}

func (s *ReminderService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteReminder(ctx, userID, id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return core.NotFound("reminder not found")
		}
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// ProcessDue publishes a reminder.due event for every open reminder whose due
// date has passed, then reschedules recurring reminders with calendar-aware
// date arithmetic and closes one-shot ones. Returns the number processed.
func (s *ReminderService) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.ListDueReminders(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list due reminders: %w", err)
	}

	processed := 0
	for _, r := range due {
		if s.events != nil {
			err := s.events.PublishLedgerEvent(ctx, amqp.LedgerEvent{
				Kind:       amqp.EventReminderDue,
				EntityID:   r.ID,
				UserID:     r.UserID,
				OccurredAt: now.UTC(),
			})
			if err != nil {
				slog.ErrorContext(ctx, "Failed to publish reminder event",
					"reminder_id", r.ID, "error", err)
				continue
			}
		}

		switch r.Repeat {
		case core.RepeatWeekly:
			r.DueDate = r.DueDate.AddDate(0, 0, 7)
		case core.RepeatMonthly:
			r.DueDate = core.AddCalendarMonths(r.DueDate, 1)
		case core.RepeatYearly:
			r.DueDate = core.AddCalendarMonths(r.DueDate, 12)
		default:
			r.IsDone = true
		}
		if err := s.store.SaveReminder(ctx, r); err != nil {
			return processed, fmt.Errorf("reschedule reminder %s: %w", r.ID, err)
		}
		processed++
	}

	if processed > 0 {
		slog.InfoContext(ctx, "Due reminders processed", "count", processed)
	}
	return processed, nil
}
