package worker

import (
	"context"
	"log/slog"
	"time"
)

// DueProcessor is implemented by the reminder service.
type DueProcessor interface {
	ProcessDue(ctx context.Context, now time.Time) (int, error)
}

// ReminderWorker polls for due reminders on a fixed interval.
type ReminderWorker struct {
	reminders DueProcessor
	interval  time.Duration
}

func NewReminderWorker(reminders DueProcessor, interval time.Duration) *ReminderWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ReminderWorker{reminders: reminders, interval: interval}
}

// Run blocks until the context is cancelled. A failing sweep is logged and
// retried on the next tick.
func (w *ReminderWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Reminder worker started", "interval", w.interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			n, err := w.reminders.ProcessDue(ctx, now)
			if err != nil {
				slog.ErrorContext(ctx, "Reminder sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "Reminder sweep completed", "processed", n)
			}
		}
	}
}
