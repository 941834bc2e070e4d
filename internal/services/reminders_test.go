package services

import (
	"context"
	"testing"
	"time"

	"moneta/internal/core"
	"moneta/internal/ledger/memory"
)

func TestReminderProcessDue(t *testing.T) {
	store := memory.New()
	svc := NewReminderService(store, nil)
	ctx := context.Background()

	mk := func(title string, due time.Time, repeat core.Recurrence) core.Reminder {
		r, err := svc.Create(ctx, "u1", ReminderInput{
			Title:   title,
			DueDate: due,
			Repeat:  repeat,
		})
		if err != nil {
			t.Fatalf("create reminder: %v", err)
		}
		return r
	}

	now := time.Date(2025, time.March, 31, 8, 0, 0, 0, time.UTC)
	weekly := mk("Rent check", now.AddDate(0, 0, -1), core.RepeatWeekly)
	monthly := mk("Internet bill", now, core.RepeatMonthly)
	oneShot := mk("Car tax", now.Add(-time.Hour), core.RepeatNone)
	future := mk("Insurance", now.AddDate(0, 1, 0), core.RepeatMonthly)

	n, err := svc.ProcessDue(ctx, now)
	if err != nil {
		t.Fatalf("process due: %v", err)
	}
	if n != 3 {
		t.Fatalf("processed = %d, want 3", n)
	}

	items, _ := svc.List(ctx, "u1")
	byID := make(map[string]core.Reminder, len(items))
	for _, r := range items {
		byID[r.ID] = r
	}

	if got := byID[weekly.ID]; !got.DueDate.Equal(weekly.DueDate.AddDate(0, 0, 7)) {
		t.Errorf("weekly due date = %v, want +7d", got.DueDate)
	}
	if got := byID[monthly.ID]; !got.DueDate.Equal(core.AddCalendarMonths(monthly.DueDate, 1)) {
		t.Errorf("monthly due date = %v, want +1 calendar month", got.DueDate)
	}
	if got := byID[oneShot.ID]; !got.IsDone {
		t.Error("one-shot reminder must be marked done")
	}
	if got := byID[future.ID]; !got.DueDate.Equal(future.DueDate) || got.IsDone {
		t.Error("future reminder must be untouched")
	}

	// A second sweep at the same instant finds nothing new.
	n, err = svc.ProcessDue(ctx, now)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if n != 0 {
		t.Errorf("second sweep processed = %d, want 0", n)
	}
}

func TestReminderValidation(t *testing.T) {
	store := memory.New()
	svc := NewReminderService(store, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u1", ReminderInput{Title: ""}); err == nil {
		t.Error("expected error for empty title")
	}
	if _, err := svc.Create(ctx, "u1", ReminderInput{
		Title:   "Bill",
		DueDate: time.Now(),
		Repeat:  "fortnightly",
	}); err == nil {
		t.Error("expected error for bad recurrence")
	}
}
