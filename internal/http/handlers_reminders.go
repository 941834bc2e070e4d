package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
	"moneta/internal/services"
)

type reminderJSON struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Amount  decimal.Decimal `json:"amount"`
	DueDate time.Time       `json:"due_date"`
	Repeat  string          `json:"repeat"`
	IsDone  bool            `json:"is_done"`
}

func toReminderJSON(rem core.Reminder) reminderJSON {
	return reminderJSON{
		ID:      rem.ID,
		Title:   rem.Title,
		Amount:  rem.Amount,
		DueDate: rem.DueDate,
		Repeat:  string(rem.Repeat),
		IsDone:  rem.IsDone,
	}
}

type reminderRequest struct {
	Title   string `json:"title"`
	Amount  string `json:"amount"`
	DueDate string `json:"due_date"`
	Repeat  string `json:"repeat"`
	IsDone  *bool  `json:"is_done"`
}

func parseReminderInput(req reminderRequest) (services.ReminderInput, error) {
	in := services.ReminderInput{
		Title:  sanitizeInput(req.Title),
		Repeat: core.Recurrence(req.Repeat),
		IsDone: req.IsDone,
	}
	var err error
	if in.Amount, err = parseOptionalAmount(req.Amount); err != nil {
		return in, core.Invalid("invalid amount")
	}
	if in.DueDate, err = parseOptionalDate(req.DueDate); err != nil {
		return in, core.Invalid("invalid due date")
	}
	return in, nil
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	var req reminderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := parseReminderInput(req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rem, err := s.reminders.Create(r.Context(), u.ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toReminderJSON(rem))
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	items, err := s.reminders.List(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]reminderJSON, 0, len(items))
	for _, rem := range items {
		out = append(out, toReminderJSON(rem))
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	var req reminderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := parseReminderInput(req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rem, err := s.reminders.Update(r.Context(), u.ID, r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toReminderJSON(rem))
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	if err := s.reminders.Delete(r.Context(), u.ID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "reminder deleted")
}
