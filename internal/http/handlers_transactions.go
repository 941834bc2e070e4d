package http

import (
	"encoding/csv"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
	"moneta/internal/ledger"
	"moneta/internal/services"
)

type transactionJSON struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	Tags        []string        `json:"tags"`
	IsRecurring bool            `json:"is_recurring"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return transactionJSON{
		ID:          t.ID,
		AccountID:   t.AccountID,
		Type:        string(t.Type),
		Amount:      t.Amount,
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date,
		Tags:        tags,
		IsRecurring: t.IsRecurring,
		CreatedAt:   t.CreatedAt,
	}
}

type transactionRequest struct {
	AccountID   string   `json:"account_id"`
	Type        string   `json:"type"`
	Amount      string   `json:"amount"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Tags        []string `json:"tags"`
	IsRecurring bool     `json:"is_recurring"`
}

func (s *Server) parseTransactionInput(req transactionRequest) (services.TransactionInput, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return services.TransactionInput{}, core.Invalid("invalid amount")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return services.TransactionInput{}, core.Invalid("invalid date, expected YYYY-MM-DD")
	}
	return services.TransactionInput{
		AccountID:   req.AccountID,
		Type:        core.TransactionType(req.Type),
		Amount:      amount,
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Date:        date,
		Tags:        req.Tags,
		IsRecurring: req.IsRecurring,
	}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := s.parseTransactionInput(req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.transactions.Create(r.Context(), u.ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(u.ID)
	writeData(w, http.StatusCreated, toTransactionJSON(t))
}

// transactionFilter builds the list filter from query parameters.
func transactionFilter(r *http.Request) ledger.TransactionFilter {
	q := r.URL.Query()
	f := ledger.TransactionFilter{
		AccountID: q.Get("account_id"),
		Type:      core.TransactionType(q.Get("type")),
		Category:  q.Get("category"),
	}
	if v := q.Get("from"); v != "" {
		if t, err := parseDate(v); err == nil {
			f.From = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := parseDate(v); err == nil {
			// Inclusive upper bound on the whole day
			f.To = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
	}
	return f
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	f := transactionFilter(r)
	f.Page, f.Limit = parsePagination(r)

	items, total, err := s.transactions.List(r.Context(), u.ID, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]transactionJSON, 0, len(items))
	for _, t := range items {
		out = append(out, toTransactionJSON(t))
	}
	writePage(w, out, f.Page, f.Limit, total)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	t, err := s.transactions.Get(r.Context(), u.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toTransactionJSON(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := s.parseTransactionInput(req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.transactions.Update(r.Context(), u.ID, r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(u.ID)
	writeData(w, http.StatusOK, toTransactionJSON(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	if err := s.transactions.Delete(r.Context(), u.ID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(u.ID)
	writeMessage(w, http.StatusOK, nil, "transaction deleted")
}

// handleExportTransactions streams the filtered transactions as CSV, joined
// with their account name and type. The filter grammar matches the list
// endpoint; pagination is ignored so the export is always complete.
func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	f := transactionFilter(r)

	items, _, err := s.transactions.List(r.Context(), u.ID, f)
	if err != nil {
		writeError(w, r, err)
		return
	}

	accounts, err := s.accounts.List(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	accByID := make(map[string]core.Account, len(accounts))
	for _, a := range accounts {
		accByID[a.ID] = a
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Date", "Type", "Amount", "Category", "Description", "Account", "Account Type", "Tags"})
	for _, t := range items {
		acc := accByID[t.AccountID]
		_ = cw.Write([]string{
			t.Date.Format("2006-01-02"),
			string(t.Type),
			t.Amount.StringFixed(2),
			t.Category,
			t.Description,
			acc.Name,
			string(acc.Type),
			strings.Join(t.Tags, ";"),
		})
	}
	cw.Flush()
}
