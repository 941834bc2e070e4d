package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
	"moneta/internal/services"
)

type accountJSON struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toAccountJSON(a core.Account) accountJSON {
	return accountJSON{
		ID:        a.ID,
		Name:      a.Name,
		Type:      string(a.Type),
		Balance:   a.Balance,
		Currency:  a.Currency,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// accountRequest is shared by create and update. Balance is only honored at
// creation; updates discard it so the stored balance stays derived from
// transactions alone.
type accountRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
	IsActive *bool  `json:"is_active"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	opening := decimal.Zero
	if req.Balance != "" {
		var err error
		if opening, err = core.ParseSignedAmount(req.Balance); err != nil {
			writeError(w, r, core.Invalid("invalid balance"))
			return
		}
	}

	a, err := s.accounts.Create(r.Context(), u.ID, services.AccountInput{
		Name:           sanitizeInput(req.Name),
		Type:           core.AccountType(req.Type),
		Currency:       req.Currency,
		OpeningBalance: opening,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(u.ID)
	writeData(w, http.StatusCreated, toAccountJSON(a))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	accounts, err := s.accounts.List(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]accountJSON, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountJSON(a))
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	a, err := s.accounts.Get(r.Context(), u.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toAccountJSON(a))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	// req.Balance is intentionally dropped here.
	a, err := s.accounts.Update(r.Context(), u.ID, r.PathValue("id"), services.AccountUpdate{
		Name:     sanitizeInput(req.Name),
		Type:     core.AccountType(req.Type),
		Currency: req.Currency,
		IsActive: req.IsActive,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(u.ID)
	writeData(w, http.StatusOK, toAccountJSON(a))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	if err := s.accounts.Delete(r.Context(), u.ID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(u.ID)
	writeMessage(w, http.StatusOK, nil, "account deleted")
}
