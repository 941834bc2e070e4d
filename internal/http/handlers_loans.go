package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
	"moneta/internal/services"
)

type loanJSON struct {
	ID                 string          `json:"id"`
	Lender             string          `json:"lender"`
	PrincipalAmount    decimal.Decimal `json:"principal_amount"`
	CurrentBalance     decimal.Decimal `json:"current_balance"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	MonthlyPayment     decimal.Decimal `json:"monthly_payment"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            time.Time       `json:"end_date"`
	NextPaymentDate    *time.Time      `json:"next_payment_date,omitempty"`
	Status             string          `json:"status"`
	Notes              string          `json:"notes"`
	MonthsRemaining    int             `json:"months_remaining"`
	TotalInterest      decimal.Decimal `json:"total_interest"`
	PaidAmount         decimal.Decimal `json:"paid_amount"`
	ProgressPercentage decimal.Decimal `json:"progress_percentage"`
}

func toLoanJSON(v services.LoanView) loanJSON {
	out := loanJSON{
		ID:                 v.ID,
		Lender:             v.Lender,
		PrincipalAmount:    v.PrincipalAmount,
		CurrentBalance:     v.CurrentBalance,
		InterestRate:       v.InterestRate,
		MonthlyPayment:     v.MonthlyPayment,
		StartDate:          v.StartDate,
		EndDate:            v.EndDate,
		Status:             string(v.Status),
		Notes:              v.Notes,
		MonthsRemaining:    v.MonthsRemaining,
		TotalInterest:      v.TotalInterest,
		PaidAmount:         v.PaidAmount,
		ProgressPercentage: v.ProgressPercentage,
	}
	if !v.NextPaymentDate.IsZero() {
		d := v.NextPaymentDate
		out.NextPaymentDate = &d
	}
	return out
}

type loanRequest struct {
	Lender          string `json:"lender"`
	PrincipalAmount string `json:"principal_amount"`
	CurrentBalance  string `json:"current_balance"`
	InterestRate    string `json:"interest_rate"`
	MonthlyPayment  string `json:"monthly_payment"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	NextPaymentDate string `json:"next_payment_date"`
	Status          string `json:"status"`
	Notes           *string `json:"notes"`
}

func parseOptionalAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return core.ParseSignedAmount(s)
}

func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return parseDate(s)
}

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	var req loanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	in := services.LoanInput{Lender: sanitizeInput(req.Lender), Status: core.LoanStatus(req.Status)}
	if req.Notes != nil {
		in.Notes = sanitizeInput(*req.Notes)
	}
	var err error
	if in.PrincipalAmount, err = parseOptionalAmount(req.PrincipalAmount); err != nil {
		writeError(w, r, core.Invalid("invalid principal amount"))
		return
	}
	if in.CurrentBalance, err = parseOptionalAmount(req.CurrentBalance); err != nil {
		writeError(w, r, core.Invalid("invalid current balance"))
		return
	}
	if in.InterestRate, err = parseOptionalAmount(req.InterestRate); err != nil {
		writeError(w, r, core.Invalid("invalid interest rate"))
		return
	}
	if in.MonthlyPayment, err = parseOptionalAmount(req.MonthlyPayment); err != nil {
		writeError(w, r, core.Invalid("invalid monthly payment"))
		return
	}
	if in.StartDate, err = parseOptionalDate(req.StartDate); err != nil {
		writeError(w, r, core.Invalid("invalid start date"))
		return
	}
	if in.EndDate, err = parseOptionalDate(req.EndDate); err != nil {
		writeError(w, r, core.Invalid("invalid end date"))
		return
	}
	if in.NextPaymentDate, err = parseOptionalDate(req.NextPaymentDate); err != nil {
		writeError(w, r, core.Invalid("invalid next payment date"))
		return
	}

	v, err := s.loans.Create(r.Context(), u.ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(u.ID)
	writeData(w, http.StatusCreated, toLoanJSON(v))
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	views, err := s.loans.List(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]loanJSON, 0, len(views))
	for _, v := range views {
		out = append(out, toLoanJSON(v))
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	v, err := s.loans.Get(r.Context(), u.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toLoanJSON(v))
}

func (s *Server) handleUpdateLoan(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	var req loanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	in := services.LoanUpdate{
		Lender: sanitizeInput(req.Lender),
		Status: core.LoanStatus(req.Status),
		Notes:  req.Notes,
	}
	if req.InterestRate != "" {
		rate, err := core.ParseSignedAmount(req.InterestRate)
		if err != nil {
			writeError(w, r, core.Invalid("invalid interest rate"))
			return
		}
		in.InterestRate = &rate
	}
	if req.MonthlyPayment != "" {
		payment, err := core.ParseSignedAmount(req.MonthlyPayment)
		if err != nil {
			writeError(w, r, core.Invalid("invalid monthly payment"))
			return
		}
		in.MonthlyPayment = &payment
	}
	var err error
	if in.EndDate, err = parseOptionalDate(req.EndDate); err != nil {
		writeError(w, r, core.Invalid("invalid end date"))
		return
	}

	v, err := s.loans.Update(r.Context(), u.ID, r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(u.ID)
	writeData(w, http.StatusOK, toLoanJSON(v))
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	if err := s.loans.Delete(r.Context(), u.ID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(u.ID)
	writeMessage(w, http.StatusOK, nil, "loan deleted")
}

func (s *Server) handleLoanPayment(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	var req struct {
		Amount string `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, r, core.Invalid("payment amount must be positive"))
		return
	}

	v, err := s.loans.RecordPayment(r.Context(), u.ID, r.PathValue("id"), amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(u.ID)
	writeData(w, http.StatusOK, toLoanJSON(v))
}
