package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
	"moneta/internal/services"
)

type investmentJSON struct {
	ID              string          `json:"id"`
	Symbol          string          `json:"symbol"`
	Name            string          `json:"name"`
	Quantity        decimal.Decimal `json:"quantity"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	Broker          string          `json:"broker"`
	PurchaseDate    time.Time       `json:"purchase_date"`
	CurrentValue    decimal.Decimal `json:"current_value"`
	GainLoss        decimal.Decimal `json:"gain_loss"`
	GainLossPercent decimal.Decimal `json:"gain_loss_percent"`
}

func toInvestmentJSON(inv core.Investment) investmentJSON {
	return investmentJSON{
		ID:              inv.ID,
		Symbol:          inv.Symbol,
		Name:            inv.Name,
		Quantity:        inv.Quantity,
		PurchasePrice:   inv.PurchasePrice,
		CurrentPrice:    inv.CurrentPrice,
		Broker:          inv.Broker,
		PurchaseDate:    inv.PurchaseDate,
		CurrentValue:    inv.CurrentValue(),
		GainLoss:        inv.GainLoss(),
		GainLossPercent: inv.GainLossPercent(),
	}
}

type investmentRequest struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Quantity      string `json:"quantity"`
	PurchasePrice string `json:"purchase_price"`
	CurrentPrice  string `json:"current_price"`
	Broker        string `json:"broker"`
	PurchaseDate  string `json:"purchase_date"`
}

func parseInvestmentInput(req investmentRequest) (services.InvestmentInput, error) {
	in := services.InvestmentInput{
		Symbol: sanitizeInput(req.Symbol),
		Name:   sanitizeInput(req.Name),
		Broker: sanitizeInput(req.Broker),
	}
	var err error
	if in.Quantity, err = parseOptionalAmount(req.Quantity); err != nil {
		return in, core.Invalid("invalid quantity")
	}
	if in.PurchasePrice, err = parseOptionalAmount(req.PurchasePrice); err != nil {
		return in, core.Invalid("invalid purchase price")
	}
	if in.CurrentPrice, err = parseOptionalAmount(req.CurrentPrice); err != nil {
		return in, core.Invalid("invalid current price")
	}
	if in.PurchaseDate, err = parseOptionalDate(req.PurchaseDate); err != nil {
		return in, core.Invalid("invalid purchase date")
	}
	return in, nil
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	var req investmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := parseInvestmentInput(req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	inv, err := s.investments.Create(r.Context(), u.ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(u.ID)
	writeData(w, http.StatusCreated, toInvestmentJSON(inv))
}

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	items, err := s.investments.List(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]investmentJSON, 0, len(items))
	for _, inv := range items {
		out = append(out, toInvestmentJSON(inv))
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleGetInvestment(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	inv, err := s.investments.Get(r.Context(), u.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toInvestmentJSON(inv))
}

func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	var req investmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := parseInvestmentInput(req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	inv, err := s.investments.Update(r.Context(), u.ID, r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(u.ID)
	writeData(w, http.StatusOK, toInvestmentJSON(inv))
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	if err := s.investments.Delete(r.Context(), u.ID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(u.ID)
	writeMessage(w, http.StatusOK, nil, "investment deleted")
}
