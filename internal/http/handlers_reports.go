package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"
)

type summaryJSON struct {
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Income      decimal.Decimal `json:"income"`
	Expenses    decimal.Decimal `json:"expenses"`
	Net         decimal.Decimal `json:"net"`
	SavingsRate decimal.Decimal `json:"savings_rate"`
}

type netWorthJSON struct {
	Accounts    decimal.Decimal `json:"accounts"`
	Investments decimal.Decimal `json:"investments"`
	Loans       decimal.Decimal `json:"loans"`
	Total       decimal.Decimal `json:"total"`
}

type categoryAmountJSON struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

type budgetLineJSON struct {
	Category  string          `json:"category"`
	Limit     decimal.Decimal `json:"limit"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
	Used      decimal.Decimal `json:"used"`
}

// cachedReport serves a report from the per-user cache, computing and caching
// it on a miss.
func (s *Server) cachedReport(w http.ResponseWriter, r *http.Request, key string, compute func() (any, error)) {
	if data, ok := s.reportCache.Get(key); ok {
		slog.DebugContext(r.Context(), "Report cache hit", "key", key)
		writeData(w, http.StatusOK, data)
		return
	}
	data, err := compute()
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.reportCache.Set(key, data)
	writeData(w, http.StatusOK, data)
}

func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	year, month := parseYearMonth(r)
	key := fmt.Sprintf("%s:summary:%d-%d", u.ID, year, month)
	s.cachedReport(w, r, key, func() (any, error) {
		sum, err := s.reports.Summary(r.Context(), u.ID, year, month)
		if err != nil {
			return nil, err
		}
		return summaryJSON{
			Year:        sum.Year,
			Month:       sum.Month,
			Income:      sum.Income,
			Expenses:    sum.Expenses,
			Net:         sum.Net,
			SavingsRate: sum.SavingsRate,
		}, nil
	})
}

func (s *Server) handleReportNetWorth(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	key := u.ID + ":networth"
	s.cachedReport(w, r, key, func() (any, error) {
		nw, err := s.reports.NetWorth(r.Context(), u.ID)
		if err != nil {
			return nil, err
		}
		return netWorthJSON{
			Accounts:    nw.Accounts,
			Investments: nw.Investments,
			Loans:       nw.Loans,
			Total:       nw.Total,
		}, nil
	})
}

func (s *Server) handleReportCategories(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	year, month := parseYearMonth(r)
	key := fmt.Sprintf("%s:categories:%d-%d", u.ID, year, month)
	s.cachedReport(w, r, key, func() (any, error) {
		breakdown, err := s.reports.CategoryBreakdown(r.Context(), u.ID, year, month)
		if err != nil {
			return nil, err
		}
		out := make([]categoryAmountJSON, 0, len(breakdown))
		for _, b := range breakdown {
			out = append(out, categoryAmountJSON{
				Category:   b.Category,
				Amount:     b.Amount,
				Percentage: b.Percentage,
			})
		}
		return out, nil
	})
}

func (s *Server) handleReportBudget(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	year, month := parseYearMonth(r)
	key := fmt.Sprintf("%s:budget:%d-%d", u.ID, year, month)
	s.cachedReport(w, r, key, func() (any, error) {
		lines, err := s.reports.BudgetProgress(r.Context(), u.ID, year, month)
		if err != nil {
			return nil, err
		}
		out := make([]budgetLineJSON, 0, len(lines))
		for _, l := range lines {
			out = append(out, budgetLineJSON{
				Category:  l.Category,
				Limit:     l.Limit,
				Spent:     l.Spent,
				Remaining: l.Remaining,
				Used:      l.Used,
			})
		}
		return out, nil
	})
}
