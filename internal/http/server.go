// Package http exposes the REST API: auth, the ledger resources, and the
// report endpoints, all under /api/v1.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"moneta/internal/auth"
	"moneta/internal/cache"
	"moneta/internal/services"
)

// Services bundles the dependencies the server routes to.
type Services struct {
	Auth         *auth.Service
	Accounts     *services.AccountService
	Transactions *services.TransactionService
	Loans        *services.LoanService
	Investments  *services.InvestmentService
	Categories   *services.CategoryService
	Reminders    *services.ReminderService
	Reports      *services.ReportService
}

type Server struct {
	http.Server

	auth         *auth.Service
	accounts     *services.AccountService
	transactions *services.TransactionService
	loans        *services.LoanService
	investments  *services.InvestmentService
	categories   *services.CategoryService
	reminders    *services.ReminderService
	reports      *services.ReportService

	rateLimiter *rateLimiter

	// reportCache memoizes report responses per user. Keys are
	// "<userID>:<report>:<params>" so a user's writes invalidate only that
	// user's entries.
	reportCache  *cache.LRU[any]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer wires the routes and returns a ready-to-run server.
func NewServer(addr string, deps Services) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		auth:         deps.Auth,
		accounts:     deps.Accounts,
		transactions: deps.Transactions,
		loans:        deps.Loans,
		investments:  deps.Investments,
		categories:   deps.Categories,
		reminders:    deps.Reminders,
		reports:      deps.Reports,
		rateLimiter:  newRateLimiter(),
		reportCache:  cache.NewLRU[any](500, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register(s.reportCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/v1/auth/register", s.withSecurity(s.handleRegister))
	mux.HandleFunc("POST /api/v1/auth/login", s.withSecurity(s.handleLogin))
	mux.HandleFunc("POST /api/v1/auth/logout", s.withSecurity(s.withAuth(s.handleLogout)))
	mux.HandleFunc("GET /api/v1/auth/me", s.withSecurity(s.withAuth(s.handleMe)))

	mux.HandleFunc("POST /api/v1/accounts", s.protected(s.handleCreateAccount))
	mux.HandleFunc("GET /api/v1/accounts", s.protected(s.handleListAccounts))
	mux.HandleFunc("GET /api/v1/accounts/{id}", s.protected(s.handleGetAccount))
	mux.HandleFunc("PUT /api/v1/accounts/{id}", s.protected(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/v1/accounts/{id}", s.protected(s.handleDeleteAccount))

	mux.HandleFunc("POST /api/v1/transactions", s.protected(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/v1/transactions", s.protected(s.handleListTransactions))
	mux.HandleFunc("GET /api/v1/transactions/export", s.protected(s.handleExportTransactions))
	mux.HandleFunc("GET /api/v1/transactions/{id}", s.protected(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/v1/transactions/{id}", s.protected(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/v1/transactions/{id}", s.protected(s.handleDeleteTransaction))

	mux.HandleFunc("POST /api/v1/loans", s.protected(s.handleCreateLoan))
	mux.HandleFunc("GET /api/v1/loans", s.protected(s.handleListLoans))
	mux.HandleFunc("GET /api/v1/loans/{id}", s.protected(s.handleGetLoan))
	mux.HandleFunc("PUT /api/v1/loans/{id}", s.protected(s.handleUpdateLoan))
	mux.HandleFunc("DELETE /api/v1/loans/{id}", s.protected(s.handleDeleteLoan))
	mux.HandleFunc("POST /api/v1/loans/{id}/payments", s.protected(s.handleLoanPayment))

	mux.HandleFunc("POST /api/v1/investments", s.protected(s.handleCreateInvestment))
	mux.HandleFunc("GET /api/v1/investments", s.protected(s.handleListInvestments))
	mux.HandleFunc("GET /api/v1/investments/{id}", s.protected(s.handleGetInvestment))
	mux.HandleFunc("PUT /api/v1/investments/{id}", s.protected(s.handleUpdateInvestment))
	mux.HandleFunc("DELETE /api/v1/investments/{id}", s.protected(s.handleDeleteInvestment))

	mux.HandleFunc("POST /api/v1/categories", s.protected(s.handleCreateCategory))
	mux.HandleFunc("GET /api/v1/categories", s.protected(s.handleListCategories))
	mux.HandleFunc("DELETE /api/v1/categories/{id}", s.protected(s.handleDeleteCategory))

	mux.HandleFunc("POST /api/v1/reminders", s.protected(s.handleCreateReminder))
	mux.HandleFunc("GET /api/v1/reminders", s.protected(s.handleListReminders))
	mux.HandleFunc("PUT /api/v1/reminders/{id}", s.protected(s.handleUpdateReminder))
	mux.HandleFunc("DELETE /api/v1/reminders/{id}", s.protected(s.handleDeleteReminder))

	mux.HandleFunc("GET /api/v1/reports/summary", s.protected(s.handleReportSummary))
	mux.HandleFunc("GET /api/v1/reports/networth", s.protected(s.handleReportNetWorth))
	mux.HandleFunc("GET /api/v1/reports/categories", s.protected(s.handleReportCategories))
	mux.HandleFunc("GET /api/v1/reports/budget", s.protected(s.handleReportBudget))

	return s
}

// protected is the standard middleware chain for authenticated endpoints.
func (s *Server) protected(h http.HandlerFunc) http.HandlerFunc {
	return s.withSecurity(s.withAuth(h))
}

// invalidateReports drops every cached report for the user. Called on every
// write that can change an aggregate.
func (s *Server) invalidateReports(userID string) {
	s.reportCache.DeletePrefix(userID + ":")
}

// Shutdown stops the cleanup goroutines, then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
