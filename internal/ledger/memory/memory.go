// Package memory is an in-process ledger.Store used by unit tests and the
// memory backend. A single mutex serializes every operation, which also
// serves as the InTx atomicity guarantee.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

type Store struct {
	mu           sync.Mutex
	accounts     map[string]core.Account
	transactions map[string]core.Transaction
	loans        map[string]core.Loan
	investments  map[string]core.Investment
	categories   map[string]core.Category
	reminders    map[string]core.Reminder
	users        map[string]core.User
	sessions     map[string]ledger.Session

	// noLock marks the view handed to InTx callbacks, which already run
	// under the parent store's mutex.
	noLock bool
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		accounts:     make(map[string]core.Account),
		transactions: make(map[string]core.Transaction),
		loans:        make(map[string]core.Loan),
		investments:  make(map[string]core.Investment),
		categories:   make(map[string]core.Category),
		reminders:    make(map[string]core.Reminder),
		users:        make(map[string]core.User),
		sessions:     make(map[string]ledger.Session),
	}
}

// InTx serializes fn behind the store mutex. fn receives a view sharing the
// same maps but skipping the lock, so it can call back into the store while
// every other goroutine blocks until the callback returns.
func (s *Store) InTx(_ context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := &Store{
		accounts:     s.accounts,
		transactions: s.transactions,
		loans:        s.loans,
		investments:  s.investments,
		categories:   s.categories,
		reminders:    s.reminders,
		users:        s.users,
		sessions:     s.sessions,
		noLock:       true,
	}
	return fn(view)
}

func (s *Store) Close() error { return nil }

func (s *Store) lock() {
	if !s.noLock {
		s.mu.Lock()
	}
}

func (s *Store) unlock() {
	if !s.noLock {
		s.mu.Unlock()
	}
}

func (s *Store) GetAccount(_ context.Context, userID, id string) (core.Account, error) {
	s.lock()
	defer s.unlock()
	a, ok := s.accounts[id]
	if !ok || a.UserID != userID {
		return core.Account{}, ledger.ErrNotFound
	}
	return a, nil
}

func (s *Store) ListAccounts(_ context.Context, userID string) ([]core.Account, error) {
	s.lock()
	defer s.unlock()
	var out []core.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) SaveAccount(_ context.Context, a core.Account) error {
	s.lock()
	defer s.unlock()
	s.accounts[a.ID] = a
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, userID, id string) error {
	s.lock()
	defer s.unlock()
	a, ok := s.accounts[id]
	if !ok || a.UserID != userID {
		return ledger.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.lock()
	defer s.unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, ledger.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, userID string, f ledger.TransactionFilter) ([]core.Transaction, int, error) {
	s.lock()
	defer s.unlock()
	var all []core.Transaction
	for _, t := range s.transactions {
		if t.UserID != userID {
			continue
		}
		if f.AccountID != "" && t.AccountID != f.AccountID {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
			continue
		}
		if !f.From.IsZero() && t.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && t.Date.After(f.To) {
			continue
		}
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.After(all[j].Date)
		}
		return all[i].ID < all[j].ID
	})
	total := len(all)
	page, limit := f.Page, f.Limit
	if limit <= 0 {
		return all, total, nil
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (s *Store) SaveTransaction(_ context.Context, t core.Transaction) error {
	s.lock()
	defer s.unlock()
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.lock()
	defer s.unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return ledger.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) CountByAccount(_ context.Context, userID, accountID string) (int, error) {
	s.lock()
	defer s.unlock()
	n := 0
	for _, t := range s.transactions {
		if t.UserID == userID && t.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetLoan(_ context.Context, userID, id string) (core.Loan, error) {
	s.lock()
	defer s.unlock()
	l, ok := s.loans[id]
	if !ok || l.UserID != userID {
		return core.Loan{}, ledger.ErrNotFound
	}
	return l, nil
}

func (s *Store) ListLoans(_ context.Context, userID string) ([]core.Loan, error) {
	s.lock()
	defer s.unlock()
	var out []core.Loan
	for _, l := range s.loans {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (s *Store) SaveLoan(_ context.Context, l core.Loan) error {
	s.lock()
	defer s.unlock()
	s.loans[l.ID] = l
	return nil
}

func (s *Store) DeleteLoan(_ context.Context, userID, id string) error {
	s.lock()
	defer s.unlock()
	l, ok := s.loans[id]
	if !ok || l.UserID != userID {
		return ledger.ErrNotFound
	}
	delete(s.loans, id)
	return nil
}

func (s *Store) GetInvestment(_ context.Context, userID, id string) (core.Investment, error) {
	s.lock()
	defer s.unlock()
	inv, ok := s.investments[id]
	if !ok || inv.UserID != userID {
		return core.Investment{}, ledger.ErrNotFound
	}
	return inv, nil
}

func (s *Store) ListInvestments(_ context.Context, userID string) ([]core.Investment, error) {
	s.lock()
	defer s.unlock()
	var out []core.Investment
	for _, inv := range s.investments {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchaseDate.Before(out[j].PurchaseDate) })
	return out, nil
}

func (s *Store) SaveInvestment(_ context.Context, inv core.Investment) error {
	s.lock()
	defer s.unlock()
	s.investments[inv.ID] = inv
	return nil
}

func (s *Store) DeleteInvestment(_ context.Context, userID, id string) error {
	s.lock()
	defer s.unlock()
	inv, ok := s.investments[id]
	if !ok || inv.UserID != userID {
		return ledger.ErrNotFound
	}
	delete(s.investments, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.lock()
	defer s.unlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) SaveCategory(_ context.Context, c core.Category) error {
	s.lock()
	defer s.unlock()
	s.categories[c.ID] = c
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, userID, id string) error {
	s.lock()
	defer s.unlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return ledger.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) GetReminder(_ context.Context, userID, id string) (core.Reminder, error) {
	s.lock()
	defer s.unlock()
	r, ok := s.reminders[id]
	if !ok || r.UserID != userID {
		return core.Reminder{}, ledger.ErrNotFound
	}
	return r, nil
}

func (s *Store) ListReminders(_ context.Context, userID string) ([]core.Reminder, error) {
	s.lock()
	defer s.unlock()
	var out []core.Reminder
	for _, r := range s.reminders {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *Store) ListDueReminders(_ context.Context, cutoff time.Time) ([]core.Reminder, error) {
	s.lock()
	defer s.unlock()
	var out []core.Reminder
	for _, r := range s.reminders {
		if !r.IsDone && !r.DueDate.After(cutoff) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *Store) SaveReminder(_ context.Context, r core.Reminder) error {
	s.lock()
	defer s.unlock()
	s.reminders[r.ID] = r
	return nil
}

func (s *Store) DeleteReminder(_ context.Context, userID, id string) error {
	s.lock()
	defer s.unlock()
	r, ok := s.reminders[id]
	if !ok || r.UserID != userID {
		return ledger.ErrNotFound
	}
	delete(s.reminders, id)
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.lock()
	defer s.unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, ledger.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.lock()
	defer s.unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, ledger.ErrNotFound
}

func (s *Store) SaveUser(_ context.Context, u core.User) error {
	s.lock()
	defer s.unlock()
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetSession(_ context.Context, tokenHash string) (ledger.Session, error) {
	s.lock()
	defer s.unlock()
	sess, ok := s.sessions[tokenHash]
	if !ok {
		return ledger.Session{}, ledger.ErrNotFound
	}
	return sess, nil
}

func (s *Store) SaveSession(_ context.Context, sess ledger.Session) error {
	s.lock()
	defer s.unlock()
	s.sessions[sess.TokenHash] = sess
	return nil
}

func (s *Store) DeleteSession(_ context.Context, tokenHash string) error {
	s.lock()
	defer s.unlock()
	delete(s.sessions, tokenHash)
	return nil
}

func (s *Store) DeleteExpiredSessions(_ context.Context, now time.Time) error {
	s.lock()
	defer s.unlock()
	for hash, sess := range s.sessions {
		if sess.ExpiresAt.Before(now) {
			delete(s.sessions, hash)
		}
	}
	return nil
}
