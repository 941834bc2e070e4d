package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"moneta/internal/auth"
	"moneta/internal/ledger/memory"
	"moneta/internal/services"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := memory.New()
	s := NewServer("127.0.0.1:0", Services{
		Auth:         auth.NewService(store, time.Hour),
		Accounts:     services.NewAccountService(store),
		Transactions: services.NewTransactionService(store, nil),
		Loans:        services.NewLoanService(store),
		Investments:  services.NewInvestmentService(store),
		Categories:   services.NewCategoryService(store),
		Reminders:    services.NewReminderService(store, nil),
		Reports:      services.NewReportService(store, nil),
	})

	ts := httptest.NewServer(s.Handler)
	t.Cleanup(func() {
		ts.Close()
		_ = s.Shutdown(context.Background())
	})
	return ts
}

// doJSON sends a request and decodes the response body into a generic map.
func doJSON(t *testing.T, method, url, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && err != io.EOF {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, out
}

func registerAndLogin(t *testing.T, ts *httptest.Server, email string) string {
	t.Helper()

	status, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/register", "", map[string]string{
		"email": email, "password": "supersecret", "name": "Test",
	})
	if status != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", status)
	}
	status, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/login", "", map[string]string{
		"email": email, "password": "supersecret",
	})
	if status != http.StatusOK {
		t.Fatalf("login status = %d, want 200", status)
	}
	token, _ := body["data"].(map[string]any)["token"].(string)
	if token == "" {
		t.Fatal("login returned no token")
	}
	return token
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "alice@example.com")

	// Duplicate registration conflicts.
	status, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/register", "", map[string]string{
		"email": "alice@example.com", "password": "supersecret",
	})
	if status != http.StatusConflict || errorCode(body) != "CONFLICT" {
		t.Errorf("duplicate register = %d %q, want 409 CONFLICT", status, errorCode(body))
	}

	status, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/auth/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("me status = %d, want 200", status)
	}
	if email := body["data"].(map[string]any)["email"]; email != "alice@example.com" {
		t.Errorf("me email = %v, want alice@example.com", email)
	}

	// No token at all.
	status, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/auth/me", "", nil)
	if status != http.StatusUnauthorized || errorCode(body) != "UNAUTHORIZED" {
		t.Errorf("unauthenticated me = %d %q, want 401 UNAUTHORIZED", status, errorCode(body))
	}

	// Logout invalidates the token.
	if status, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/logout", token, nil); status != http.StatusOK {
		t.Fatalf("logout status = %d, want 200", status)
	}
	if status, _ := doJSON(t, http.MethodGet, ts.URL+"/api/v1/auth/me", token, nil); status != http.StatusUnauthorized {
		t.Errorf("me after logout = %d, want 401", status)
	}
}

func TestAccountsAndTransactions(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "bob@example.com")

	status, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/accounts", token, map[string]any{
		"name": "Checking", "type": "checking", "balance": "1000,00",
	})
	if status != http.StatusCreated {
		t.Fatalf("create account = %d: %v", status, body)
	}
	acc := body["data"].(map[string]any)
	accountID := acc["id"].(string)
	if acc["balance"] != "1000" {
		t.Errorf("opening balance = %v, want 1000", acc["balance"])
	}
	if acc["currency"] != "EUR" {
		t.Errorf("default currency = %v, want EUR", acc["currency"])
	}

	status, body = doJSON(t, http.MethodPost, ts.URL+"/api/v1/transactions", token, map[string]any{
		"account_id": accountID, "type": "expense", "amount": "150.50",
		"category": "Groceries", "date": "2025-03-10",
	})
	if status != http.StatusCreated {
		t.Fatalf("create transaction = %d: %v", status, body)
	}

	status, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/accounts/"+accountID, token, nil)
	if status != http.StatusOK {
		t.Fatalf("get account = %d", status)
	}
	if balance := body["data"].(map[string]any)["balance"]; balance != "849.5" {
		t.Errorf("balance after expense = %v, want 849.5", balance)
	}

	// Unknown account is reported as not found, not as a validation problem.
	status, body = doJSON(t, http.MethodPost, ts.URL+"/api/v1/transactions", token, map[string]any{
		"account_id": "nope", "type": "expense", "amount": "10", "date": "2025-03-10",
	})
	if status != http.StatusNotFound || errorCode(body) != "NOT_FOUND" {
		t.Errorf("unknown account = %d %q, want 404 NOT_FOUND", status, errorCode(body))
	}

	// Unknown JSON fields are rejected.
	status, body = doJSON(t, http.MethodPost, ts.URL+"/api/v1/accounts", token, map[string]any{
		"name": "X", "type": "checking", "bogus": true,
	})
	if status != http.StatusBadRequest || errorCode(body) != "VALIDATION_ERROR" {
		t.Errorf("unknown field = %d %q, want 400 VALIDATION_ERROR", status, errorCode(body))
	}
}

func TestTransactionPagination(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "carol@example.com")

	_, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/accounts", token, map[string]any{
		"name": "Main", "type": "checking",
	})
	accountID := body["data"].(map[string]any)["id"].(string)

	for i := 0; i < 3; i++ {
		status, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/transactions", token, map[string]any{
			"account_id": accountID, "type": "income", "amount": fmt.Sprintf("%d", 100+i),
			"category": "Salary", "date": fmt.Sprintf("2025-03-%02d", 10+i),
		})
		if status != http.StatusCreated {
			t.Fatalf("create transaction %d = %d", i, status)
		}
	}

	status, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/transactions?limit=2", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list = %d", status)
	}
	if n := len(body["data"].([]any)); n != 2 {
		t.Errorf("page size = %d, want 2", n)
	}
	if body["page"] != float64(1) || body["limit"] != float64(2) {
		t.Errorf("page/limit = %v/%v, want 1/2", body["page"], body["limit"])
	}
	if body["total"] != float64(3) || body["pages"] != float64(2) {
		t.Errorf("total/pages = %v/%v, want 3/2", body["total"], body["pages"])
	}

	status, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/transactions?limit=2&page=2", token, nil)
	if status != http.StatusOK {
		t.Fatalf("second page = %d", status)
	}
	if n := len(body["data"].([]any)); n != 1 {
		t.Errorf("second page size = %d, want 1", n)
	}
}

func TestExportCSV(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "dave@example.com")

	_, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/accounts", token, map[string]any{
		"name": "Main", "type": "checking",
	})
	accountID := body["data"].(map[string]any)["id"].(string)
	doJSON(t, http.MethodPost, ts.URL+"/api/v1/transactions", token, map[string]any{
		"account_id": accountID, "type": "expense", "amount": "42.50",
		"category": "Dining", "description": "lunch", "date": "2025-03-10",
		"tags": []string{"work", "team"},
	})

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/transactions/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %s, want text/csv", ct)
	}
	data, _ := io.ReadAll(resp.Body)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv lines = %d, want 2:\n%s", len(lines), data)
	}
	if lines[0] != "Date,Type,Amount,Category,Description,Account,Account Type,Tags" {
		t.Errorf("csv header = %q", lines[0])
	}
	row := lines[1]
	for _, want := range []string{"2025-03-10", "expense", "42.50", "Dining", "lunch", "Main", "checking", "work;team"} {
		if !strings.Contains(row, want) {
			t.Errorf("csv row %q missing %q", row, want)
		}
	}
}

func TestCrossUserIsolation(t *testing.T) {
	ts := newTestServer(t)
	alice := registerAndLogin(t, ts, "alice@example.com")
	mallory := registerAndLogin(t, ts, "mallory@example.com")

	_, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/accounts", alice, map[string]any{
		"name": "Savings", "type": "savings",
	})
	accountID := body["data"].(map[string]any)["id"].(string)

	status, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/accounts/"+accountID, mallory, nil)
	if status != http.StatusNotFound || errorCode(body) != "NOT_FOUND" {
		t.Errorf("foreign get = %d %q, want 404 NOT_FOUND", status, errorCode(body))
	}
	status, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/accounts/"+accountID, mallory, nil)
	if status != http.StatusNotFound {
		t.Errorf("foreign delete = %d, want 404", status)
	}
}

func TestReportSummaryCached(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "erin@example.com")

	_, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/accounts", token, map[string]any{
		"name": "Main", "type": "checking",
	})
	accountID := body["data"].(map[string]any)["id"].(string)
	doJSON(t, http.MethodPost, ts.URL+"/api/v1/transactions", token, map[string]any{
		"account_id": accountID, "type": "income", "amount": "3000",
		"category": "Salary", "date": "2025-03-01",
	})
	doJSON(t, http.MethodPost, ts.URL+"/api/v1/transactions", token, map[string]any{
		"account_id": accountID, "type": "expense", "amount": "1500",
		"category": "Rent", "date": "2025-03-02",
	})

	status, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/reports/summary?year=2025&month=3", token, nil)
	if status != http.StatusOK {
		t.Fatalf("summary = %d", status)
	}
	sum := body["data"].(map[string]any)
	if sum["income"] != "3000" || sum["expenses"] != "1500" {
		t.Errorf("summary = %v, want income 3000 expenses 1500", sum)
	}

	// A new write must invalidate the cached summary.
	doJSON(t, http.MethodPost, ts.URL+"/api/v1/transactions", token, map[string]any{
		"account_id": accountID, "type": "expense", "amount": "500",
		"category": "Dining", "date": "2025-03-03",
	})
	_, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/reports/summary?year=2025&month=3", token, nil)
	if got := body["data"].(map[string]any)["expenses"]; got != "2000" {
		t.Errorf("summary after write = %v, want 2000", got)
	}
}
