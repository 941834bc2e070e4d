package auth

import (
	"context"
	"testing"
	"time"

	"moneta/internal/core"
	"moneta/internal/ledger/memory"
)

func TestRegister(t *testing.T) {
	svc := NewService(memory.New(), time.Hour)
	ctx := context.Background()

	u, err := svc.Register(ctx, "  Alice@Example.COM ", "supersecret", "Alice")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %s, want normalized alice@example.com", u.Email)
	}
	if u.PasswordHash == "supersecret" || u.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}

	// Same email again is a conflict regardless of case.
	_, err = svc.Register(ctx, "ALICE@example.com", "anotherpass", "")
	if err == nil {
		t.Fatal("expected duplicate email to be rejected")
	}
	if appErr := core.AsError(err); appErr.Code != core.CodeConflict {
		t.Errorf("error code = %s, want %s", appErr.Code, core.CodeConflict)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(memory.New(), time.Hour)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "not-an-email", "supersecret", ""); err == nil {
		t.Error("expected error for bad email")
	}
	if _, err := svc.Register(ctx, "a@b.com", "short", ""); err == nil {
		t.Error("expected error for short password")
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc := NewService(memory.New(), time.Hour)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "bob@example.com", "supersecret", "Bob"); err != nil {
		t.Fatalf("register: %v", err)
	}

	token, u, err := svc.Login(ctx, "bob@example.com", "supersecret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}

	got, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("authenticated user = %s, want %s", got.ID, u.ID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewService(memory.New(), time.Hour)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "bob@example.com", "supersecret", ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, err := svc.Login(ctx, "bob@example.com", "wrongpass")
	if err == nil {
		t.Fatal("expected login to fail")
	}
	if appErr := core.AsError(err); appErr.Code != core.CodeUnauthorized {
		t.Errorf("error code = %s, want %s", appErr.Code, core.CodeUnauthorized)
	}

	// Unknown email yields the same error, not a distinct one.
	_, _, err = svc.Login(ctx, "nobody@example.com", "whatever")
	if appErr := core.AsError(err); appErr.Code != core.CodeUnauthorized {
		t.Errorf("unknown email error code = %s, want %s", appErr.Code, core.CodeUnauthorized)
	}
}

func TestAuthenticateBadTokens(t *testing.T) {
	store := memory.New()
	svc := NewService(store, time.Millisecond)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "bob@example.com", "supersecret", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, _, err := svc.Login(ctx, "bob@example.com", "supersecret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "deadbeef"); err == nil {
		t.Error("expected unknown token to fail")
	} else if appErr := core.AsError(err); appErr.Code != core.CodeTokenInvalid {
		t.Errorf("unknown token code = %s, want %s", appErr.Code, core.CodeTokenInvalid)
	}

	time.Sleep(5 * time.Millisecond)
	if _, err := svc.Authenticate(ctx, token); err == nil {
		t.Error("expected expired token to fail")
	} else if appErr := core.AsError(err); appErr.Code != core.CodeTokenExpired {
		t.Errorf("expired token code = %s, want %s", appErr.Code, core.CodeTokenExpired)
	}

	// An expired token is removed on first use.
	if _, err := svc.Authenticate(ctx, token); err == nil {
		t.Error("expected second use of expired token to fail")
	} else if appErr := core.AsError(err); appErr.Code != core.CodeTokenInvalid {
		t.Errorf("purged token code = %s, want %s", appErr.Code, core.CodeTokenInvalid)
	}
}

func TestLogout(t *testing.T) {
	svc := NewService(memory.New(), time.Hour)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "bob@example.com", "supersecret", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, _, err := svc.Login(ctx, "bob@example.com", "supersecret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Authenticate(ctx, token); err == nil {
		t.Error("expected token to be invalid after logout")
	}
	// Logging out twice is fine.
	if err := svc.Logout(ctx, token); err != nil {
		t.Errorf("second logout: %v", err)
	}
}
