// Package auth implements registration, login, and opaque bearer tokens.
// The token scheme is deliberately simple: 32 random bytes, stored as a
// SHA-256 hash with an expiry, resolved per request by the HTTP middleware.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

// Service issues and validates sessions against the ledger store.
type Service struct {
	store    ledger.Store
	tokenTTL time.Duration
}

func NewService(store ledger.Store, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{store: store, tokenTTL: tokenTTL}
}

// Register creates a user with a bcrypt-hashed password. Duplicate emails are
// rejected with a conflict error.
func (s *Service) Register(ctx context.Context, email, password, name string) (core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return core.User{}, core.Invalid("invalid email")
	}
	if len(password) < 8 {
		return core.User{}, core.Invalid("password must be at least 8 characters")
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return core.User{}, core.Conflict("email already registered")
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return core.User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := core.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(name),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.SaveUser(ctx, u); err != nil {
		return core.User{}, fmt.Errorf("save user: %w", err)
	}
	slog.InfoContext(ctx, "User registered", "user_id", u.ID)
	return u, nil
}

// Login verifies the credentials and issues a fresh bearer token. The token
// itself is returned exactly once; only its hash is stored.
func (s *Service) Login(ctx context.Context, email, password string) (string, core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return "", core.User{}, core.Unauthorized(core.CodeUnauthorized, "invalid credentials")
		}
		return "", core.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", core.User{}, core.Unauthorized(core.CodeUnauthorized, "invalid credentials")
	}

	token, err := newToken()
	if err != nil {
		return "", core.User{}, fmt.Errorf("generate token: %w", err)
	}
	sess := ledger.Session{
		TokenHash: hashToken(token),
		UserID:    u.ID,
		ExpiresAt: time.Now().UTC().Add(s.tokenTTL),
	}
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return "", core.User{}, fmt.Errorf("save session: %w", err)
	}
	return token, u, nil
}

// Authenticate resolves a bearer token to its user. Unknown tokens and
// expired tokens are reported with distinct codes so clients can
// re-authenticate versus refresh.
func (s *Service) Authenticate(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, core.Unauthorized(core.CodeUnauthorized, "missing bearer token")
	}
	sess, err := s.store.GetSession(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return core.User{}, core.Unauthorized(core.CodeTokenInvalid, "invalid token")
		}
		return core.User{}, fmt.Errorf("lookup session: %w", err)
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = s.store.DeleteSession(ctx, sess.TokenHash)
		return core.User{}, core.Unauthorized(core.CodeTokenExpired, "token expired")
	}
	u, err := s.store.GetUser(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return core.User{}, core.Unauthorized(core.CodeTokenInvalid, "invalid token")
		}
		return core.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

// Logout invalidates the session behind the token. Unknown tokens are a
// no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, hashToken(token))
}

// PurgeExpired removes expired sessions; called periodically by the server.
func (s *Service) PurgeExpired(ctx context.Context) error {
	return s.store.DeleteExpiredSessions(ctx, time.Now().UTC())
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
