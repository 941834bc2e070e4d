package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

func (r *Repository) GetUser(ctx context.Context, id string) (core.User, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, created_at
		FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, created_at
		FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *Repository) SaveUser(ctx context.Context, u core.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			password_hash = excluded.password_hash,
			name = excluded.name`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, tokenHash string) (ledger.Session, error) {
	var s ledger.Session
	err := r.q.QueryRowContext(ctx, `
		SELECT token_hash, user_id, expires_at
		FROM sessions WHERE token_hash = ?`, tokenHash).
		Scan(&s.TokenHash, &s.UserID, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Session{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Session{}, fmt.Errorf("scan session: %w", err)
	}
	return s, nil
}

func (r *Repository) SaveSession(ctx context.Context, s ledger.Session) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sessions (token_hash, user_id, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(token_hash) DO UPDATE SET
			user_id = excluded.user_id,
			expires_at = excluded.expires_at`,
		s.TokenHash, s.UserID, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *Repository) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *Repository) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now)
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	return nil
}

func scanUser(row rowScanner) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}
