package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Pranish03/student-backend/internal/model"
)

// Store persists users in the following table:
//
//	CREATE TABLE users (
//	    id                     UUID PRIMARY KEY,
//	    name                   TEXT NOT NULL,
//	    email                  TEXT NOT NULL UNIQUE,
//	    password_hash          TEXT NOT NULL,
//	    role                   TEXT NOT NULL DEFAULT 'student',
//	    is_active              BOOLEAN NOT NULL DEFAULT true,
//	    reset_token_hash       TEXT,
//	    reset_token_expires_at TIMESTAMPTZ,
//	    created_at             TIMESTAMPTZ NOT NULL,
//	    updated_at             TIMESTAMPTZ NOT NULL
//	);
//	CREATE UNIQUE INDEX users_reset_token_hash_idx
//	    ON users (reset_token_hash) WHERE reset_token_hash IS NOT NULL;
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, is_active, reset_token_hash, reset_token_expires_at, created_at, updated_at`

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)
	return scanUser(row)
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, userID)
	return scanUser(row)
}

func (s *Store) CreateUser(ctx context.Context, user model.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.IsActive, user.CreatedAt, user.UpdatedAt)
	return err
}

// SetResetToken replaces any outstanding reset token for the user, keeping
// at most one live token per account.
func (s *Store) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET reset_token_hash = $1, reset_token_expires_at = $2, updated_at = $3
		WHERE id = $4
	`, tokenHash, expiresAt, time.Now().UTC(), userID)
	return err
}

// ConsumeResetToken sets the new password hash and clears the reset-token
// pair in one statement, conditional on the stored token matching and not
// being expired. Two concurrent submissions of the same token race on this
// row update; the loser matches zero rows and gets pgx.ErrNoRows, exactly
// like a wrong or expired token.
func (s *Store) ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string, now time.Time) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users
		SET password_hash = $1, reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = $3
		WHERE reset_token_hash = $2 AND reset_token_expires_at > $3
		RETURNING `+userColumns+`
	`, newPasswordHash, tokenHash, now)
	return scanUser(row)
}

func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $1, updated_at = $2
		WHERE id = $3
	`, passwordHash, time.Now().UTC(), userID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&user.ResetTokenHash,
		&user.ResetTokenExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}
