package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"agentlyou/shared/go/models"
)

var (
	// ErrUserNotFound indicates the actor directory has no such account.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists signals the email is already registered to another account.
	ErrUserExists = errors.New("user already exists")
)

// GetUser loads an account with its capability flags.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	var role string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, is_client, is_agent, default_role, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.IsClient, &u.IsAgent, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.DefaultRole = models.Role(role)
	return &u, nil
}

// EnsureUser inserts the account unless one with the same id already exists.
// It reports whether a row was created.
func (s *Store) EnsureUser(ctx context.Context, u *models.User) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if u.ID == uuid.Nil || email == "" {
		return false, fmt.Errorf("user id and email are required")
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, first_name, last_name, is_client, is_agent, default_role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, u.ID, email, u.FirstName, u.LastName, u.IsClient, u.IsAgent, string(u.DefaultRole))
	if err != nil {
		if isUniqueViolation(err) {
			return false, ErrUserExists
		}
		return false, fmt.Errorf("insert user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert user: %w", err)
	}
	return n > 0, nil
}
