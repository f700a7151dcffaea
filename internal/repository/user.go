package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/majorload/majorload/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

const userColumns = `id, email, name, password_hash, is_premium, created_at, updated_at`

// GetUserByEmail retrieves a full user record by email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetUserPremium reads only the premium flag for the given email.
// Returns ErrUserNotFound if no record exists.
func (r *Repository) GetUserPremium(ctx context.Context, email string) (bool, error) {
	query := `
		SELECT is_premium
		FROM users
		WHERE email = $1
	`

	var premium bool
	err := r.pool.QueryRow(ctx, query, email).Scan(&premium)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("failed to get premium flag: %w", err)
	}

	return premium, nil
}

// SetUserPremium upserts the premium flag for email in a single statement:
// create-if-absent, update-if-present. A concurrent insert for the same
// email cannot race the existence check because the conflict clause handles
// it inside the statement.
func (r *Repository) SetUserPremium(ctx context.Context, email string, premium bool) (*model.User, error) {
	query := `
		INSERT INTO users (id, email, is_premium, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (email) DO UPDATE
		SET is_premium = EXCLUDED.is_premium,
		    updated_at = EXCLUDED.updated_at
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query,
		uuid.New().String(),
		email,
		premium,
		time.Now(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to set premium flag: %w", err)
	}

	return user, nil
}

// UpsertUserProfile records the user's display name on login:
// create-if-absent, update-name-if-present. The premium flag is never
// touched here; only the entitlement service writes it.
func (r *Repository) UpsertUserProfile(ctx context.Context, email, name string) (*model.User, error) {
	query := `
		INSERT INTO users (id, email, name, is_premium, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), FALSE, $4, $4)
		ON CONFLICT (email) DO UPDATE
		SET name       = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
		    updated_at = EXCLUDED.updated_at
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query,
		uuid.New().String(),
		email,
		name,
		time.Now(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user profile: %w", err)
	}

	return user, nil
}

// CreateUserWithPassword inserts a credentials account.
// Returns ErrEmailExists if the email is already registered.
func (r *Repository) CreateUserWithPassword(ctx context.Context, email, name, passwordHash string) (*model.User, error) {
	query := `
		INSERT INTO users (id, email, name, password_hash, is_premium, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, FALSE, $5, $5)
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query,
		uuid.New().String(),
		email,
		name,
		passwordHash,
		time.Now(),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// scanUser reads a full user row.
func scanUser(row pgx.Row) (*model.User, error) {
	var (
		user         model.User
		name         *string
		passwordHash *string
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&name,
		&passwordHash,
		&user.IsPremium,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if name != nil {
		user.Name = *name
	}
	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}

	return &user, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	// PostgreSQL error code 23505 is unique_violation
	return err != nil && (contains(err.Error(), "23505") || contains(err.Error(), "unique"))
}

// contains checks if a string contains a substring.
func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
