package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/vbhan/go-shop/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user. A new user starts with an empty cart, which is
// simply the absence of cart items for the id.
func (r *Repository) Create(ctx context.Context, email, passwordHash string) (*User, error) {
	dbUser := &database.User{
		Email:        email,
		PasswordHash: passwordHash,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByResetToken retrieves the user holding an unexpired reset token.
// Expired and unknown tokens are indistinguishable: both return ErrNotFound.
func (r *Repository) GetByResetToken(ctx context.Context, token string, now time.Time) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("reset_token = ?", token).
		Where("reset_token_expiration > ?", now).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by reset token: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByResetTokenAndID re-validates a reset submission: the token must match
// the given user and still be unexpired.
func (r *Repository) GetByResetTokenAndID(ctx context.Context, token string, id uuid.UUID, now time.Time) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Where("reset_token = ?", token).
		Where("reset_token_expiration > ?", now).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by reset token and id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// SetResetToken stores a reset token and its expiration on the user.
// Both fields are written together to keep the set-or-cleared invariant.
func (r *Repository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("reset_token = ?", token).
		Set("reset_token_expiration = ?", expiresAt).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ResetPassword consumes a reset token: the new password hash is written and
// the token cleared in a single guarded UPDATE, so a token can never be burned
// without the password changing, and a second submission matches zero rows.
func (r *Repository) ResetPassword(ctx context.Context, id uuid.UUID, token, passwordHash string, now time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("reset_token = ?", nil).
		Set("reset_token_expiration = ?", nil).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Where("reset_token = ?", token).
		Where("reset_token_expiration > ?", now).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:                   dbu.ID,
		Email:                dbu.Email,
		PasswordHash:         dbu.PasswordHash,
		ResetToken:           dbu.ResetToken,
		ResetTokenExpiration: dbu.ResetTokenExpiration,
		CreatedAt:            dbu.CreatedAt,
		UpdatedAt:            dbu.UpdatedAt,
	}
}
