package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vbhan/go-shop/internal/logging"
	"github.com/vbhan/go-shop/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credential")
	ErrUnknownEmail       = errors.New("no account with that email found")
	ErrResetTokenInvalid  = errors.New("reset token invalid or expired")
	ErrTokenGeneration    = errors.New("failed to generate reset token")
)

// UserStore defines the data-store operations the auth flows need.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByResetToken(ctx context.Context, token string, now time.Time) (*user.User, error)
	GetByResetTokenAndID(ctx context.Context, token string, id uuid.UUID, now time.Time) (*user.User, error)
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	ResetPassword(ctx context.Context, id uuid.UUID, token, passwordHash string, now time.Time) error
}

// Mailer defines the interface for outbound email. Delivery is always
// fire-and-forget relative to the calling flow.
type Mailer interface {
	SendWelcomeEmail(ctx context.Context, toEmail string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, token string) error
}

// Service handles authentication business logic
type Service struct {
	users         UserStore
	hasher        *PasswordHasher
	mailer        Mailer
	logger        *logging.Logger
	resetTokenTTL time.Duration
	now           func() time.Time
}

func NewService(
	users UserStore,
	hasher *PasswordHasher,
	mailer Mailer,
	logger *logging.Logger,
	resetTokenTTL time.Duration,
) *Service {
	return &Service{
		users:         users,
		hasher:        hasher,
		mailer:        mailer,
		logger:        logger,
		resetTokenTTL: resetTokenTTL,
		now:           time.Now,
	}
}

// Signup creates a new account with a hashed password and an empty cart.
// Input shape validation happens in the handler; this enforces the
// duplicate-email rule. The welcome email is sent in a goroutine and its
// failure never alters the outcome.
func (s *Service) Signup(ctx context.Context, email, password string) (*user.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, user.ErrDuplicateEmail
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing user: %w", err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, email, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	go func() {
		// New context: the request context dies with the response.
		emailCtx := context.Background()
		if err := s.mailer.SendWelcomeEmail(emailCtx, email); err != nil {
			s.logger.Warn("failed to send welcome email", "email", email, "error", err)
		}
	}()

	return newUser, nil
}

// Login verifies the credential pair. Unknown email and wrong password
// collapse into the same error so an attacker cannot tell accounts apart.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, error) {
	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Check(password, existingUser.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return existingUser, nil
}

// UserByID loads the account behind an authenticated session. ErrNotFound
// passes through untouched so callers can tell a deleted account from an
// infrastructure failure.
func (s *Service) UserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	existingUser, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return existingUser, nil
}

// RequestPasswordReset issues a single-use reset token valid for the
// configured TTL and emails the recovery link. Token generation failure
// aborts before any user mutation.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	token, err := generateResetToken()
	if err != nil {
		s.logger.Error("reset token generation failed", "error", err.Error())
		return ErrTokenGeneration
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUnknownEmail
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	expiresAt := s.now().Add(s.resetTokenTTL)
	if err := s.users.SetResetToken(ctx, existingUser.ID, token, expiresAt); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	go func() {
		emailCtx := context.Background()
		if err := s.mailer.SendPasswordResetEmail(emailCtx, email, token); err != nil {
			s.logger.Warn("failed to send password reset email", "email", email, "error", err)
		}
	}()

	return nil
}

// UserForResetToken resolves the link-click step: the token must exist and
// be unexpired. Expired and unknown tokens are indistinguishable.
func (s *Service) UserForResetToken(ctx context.Context, token string) (*user.User, error) {
	existingUser, err := s.users.GetByResetToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrResetTokenInvalid
		}
		return nil, fmt.Errorf("failed to get user by reset token: %w", err)
	}
	return existingUser, nil
}

// CompletePasswordReset re-validates the token against the submitted user id
// and writes the new password. The store consumes the token in the same
// atomic write, so a second submission with the same token fails.
func (s *Service) CompletePasswordReset(ctx context.Context, userID uuid.UUID, token, newPassword string) error {
	now := s.now()

	if _, err := s.users.GetByResetTokenAndID(ctx, token, userID, now); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("failed to validate reset token: %w", err)
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.ResetPassword(ctx, userID, token, passwordHash, now); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Token consumed or expired between the check and the write.
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}

	return nil
}
