package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/geradorclientes/internal/logging"
	"github.com/JonMunkholm/geradorclientes/internal/users"
)

var (
	// ErrMissingFields means email or password was blank.
	ErrMissingFields = errors.New("auth: missing email or password")

	// ErrInvalidCredentials covers unknown users and wrong passwords alike.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrWeakPassword means the password failed CheckPasswordStrength.
	ErrWeakPassword = errors.New("auth: weak password")

	// ErrEmailTaken means another account already uses the email.
	ErrEmailTaken = errors.New("auth: email already registered")

	// ErrCreateFailed means the store declined the insert.
	ErrCreateFailed = errors.New("auth: could not create user")

	// ErrStore wraps backend failures during login or registration.
	ErrStore = errors.New("auth: user store unavailable")
)

// Identity is what a successful login yields for the session.
type Identity struct {
	UserID int64
	Email  string
}

// Service runs login and registration against a users.Store.
type Service struct {
	store users.Store
}

// NewService creates an auth service.
func NewService(store users.Store) *Service {
	return &Service{store: store}
}

// Login checks email and password. Every failure other than a store outage
// is reported as ErrInvalidCredentials so callers cannot enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (Identity, error) {
	log := logging.FromContext(ctx)

	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		log.Info("login rejected: missing credentials")
		return Identity{}, ErrInvalidCredentials
	}

	normalized := NormalizeEmail(email)
	u, err := s.store.GetByEmail(ctx, normalized)
	if errors.Is(err, users.ErrNotFound) {
		log.Info("login failed: unknown user", "email", normalized)
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		log.Error("login lookup failed", "email", normalized, "error", err)
		return Identity{}, fmt.Errorf("%w: %v", ErrStore, err)
	}

	if !Matches(password, u.PasswordDigest) {
		log.Info("login failed: password mismatch", "email", normalized)
		return Identity{}, ErrInvalidCredentials
	}

	log.Info("login succeeded", "email", normalized, "user_id", u.ID)
	return Identity{UserID: u.ID, Email: u.Email}, nil
}

// Register validates the input and creates the account.
func (s *Service) Register(ctx context.Context, email, password string) error {
	log := logging.FromContext(ctx)

	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		log.Info("registration rejected: missing fields")
		return ErrMissingFields
	}
	if err := CheckPasswordStrength(password); err != nil {
		log.Info("registration rejected: weak password")
		return err
	}

	normalized := NormalizeEmail(email)
	exists, err := s.store.EmailExists(ctx, normalized)
	if err != nil {
		log.Error("registration lookup failed", "email", normalized, "error", err)
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	if exists {
		log.Info("registration rejected: email taken", "email", normalized)
		return ErrEmailTaken
	}

	// CreateUser re-checks atomically, so a concurrent winner shows up as false.
	created, err := s.store.CreateUser(ctx, &users.User{
		Email:          normalized,
		PasswordDigest: Digest(password),
	})
	if err != nil {
		log.Error("registration insert failed", "email", normalized, "error", err)
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	if !created {
		log.Warn("registration insert declined", "email", normalized)
		return ErrCreateFailed
	}

	log.Info("user registered", "email", normalized)
	return nil
}
