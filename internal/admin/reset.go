// Package admin provides out-of-band maintenance operations on the user store.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/geradorclientes/internal/auth"
	"github.com/JonMunkholm/geradorclientes/internal/users"
)

// ResetTimeout is the maximum duration for a reset operation.
const ResetTimeout = 30 * time.Second

// ErrUnknownUser means no account matches the email.
var ErrUnknownUser = errors.New("admin: no user with that email")

// ResetPassword replaces the stored digest for email. The new password must
// pass the same strength policy as registration.
func ResetPassword(ctx context.Context, dir users.Directory, email, password string) error {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return auth.ErrMissingFields
	}
	if err := auth.CheckPasswordStrength(password); err != nil {
		return err
	}

	normalized := auth.NormalizeEmail(email)
	ok, err := dir.UpdatePassword(ctx, normalized, auth.Digest(password))
	if err != nil {
		return fmt.Errorf("reset password for %s: %w", normalized, err)
	}
	if !ok {
		return ErrUnknownUser
	}

	slog.Info("password reset", "email", normalized)
	return nil
}
