// Package users persists registered accounts.
//
// Three interchangeable backends implement Store: PostgreSQL, SQLite and a
// JSON document on disk. Open picks one from configuration at startup.
// Emails are compared case-insensitively by every backend, and a duplicate
// insert reports (false, nil) instead of an error.
package users

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by GetByEmail when no user matches.
var ErrNotFound = errors.New("user not found")

// User is a registered account. PasswordDigest holds the 64-char hex digest.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	PasswordDigest string    `json:"senha"`
	CreatedAt      time.Time `json:"created_at"`
}

func (u *User) valid() bool {
	return u != nil && normalize(u.Email) != "" && u.PasswordDigest != ""
}

// Store is the account surface used by login and registration.
type Store interface {
	// EmailExists reports whether any user has this email, ignoring case.
	EmailExists(ctx context.Context, email string) (bool, error)

	// CreateUser inserts u and assigns u.ID. It returns false without error
	// when the email is already taken or u has an empty email or digest.
	CreateUser(ctx context.Context, u *User) (bool, error)

	// GetByEmail returns the matching user or ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// Directory is the maintenance surface used by diagnostics and the admin tool.
type Directory interface {
	Count(ctx context.Context) (int, error)
	ListEmails(ctx context.Context) ([]string, error)

	// UpdatePassword replaces the digest, returning false when no user matches.
	UpdatePassword(ctx context.Context, email, digest string) (bool, error)
}

// Backend is a Store that can also be inspected and closed.
type Backend interface {
	Store
	Directory
	Ping(ctx context.Context) error
	Close() error
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
