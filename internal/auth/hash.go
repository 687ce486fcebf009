// Package auth implements credential hashing and the login and registration flows.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// DigestLen is the length of a hex-encoded SHA-256 digest.
const DigestLen = 64

// Digest returns the lowercase hex SHA-256 of the whitespace-trimmed password.
// Stored digests are produced by this function, so it must stay stable.
func Digest(password string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(password)))
	return hex.EncodeToString(sum[:])
}

// Matches reports whether password hashes to stored. Stored digests are
// compared case-insensitively since older rows may hold uppercase hex.
func Matches(password, stored string) bool {
	computed := Digest(password)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(strings.ToLower(stored))) == 1
}

// NormalizeEmail trims and lowercases an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MinPasswordLen is the shortest accepted password.
const MinPasswordLen = 8

// CheckPasswordStrength requires MinPasswordLen characters with at least one
// ASCII uppercase letter, one ASCII lowercase letter and one digit.
func CheckPasswordStrength(password string) error {
	if len([]rune(password)) < MinPasswordLen {
		return ErrWeakPassword
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return ErrWeakPassword
	}
	return nil
}
