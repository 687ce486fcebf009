package admin

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/geradorclientes/internal/auth"
	"github.com/JonMunkholm/geradorclientes/internal/users"
)

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	store, err := users.NewFileStore(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)

	svc := auth.NewService(store)
	require.NoError(t, svc.Register(ctx, "ana@example.com", "Antiga123"))

	require.NoError(t, ResetPassword(ctx, store, "ANA@example.com", "Nova12345"))

	_, err = svc.Login(ctx, "ana@example.com", "Antiga123")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "ana@example.com", "Nova12345")
	assert.NoError(t, err)
}

func TestResetPassword_Rejects(t *testing.T) {
	ctx := context.Background()
	store, err := users.NewFileStore(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"missing email", "", "Nova12345", auth.ErrMissingFields},
		{"weak", "ana@example.com", "fraca", auth.ErrWeakPassword},
		{"unknown user", "ghost@example.com", "Nova12345", ErrUnknownUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ResetPassword(ctx, store, tt.email, tt.password), tt.want)
		})
	}
}
