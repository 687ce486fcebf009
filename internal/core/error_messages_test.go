package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/geradorclientes/internal/auth"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name: "nil error returns empty",
			err:  nil,
		},
		{
			name:        "invalid credentials",
			err:         auth.ErrInvalidCredentials,
			wantCode:    "AUTH001",
			wantMessage: "Usuário ou senha inválidos.",
		},
		{
			name:        "missing fields",
			err:         auth.ErrMissingFields,
			wantCode:    "REG001",
			wantMessage: "Preencha email e senha.",
		},
		{
			name:        "weak password",
			err:         auth.ErrWeakPassword,
			wantCode:    "REG002",
			wantMessage: "Senha fraca. Deve ter ao menos 8 caracteres, letras maiúsculas/minúsculas e números.",
		},
		{
			name:        "email taken",
			err:         auth.ErrEmailTaken,
			wantCode:    "REG003",
			wantMessage: "Este e-mail já está sendo usado.",
		},
		{
			name:        "create failed",
			err:         auth.ErrCreateFailed,
			wantCode:    "REG004",
			wantMessage: "Não foi possível criar o usuário.",
		},
		{
			name:        "store error wins over wrapped connection error",
			err:         fmt.Errorf("%w: %v", auth.ErrStore, errors.New("dial tcp: connection refused")),
			wantCode:    "STO001",
			wantMessage: "Não foi possível concluir a operação.",
		},
		{
			name:        "limiter busy",
			err:         ErrBusy,
			wantCode:    "GEN001",
			wantMessage: "Muitas gerações em andamento.",
		},
		{
			name:        "deadline",
			err:         fmt.Errorf("acquire: %w", context.DeadlineExceeded),
			wantCode:    "GEN003",
			wantMessage: "A requisição excedeu o tempo limite.",
		},
		{
			name:        "download missing",
			err:         ErrFileNotFound,
			wantCode:    "FILE001",
			wantMessage: "Arquivo não encontrado.",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "Ocorreu um erro inesperado.",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("RATE LIMIT exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Muitas requisições.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(auth.ErrEmailTaken)
	want := "Este e-mail já está sendo usado. (Código: REG003). Entre com esse e-mail ou use outro"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", auth.ErrWeakPassword, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
