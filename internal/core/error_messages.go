package core

// error_messages.go maps technical errors to user-facing messages.
//
// # Error Codes Reference
//
// # Authentication (AUTH001-AUTH099)
//
//	AUTH001 - Invalid credentials: unknown email or wrong password
//	          Patterns: "invalid credentials"
//
//	AUTH002 - Session expired: the session cookie is missing, expired or revoked
//	          Patterns: "session expired", "session revoked"
//
// # Registration (REG001-REG099)
//
//	REG001 - Missing fields: email or password left blank
//	         Patterns: "missing email or password"
//
//	REG002 - Weak password: fails the length/case/digit policy
//	         Patterns: "weak password"
//
//	REG003 - Email taken: an account already uses the email
//	         Patterns: "email already registered"
//
//	REG004 - Create failed: the store declined the insert
//	         Patterns: "could not create user"
//
// # Storage (STO001-STO099)
//
//	STO001 - Store unavailable: a user store call failed
//	         Patterns: "user store unavailable"
//
//	STO002 - Connection refused: the database is unreachable
//	         Patterns: "connection refused"
//
//	STO003 - Database busy: SQLite lock contention
//	         Patterns: "database is locked"
//
// # Generation (GEN001-GEN099)
//
//	GEN001 - System busy: every generation slot is taken
//	         Patterns: "too many generations"
//
//	GEN002 - Workbook failed: the .xlsx could not be written
//	         Patterns: "generate workbook"
//
//	GEN003 - Timeout: the request ran out of time
//	         Patterns: "context deadline exceeded"
//
// # Files (FILE001-FILE099)
//
//	FILE001 - File not found: unknown or expired download
//	          Patterns: "file not found"
//
//	FILE002 - File unreadable: the download exists but cannot be opened
//	          Patterns: "open download", "stat download"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//
// # Default (ERR000)
//
// Returned when nothing matches; the technical error is in the logs.
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Authentication
	{
		pattern: "invalid credentials",
		msg: UserMessage{
			Message: "Usuário ou senha inválidos.",
			Action:  "Confira o e-mail e a senha e tente novamente",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "session expired",
		msg: UserMessage{
			Message: "Sua sessão expirou.",
			Action:  "Entre novamente",
			Code:    "AUTH002",
		},
	},
	{
		pattern: "session revoked",
		msg: UserMessage{
			Message: "Sua sessão expirou.",
			Action:  "Entre novamente",
			Code:    "AUTH002",
		},
	},

	// Registration
	{
		pattern: "missing email or password",
		msg: UserMessage{
			Message: "Preencha email e senha.",
			Action:  "Informe os dois campos",
			Code:    "REG001",
		},
	},
	{
		pattern: "weak password",
		msg: UserMessage{
			Message: "Senha fraca. Deve ter ao menos 8 caracteres, letras maiúsculas/minúsculas e números.",
			Action:  "Escolha uma senha mais forte",
			Code:    "REG002",
		},
	},
	{
		pattern: "email already registered",
		msg: UserMessage{
			Message: "Este e-mail já está sendo usado.",
			Action:  "Entre com esse e-mail ou use outro",
			Code:    "REG003",
		},
	},
	{
		pattern: "could not create user",
		msg: UserMessage{
			Message: "Não foi possível criar o usuário.",
			Action:  "Tente novamente",
			Code:    "REG004",
		},
	},

	// Storage
	{
		pattern: "user store unavailable",
		msg: UserMessage{
			Message: "Não foi possível concluir a operação.",
			Action:  "Tente novamente em instantes",
			Code:    "STO001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Não foi possível conectar ao banco de dados.",
			Action:  "Tente novamente em instantes",
			Code:    "STO002",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "O banco de dados está ocupado.",
			Action:  "Tente novamente",
			Code:    "STO003",
		},
	},

	// Generation
	{
		pattern: "too many generations",
		msg: UserMessage{
			Message: "Muitas gerações em andamento.",
			Action:  "Aguarde um momento e tente novamente",
			Code:    "GEN001",
		},
	},
	{
		pattern: "generate workbook",
		msg: UserMessage{
			Message: "Ocorreu um erro ao gerar o arquivo.",
			Action:  "Tente novamente",
			Code:    "GEN002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "A requisição excedeu o tempo limite.",
			Action:  "Tente novamente com menos registros",
			Code:    "GEN003",
		},
	},

	// Files
	{
		pattern: "file not found",
		msg: UserMessage{
			Message: "Arquivo não encontrado.",
			Action:  "Gere um novo arquivo; arquivos antigos são removidos após 10 minutos",
			Code:    "FILE001",
		},
	},
	{
		pattern: "open download",
		msg: UserMessage{
			Message: "Não foi possível ler o arquivo.",
			Action:  "Gere um novo arquivo",
			Code:    "FILE002",
		},
	},
	{
		pattern: "stat download",
		msg: UserMessage{
			Message: "Não foi possível ler o arquivo.",
			Action:  "Gere um novo arquivo",
			Code:    "FILE002",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Muitas requisições.",
			Action:  "Aguarde um momento antes de tentar novamente",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "Ocorreu um erro inesperado.",
	Action:  "Tente novamente ou contate o suporte",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-facing message. Unknown
// errors map to the ERR000 fallback; nil maps to the zero UserMessage.
//
//	msg := MapError(auth.ErrWeakPassword)
//	// msg.Code == "REG002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Código: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Código: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
