// Package config provides centralized configuration management for the application.
// Values come from struct tag defaults, an optional YAML file named by CONFIG_FILE,
// and environment variables, in that order. Everything is validated on startup.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Storage  StorageConfig   `yaml:"storage"`
	SMTP     SMTPConfig      `yaml:"smtp"`
	Output   OutputConfig    `yaml:"output"`
	Session  SessionConfig   `yaml:"session"`
	Redis    RedisConfig     `yaml:"redis"`
	Rate     RateLimitConfig `yaml:"rate"`
	Security SecurityConfig  `yaml:"security"`
	Logging  LoggingConfig   `yaml:"logging"`
	Diag     DiagConfig      `yaml:"diag"`
	Metrics  MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `yaml:"host" env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `yaml:"port" env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including an in-flight retention sweep (default: 30s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// Storage backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendFile     = "file"
)

// StorageConfig selects and locates the user store.
type StorageConfig struct {
	// Backend is one of sqlite, postgres, file (default: sqlite)
	Backend string `yaml:"backend" env:"STORAGE_BACKEND" default:"sqlite"`

	// DatabaseURL is the PostgreSQL connection string, required for the postgres backend
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL" envAlt:"DB_URL"`

	// SQLitePath is the database file for the sqlite backend
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" default:"App_Data/app.db"`

	// UsersFile is the JSON document for the file backend
	UsersFile string `yaml:"users_file" env:"USERS_FILE" default:"App_Data/users.json"`

	MaxConns        int           `yaml:"max_conns" env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `yaml:"min_conns" env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host string `yaml:"host" env:"SMTP_HOST" default:"smtp.example.com"`
	Port int    `yaml:"port" env:"SMTP_PORT" default:"587"`
	User string `yaml:"user" env:"SMTP_USER"`
	Pass string `yaml:"pass" env:"SMTP_PASS" envAlt:"SMTP_PASSWORD"`

	// EnableSSL turns on implicit TLS (port 465) or STARTTLS (any other port)
	EnableSSL bool `yaml:"enable_ssl" env:"SMTP_ENABLE_SSL" default:"true"`

	// ForcePickup disables delivery even when the settings look valid
	ForcePickup bool `yaml:"force_pickup" env:"SMTP_FORCE_PICKUP" default:"false"`

	// From overrides the sender; falls back to User, then noreply@example.com
	From string `yaml:"from" env:"SMTP_FROM"`

	// Timeout bounds connect, auth and send (default: 15s)
	Timeout time.Duration `yaml:"timeout" env:"SMTP_TIMEOUT" default:"15s"`
}

// OutputConfig holds generated file settings.
type OutputConfig struct {
	// Dir is where generated workbooks are written (default: wwwroot)
	Dir string `yaml:"dir" env:"OUTPUT_DIR" default:"wwwroot"`

	// RetentionAge is how old a generated file must be before a sweep deletes it (default: 10m)
	RetentionAge time.Duration `yaml:"retention_age" env:"OUTPUT_RETENTION_AGE" default:"10m"`

	// SweepInterval runs the sweep periodically; 0 sweeps only after downloads (default: 0s)
	SweepInterval time.Duration `yaml:"sweep_interval" env:"OUTPUT_SWEEP_INTERVAL" default:"0s"`

	// PreviewRows caps the rows rendered in the HTML preview (default: 1000)
	PreviewRows int `yaml:"preview_rows" env:"OUTPUT_PREVIEW_ROWS" default:"1000"`

	// MaxConcurrent is how many workbooks may be generated at once (default: 4)
	MaxConcurrent int `yaml:"max_concurrent" env:"OUTPUT_MAX_CONCURRENT" default:"4"`

	// QueueWait is how long a generation waits for a free slot (default: 10s)
	QueueWait time.Duration `yaml:"queue_wait" env:"OUTPUT_QUEUE_WAIT" default:"10s"`
}

// SessionConfig holds cookie session settings.
type SessionConfig struct {
	// Secret signs session tokens (required)
	Secret string `yaml:"secret" env:"SESSION_SECRET" required:"true"`

	TTL        time.Duration `yaml:"ttl" env:"SESSION_TTL" default:"8h"`
	CookieName string        `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" default:"gc_session"`
	Secure     bool          `yaml:"secure" env:"SESSION_COOKIE_SECURE" default:"false"`
}

// RedisConfig enables the shared logout revocation list. Empty Addr keeps it in memory.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" default:"0"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `yaml:"enabled" env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `yaml:"requests_per_minute" env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// AuthLimit is requests per minute for login and register posts (default: 10)
	AuthLimit int `yaml:"auth_limit" env:"RATE_LIMIT_AUTH" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `yaml:"enable_csp" env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `yaml:"level" env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `yaml:"format" env:"LOG_FORMAT" default:"text"`
}

// DiagConfig controls the diagnostic endpoints.
type DiagConfig struct {
	// AllowDiag exposes GET /api/diag
	AllowDiag bool `yaml:"allow_diag" env:"ALLOW_DIAG" default:"false"`

	// Token guards /api/users and /api/test-login via X-DIAG-TOKEN; empty disables them
	Token string `yaml:"token" env:"DIAG_TOKEN"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED" default:"true"`
	Path    string `yaml:"path" env:"METRICS_PATH" default:"/metrics"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
