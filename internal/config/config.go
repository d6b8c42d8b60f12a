// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, invites, sessions, the
// outbox reconciler, rate limiting, and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/masterworkhq/masterwork/internal/ai"
	"github.com/masterworkhq/masterwork/internal/discord"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "masterwork")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// SessionConfig controls the signed session cookie.
type SessionConfig struct {
	Secret     string        // SESSION_SECRET (HS256 key, >= 32 bytes)
	CookieName string        // SESSION_COOKIE
	TTL        time.Duration // SESSION_TTL
	Secure     bool          // SESSION_SECURE (Secure cookie attribute)
}

// IdentityConfig selects how identity tokens posted to /session are verified.
// JWKSURL wins over JWKSJSON, which wins over HMACSecret; the latter is meant
// for local development.
type IdentityConfig struct {
	JWKSURL    string // IDENTITY_JWKS_URL
	JWKSJSON   string // IDENTITY_JWKS_JSON, a pinned JWK Set document
	Issuer     string // IDENTITY_ISSUER
	Audience   string // IDENTITY_AUDIENCE
	HMACSecret string // IDENTITY_HMAC_SECRET
}

// OutboxConfig tunes the reconciler that retries best-effort writes.
type OutboxConfig struct {
	PollInterval  time.Duration // OUTBOX_POLL_INTERVAL
	BatchSize     int           // OUTBOX_BATCH_SIZE
	MaxAttempts   int           // OUTBOX_MAX_ATTEMPTS
	RetryBackoff  time.Duration // OUTBOX_RETRY_BACKOFF
	RetryMaxDelay time.Duration // OUTBOX_RETRY_MAX_DELAY
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath           string // SQLite path
	PublicBaseURL    string // origin used in shareable invite links
	InviteTTLDays    int    // default invite expiry in days
	MaxMessageRunes  int    // message length limit
	TurnHistoryLimit int    // messages included in an AI turn context
	VAPIDPublicKey   string // browser push application server key

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)
	// AI endpoints spend upstream tokens, so they get a tighter bucket.
	AIRateRPS   float64
	AIRateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Auth
	Session  SessionConfig
	Identity IdentityConfig

	// Background work
	Outbox OutboxConfig

	// Integrations (parsed with struct tags)
	AI      ai.Config
	Discord discord.Config

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:           getenv("DB_PATH", "masterwork.db"),
		PublicBaseURL:    strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		InviteTTLDays:    getint("INVITE_TTL_DAYS", 7),
		MaxMessageRunes:  getint("MAX_MESSAGE_RUNES", 4000),
		TurnHistoryLimit: getint("TURN_HISTORY_LIMIT", 30),
		VAPIDPublicKey:   getenv("VAPID_PUBLIC_KEY", ""),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),
		AIRateRPS:   getfloat("AI_RATE_RPS", 0.2),
		AIRateBurst: getint("AI_RATE_BURST", 3),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Auth
		Session: SessionConfig{
			Secret:     getenv("SESSION_SECRET", ""),
			CookieName: getenv("SESSION_COOKIE", "mw_session"),
			TTL:        getdur("SESSION_TTL", 7*24*time.Hour),
			Secure:     getbool("SESSION_SECURE", true),
		},
		Identity: IdentityConfig{
			JWKSURL:    getenv("IDENTITY_JWKS_URL", ""),
			JWKSJSON:   getenv("IDENTITY_JWKS_JSON", ""),
			Issuer:     getenv("IDENTITY_ISSUER", ""),
			Audience:   getenv("IDENTITY_AUDIENCE", ""),
			HMACSecret: getenv("IDENTITY_HMAC_SECRET", ""),
		},

		// Background work
		Outbox: OutboxConfig{
			PollInterval:  getdur("OUTBOX_POLL_INTERVAL", 5*time.Second),
			BatchSize:     getint("OUTBOX_BATCH_SIZE", 50),
			MaxAttempts:   getint("OUTBOX_MAX_ATTEMPTS", 8),
			RetryBackoff:  getdur("OUTBOX_RETRY_BACKOFF", 2*time.Second),
			RetryMaxDelay: getdur("OUTBOX_RETRY_MAX_DELAY", 5*time.Minute),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "masterwork"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	if err := env.Parse(&cfg.AI); err != nil {
		return cfg, fmt.Errorf("parse ai config: %w", err)
	}
	if err := env.Parse(&cfg.Discord); err != nil {
		return cfg, fmt.Errorf("parse discord config: %w", err)
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if !strings.HasPrefix(cfg.PublicBaseURL, "http://") && !strings.HasPrefix(cfg.PublicBaseURL, "https://") {
		return cfg, errors.New("PUBLIC_BASE_URL must be an http(s) origin")
	}
	if cfg.InviteTTLDays < 1 || cfg.InviteTTLDays > 365 {
		return cfg, errors.New("INVITE_TTL_DAYS must be between 1 and 365")
	}
	if cfg.MaxMessageRunes < 1 {
		return cfg, errors.New("MAX_MESSAGE_RUNES must be >= 1")
	}
	if cfg.TurnHistoryLimit < 1 {
		return cfg, errors.New("TURN_HISTORY_LIMIT must be >= 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.AIRateRPS < 0 || cfg.AIRateBurst < 1 {
		return cfg, errors.New("AI_RATE_RPS must be >= 0 and AI_RATE_BURST >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.Session.Secret != "" && len(cfg.Session.Secret) < 32 {
		return cfg, errors.New("SESSION_SECRET must be at least 32 bytes")
	}
	if cfg.Session.TTL <= 0 {
		return cfg, errors.New("SESSION_TTL must be > 0")
	}
	if strings.TrimSpace(cfg.Session.CookieName) == "" {
		return cfg, errors.New("SESSION_COOKIE must not be empty")
	}
	if cfg.Outbox.PollInterval <= 0 || cfg.Outbox.RetryBackoff <= 0 || cfg.Outbox.RetryMaxDelay < cfg.Outbox.RetryBackoff {
		return cfg, errors.New("OUTBOX_* durations must be positive and OUTBOX_RETRY_MAX_DELAY >= OUTBOX_RETRY_BACKOFF")
	}
	if cfg.Outbox.BatchSize < 1 || cfg.Outbox.MaxAttempts < 1 {
		return cfg, errors.New("OUTBOX_BATCH_SIZE and OUTBOX_MAX_ATTEMPTS must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
