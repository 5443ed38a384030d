// Package config provides application configuration loaded from environment
// variables with defaults and validation. It covers the HTTP server, logging,
// the database, the session cookie, the assistant and its dispatcher, rate
// limiting, web protection and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-classroom-backend/internal/sysutil"
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
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DatabaseConfig selects the GORM driver.
type DatabaseConfig struct {
	Driver string // sqlite|postgres
	Path   string // SQLite file
	URL    string // Postgres DSN
}

// SessionConfig controls the session cookie.
type SessionConfig struct {
	CookieName string
	PerPort    bool // suffix the cookie name with the request port
	Secure     bool
}

// AMQPConfig names the broker used when the dispatcher is "amqp".
type AMQPConfig struct {
	URL      string
	Exchange string
	Queue    string
}

// AssistantConfig configures the @mention assistant.
type AssistantConfig struct {
	APIKey      string
	URL         string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	Referer     string
	Title       string

	UserID      uint
	Name        string
	Mention     string
	ContextSize int

	Dispatch  string // inline|async|amqp
	Workers   int
	QueueSize int
	AMQP      AMQPConfig
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodyBytes      int64
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string

	// Storage
	DB         DatabaseConfig
	RosterPath string // optional YAML roster applied at startup

	Session   SessionConfig
	Assistant AssistantConfig

	// Rate limiting
	RateRPS   float64
	RateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL   time.Duration
	IdempotencySweep time.Duration // purge interval for expired keys; 0 disables

	OTEL OTELConfig
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + c.Port }

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "3000"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 40*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 2<<20)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DB: DatabaseConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "classroom.db"),
			URL:    getenv("DATABASE_URL", ""),
		},
		RosterPath: getenv("ROSTER_PATH", ""),

		Session: SessionConfig{
			CookieName: getenv("SESSION_COOKIE", "userId"),
			PerPort:    getbool("SESSION_COOKIE_PER_PORT", false),
			Secure:     getbool("SESSION_SECURE", false),
		},

		Assistant: AssistantConfig{
			APIKey:      sysutil.FirstNonEmpty(os.Getenv("OPENROUTER_API_KEY"), os.Getenv("ASSISTANT_API_KEY")),
			URL:         getenv("ASSISTANT_API_URL", "https://openrouter.ai/api/v1/chat/completions"),
			Model:       getenv("ASSISTANT_MODEL", "openai/gpt-4o-mini"),
			MaxTokens:   getint("ASSISTANT_MAX_TOKENS", 500),
			Temperature: getfloat("ASSISTANT_TEMPERATURE", 0.7),
			Timeout:     getdur("ASSISTANT_TIMEOUT", 20*time.Second),
			Referer:     getenv("ASSISTANT_REFERER", "http://localhost:3000"),
			Title:       getenv("ASSISTANT_TITLE", "Student Chat App"),

			UserID:      uint(getint("ASSISTANT_USER_ID", 999)),
			Name:        getenv("ASSISTANT_NAME", "NATE"),
			Mention:     getenv("ASSISTANT_MENTION", "@nate"),
			ContextSize: getint("ASSISTANT_CONTEXT_SIZE", 10),

			Dispatch:  strings.ToLower(getenv("ASSISTANT_DISPATCH", "async")),
			Workers:   getint("ASSISTANT_WORKERS", 4),
			QueueSize: getint("ASSISTANT_QUEUE_SIZE", 64),
			AMQP: AMQPConfig{
				URL:      getenv("AMQP_URL", ""),
				Exchange: getenv("AMQP_EXCHANGE", "classroom.assistant"),
				Queue:    getenv("AMQP_QUEUE", "assistant.replies"),
			},
		},

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL:   getdur("IDEMPOTENCY_TTL", 24*time.Hour),
		IdempotencySweep: getdur("IDEMPOTENCY_SWEEP", 15*time.Minute),

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-classroom-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
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
	if cfg.DB.Driver == "postgresql" {
		cfg.DB.Driver = "postgres"
	}

	// --- validation ---
	if _, err := sysutil.ParseLevel(cfg.LogLevel); err != nil {
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if _, err := strconv.Atoi(strings.TrimSpace(cfg.Port)); err != nil {
		return cfg, errors.New("PORT must be numeric")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return cfg, errors.New("MAX_BODY_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.URL) == "" {
			return cfg, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, fmt.Errorf("DB_DRIVER %q must be sqlite or postgres", cfg.DB.Driver)
	}
	if strings.TrimSpace(cfg.Session.CookieName) == "" {
		return cfg, errors.New("SESSION_COOKIE must not be empty")
	}
	if err := cfg.Assistant.validate(); err != nil {
		return cfg, err
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.IdempotencySweep < 0 {
		return cfg, errors.New("IDEMPOTENCY_SWEEP must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

func (a AssistantConfig) validate() error {
	switch a.Dispatch {
	case "inline", "async", "amqp":
	default:
		return fmt.Errorf("ASSISTANT_DISPATCH %q must be inline, async or amqp", a.Dispatch)
	}
	if a.UserID == 0 {
		return errors.New("ASSISTANT_USER_ID must be > 0")
	}
	if strings.TrimSpace(a.Mention) == "" {
		return errors.New("ASSISTANT_MENTION must not be empty")
	}
	if a.ContextSize < 1 {
		return errors.New("ASSISTANT_CONTEXT_SIZE must be >= 1")
	}
	if a.MaxTokens < 1 {
		return errors.New("ASSISTANT_MAX_TOKENS must be >= 1")
	}
	if a.Temperature < 0 || a.Temperature > 2 {
		return errors.New("ASSISTANT_TEMPERATURE must be in [0,2]")
	}
	if a.Timeout <= 0 {
		return errors.New("ASSISTANT_TIMEOUT must be > 0")
	}
	if a.Workers < 1 || a.QueueSize < 0 {
		return errors.New("ASSISTANT_WORKERS must be >= 1 and ASSISTANT_QUEUE_SIZE >= 0")
	}
	return nil
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
	v, ok := os.LookupEnv(k)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	if sysutil.IsTruthy(v) {
		return true
	}
	if sysutil.IsFalsy(v) {
		return false
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
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and strips trailing ones (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
