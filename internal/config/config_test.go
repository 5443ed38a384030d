package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	for _, k := range []string{"PORT", "DB_DRIVER", "DATABASE_URL", "OPENROUTER_API_KEY", "ASSISTANT_API_KEY", "ASSISTANT_DISPATCH"} {
		os.Unsetenv(k)
	}
	os.Exit(m.Run())
}

func containsErr(err error, want string) bool {
	return err != nil && strings.Contains(err.Error(), want)
}

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "3000" || cfg.Addr() != ":3000" || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("server defaults unexpected: %+v", cfg)
	}
	if cfg.DB.Driver != "sqlite" || cfg.DB.Path != "classroom.db" {
		t.Fatalf("db defaults unexpected: %+v", cfg.DB)
	}
	if cfg.Session.CookieName != "userId" || cfg.Session.PerPort || cfg.Session.Secure {
		t.Fatalf("session defaults unexpected: %+v", cfg.Session)
	}
	a := cfg.Assistant
	if a.APIKey != "" || a.UserID != 999 || a.Name != "NATE" || a.Mention != "@nate" || a.ContextSize != 10 {
		t.Fatalf("assistant identity defaults unexpected: %+v", a)
	}
	if a.Model != "openai/gpt-4o-mini" || a.MaxTokens != 500 || a.Temperature != 0.7 || a.Timeout != 20*time.Second {
		t.Fatalf("assistant completion defaults unexpected: %+v", a)
	}
	if a.Dispatch != "async" || a.Workers != 4 || a.QueueSize != 64 {
		t.Fatalf("dispatcher defaults unexpected: %+v", a)
	}
	if cfg.IdempotencyTTL != 24*time.Hour || cfg.IdempotencySweep != 15*time.Minute {
		t.Fatalf("idempotency defaults unexpected: %v %v", cfg.IdempotencyTTL, cfg.IdempotencySweep)
	}
	if cfg.OTEL.Enabled || cfg.OTEL.ServiceName != "go-classroom-backend" {
		t.Fatalf("otel defaults unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "3001")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("MAX_BODY_BYTES", "4096")
	t.Setenv("GIN_MODE", "weird")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/v2/")

	t.Setenv("DB_DRIVER", "PostgreSQL")
	t.Setenv("DATABASE_URL", "postgres://app@db/classroom")
	t.Setenv("ROSTER_PATH", "roster.yaml")

	t.Setenv("SESSION_COOKIE", "sid")
	t.Setenv("SESSION_COOKIE_PER_PORT", "1")
	t.Setenv("SESSION_SECURE", "true")

	t.Setenv("ASSISTANT_API_KEY", "sk-fallback")
	t.Setenv("ASSISTANT_DISPATCH", "AMQP")
	t.Setenv("AMQP_URL", "amqp://guest:guest@mq:5672/")
	t.Setenv("ASSISTANT_CONTEXT_SIZE", "5")
	t.Setenv("ASSISTANT_TEMPERATURE", "0.2")

	t.Setenv("RATE_RPS", "x")
	t.Setenv("RATE_BURST", "nope")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")
	t.Setenv("IDEMPOTENCY_TTL", "48h")

	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "3001" || cfg.ReadTimeout != 2*time.Second || cfg.MaxBodyBytes != 4096 || cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v2" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}
	if cfg.DB.Driver != "postgres" || cfg.DB.URL != "postgres://app@db/classroom" || cfg.RosterPath != "roster.yaml" {
		t.Fatalf("storage unexpected: %+v %q", cfg.DB, cfg.RosterPath)
	}
	if cfg.Session != (SessionConfig{CookieName: "sid", PerPort: true, Secure: true}) {
		t.Fatalf("session unexpected: %+v", cfg.Session)
	}
	a := cfg.Assistant
	if a.APIKey != "sk-fallback" || a.Dispatch != "amqp" || a.AMQP.URL != "amqp://guest:guest@mq:5672/" || a.AMQP.Queue != "assistant.replies" {
		t.Fatalf("assistant unexpected: %+v", a)
	}
	if a.ContextSize != 5 || a.Temperature != 0.2 {
		t.Fatalf("assistant tuning unexpected: %+v", a)
	}
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting should fall back to defaults: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour || cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("security/idempotency unexpected: %+v", cfg)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.Insecure || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_PrimaryAPIKeyWins(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-primary")
	t.Setenv("ASSISTANT_API_KEY", "sk-fallback")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Assistant.APIKey != "sk-primary" {
		t.Fatalf("APIKey = %q", cfg.Assistant.APIKey)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		env  map[string]string
		want string
	}{
		{map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{map[string]string{"PORT": "   "}, "PORT must be numeric"},
		{map[string]string{"READ_TIMEOUT": "0s"}, "timeouts must be positive"},
		{map[string]string{"MAX_HEADER_BYTES": "0"}, "MAX_HEADER_BYTES"},
		{map[string]string{"MAX_BODY_BYTES": "-1"}, "MAX_BODY_BYTES"},
		{map[string]string{"DB_PATH": "   "}, "DB_PATH must not be empty"},
		{map[string]string{"DB_DRIVER": "postgres"}, "DATABASE_URL is required"},
		{map[string]string{"DB_DRIVER": "mysql"}, "DB_DRIVER"},
		{map[string]string{"SESSION_COOKIE": " "}, "SESSION_COOKIE"},
		{map[string]string{"ASSISTANT_DISPATCH": "kafka"}, "ASSISTANT_DISPATCH"},
		{map[string]string{"ASSISTANT_USER_ID": "0"}, "ASSISTANT_USER_ID"},
		{map[string]string{"ASSISTANT_MENTION": "  "}, "ASSISTANT_MENTION"},
		{map[string]string{"ASSISTANT_CONTEXT_SIZE": "0"}, "ASSISTANT_CONTEXT_SIZE"},
		{map[string]string{"ASSISTANT_MAX_TOKENS": "0"}, "ASSISTANT_MAX_TOKENS"},
		{map[string]string{"ASSISTANT_TEMPERATURE": "3"}, "ASSISTANT_TEMPERATURE"},
		{map[string]string{"ASSISTANT_TIMEOUT": "-1s"}, "ASSISTANT_TIMEOUT"},
		{map[string]string{"ASSISTANT_WORKERS": "0"}, "ASSISTANT_WORKERS"},
		{map[string]string{"RATE_RPS": "-1"}, "RATE_RPS"},
		{map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{map[string]string{"HSTS_MAX_AGE": "-1s"}, "HSTS_MAX_AGE"},
		{map[string]string{"IDEMPOTENCY_TTL": "0s"}, "IDEMPOTENCY_TTL"},
		{map[string]string{"IDEMPOTENCY_SWEEP": "-1m"}, "IDEMPOTENCY_SWEEP"},
		{map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}, "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); !containsErr(err, tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestHelpers_getenv(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_getfloat_getint_getdur(t *testing.T) {
	t.Setenv("F_VALID", "3.14")
	if getfloat("F_VALID", 0) != 3.14 {
		t.Fatalf("getfloat parse failed")
	}
	t.Setenv("F_BAD", "nope")
	if getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat default on bad parse failed")
	}
	t.Setenv("I_VALID", "42")
	if getint("I_VALID", 0) != 42 {
		t.Fatalf("getint parse failed")
	}
	t.Setenv("I_BAD", "x")
	if getint("I_BAD", 7) != 7 {
		t.Fatalf("getint default on bad parse failed")
	}
	t.Setenv("D_VALID", "150ms")
	if getdur("D_VALID", time.Second) != 150*time.Millisecond {
		t.Fatalf("getdur parse failed")
	}
	t.Setenv("D_BAD", "zzz")
	if getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur default on bad parse failed")
	}
}

func TestHelpers_getbool(t *testing.T) {
	for i, v := range []string{"1", "true", "TRUE", " yes ", "Y", "on", "On"} {
		k := "B_T_" + strconv.Itoa(i)
		t.Setenv(k, v)
		if !getbool(k, false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	for i, v := range []string{"0", "false", "FALSE", " no ", "N", "off", "Off"} {
		k := "B_F_" + strconv.Itoa(i)
		t.Setenv(k, v)
		if getbool(k, true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	t.Setenv("B_EMPTY", "")
	t.Setenv("B_JUNK", "maybe")
	if !getbool("B_EMPTY", true) || getbool("B_EMPTY", false) || !getbool("B_JUNK", true) {
		t.Fatalf("getbool default behavior unexpected")
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV mismatch: got %#v", got)
	}
	for in, want := range map[string]string{"": "/", "v1": "/v1", "/v1/": "/v1", " / ": "/", "//": "/"} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q; want %q", in, got, want)
		}
	}
}
