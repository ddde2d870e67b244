// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Identity verifier modes.
const (
	VerifierSupabase = "supabase"
	VerifierJWT      = "jwt"
	VerifierOIDC     = "oidc"
)

// Secret backends.
const (
	BackendGCP = "gcp"
	BackendAWS = "aws"
	BackendEnv = "env"
)

// AuthConfig holds identity provider configuration.
type AuthConfig struct {
	Verifier string        // supabase (default), jwt, or oidc
	Timeout  time.Duration // bound on one identity-provider call (default 5s)

	// Supabase introspection. Public values; when empty they are read from
	// the secret store under the same names.
	SupabaseURL     string
	SupabaseAnonKey string

	// OIDC / JWKS configuration
	IssuerURL      string
	JWKSURL        string
	Audience       string
	AllowedIssuers []string

	RoleLookupTimeout time.Duration // bound on one profile-store read (default 3s)
}

// Validate checks that the auth configuration is internally consistent.
func (a *AuthConfig) Validate() error {
	switch a.Verifier {
	case VerifierSupabase, VerifierJWT:
		return nil
	case VerifierOIDC:
		if a.IssuerURL == "" {
			if a.JWKSURL != "" {
				return fmt.Errorf("AUTH_JWKS_URL requires AUTH_ISSUER_URL for the issuer check")
			}
			return fmt.Errorf("AUTH_VERIFIER=oidc requires AUTH_ISSUER_URL")
		}
		if a.Audience == "" {
			return fmt.Errorf("AUTH_AUDIENCE is required when AUTH_VERIFIER=oidc")
		}
		return nil
	default:
		return fmt.Errorf("unknown AUTH_VERIFIER %q (want supabase, jwt, or oidc)", a.Verifier)
	}
}

// SecretsConfig addresses the remote secret-management backend.
type SecretsConfig struct {
	Backend         string        // gcp (default in production), aws, or env
	ProjectID       string        // GCP project that owns the secrets
	CredentialsFile string        // optional GCP service account key file
	AWSRegion       string        // region for the aws backend
	FetchTimeout    time.Duration // bound on one secret fetch (default 10s)
	Concurrency     int           // parallel fetches during initialize (default 4)
	ManifestFile    string        // optional YAML manifest; built-in default otherwise
}

// DBConfig selects the profile-store driver. DSNs are secrets, not config.
type DBConfig struct {
	Driver      string // postgres (default) or sqlite3
	AutoMigrate bool   // run goose migrations on boot (development only)

	// Bootstrap administrator created on boot when no profile exists for it.
	BootstrapAdminID    string
	BootstrapAdminEmail string
}

// Config holds the configuration for the HTTP API.
type Config struct {
	ListenAddr        string // HTTP listen address (default ":8080")
	TLSCertFile       string // TLS certificate file path (optional)
	TLSKeyFile        string // TLS private key file path (optional)
	AllowInsecureHTTP bool   // allow non-TLS listener in production (for trusted TLS termination)
	LogLevel          string // log level: debug, info, warn, error (default "info")
	Env               string // environment: "development" (default) or "production"
	MetricsEnabled    bool   // expose /metrics (default true)

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 50)
	RateLimitBurst int     // burst capacity (default 100)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	Auth    AuthConfig
	Secrets SecretsConfig
	DB      DBConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:        os.Getenv("LISTEN_ADDR"),
		TLSCertFile:       os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:        os.Getenv("TLS_KEY_FILE"),
		AllowInsecureHTTP: strings.EqualFold(os.Getenv("ALLOW_INSECURE_HTTP"), "true"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		Env:               os.Getenv("ENV"),
		MetricsEnabled:    parseBoolEnvDefault("METRICS_ENABLED", true),
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = compactNonEmpty(splitTrim(v))
	}

	// Auth config
	cfg.Auth = AuthConfig{
		Verifier:          strings.ToLower(os.Getenv("AUTH_VERIFIER")),
		SupabaseURL:       os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:   os.Getenv("SUPABASE_ANON_KEY"),
		IssuerURL:         os.Getenv("AUTH_ISSUER_URL"),
		JWKSURL:           os.Getenv("AUTH_JWKS_URL"),
		Audience:          os.Getenv("AUTH_AUDIENCE"),
		Timeout:           parseDurationEnv("AUTH_TIMEOUT", 5*time.Second),
		RoleLookupTimeout: parseDurationEnv("ROLE_LOOKUP_TIMEOUT", 3*time.Second),
	}
	if v := os.Getenv("AUTH_ALLOWED_ISSUERS"); v != "" {
		cfg.Auth.AllowedIssuers = compactNonEmpty(splitTrim(v))
	}
	if cfg.Auth.Verifier == "" {
		cfg.Auth.Verifier = VerifierSupabase
	}
	if err := cfg.Auth.Validate(); err != nil {
		return nil, err
	}

	// Secret backend
	cfg.Secrets = SecretsConfig{
		Backend:         strings.ToLower(os.Getenv("SECRETS_BACKEND")),
		ProjectID:       os.Getenv("GCP_PROJECT_ID"),
		CredentialsFile: os.Getenv("GCP_CREDENTIALS_FILE"),
		AWSRegion:       os.Getenv("AWS_REGION"),
		FetchTimeout:    parseDurationEnv("SECRETS_FETCH_TIMEOUT", 10*time.Second),
		ManifestFile:    os.Getenv("SECRETS_MANIFEST_FILE"),
	}
	if v := os.Getenv("SECRETS_FETCH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Secrets.Concurrency = n
		}
	}
	if cfg.Secrets.Concurrency == 0 {
		cfg.Secrets.Concurrency = 4
	}
	if cfg.Secrets.Backend == "" {
		if cfg.IsProduction() || cfg.Secrets.ProjectID != "" {
			cfg.Secrets.Backend = BackendGCP
		} else {
			cfg.Secrets.Backend = BackendEnv
			cfg.Warnings = append(cfg.Warnings, "SECRETS_BACKEND not set; reading secrets from the process environment")
		}
	}
	switch cfg.Secrets.Backend {
	case BackendGCP:
		if cfg.Secrets.ProjectID == "" {
			return nil, fmt.Errorf("GCP_PROJECT_ID is required when SECRETS_BACKEND=gcp")
		}
	case BackendAWS, BackendEnv:
	default:
		return nil, fmt.Errorf("unknown SECRETS_BACKEND %q (want gcp, aws, or env)", cfg.Secrets.Backend)
	}

	// Profile store
	cfg.DB = DBConfig{
		Driver:      strings.ToLower(os.Getenv("DB_DRIVER")),
		AutoMigrate: parseBoolEnvDefault("DB_AUTO_MIGRATE", false),

		BootstrapAdminID:    os.Getenv("BOOTSTRAP_ADMIN_ID"),
		BootstrapAdminEmail: os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
	}
	if (cfg.DB.BootstrapAdminID == "") != (cfg.DB.BootstrapAdminEmail == "") {
		return nil, fmt.Errorf("BOOTSTRAP_ADMIN_ID and BOOTSTRAP_ADMIN_EMAIL must be set together")
	}
	if cfg.DB.Driver == "" {
		cfg.DB.Driver = "postgres"
	}
	if cfg.DB.Driver != "postgres" && cfg.DB.Driver != "sqlite3" {
		return nil, fmt.Errorf("unknown DB_DRIVER %q (want postgres or sqlite3)", cfg.DB.Driver)
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, fmt.Errorf("both TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 50
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 100
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.Secrets.Backend == BackendEnv {
			return nil, fmt.Errorf("SECRETS_BACKEND=env is not allowed in production (ENV=production)")
		}
		if cfg.DB.Driver == "sqlite3" {
			return nil, fmt.Errorf("DB_DRIVER=sqlite3 is not allowed in production (ENV=production)")
		}
		if cfg.DB.AutoMigrate {
			return nil, fmt.Errorf("DB_AUTO_MIGRATE must be off in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
		if cfg.TLSCertFile == "" && !cfg.AllowInsecureHTTP {
			return nil, fmt.Errorf("TLS_CERT_FILE/TLS_KEY_FILE must be set in production unless ALLOW_INSECURE_HTTP=true")
		}
	}

	return cfg, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

func parseDurationEnv(key string, defaultVal time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func splitTrim(v string) []string {
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimPrefix(line, "export "), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Real environment wins over the file.
		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes one pair of matching surrounding quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
