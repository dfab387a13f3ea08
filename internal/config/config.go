package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultFirebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

var ErrMissingDatabase = errors.New("DATABASE_URL and DB_NAME must be set")

type Config struct {
	// Database
	DatabaseURL string
	DBName      string

	// Firebase identity verification
	FirebaseCredentialsJSON string
	FirebaseCredentialsPath string
	FirebaseProjectID       string
	FirebaseJWKSURL         string

	// Sessions
	SessionTTL time.Duration
	Cookie     CookieConfig

	// Server
	Port        string
	CORSOrigins []string

	// Observability
	SentryDSN        string
	AppEnv           string
	MetricsEnabled   bool
	LogRetentionDays int
	OTLPEndpoint     string
	TraceSampleRate  float64
}

// CookieConfig holds the deployment-specific attributes of the session cookie.
// For a frontend and API on sibling subdomains set Domain to the shared parent
// (".example.com"); local development over plain http needs Secure=false.
type CookieConfig struct {
	Domain   string
	Secure   bool
	SameSite string
}

func Load() *Config {
	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBName:      getEnv("DB_NAME", ""),

		FirebaseCredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseJWKSURL:         getEnv("FIREBASE_JWKS_URL", defaultFirebaseJWKSURL),

		SessionTTL: parseDuration(getEnv("SESSION_TTL", "168h")),
		Cookie: CookieConfig{
			Domain:   getEnv("COOKIE_DOMAIN", ""),
			Secure:   parseBool(getEnv("COOKIE_SECURE", "true")),
			SameSite: strings.ToLower(strings.TrimSpace(getEnv("COOKIE_SAMESITE", "lax"))),
		},

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: parseCSV(getEnv("CORS_ORIGINS", "")),

		SentryDSN:        getEnv("SENTRY_DSN", ""),
		AppEnv:           getEnv("APP_ENV", "development"),
		MetricsEnabled:   parseBool(getEnv("METRICS_ENABLED", "true")),
		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
		OTLPEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TraceSampleRate:  parseRate(getEnv("OTEL_TRACES_SAMPLE_RATE", "1")),
	}
}

// Validate reports configuration that must abort startup.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" || c.DBName == "" {
		return ErrMissingDatabase
	}
	return nil
}

// DSN returns the connection string with DBName applied. Both URL
// ("postgres://...") and key=value connection strings are accepted.
func (c *Config) DSN() (string, error) {
	if strings.Contains(c.DatabaseURL, "://") {
		u, err := url.Parse(c.DatabaseURL)
		if err != nil {
			return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		u.Path = "/" + c.DBName
		q := u.Query()
		if q.Get("TimeZone") == "" {
			q.Set("TimeZone", "UTC")
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	dsn := strings.TrimSpace(c.DatabaseURL) + " dbname=" + c.DBName
	if !strings.Contains(dsn, "TimeZone=") {
		dsn += " TimeZone=UTC"
	}
	return dsn, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 7 * 24 * time.Hour
	}
	return d
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// parseRate accepts a ratio in (0, 1]; anything else samples every trace.
func parseRate(s string) float64 {
	r, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || r <= 0 || r > 1 {
		return 1
	}
	return r
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
