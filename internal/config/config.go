// Package config loads the application configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables.
// Defaults suit local development against the Vite dev server.
type Config struct {
	Port   int    `validate:"min=1,max=65535"`
	DBPath string `validate:"required"`

	// JWT_SECRET must match the identity provider's signing key. It is only
	// required by the commands that verify or mint tokens.
	JWTSecret string `validate:"omitempty,min=16"`
	JWTIssuer string

	OpenAIAPIKey  string
	OpenAIModel   string        `validate:"required"`
	OpenAIBaseURL string        `validate:"omitempty,url"`
	ModelTimeout  time.Duration `validate:"gte=0"`

	MaxUploadBytes     int64    `validate:"gt=0"`
	CORSAllowedOrigins []string `validate:"dive,required"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`
}

// Load reads configuration from the environment. Variables already set in
// the environment win over the .env files; a missing .env file is not an
// error. With no files given, ".env" in the working directory is tried.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: reading env file: %w", err)
	}

	var errs []error
	cfg := &Config{
		Port:   getint("PORT", 8080, &errs),
		DBPath: getenv("DB_PATH", "data/reviews.db"),

		JWTSecret: getenv("JWT_SECRET", ""),
		JWTIssuer: getenv("JWT_ISSUER", ""),

		OpenAIAPIKey:  getenv("OPENAI_API_KEY", ""),
		OpenAIModel:   getenv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getenv("OPENAI_BASE_URL", ""),
		ModelTimeout:  getdur("MODEL_TIMEOUT", 90*time.Second, &errs),

		MaxUploadBytes:     int64(getint("MAX_UPLOAD_BYTES", 1<<20, &errs)),
		CORSAllowedOrigins: getlist("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getenv("LOG_FORMAT", "text")),
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(errs...))
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// RequireJWTSecret reports an error when no token secret is configured.
func (c *Config) RequireJWTSecret() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	return nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getint(key string, def int, errs *[]error) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid int for %s: %q", key, v))
		return def
	}
	return i
}

func getdur(key string, def time.Duration, errs *[]error) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid duration for %s: %q", key, v))
		return def
	}
	return d
}

// getlist splits a comma-separated variable, dropping empty entries.
func getlist(key, def string) []string {
	var out []string
	for _, item := range strings.Split(getenv(key, def), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
