// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr     string
	DBPath         string
	SecretKey      []byte // 32 bytes, or nil when credential storage is disabled.
	LogLevel       slog.Level
	TrelloBaseURL  string
	GitHubBaseURL  string // Empty means api.github.com; a GHES root gets /api/v3/ appended.
	TracingEnabled bool
}

// HasSecretKey reports whether credential encryption is configured. Without it
// integrations can be neither saved nor read.
func (c *Config) HasSecretKey() bool {
	return c.SecretKey != nil
}

// Load reads configuration from environment variables and returns a validated Config.
// All variables are optional. Defaults: EXPORTHUB_LISTEN_ADDR (127.0.0.1:8080),
// EXPORTHUB_DB_PATH (exporthub.db), EXPORTHUB_LOG_LEVEL (info),
// EXPORTHUB_TRELLO_BASE_URL (https://api.trello.com), EXPORTHUB_TRACING (false).
// EXPORTHUB_SECRET_KEY must be 64 hex characters when set.
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("EXPORTHUB_LISTEN_ADDR"); ok && v != "" {
		listenAddr = v
	}

	dbPath := "exporthub.db"
	if v, ok := os.LookupEnv("EXPORTHUB_DB_PATH"); ok && v != "" {
		dbPath = v
	}

	var secretKey []byte
	if v := strings.TrimSpace(os.Getenv("EXPORTHUB_SECRET_KEY")); v != "" {
		key, err := ParseSecretKey(v)
		if err != nil {
			return nil, fmt.Errorf("EXPORTHUB_SECRET_KEY: %w", err)
		}
		secretKey = key
	}

	logLevel := slog.LevelInfo
	if v, ok := os.LookupEnv("EXPORTHUB_LOG_LEVEL"); ok && v != "" {
		if err := logLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("EXPORTHUB_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	trelloBaseURL := "https://api.trello.com"
	if v, ok := os.LookupEnv("EXPORTHUB_TRELLO_BASE_URL"); ok && v != "" {
		if err := validateBaseURL(v); err != nil {
			return nil, fmt.Errorf("EXPORTHUB_TRELLO_BASE_URL: %w", err)
		}
		trelloBaseURL = v
	}

	var githubBaseURL string
	if v, ok := os.LookupEnv("EXPORTHUB_GITHUB_BASE_URL"); ok && v != "" {
		if err := validateBaseURL(v); err != nil {
			return nil, fmt.Errorf("EXPORTHUB_GITHUB_BASE_URL: %w", err)
		}
		githubBaseURL = v
	}

	var tracing bool
	if v, ok := os.LookupEnv("EXPORTHUB_TRACING"); ok && v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("EXPORTHUB_TRACING has invalid boolean %q: %w", v, err)
		}
		tracing = parsed
	}

	return &Config{
		ListenAddr:     listenAddr,
		DBPath:         dbPath,
		SecretKey:      secretKey,
		LogLevel:       logLevel,
		TrelloBaseURL:  trelloBaseURL,
		GitHubBaseURL:  githubBaseURL,
		TracingEnabled: tracing,
	}, nil
}

// ParseSecretKey decodes a 64-character hex string into a 32-byte AES-256 key.
func ParseSecretKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("must be hex encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
