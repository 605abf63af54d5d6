package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingAPIURL is returned by Validate when no API base URL is set.
var ErrMissingAPIURL = errors.New("TODOS_API_URL is not set")

// Config holds client configuration.
type Config struct {
	// Remote API
	APIURL      string
	HTTPTimeout time.Duration

	// Circuit breaker
	BreakerEnabled  bool
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	// Output
	Theme     string
	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads configuration from the environment, after loading a .env
// file from the working directory if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIURL:      getEnv("TODOS_API_URL", ""),
		HTTPTimeout: getDurationEnv("TODOS_HTTP_TIMEOUT", 0),

		BreakerEnabled:  getBoolEnv("TODOS_BREAKER_ENABLED", false),
		BreakerFailures: uint32(getIntEnv("TODOS_BREAKER_FAILURES", 5)),
		BreakerTimeout:  getDurationEnv("TODOS_BREAKER_TIMEOUT", 30*time.Second),

		Theme:     getEnv("TODOS_THEME", "classic"),
		LogLevel:  getEnv("TODOS_LOG_LEVEL", "info"),
		LogFormat: getEnv("TODOS_LOG_FORMAT", "text"),
		LogFile:   getEnv("TODOS_LOG_FILE", ""),
	}
	return cfg, nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return ErrMissingAPIURL
	}
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("TODOS_API_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("TODOS_API_URL: unsupported scheme %q", u.Scheme)
	}
	if c.HTTPTimeout < 0 {
		return errors.New("TODOS_HTTP_TIMEOUT: must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil && i >= 0 {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
