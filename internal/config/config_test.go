package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"TODOS_API_URL", "TODOS_HTTP_TIMEOUT",
	"TODOS_BREAKER_ENABLED", "TODOS_BREAKER_FAILURES", "TODOS_BREAKER_TIMEOUT",
	"TODOS_THEME", "TODOS_LOG_LEVEL", "TODOS_LOG_FORMAT", "TODOS_LOG_FILE",
}

// clearEnv unsets every variable Load reads and runs from an empty
// directory so no stray .env file is picked up.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.APIURL)
	assert.Equal(t, time.Duration(0), cfg.HTTPTimeout)
	assert.False(t, cfg.BreakerEnabled)
	assert.Equal(t, uint32(5), cfg.BreakerFailures)
	assert.Equal(t, 30*time.Second, cfg.BreakerTimeout)
	assert.Equal(t, "classic", cfg.Theme)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "", cfg.LogFile)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TODOS_API_URL", "http://localhost:8000/api/")
	t.Setenv("TODOS_HTTP_TIMEOUT", "5s")
	t.Setenv("TODOS_BREAKER_ENABLED", "true")
	t.Setenv("TODOS_BREAKER_FAILURES", "3")
	t.Setenv("TODOS_THEME", "neon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api/", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.BreakerEnabled)
	assert.Equal(t, uint32(3), cfg.BreakerFailures)
	assert.Equal(t, "neon", cfg.Theme)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("TODOS_HTTP_TIMEOUT", "soon")
	t.Setenv("TODOS_BREAKER_FAILURES", "-1")
	t.Setenv("TODOS_BREAKER_ENABLED", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), cfg.HTTPTimeout)
	assert.Equal(t, uint32(5), cfg.BreakerFailures)
	assert.False(t, cfg.BreakerEnabled)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("TODOS_API_URL=http://example.test/\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/", cfg.APIURL)
	os.Unsetenv("TODOS_API_URL")
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	assert.ErrorIs(t, cfg.Validate(), ErrMissingAPIURL)

	cfg.APIURL = "ftp://example.test/"
	assert.Error(t, cfg.Validate())

	cfg.APIURL = "http://example.test/"
	assert.NoError(t, cfg.Validate())

	cfg.HTTPTimeout = -time.Second
	assert.Error(t, cfg.Validate())
}
