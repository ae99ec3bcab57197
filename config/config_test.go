package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_PATH",
		"GOOGLE_API_KEY", "GOOGLE_API_BASE_URL", "GOOGLE_ALLOWED_MODELS", "MODEL_CACHE_TTL",
		"SKIP_DB", "JOURNAL_PATH", "PORT", "DEBUG",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "data/sessions.db", cfg.DBPath)
	assert.Equal(t, 600*time.Second, cfg.ModelCacheTTL)
	assert.Equal(t, "data/sessions/session_journal.jsonl", cfg.JournalPath)
	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.SkipDB)
	assert.Empty(t, cfg.AllowedModels)
}

func TestLoadAllowedModelsList(t *testing.T) {
	t.Setenv("GOOGLE_ALLOWED_MODELS", "gemini-2.5-pro, gemini-2.5-flash ,,")

	cfg := Load()
	assert.Equal(t, []string{"gemini-2.5-pro", "gemini-2.5-flash"}, cfg.AllowedModels)
}

func TestValidatePostgresMissingCredentials(t *testing.T) {
	cfg := &Config{Driver: DriverPostgres, DBName: "chat"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
	assert.Contains(t, err.Error(), "DB_PASSWORD")
	assert.NotContains(t, err.Error(), "DB_NAME")
}

func TestValidateSkipDBBypassesCredentials(t *testing.T) {
	cfg := &Config{Driver: DriverPostgres, SkipDB: true}
	assert.NoError(t, cfg.Validate())
}

func TestValidateUnknownDriver(t *testing.T) {
	cfg := &Config{Driver: "oracle"}
	assert.Error(t, cfg.Validate())
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: 5433, DBName: "chat", DBUser: "app", DBPassword: "secret"}
	assert.Equal(t, "host=db port=5433 dbname=chat user=app password=secret", cfg.PostgresDSN())
}
