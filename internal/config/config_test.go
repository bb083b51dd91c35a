package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("GITLAB_HOST", "")
	t.Setenv("GITLAB_TOKEN", "")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Equal(t, "missing required environment variables: GITLAB_HOST, GITLAB_TOKEN", err.Error())
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GITLAB_HOST", "https://gitlab.example.com/")
	t.Setenv("GITLAB_TOKEN", "glpat-123")
	for _, key := range []string{"GITLAB_PAGE_SIZE", "GITLAB_TIMEOUT", "MAX_CONCURRENT", "PROGRESS_DELAY", "EXCHANGE_DIR", "HTTP_ADDR", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "https://gitlab.example.com", cfg.GitLabHost)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 0, cfg.MaxConcurrent)
	assert.Equal(t, 500*time.Millisecond, cfg.ProgressDelay)
	assert.Equal(t, "exports", cfg.ExchangeDir)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.GitLabTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GITLAB_HOST", "https://gitlab.example.com")
	t.Setenv("GITLAB_TOKEN", "glpat-123")
	t.Setenv("GITLAB_PAGE_SIZE", "50")
	t.Setenv("GITLAB_TIMEOUT", "5s")
	t.Setenv("MAX_CONCURRENT", "4")
	t.Setenv("PROGRESS_DELAY", "2s")
	t.Setenv("EXCHANGE_BUCKET", "exports")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, 5*time.Second, cfg.GitLabTimeout)
	assert.Equal(t, 4, cfg.MaxConcurrent)
	assert.Equal(t, 2*time.Second, cfg.ProgressDelay)
	assert.Equal(t, "exports", cfg.ExchangeBucket)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("GITLAB_HOST", "h")
	t.Setenv("GITLAB_TOKEN", "t")
	t.Setenv("GITLAB_PAGE_SIZE", "many")
	t.Setenv("PROGRESS_DELAY", "soon")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 500*time.Millisecond, cfg.ProgressDelay)
}
