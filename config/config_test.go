package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"TUSHARE_TOKEN", "TSA_CACHE_TTL", "TSA_HISTORY_DAYS", "TSA_RATE_LIMIT", "TSA_CALL_TIMEOUT"} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingToken(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "none.env"))
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TUSHARE_TOKEN", "abc")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.env"))
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.Token)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 15*time.Second, cfg.CallTimeout)
	assert.Equal(t, 90, cfg.HistoryDays)
	assert.Equal(t, 3.0, cfg.RateLimit)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TUSHARE_TOKEN", "abc")
	t.Setenv("TSA_CACHE_TTL", "2m")
	t.Setenv("TSA_HISTORY_DAYS", "120")
	t.Setenv("TSA_RATE_LIMIT", "nope")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.env"))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 120, cfg.HistoryDays)
	assert.Equal(t, 3.0, cfg.RateLimit)
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("TUSHARE_TOKEN")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TUSHARE_TOKEN=from-file\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Token)
	os.Unsetenv("TUSHARE_TOKEN")
}
