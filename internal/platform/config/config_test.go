package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 3, cfg.Mint.MaxAttempts)
	assert.Equal(t, 500, cfg.Mint.BatchSize)
	assert.Equal(t, 5*time.Minute, cfg.ActivationLease)
	assert.Equal(t, 30*time.Minute, cfg.Mint.Lease)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DB_NAME=from_file\nMINT_MAX_ATTEMPTS=5\n"), 0o600))

	t.Setenv("MINT_RETRY_BACKOFF", "1s")
	for _, key := range []string{"DB_NAME", "MINT_MAX_ATTEMPTS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load(envFile)

	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Mint.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Mint.RetryBackoff)
	assert.Equal(t, "from_file", cfg.DB.Name)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("MINT_BATCH_SIZE", "many")

	_, err := Load()

	assert.Error(t, err)
}

func TestLoad_RejectsZeroAttempts(t *testing.T) {
	t.Setenv("MINT_MAX_ATTEMPTS", "0")

	_, err := Load()

	assert.ErrorContains(t, err, "MINT_MAX_ATTEMPTS")
}
