package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 45*time.Minute, cfg.RequestLifetime)
	assert.Equal(t, 5.0, cfg.MatchRadiusMiles)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, "true", cfg.AutoMigrateUp)
	assert.Empty(t, cfg.MigrationsURL)
	assert.False(t, cfg.AsyncDispatch)
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("REQUEST_LIFETIME", "30m")
	t.Setenv("MATCH_RADIUS_MILES", "12.5")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.RequestLifetime)
	assert.Equal(t, 12.5, cfg.MatchRadiusMiles)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestNewConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value, reason string
	}{
		{"MATCH_RADIUS_MILES", "-1", "MATCH_RADIUS_MILES"},
		{"REQUEST_LIFETIME", "0s", "REQUEST_LIFETIME"},
		{"OPERATION_TIMEOUT", "0s", "OPERATION_TIMEOUT"},
		{"SWEEP_INTERVAL", "0s", "job intervals"},
		{"JOB_TIMEOUT", "0s", "JOB_TIMEOUT"},
		{"JOB_TIMEOUT", "-5s", "JOB_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := NewConfig()
			assert.ErrorContains(t, err, tt.reason)
		})
	}
}

func TestNewConfigEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SWEEP_INTERVAL=15s\nLOG_LEVEL=INFO\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Cleanup(func() {
		os.Unsetenv("SWEEP_INTERVAL")
		os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.SweepInterval)
	assert.Equal(t, "INFO", cfg.LogLevel)
}
