package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "9666", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "mainnet", cfg.Node.Network)
	assert.Equal(t, 30*time.Minute, cfg.Session.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.Session.Grace)
	assert.Equal(t, 5*time.Minute, cfg.Approval.Timeout)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "7777")
	t.Setenv("NETWORK", "testnet")
	t.Setenv("SESSION_TIMEOUT", "10m")
	t.Setenv("APPROVAL_TIMEOUT", "90s")
	t.Setenv("LOG_DEV", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7777", cfg.Server.Port)
	assert.Equal(t, "testnet", cfg.Node.Network)
	assert.Equal(t, 10*time.Minute, cfg.Session.Timeout)
	assert.Equal(t, 90*time.Second, cfg.Approval.Timeout)
	assert.True(t, cfg.Logging.Development)
}

func TestLoadRejectsGarbage(t *testing.T) {
	t.Setenv("SESSION_TIMEOUT", "not-a-duration")

	_, err := Load()
	assert.Error(t, err)
}
