package config_test

import (
	"testing"

	"raffle-platform/config"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	t.Run("TestConfig", func(t *testing.T) {
		assert.NoError(t, config.LoadTestConfig().Validate())
	})

	t.Run("MissingJWTSecret", func(t *testing.T) {
		cfg := config.LoadTestConfig()
		cfg.Auth.JWTSecret = ""
		assert.ErrorIs(t, cfg.Validate(), config.ErrInsecureSecret)
	})

	t.Run("DefaultJWTSecret", func(t *testing.T) {
		cfg := config.LoadTestConfig()
		cfg.Auth.JWTSecret = "dev-secret"
		assert.ErrorIs(t, cfg.Validate(), config.ErrInsecureSecret)
	})

	t.Run("MissingWebhookSecret", func(t *testing.T) {
		cfg := config.LoadTestConfig()
		cfg.Auth.WebhookSecret = ""
		assert.ErrorIs(t, cfg.Validate(), config.ErrInsecureSecret)
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("WEBHOOK_SECRET", "")
	t.Setenv("SETTLEMENT_QUEUE", "")

	cfg := config.LoadConfig()

	assert.Equal(t, "sync", cfg.Queue.Backend)
	assert.ErrorIs(t, cfg.Validate(), config.ErrInsecureSecret)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "prod-jwt")
	t.Setenv("WEBHOOK_SECRET", "prod-hook")
	t.Setenv("SETTLEMENT_QUEUE", "redis")

	cfg := config.LoadConfig()

	assert.Equal(t, "redis", cfg.Queue.Backend)
	assert.NoError(t, cfg.Validate())
}
