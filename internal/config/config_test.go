package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
database:
  host: db.internal
  port: 5432
  user: tabletap
  password: secret
  database: tabletap

rabbitmq:
  host: mq.internal
  port: 5672
  user: guest
  password: guest

redis:
  addr: cache.internal:6379
  catalog_ttl: 120

auth:
  secret: file-secret

loyalty:
  earn_rate: 50
  redeem_value: 5
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "tabletap", cfg.Database.Name)
	assert.Equal(t, "mq.internal", cfg.Rabbit.Host)
	assert.Equal(t, "cache.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, 120, cfg.Redis.CatalogTTL)
	assert.Equal(t, "file-secret", cfg.Auth.Secret)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "env-db")
	t.Setenv("DB_PORT", "6432")
	t.Setenv("AUTH_SECRET", "env-secret")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "env-db", cfg.Database.Host)
	assert.Equal(t, 6432, cfg.Database.Port)
	assert.Equal(t, "env-secret", cfg.Auth.Secret)
	// Untouched values keep the file's settings.
	assert.Equal(t, "mq.internal", cfg.Rabbit.Host)
}

func TestLoadRejectsMissingHosts(t *testing.T) {
	_, err := Load(writeConfig(t, "database:\n  port: 5432\n"))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "database: [not a map"))
	require.Error(t, err)
}

func TestLoyaltyRatesFromConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	rates := cfg.LoyaltyRates()
	assert.True(t, decimal.NewFromInt(50).Equal(rates.EarnRate))
	assert.True(t, decimal.NewFromInt(5).Equal(rates.RedeemValue))
}

func TestLoyaltyRatesDefaultWhenUnset(t *testing.T) {
	rates := App{}.LoyaltyRates()
	assert.True(t, decimal.NewFromInt(100).Equal(rates.EarnRate))
	assert.True(t, decimal.NewFromInt(10).Equal(rates.RedeemValue))
}
