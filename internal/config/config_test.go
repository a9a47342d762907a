package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/powerup-ledger/internal/factory"
	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/services/token"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.Equal(t, factory.StorageTypeMemory, cfg.StorageType)
	assert.Equal(t, 24*time.Hour, cfg.SessionDuration)

	fc := cfg.Factory(nil)
	assert.Equal(t, model.AccountID("treasury"), fc.TreasuryAccount)
	assert.Equal(t, model.Authority("game"), fc.TreasuryOwner)
	require.NotNil(t, fc.LedgerConfig)
	assert.True(t, fc.LedgerConfig.FaucetEnabled)
	assert.Equal(t, 100*token.Unit, fc.LedgerConfig.FaucetMax)
	assert.Nil(t, fc.RedisConfig)

	sc := cfg.Server()
	assert.Equal(t, 8080, sc.Port)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PWLEDGER_PORT", "9090")
	t.Setenv("PWLEDGER_LOG_LEVEL", "debug")
	t.Setenv("PWLEDGER_STORAGE_TYPE", "redis")
	t.Setenv("PWLEDGER_REDIS_URL", "redis://cache:6379/2")
	t.Setenv("PWLEDGER_REDIS_MAX_TX_RETRIES", "9")
	t.Setenv("PWLEDGER_FAUCET_MAX", "2.5")
	t.Setenv("PWLEDGER_FAUCET_ENABLED", "false")
	t.Setenv("PWLEDGER_SESSION_DURATION", "90m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server().Port)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())

	fc := cfg.Factory(nil)
	require.NotNil(t, fc.RedisConfig)
	assert.Equal(t, "redis://cache:6379/2", fc.RedisConfig.URL)
	assert.Equal(t, 9, fc.RedisConfig.MaxTxRetries)
	assert.False(t, fc.LedgerConfig.FaucetEnabled)
	assert.Equal(t, uint64(2_500_000), fc.LedgerConfig.FaucetMax)
	assert.Equal(t, 90*time.Minute, fc.AuthConfig.SessionDuration)
}

func TestLoadSQLStorage(t *testing.T) {
	t.Setenv("PWLEDGER_STORAGE_TYPE", "sqlite")
	t.Setenv("PWLEDGER_SQLITE_PATH", "/var/lib/pwledger/ledger.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/pwledger/ledger.db", cfg.Factory(nil).SQLDSN)

	t.Setenv("PWLEDGER_STORAGE_TYPE", "postgres")
	t.Setenv("PWLEDGER_POSTGRES_DSN", "postgres://ledger@db/ledger")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://ledger@db/ledger", cfg.Factory(nil).SQLDSN)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad port", map[string]string{"PWLEDGER_PORT": "http"}, "parse env"},
		{"bad level", map[string]string{"PWLEDGER_LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"bad faucet", map[string]string{"PWLEDGER_FAUCET_MAX": "1.0000001"}, "FAUCET_MAX"},
		{"unknown storage", map[string]string{"PWLEDGER_STORAGE_TYPE": "cassandra"}, "STORAGE_TYPE"},
		{"redis without url", map[string]string{"PWLEDGER_STORAGE_TYPE": "redis"}, "REDIS_URL"},
		{"postgres without dsn", map[string]string{"PWLEDGER_STORAGE_TYPE": "postgres"}, "POSTGRES_DSN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
