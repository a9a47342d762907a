// Package config loads server configuration from PWLEDGER_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mcoot/powerup-ledger/internal/api"
	"github.com/mcoot/powerup-ledger/internal/factory"
	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/services/auth"
	"github.com/mcoot/powerup-ledger/internal/services/token"
	redisstorage "github.com/mcoot/powerup-ledger/internal/storage/redis"
)

// Prefix is prepended to every variable name
const Prefix = "PWLEDGER_"

// Config is the server configuration
type Config struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT"      envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StorageType       string `env:"STORAGE_TYPE"         envDefault:"memory"`
	RedisURL          string `env:"REDIS_URL"`
	RedisMaxTxRetries int    `env:"REDIS_MAX_TX_RETRIES" envDefault:"5"`
	SQLitePath        string `env:"SQLITE_PATH"          envDefault:"pwledger.db"`
	PostgresDSN       string `env:"POSTGRES_DSN"`

	TreasuryAccount string `env:"TREASURY_ACCOUNT" envDefault:"treasury"`
	TreasuryOwner   string `env:"TREASURY_OWNER"   envDefault:"game"`
	FaucetEnabled   bool   `env:"FAUCET_ENABLED"   envDefault:"true"`
	// FaucetMax is in whole tokens, e.g. "100" or "2.5"
	FaucetMax string `env:"FAUCET_MAX" envDefault:"100"`

	SessionDuration    time.Duration `env:"SESSION_DURATION"     envDefault:"24h"`
	HubCleanupInterval time.Duration `env:"HUB_CLEANUP_INTERVAL" envDefault:"1m"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	ServiceName  string `env:"SERVICE_NAME" envDefault:"powerup-ledger"`

	faucetMax uint64
	logLevel  slog.Level
}

// Load parses and validates the environment
func Load() (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if err := c.logLevel.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("%sLOG_LEVEL: %w", Prefix, err)
	}

	limit, err := token.ParseUnits(c.FaucetMax)
	if err != nil {
		return fmt.Errorf("%sFAUCET_MAX: %w", Prefix, err)
	}
	c.faucetMax = limit

	switch c.StorageType {
	case factory.StorageTypeMemory, factory.StorageTypeSQLite:
	case factory.StorageTypeRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%sREDIS_URL required when %sSTORAGE_TYPE=redis", Prefix, Prefix)
		}
	case factory.StorageTypePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%sPOSTGRES_DSN required when %sSTORAGE_TYPE=postgres", Prefix, Prefix)
		}
	default:
		return fmt.Errorf("%sSTORAGE_TYPE %q: must be memory, redis, sqlite or postgres", Prefix, c.StorageType)
	}

	if c.TreasuryAccount == "" || c.TreasuryOwner == "" {
		return fmt.Errorf("%sTREASURY_ACCOUNT and %sTREASURY_OWNER must not be empty", Prefix, Prefix)
	}
	return nil
}

// SlogLevel returns the parsed log level
func (c *Config) SlogLevel() slog.Level {
	return c.logLevel
}

// Factory returns the application wiring config
func (c *Config) Factory(logger *slog.Logger) factory.Config {
	fc := factory.Config{
		AuthConfig:      auth.Config{SessionDuration: c.SessionDuration},
		LedgerConfig:    &token.Config{FaucetEnabled: c.FaucetEnabled, FaucetMax: c.faucetMax},
		Logger:          logger,
		StorageType:     c.StorageType,
		TreasuryAccount: model.AccountID(c.TreasuryAccount),
		TreasuryOwner:   model.Authority(c.TreasuryOwner),
	}

	switch c.StorageType {
	case factory.StorageTypeRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		redisCfg.MaxTxRetries = c.RedisMaxTxRetries
		fc.RedisConfig = &redisCfg
	case factory.StorageTypeSQLite:
		fc.SQLDSN = c.SQLitePath
	case factory.StorageTypePostgres:
		fc.SQLDSN = c.PostgresDSN
	}
	return fc
}

// Server returns the HTTP server config
func (c *Config) Server() api.ServerConfig {
	sc := api.DefaultServerConfig()
	sc.Host = c.Host
	sc.Port = c.Port
	return sc
}
