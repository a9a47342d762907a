package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/powerup-ledger/internal/catalog"
	"github.com/mcoot/powerup-ledger/internal/dependencies/clock"
	"github.com/mcoot/powerup-ledger/internal/dependencies/random"
	"github.com/mcoot/powerup-ledger/internal/events"
	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/services/auth"
	"github.com/mcoot/powerup-ledger/internal/services/player"
	"github.com/mcoot/powerup-ledger/internal/services/purchase"
	"github.com/mcoot/powerup-ledger/internal/services/token"
	"github.com/mcoot/powerup-ledger/internal/storage"
	"github.com/mcoot/powerup-ledger/internal/storage/memory"
	redisstorage "github.com/mcoot/powerup-ledger/internal/storage/redis"
	"github.com/mcoot/powerup-ledger/internal/storage/sqlstore"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypeSQLite   = "sqlite"
	StorageTypePostgres = "postgres"
)

// Treasury defaults
const (
	DefaultTreasuryAccount model.AccountID = "treasury"
	DefaultTreasuryOwner   model.Authority = "game"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Catalog       *catalog.Catalog
	AuthService   *auth.Service
	PlayerService *player.Service
	Ledger        *token.Ledger
	Orchestrator  *purchase.Orchestrator
	HubManager    *events.HubManager

	// Treasury receives every power-up payment
	Treasury model.AccountID
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// LedgerConfig holds faucet settings (optional)
	// If nil, defaults to token.DefaultConfig()
	LedgerConfig *token.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis", "sqlite" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLDSN is the SQLite path or Postgres URL (required for the SQL storage types)
	SQLDSN string
	// TreasuryAccount and TreasuryOwner name the account created at startup
	// to receive payments. Defaults to "treasury" owned by "game".
	TreasuryAccount model.AccountID
	TreasuryOwner   model.Authority
}

// New creates a new application with all dependencies wired.
// The treasury account is created if it does not exist.
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := newWithDependencies(store, clock.New(), random.New(), cfg, logger)
	if _, err := app.Ledger.EnsureAccount(ctx, app.Treasury, treasuryOwner(cfg)); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ensure treasury: %w", err)
	}
	return app, nil
}

func openStorage(ctx context.Context, cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypeSQLite:
		return sqlstore.Open(ctx, sqlstore.Config{Driver: sqlstore.DriverSQLite, DSN: cfg.SQLDSN})
	case StorageTypePostgres:
		return sqlstore.Open(ctx, sqlstore.Config{Driver: sqlstore.DriverPostgres, DSN: cfg.SQLDSN})
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be memory, redis, sqlite or postgres", storageType)
	}
}

func treasuryOwner(cfg Config) model.Authority {
	if cfg.TreasuryOwner == "" {
		return DefaultTreasuryOwner
	}
	return cfg.TreasuryOwner
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}
	ledgerCfg := token.DefaultConfig()
	if cfg.LedgerConfig != nil {
		ledgerCfg = *cfg.LedgerConfig
	}
	treasury := cfg.TreasuryAccount
	if treasury == "" {
		treasury = DefaultTreasuryAccount
	}

	cat := catalog.Default()
	hubManager := events.NewHubManager(logger)
	ledger := token.New(store, clk, rnd, logger, ledgerCfg)
	playerService := player.New(store, clk, hubManager, logger)
	orchestrator := purchase.New(store, cat, ledger, clk, hubManager, logger, purchase.Config{Treasury: treasury})
	authService := auth.New(store, clk, logger, authCfg)

	return &App{
		Storage:       store,
		Clock:         clk,
		Random:        rnd,
		Catalog:       cat,
		AuthService:   authService,
		PlayerService: playerService,
		Ledger:        ledger,
		Orchestrator:  orchestrator,
		HubManager:    hubManager,
		Treasury:      treasury,
	}
}

// Close releases the event hubs and the storage backend
func (a *App) Close() error {
	a.HubManager.Close()
	return a.Storage.Close()
}
