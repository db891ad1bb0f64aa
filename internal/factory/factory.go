package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/pointsbot/internal/dependencies/clock"
	"github.com/mcoot/pointsbot/internal/services/auth"
	"github.com/mcoot/pointsbot/internal/services/commands"
	"github.com/mcoot/pointsbot/internal/services/ledger"
	"github.com/mcoot/pointsbot/internal/services/query"
	"github.com/mcoot/pointsbot/internal/storage"
	"github.com/mcoot/pointsbot/internal/storage/memory"
	"github.com/mcoot/pointsbot/internal/storage/postgres"
	redisstorage "github.com/mcoot/pointsbot/internal/storage/redis"
	"github.com/mcoot/pointsbot/internal/storage/sqlite"
	"github.com/mcoot/pointsbot/internal/web/sse"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeSQLite   = "sqlite"
	StorageTypePostgres = "postgres"
	StorageTypeRedis    = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage     storage.Storage
	StorageType string

	// External dependencies
	Clock clock.Clock

	// Services
	Ledger        *ledger.Service
	Query         *query.Service
	CommandRouter *commands.Router
	AuthService   *auth.Service
	HubManager    *sse.HubManager
	Broadcaster   *sse.Broadcaster
	Locale        query.Locale
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend
	// If empty, defaults to "memory"
	StorageType string
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
	// PostgresURL is the connection string (required if StorageType is "postgres")
	PostgresURL string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// AuthConfig holds configuration for the API token check (optional)
	AuthConfig auth.Config
	// Commands configures the chat command router
	// Zero fields take their commands.DefaultConfig() values
	Commands commands.Config
	// SerializeMutations enables per-player locking in the ledger
	SerializeMutations bool
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	store, err := openStorage(ctx, storageType, cfg)
	if err != nil {
		return nil, err
	}

	app, err := newWithDependencies(store, clock.New(), cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	app.StorageType = storageType
	logger.Info("application wired", slog.String("storage", storageType))
	return app, nil
}

func openStorage(ctx context.Context, storageType string, cfg Config) (storage.Storage, error) {
	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		return sqlite.Open(ctx, cfg.SQLitePath)
	case StorageTypePostgres:
		if cfg.PostgresURL == "" {
			return nil, errors.New("PostgresURL required when StorageType is postgres")
		}
		return postgres.Open(ctx, cfg.PostgresURL)
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(ctx, *cfg.RedisConfig)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be memory, sqlite, postgres or redis", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, cfg Config, logger *slog.Logger) (*App, error) {
	var opts []ledger.Option
	if cfg.SerializeMutations {
		opts = append(opts, ledger.WithPlayerLocking())
	}

	cmdCfg := withCommandDefaults(cfg.Commands)

	authCfg := cfg.AuthConfig
	if authCfg.CacheDuration == 0 {
		authCfg.CacheDuration = auth.DefaultConfig().CacheDuration
	}
	authService, err := auth.New(clk, authCfg, logger)
	if err != nil {
		return nil, err
	}

	ledgerService := ledger.New(store, clk, logger, opts...)
	queryService := query.New(ledgerService)
	router := commands.NewRouter(ledgerService, queryService, store, clk, logger, cmdCfg)
	hubManager := sse.NewHubManager(logger)
	broadcaster := sse.NewBroadcaster(hubManager, queryService, clk, cmdCfg.Locale, logger)
	ledgerService.Subscribe(broadcaster.Handle)

	return &App{
		Storage:       store,
		StorageType:   StorageTypeMemory,
		Clock:         clk,
		Ledger:        ledgerService,
		Query:         queryService,
		CommandRouter: router,
		AuthService:   authService,
		HubManager:    hubManager,
		Broadcaster:   broadcaster,
		Locale:        cmdCfg.Locale,
	}, nil
}

// withCommandDefaults fills zero fields from commands.DefaultConfig
func withCommandDefaults(c commands.Config) commands.Config {
	d := commands.DefaultConfig()
	c.Defaults = c.Defaults.WithDefaults(d.Defaults)
	if c.Locale.IsZero() {
		c.Locale = d.Locale
	}
	if c.PendingResetTTL == 0 {
		c.PendingResetTTL = d.PendingResetTTL
	}
	if c.ResetAllTimeout == 0 {
		c.ResetAllTimeout = d.ResetAllTimeout
	}
	if c.StatsHistoryLimit == 0 {
		c.StatsHistoryLimit = d.StatsHistoryLimit
	}
	return c
}

// sweepInterval is how often idle SSE hubs and expired token cache entries are dropped
const sweepInterval = time.Minute

// Start launches background workers until ctx is cancelled
func (a *App) Start(ctx context.Context) {
	go a.Broadcaster.Run(ctx)
	go a.sweep(ctx, sweepInterval)
}

func (a *App) sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.HubManager.CleanupEmptyHubs()
			a.AuthService.CleanExpired()
		case <-ctx.Done():
			return
		}
	}
}

// Close releases the storage backend and disconnects SSE clients
func (a *App) Close() error {
	a.HubManager.Close()
	return a.Storage.Close()
}
