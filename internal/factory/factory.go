package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/creditshop/internal/api"
	"github.com/mcoot/creditshop/internal/dependencies/clock"
	"github.com/mcoot/creditshop/internal/dependencies/random"
	"github.com/mcoot/creditshop/internal/metrics"
	"github.com/mcoot/creditshop/internal/router"
	"github.com/mcoot/creditshop/internal/server"
	"github.com/mcoot/creditshop/internal/services/catalog"
	"github.com/mcoot/creditshop/internal/services/ledger"
	"github.com/mcoot/creditshop/internal/session"
	"github.com/mcoot/creditshop/internal/storage"
	"github.com/mcoot/creditshop/internal/storage/memory"
	redisstorage "github.com/mcoot/creditshop/internal/storage/redis"
	sqlitestorage "github.com/mcoot/creditshop/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	CatalogService *catalog.Service
	Ledger         *ledger.Service
	Sessions       *session.Table
	Router         *router.Router
	Metrics        *metrics.Metrics

	logger *slog.Logger
	closer io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLiteConfig holds database settings (optional for "sqlite")
	// If nil, defaults to sqlitestorage.DefaultConfig()
	SQLiteConfig *sqlitestorage.Config
	// LedgerConfig bounds the login bonus
	// If zero value, defaults to ledger.DefaultConfig()
	LedgerConfig ledger.Config
	// RuntimeMetrics adds process and Go runtime collectors to /metrics
	RuntimeMetrics bool
}

// New creates a new application with all dependencies wired. The catalog is
// not loaded; callers choose between CatalogService.LoadFromFile and
// CatalogService.LoadFromStorage.
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	ledgerCfg := cfg.LedgerConfig
	if ledgerCfg == (ledger.Config{}) {
		ledgerCfg = ledger.DefaultConfig()
	}
	if err := ledgerCfg.Validate(); err != nil {
		return nil, err
	}

	// Create storage based on type
	var store storage.Storage
	var closer io.Closer
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store, closer = redisStore, redisStore
	case StorageTypeSQLite:
		sqliteCfg := sqlitestorage.DefaultConfig()
		if cfg.SQLiteConfig != nil {
			sqliteCfg = *cfg.SQLiteConfig
		}
		sqliteStore, err := sqlitestorage.New(ctx, sqliteCfg)
		if err != nil {
			return nil, err
		}
		store, closer = sqliteStore, sqliteStore
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sqlite'", storageType)
	}

	logger.Info("storage ready", slog.String("type", storageType))

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	app := newWithDependencies(store, clk, rnd, ledgerCfg, metrics.New(cfg.RuntimeMetrics), logger)
	app.closer = closer
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	ledgerCfg ledger.Config,
	m *metrics.Metrics,
	logger *slog.Logger,
) *App {
	// Create services
	catalogService := catalog.New(store, logger)
	ledgerService := ledger.New(store, catalogService, clk, rnd, ledgerCfg, logger)
	sessions := session.NewTable()
	requestRouter := router.New(ledgerService, catalogService, sessions, m, logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		CatalogService: catalogService,
		Ledger:         ledgerService,
		Sessions:       sessions,
		Router:         requestRouter,
		Metrics:        m,
		logger:         logger,
	}
}

// NewTCPServer creates the session protocol server for this app
func (a *App) NewTCPServer(cfg server.Config) *server.Server {
	return server.New(cfg, a.Router, a.Sessions, a.Metrics, a.logger)
}

// NewHTTPHandler creates the read-only HTTP API for this app
func (a *App) NewHTTPHandler() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:   a.logger,
		Accounts: a.Ledger,
		Catalog:  a.CatalogService,
		Sessions: a.Sessions,
		Metrics:  a.Metrics,
	})
}

// Close releases the storage backend
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
