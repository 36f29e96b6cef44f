package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mcoot/creditshop/internal/api"
	"github.com/mcoot/creditshop/internal/factory"
	"github.com/mcoot/creditshop/internal/server"
	"github.com/mcoot/creditshop/internal/services/ledger"
	redisstorage "github.com/mcoot/creditshop/internal/storage/redis"
	sqlitestorage "github.com/mcoot/creditshop/internal/storage/sqlite"
)

func main() {
	// A missing .env is fine; real environment variables always win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(logger *slog.Logger) error {
	ctx := context.Background()

	// Build factory config from environment
	cfg := factory.Config{
		Logger:         logger,
		StorageType:    os.Getenv("STORAGE_TYPE"),
		RuntimeMetrics: true,
	}

	minBonus, err := envInt("MIN_BONUS", ledger.DefaultConfig().MinBonus)
	if err != nil {
		return err
	}
	maxBonus, err := envInt("MAX_BONUS", ledger.DefaultConfig().MaxBonus)
	if err != nil {
		return err
	}
	cfg.LedgerConfig = ledger.Config{MinBonus: minBonus, MaxBonus: maxBonus}

	switch cfg.StorageType {
	case factory.StorageTypeRedis:
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			return errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	case factory.StorageTypeSQLite:
		sqliteCfg := sqlitestorage.DefaultConfig()
		if path := os.Getenv("SQLITE_PATH"); path != "" {
			sqliteCfg.Path = path
		}
		cfg.SQLiteConfig = &sqliteCfg
	}

	// Create application factory
	app, err := factory.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("closing storage", slog.String("error", err.Error()))
		}
	}()

	// The catalog must be in place before any client can connect
	if path := os.Getenv("CATALOG_PATH"); path != "" {
		err = app.CatalogService.LoadFromFile(ctx, path)
	} else {
		err = app.CatalogService.LoadFromStorage(ctx)
	}
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	tcpConfig := server.DefaultConfig()
	if addr := os.Getenv("SHOP_TCP_ADDR"); addr != "" {
		tcpConfig.Addr = addr
	}
	if tcpConfig.MaxFrameBytes, err = envInt("MAX_FRAME_BYTES", tcpConfig.MaxFrameBytes); err != nil {
		return err
	}
	tcpServer := app.NewTCPServer(tcpConfig)

	httpConfig := api.DefaultServerConfig()
	if addr := os.Getenv("SHOP_HTTP_ADDR"); addr != "" {
		httpConfig.Addr = addr
	}
	httpServer := api.NewServer(app.NewHTTPHandler(), httpConfig, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start servers in goroutines
	errCh := make(chan error, 2)
	go func() {
		errCh <- tcpServer.Start()
	}()
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info("server started",
		slog.String("tcp_addr", tcpConfig.Addr),
		slog.String("http_addr", httpConfig.Addr))

	// Wait for shutdown or error
	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return errors.Join(
		runErr,
		tcpServer.Shutdown(shutdownCtx),
		httpServer.Shutdown(shutdownCtx),
	)
}

func envInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
