package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/creditshop/internal/api/handler"
	"github.com/mcoot/creditshop/internal/api/middleware"
	"github.com/mcoot/creditshop/internal/metrics"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Accounts handler.AccountReader
	Catalog  handler.Catalog
	Sessions handler.SessionCounter
	Metrics  *metrics.Metrics
}

// NewRouter creates the read-only HTTP API. All mutations go through the
// session protocol.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	itemHandler := handler.NewItemHandler(cfg.Catalog)
	accountHandler := handler.NewAccountHandler(cfg.Accounts)
	healthHandler := handler.NewHealthHandler(cfg.Catalog, cfg.Sessions)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(middleware.Metrics(cfg.Metrics))

	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/items", itemHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/items/{key}", itemHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{nickname}", accountHandler.Get).Methods(http.MethodGet)

	// Prometheus scrape endpoint, outside the logged API
	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)

	return r
}
