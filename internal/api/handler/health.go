package handler

import (
	"net/http"

	"github.com/mcoot/creditshop/internal/api/response"
)

// SessionCounter reports live session counts
type SessionCounter interface {
	Count() int
	CountAuthenticated() int
}

// HealthHandler handles the health check
type HealthHandler struct {
	catalog  Catalog
	sessions SessionCounter
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(catalog Catalog, sessions SessionCounter) *HealthHandler {
	return &HealthHandler{catalog: catalog, sessions: sessions}
}

// Get handles GET /api/v1/health. It reports 503 until the catalog is loaded.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := response.Health{
		Status:          "ok",
		CatalogLoaded:   h.catalog.IsLoaded(),
		OpenSessions:    h.sessions.Count(),
		LoggedInPlayers: h.sessions.CountAuthenticated(),
	}
	status := http.StatusOK
	if !resp.CatalogLoaded {
		resp.Status = "starting"
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, status, resp)
}
