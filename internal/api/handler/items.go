package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/creditshop/internal/api/response"
	"github.com/mcoot/creditshop/internal/model"
)

// Catalog is the read side of the item catalog
type Catalog interface {
	Get(key string) (model.Item, error)
	List() []model.Item
	IsLoaded() bool
}

// ItemHandler handles catalog endpoints
type ItemHandler struct {
	catalog Catalog
}

// NewItemHandler creates a new item handler
func NewItemHandler(catalog Catalog) *ItemHandler {
	return &ItemHandler{catalog: catalog}
}

// List handles GET /api/v1/items
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.catalog.IsLoaded() {
		WriteError(w, model.ErrCatalogNotLoaded)
		return
	}
	response.JSON(w, http.StatusOK, response.ItemListFromModel(h.catalog.List()))
}

// Get handles GET /api/v1/items/{key}
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.catalog.Get(mux.Vars(r)["key"])
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ItemFromModel(item))
}
