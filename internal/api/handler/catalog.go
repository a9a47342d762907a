package handler

import (
	"net/http"

	"github.com/mcoot/powerup-ledger/internal/api/response"
	"github.com/mcoot/powerup-ledger/internal/catalog"
)

// CatalogHandler serves the power-up price list
type CatalogHandler struct {
	catalog *catalog.Catalog
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(c *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// List handles GET /api/v1/catalog
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.CatalogFromModel(h.catalog.Entries()))
}
