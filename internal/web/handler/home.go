package handler

import (
	"net/http"

	"github.com/mcoot/powerup-ledger/internal/catalog"
	"github.com/mcoot/powerup-ledger/internal/web/templates"
)

// HomeHandler handles the home page
type HomeHandler struct {
	catalog *catalog.Catalog
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler(catalog *catalog.Catalog) *HomeHandler {
	return &HomeHandler{catalog: catalog}
}

// Home renders the home page
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := templates.HomeData{
		PageData: pageData(r, "Home"),
		Catalog:  h.catalog.Entries(),
		Next:     r.URL.Query().Get("next"),
	}
	render(w, r, http.StatusOK, templates.Home(data))
}
