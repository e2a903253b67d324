package handler

import (
	"net/http"

	"noslimites/api/internal/httputil"
	"noslimites/api/internal/service"
)

// CatalogHandler serves the static limit catalog.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// GetTree handles GET /limits/categories: the full category tree.
func (h *CatalogHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.catalogService.ListTree(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, "Failed to load catalog")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"categories": tree})
}
