package http

import (
	"net/http"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/service"
)

type CatalogHandler struct {
	storefront *service.Storefront
}

func NewCatalogHandler(storefront *service.Storefront) *CatalogHandler {
	return &CatalogHandler{storefront: storefront}
}

type SearchResponseDTO struct {
	Items []domain.Item `json:"items"`
}

// Search matches item names case-insensitively. Out-of-stock items are
// part of the result set; clients render availability from the stock field.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	items := h.storefront.Search(query)
	if items == nil {
		items = []domain.Item{}
	}
	respondJSON(w, http.StatusOK, SearchResponseDTO{Items: items})
}
