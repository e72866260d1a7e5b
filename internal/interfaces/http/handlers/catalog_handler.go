package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/FigureLens/internal/domain/catalog"
	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FigureLens/pkg/types/common"
)

// CatalogHandler exposes read access to the figure catalog.
type CatalogHandler struct {
	provider catalog.Provider
	logger   logging.Logger
}

// NewCatalogHandler builds the catalog handler.
func NewCatalogHandler(provider catalog.Provider, log logging.Logger) *CatalogHandler {
	return &CatalogHandler{provider: provider, logger: log.Named("http.catalog")}
}

// List handles GET /api/v1/catalog with optional series, rarity and q query
// parameters.  Results keep stable catalog order.
func (h *CatalogHandler) List(c *gin.Context) {
	f := catalog.Filter{
		Series: c.Query("series"),
		Rarity: common.RarityTier(c.Query("rarity")),
		Query:  c.Query("q"),
	}
	entries, err := h.provider.Search(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}
	respondOK(c, gin.H{"entries": entries, "total": len(entries)})
}

// Get handles GET /api/v1/catalog/:id.
func (h *CatalogHandler) Get(c *gin.Context) {
	entry, err := h.provider.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, entry)
}
