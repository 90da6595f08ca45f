// Fixture catalog HTTP handler.
//
// Exposes the static fixture catalog grouped by section so the calculator UI
// can render its input grid without hardcoding the LU table.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vfg-store/moderation-backend/internal/hydraulic"
)

// FixtureCatalogResponse groups fixtures by presentation section.
type FixtureCatalogResponse struct {
	Sections map[string][]hydraulic.Fixture `json:"sections"`
}

// ListFixtures godoc
// @ID          listFixtures
// @Summary     Fixture catalog
// @Description Returns all known fixtures with their loading-unit weights, grouped by section.
// @Tags        Calculations
// @Produce     json
//
// @Success     200  {object}  handlers.FixtureCatalogResponse
// @Router      /fixtures [get]
func (h *Handlers) ListFixtures(c *gin.Context) {
	ok(c, http.StatusOK, FixtureCatalogResponse{Sections: hydraulic.Sections()})
}
