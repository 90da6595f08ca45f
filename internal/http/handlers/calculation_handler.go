// Calculation HTTP handlers.
//
// This file exposes REST endpoints for the pipe sizing calculator:
//   - POST   /calculations/compute        (stateless sizing)
//   - POST   /calculations                (save a named calculation)
//   - GET    /calculations                (list, paginated, filtered)
//   - GET    /calculations/stats          (aggregate statistics)
//   - GET    /calculations/{id}           (fetch)
//   - PUT    /calculations/{id}           (rename + recompute)
//   - DELETE /calculations/{id}           (remove)
//   - POST   /calculations/{id}/duplicate (copy)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vfg-store/moderation-backend/internal/domain"
	"github.com/vfg-store/moderation-backend/internal/hydraulic"
	"github.com/vfg-store/moderation-backend/internal/repo"
	"github.com/vfg-store/moderation-backend/internal/services"
)

//
// DTOs
//

// ComputeRequest is the JSON payload for a sizing calculation.
type ComputeRequest struct {
	// Counts maps fixture ids to their quantity; unknown ids are ignored.
	Counts map[string]int `json:"counts" binding:"required"`
	// Method selects the design-flow formula, m1 or m2.
	Method string `json:"method" binding:"required" example:"m1"`
	// IncludeHydrantExtra overrides the hydrant allowance; inferred from
	// the hydrant count when omitted.
	IncludeHydrantExtra *bool `json:"includeHydrantExtra,omitempty"`
}

func (r ComputeRequest) toInput() hydraulic.Input {
	return hydraulic.Input{
		Counts:              r.Counts,
		Method:              hydraulic.Method(r.Method),
		IncludeHydrantExtra: r.IncludeHydrantExtra,
	}
}

// SaveCalculationRequest is the JSON payload for saving a calculation.
type SaveCalculationRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255" example:"EFH Musterweg"`
	ComputeRequest
}

// DuplicateCalculationRequest optionally names the copy.
type DuplicateCalculationRequest struct {
	Name string `json:"name" example:"Variante B"`
}

// ListCalculationsResponse wraps a page of calculations and pagination
// information.
type ListCalculationsResponse struct {
	Calculations []domain.Calculation `json:"calculations"`
	Pagination   Pagination           `json:"pagination"`
}

//
// Handlers
//

// ComputeCalculation godoc
// @ID          computeCalculation
// @Summary     Compute a pipe sizing
// @Description Converts fixture counts into loading units, design flow, and a recommended nominal diameter.
// @Tags        Calculations
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ComputeRequest  true  "Fixture counts and method"
//
// @Success     200  {object}  hydraulic.Result
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /calculations/compute [post]
func (h *Handlers) ComputeCalculation(c *gin.Context) {
	var req ComputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	res, err := h.calcSvc.Compute(c.Request.Context(), req.toInput())
	if err != nil {
		if errors.Is(err, services.ErrInvalidMethod) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeComputeFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, res)
}

// CreateCalculation godoc
// @ID          createCalculation
// @Summary     Save a named calculation
// @Description Computes the sizing and persists it with the verbatim fixture counts for later editing.
// @Tags        Calculations
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.SaveCalculationRequest  true  "Name, counts, and method"
//
// @Success     201  {object}  domain.Calculation
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /calculations [post]
func (h *Handlers) CreateCalculation(c *gin.Context) {
	var req SaveCalculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	calc, err := h.calcSvc.Create(c.Request.Context(), userID(c), req.Name, req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyName), errors.Is(err, services.ErrInvalidMethod):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, calc)
}

// ListCalculations godoc
// @ID          listCalculations
// @Summary     List saved calculations (paginated)
// @Description Returns a page of the user's calculations with optional name search and method/DN filters.
// @Tags        Calculations
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       search     query   string  false "Name substring (case-insensitive)"
// @Param       method     query   string  false "m1 or m2"
// @Param       dn         query   string  false "Recommended diameter (e.g. DN25)"
// @Param       order_by   query   string  false "created_at, updated_at, name, or total_lu"
// @Param       page       query   int     false "Page number"    minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListCalculationsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /calculations [get]
func (h *Handlers) ListCalculations(c *gin.Context) {
	page, pageSize := clampPagination(c)
	f := repo.CalculationFilter{
		UserID:  userID(c),
		Search:  c.Query("search"),
		Method:  c.Query("method"),
		DN:      c.Query("dn"),
		OrderBy: c.Query("order_by"),
	}

	calcs, total, err := h.calcSvc.List(c.Request.Context(), f, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListCalculationsResponse{
		Calculations: calcs,
		Pagination:   paginationOf(page, pageSize, total),
	})
}

// CalculationStats godoc
// @ID          calculationStats
// @Summary     Saved calculation statistics
// @Description Aggregates the user's saved calculations by method and recommended diameter.
// @Tags        Calculations
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object}  services.CalculationStats
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /calculations/stats [get]
func (h *Handlers) CalculationStats(c *gin.Context) {
	stats, err := h.calcSvc.Stats(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStatsFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, stats)
}

// GetCalculation godoc
// @ID          getCalculation
// @Summary     Fetch a saved calculation
// @Tags        Calculations
// @Produce     json
//
// @Param       id  path  string  true  "Calculation ID"
//
// @Success     200  {object}  domain.Calculation
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /calculations/{id} [get]
func (h *Handlers) GetCalculation(c *gin.Context) {
	calc, err := h.calcSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrCalculationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, calc)
}

// UpdateCalculation godoc
// @ID          updateCalculation
// @Summary     Rename and recompute a saved calculation
// @Tags        Calculations
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Calculation ID"
// @Param       body  body  handlers.SaveCalculationRequest  true  "New name, counts, and method"
//
// @Success     200  {object}  domain.Calculation
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /calculations/{id} [put]
func (h *Handlers) UpdateCalculation(c *gin.Context) {
	var req SaveCalculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	calc, err := h.calcSvc.Update(c.Request.Context(), c.Param("id"), req.Name, req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyName), errors.Is(err, services.ErrInvalidMethod):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrCalculationNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, calc)
}

// DeleteCalculation godoc
// @ID          deleteCalculation
// @Summary     Delete a saved calculation
// @Tags        Calculations
//
// @Param       id  path  string  true  "Calculation ID"
//
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /calculations/{id} [delete]
func (h *Handlers) DeleteCalculation(c *gin.Context) {
	if err := h.calcSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, services.ErrCalculationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	noContent(c)
}

// DuplicateCalculation godoc
// @ID          duplicateCalculation
// @Summary     Duplicate a saved calculation
// @Description Copies the calculation; without an explicit name the copy gets a " (Kopie)" suffix.
// @Tags        Calculations
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true   "Calculation ID"
// @Param       body  body  handlers.DuplicateCalculationRequest  false  "Optional copy name"
//
// @Success     201  {object}  domain.Calculation
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /calculations/{id}/duplicate [post]
func (h *Handlers) DuplicateCalculation(c *gin.Context) {
	var req DuplicateCalculationRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	copy, err := h.calcSvc.Duplicate(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		if errors.Is(err, services.ErrCalculationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, copy)
}
