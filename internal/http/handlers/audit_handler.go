// Audit HTTP handlers.
//
// This file exposes read-only REST endpoints for the moderation audit trail:
//   - GET /audit       (list, paginated, filtered)
//   - GET /audit/{id}  (fetch)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vfg-store/moderation-backend/internal/domain"
	"github.com/vfg-store/moderation-backend/internal/repo"
	"github.com/vfg-store/moderation-backend/internal/services"
)

// ListAuditResponse wraps a page of audit entries and pagination
// information.
type ListAuditResponse struct {
	Entries    []domain.AuditLogEntry `json:"entries"`
	Pagination Pagination             `json:"pagination"`
}

// ListAudit godoc
// @ID          listAudit
// @Summary     Query the audit trail (paginated)
// @Description Returns audit entries, newest first, with optional filters. Actor matches as a case-insensitive substring; from/to are RFC 3339 timestamps.
// @Tags        Audit
// @Produce     json
//
// @Param       actor        query  string  false "Actor substring"
// @Param       action       query  string  false "Exact action (e.g. approve_new)"
// @Param       target_type  query  string  false "Exact target type"
// @Param       target_id    query  string  false "Exact target id"
// @Param       from         query  string  false "Lower timestamp bound (RFC 3339)"
// @Param       to           query  string  false "Upper timestamp bound (RFC 3339)"
// @Param       page         query  int     false "Page number"    minimum(1) default(1)
// @Param       page_size    query  int     false "Items per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListAuditResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /audit [get]
func (h *Handlers) ListAudit(c *gin.Context) {
	page, pageSize := clampPagination(c)
	f := repo.AuditFilter{
		Actor:      c.Query("actor"),
		Action:     c.Query("action"),
		TargetType: c.Query("target_type"),
		TargetID:   c.Query("target_id"),
		From:       parseTimeParam(c, "from"),
		To:         parseTimeParam(c, "to"),
	}

	entries, total, err := h.auditSvc.List(c.Request.Context(), f, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListAuditResponse{
		Entries:    entries,
		Pagination: paginationOf(page, pageSize, total),
	})
}

// GetAuditEntry godoc
// @ID          getAuditEntry
// @Summary     Fetch a single audit entry
// @Tags        Audit
// @Produce     json
//
// @Param       id  path  string  true  "Audit entry ID"
//
// @Success     200  {object}  domain.AuditLogEntry
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /audit/{id} [get]
func (h *Handlers) GetAuditEntry(c *gin.Context) {
	e, err := h.auditSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrAuditNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, e)
}
