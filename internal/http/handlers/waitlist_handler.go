// Waitlist HTTP handlers.
//
// This file exposes REST endpoints for the moderation queue:
//   - POST   /waitlist                    (intake)
//   - GET    /waitlist                    (list, paginated, filtered)
//   - GET    /waitlist/stats              (queue statistics)
//   - GET    /waitlist/{id}               (detail with fresh diff)
//   - PUT    /waitlist/{id}/payload       (edit proposed payload)
//   - POST   /waitlist/{id}/approve       (apply to catalog)
//   - POST   /waitlist/{id}/reject        (discard)
//   - POST   /waitlist/bulk/approve       (batch, continue-on-error)
//   - POST   /waitlist/bulk/reject        (batch, continue-on-error)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vfg-store/moderation-backend/internal/domain"
	"github.com/vfg-store/moderation-backend/internal/hydraulic"
	"github.com/vfg-store/moderation-backend/internal/repo"
	"github.com/vfg-store/moderation-backend/internal/services"
	"github.com/vfg-store/moderation-backend/internal/utils"
)

// bulkMaxItems bounds a single bulk request.
const bulkMaxItems = 100

//
// Service contracts (context-aware)
//

// ModerationService defines waitlist queue operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ModerationService interface {
	// Submit stores a proposed product payload as a pending entry.
	Submit(ctx context.Context, in services.SubmitInput) (*domain.WaitlistEntry, error)
	// Get returns the full detail view of one entry.
	Get(ctx context.Context, id string) (*services.EntryDetail, error)
	// List returns a page of entries and the total matching count.
	List(ctx context.Context, f repo.WaitlistFilter, page, pageSize int) ([]domain.WaitlistEntry, int64, error)
	// UpdatePayload replaces an entry's payload and re-validates it.
	UpdatePayload(ctx context.Context, id string, payload map[string]any, actor string) (*domain.WaitlistEntry, error)
	// Approve applies an entry to the catalog and removes it from the queue.
	Approve(ctx context.Context, id, actor string, force bool) (*domain.Product, error)
	// Reject discards an entry with a moderator reason.
	Reject(ctx context.Context, id, actor, reason string) error
	// BulkApprove approves each id independently.
	BulkApprove(ctx context.Context, ids []string, actor string, skipInvalid bool) *services.BulkResult
	// BulkReject rejects each id independently.
	BulkReject(ctx context.Context, ids []string, actor, reason string) *services.BulkResult
	// Stats aggregates the pending queue.
	Stats(ctx context.Context) (*services.QueueStats, error)
}

// CalculationService defines hydraulic calculation operations consumed by
// HTTP handlers.
type CalculationService interface {
	// Compute runs the sizing calculation without persisting anything.
	Compute(ctx context.Context, in hydraulic.Input) (*hydraulic.Result, error)
	// Create computes and persists a named calculation.
	Create(ctx context.Context, userID, name string, in hydraulic.Input) (*domain.Calculation, error)
	// List returns a page of saved calculations and the total count.
	List(ctx context.Context, f repo.CalculationFilter, page, pageSize int) ([]domain.Calculation, int64, error)
	// Get returns a single saved calculation.
	Get(ctx context.Context, id string) (*domain.Calculation, error)
	// Update renames and recomputes an existing calculation.
	Update(ctx context.Context, id, name string, in hydraulic.Input) (*domain.Calculation, error)
	// Delete removes a saved calculation.
	Delete(ctx context.Context, id string) error
	// Duplicate copies a calculation under a new name.
	Duplicate(ctx context.Context, id, name string) (*domain.Calculation, error)
	// Stats aggregates a user's saved calculations.
	Stats(ctx context.Context, userID string) (*services.CalculationStats, error)
}

// AuditService defines audit trail queries consumed by HTTP handlers.
type AuditService interface {
	// List returns a page of audit entries and the total matching count.
	List(ctx context.Context, f repo.AuditFilter, page, pageSize int) ([]domain.AuditLogEntry, int64, error)
	// Get returns a single audit entry.
	Get(ctx context.Context, id string) (*domain.AuditLogEntry, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for the waitlist, calculations, and the
// audit trail. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	modSvc   ModerationService
	calcSvc  CalculationService
	auditSvc AuditService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(modSvc ModerationService, calcSvc CalculationService, auditSvc AuditService) *Handlers {
	return &Handlers{modSvc: modSvc, calcSvc: calcSvc, auditSvc: auditSvc}
}

// actor extracts the acting moderator's identity from the X-User-Email
// header (set by the upstream gateway). Falls back to "unknown" so audit
// rows are never empty.
func actor(c *gin.Context) string {
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-Email")); h != "" {
			return h
		}
	}
	return "unknown"
}

// userID extracts the current user id from the X-User-ID header (tests use
// it), falling back to "demo-user".
func userID(c *gin.Context) string {
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// SubmitWaitlistRequest is the JSON payload for creating a waitlist entry.
type SubmitWaitlistRequest struct {
	// ProductSlug identifies the product the payload proposes.
	ProductSlug string `json:"product_slug" binding:"required" example:"grohe-eurosmart"`
	// ProductID links to an existing product; omit for a new product.
	ProductID *string `json:"product_id,omitempty"`
	// Payload is the proposed product data.
	Payload map[string]any `json:"payload" binding:"required"`
}

// UpdatePayloadRequest is the JSON payload for editing an entry.
type UpdatePayloadRequest struct {
	Payload map[string]any `json:"payload" binding:"required"`
}

// ApproveRequest optionally forces approval of a flagged entry.
type ApproveRequest struct {
	Force bool `json:"force"`
}

// RejectRequest carries the moderator's reason for discarding an entry.
type RejectRequest struct {
	Reason string `json:"reason" example:"duplicate listing"`
}

// BulkApproveRequest is the JSON payload for batch approval.
type BulkApproveRequest struct {
	IDs         []string `json:"ids" binding:"required"`
	SkipInvalid bool     `json:"skipInvalid"`
}

// BulkRejectRequest is the JSON payload for batch rejection.
type BulkRejectRequest struct {
	IDs    []string `json:"ids" binding:"required"`
	Reason string   `json:"reason"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListWaitlistResponse wraps a page of entries and pagination information.
type ListWaitlistResponse struct {
	Entries    []domain.WaitlistEntry `json:"entries"`
	Pagination Pagination             `json:"pagination"`
}

// BulkApproveResponse is the outcome of a batch approval.
type BulkApproveResponse struct {
	Approved int                  `json:"approved"`
	Failed   int                  `json:"failed"`
	Errors   []services.BulkError `json:"errors"`
}

// BulkRejectResponse is the outcome of a batch rejection.
type BulkRejectResponse struct {
	Rejected int                  `json:"rejected"`
	Failed   int                  `json:"failed"`
	Errors   []services.BulkError `json:"errors"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

func paginationOf(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// validBulkIDs enforces the batch request contract: 1..100 non-empty ids.
func validBulkIDs(ids []string) bool {
	if len(ids) == 0 || len(ids) > bulkMaxItems {
		return false
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return false
		}
	}
	return true
}

//
// Handlers
//

// SubmitWaitlistEntry godoc
// @ID          submitWaitlistEntry
// @Summary     Submit a product payload for moderation
// @Description Validates the payload, diffs it against the current product, and queues it for review.
// @Tags        Waitlist
// @Accept      json
// @Produce     json
//
// @Param       X-User-Email  header  string  false "Acting user email"  example(importer@vfg.test)
// @Param       body          body    handlers.SubmitWaitlistRequest  true  "Intake payload"
//
// @Success     201  {object}  domain.WaitlistEntry
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Linked product missing"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /waitlist [post]
func (h *Handlers) SubmitWaitlistEntry(c *gin.Context) {
	var req SubmitWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	entry, err := h.modSvc.Submit(c.Request.Context(), services.SubmitInput{
		ProductSlug: req.ProductSlug,
		ProductID:   req.ProductID,
		Payload:     req.Payload,
		CreatedBy:   actor(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptySlug), errors.Is(err, services.ErrEmptyPayload):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrProductNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, entry)
}

// ListWaitlist godoc
// @ID          listWaitlist
// @Summary     List pending waitlist entries (paginated)
// @Description Returns a page of pending entries, newest first, with optional filters.
// @Tags        Waitlist
// @Produce     json
//
// @Param       type                  query  string  false "new or update"
// @Param       requires_review       query  bool    false "Filter by manual-review flag"
// @Param       has_invalid_discount  query  bool    false "Filter by invalid-discount flag"
// @Param       reason                query  string  false "Filter by classified reason"
// @Param       page                  query  int     false "Page number"    minimum(1) default(1)
// @Param       page_size             query  int     false "Items per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListWaitlistResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /waitlist [get]
func (h *Handlers) ListWaitlist(c *gin.Context) {
	page, pageSize := clampPagination(c)
	f := repo.WaitlistFilter{
		EntryType:       c.Query("type"),
		RequiresReview:  utils.ParseBoolPtr(c.Query("requires_review")),
		InvalidDiscount: utils.ParseBoolPtr(c.Query("has_invalid_discount")),
		Reason:          c.Query("reason"),
	}

	entries, total, err := h.modSvc.List(c.Request.Context(), f, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListWaitlistResponse{
		Entries:    entries,
		Pagination: paginationOf(page, pageSize, total),
	})
}

// WaitlistStats godoc
// @ID          waitlistStats
// @Summary     Queue statistics
// @Description Aggregates the pending queue: totals, reasons, validation quality, and health.
// @Tags        Waitlist
// @Produce     json
//
// @Success     200  {object}  services.QueueStats
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /waitlist/stats [get]
func (h *Handlers) WaitlistStats(c *gin.Context) {
	stats, err := h.modSvc.Stats(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStatsFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, stats)
}

// GetWaitlistEntry godoc
// @ID          getWaitlistEntry
// @Summary     Waitlist entry detail
// @Description Returns the entry, the current product, and a freshly computed diff with its summary.
// @Tags        Waitlist
// @Produce     json
//
// @Param       id  path  string  true  "Entry ID"
//
// @Success     200  {object}  services.EntryDetail
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /waitlist/{id} [get]
func (h *Handlers) GetWaitlistEntry(c *gin.Context) {
	detail, err := h.modSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, detail)
}

// UpdateWaitlistPayload godoc
// @ID          updateWaitlistPayload
// @Summary     Edit an entry's proposed payload
// @Description Replaces the payload, bumps the version, re-validates, and records an audit entry.
// @Tags        Waitlist
// @Accept      json
// @Produce     json
//
// @Param       X-User-Email  header  string  false "Acting user email"  example(admin@vfg.test)
// @Param       id            path    string  true  "Entry ID"
// @Param       body          body    handlers.UpdatePayloadRequest  true  "New payload"
//
// @Success     200  {object}  domain.WaitlistEntry
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /waitlist/{id}/payload [put]
func (h *Handlers) UpdateWaitlistPayload(c *gin.Context) {
	var req UpdatePayloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	entry, err := h.modSvc.UpdatePayload(c.Request.Context(), c.Param("id"), req.Payload, actor(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyPayload):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrEntryNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, entry)
}

// ApproveWaitlistEntry godoc
// @ID          approveWaitlistEntry
// @Summary     Approve an entry
// @Description Applies the payload to the catalog (status forced active) and removes the entry. Flagged entries require force.
// @Tags        Waitlist
// @Accept      json
// @Produce     json
//
// @Param       X-User-Email  header  string  false "Acting user email"  example(admin@vfg.test)
// @Param       id            path    string  true  "Entry ID"
// @Param       body          body    handlers.ApproveRequest  false  "Approval options"
//
// @Success     200  {object}  domain.Product
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Manual review required"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /waitlist/{id}/approve [post]
func (h *Handlers) ApproveWaitlistEntry(c *gin.Context) {
	var req ApproveRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	product, err := h.modSvc.Approve(c.Request.Context(), c.Param("id"), actor(c), req.Force)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEntryNotFound), errors.Is(err, services.ErrProductNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		case errors.Is(err, services.ErrManualReviewRequired):
			fail(c, http.StatusConflict, ErrCodeManualReviewRequired, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeApproveFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, product)
}

// RejectWaitlistEntry godoc
// @ID          rejectWaitlistEntry
// @Summary     Reject an entry
// @Description Discards the entry without touching the catalog and records the reason.
// @Tags        Waitlist
// @Accept      json
// @Produce     json
//
// @Param       X-User-Email  header  string  false "Acting user email"  example(admin@vfg.test)
// @Param       id            path    string  true  "Entry ID"
// @Param       body          body    handlers.RejectRequest  false  "Rejection reason"
//
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /waitlist/{id}/reject [post]
func (h *Handlers) RejectWaitlistEntry(c *gin.Context) {
	var req RejectRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	if err := h.modSvc.Reject(c.Request.Context(), c.Param("id"), actor(c), req.Reason); err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeRejectFailed, err.Error())
		return
	}
	noContent(c)
}

// BulkApproveWaitlist godoc
// @ID          bulkApproveWaitlist
// @Summary     Approve entries in bulk
// @Description Processes each id independently; one bad entry never aborts the batch.
// @Tags        Waitlist
// @Accept      json
// @Produce     json
//
// @Param       X-User-Email  header  string  false "Acting user email"  example(admin@vfg.test)
// @Param       body          body    handlers.BulkApproveRequest  true  "1..100 entry ids"
//
// @Success     200  {object}  handlers.BulkApproveResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /waitlist/bulk/approve [post]
func (h *Handlers) BulkApproveWaitlist(c *gin.Context) {
	var req BulkApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if !validBulkIDs(req.IDs) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ids must contain 1 to 100 non-empty entry ids")
		return
	}

	res := h.modSvc.BulkApprove(c.Request.Context(), req.IDs, actor(c), req.SkipInvalid)
	ok(c, http.StatusOK, BulkApproveResponse{
		Approved: res.Processed,
		Failed:   res.Failed,
		Errors:   res.Errors,
	})
}

// BulkRejectWaitlist godoc
// @ID          bulkRejectWaitlist
// @Summary     Reject entries in bulk
// @Description Processes each id independently; one bad entry never aborts the batch.
// @Tags        Waitlist
// @Accept      json
// @Produce     json
//
// @Param       X-User-Email  header  string  false "Acting user email"  example(admin@vfg.test)
// @Param       body          body    handlers.BulkRejectRequest  true  "1..100 entry ids and a shared reason"
//
// @Success     200  {object}  handlers.BulkRejectResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /waitlist/bulk/reject [post]
func (h *Handlers) BulkRejectWaitlist(c *gin.Context) {
	var req BulkRejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if !validBulkIDs(req.IDs) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ids must contain 1 to 100 non-empty entry ids")
		return
	}

	res := h.modSvc.BulkReject(c.Request.Context(), req.IDs, actor(c), req.Reason)
	ok(c, http.StatusOK, BulkRejectResponse{
		Rejected: res.Processed,
		Failed:   res.Failed,
		Errors:   res.Errors,
	})
}

// parseTimeParam parses an RFC 3339 query parameter, returning nil when the
// parameter is absent or malformed.
func parseTimeParam(c *gin.Context, name string) *time.Time {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}
