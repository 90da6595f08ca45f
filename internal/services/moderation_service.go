// Package services – ModerationService
//
// This file implements ModerationService, the application-level component
// that owns the waitlist moderation lifecycle: intake of proposed product
// payloads, diff computation against the live catalog, validation verdicts,
// payload edits, single and bulk approve/reject decisions, and queue
// statistics.
//
// Decisions are transactional (product upsert + entry removal commit or roll
// back together); audit recording happens after commit and is best-effort.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include entry identifiers and bulk sizes where applicable.
package services

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vfg-store/moderation-backend/internal/domain"
	"github.com/vfg-store/moderation-backend/internal/repo"
	"github.com/vfg-store/moderation-backend/internal/waitlist"
)

// recentEntriesLimit caps the "recent" slice in queue statistics.
const recentEntriesLimit = 5

// Queue health thresholds, measured in pending entries.
const (
	queueHealthyBelow = 100
	queueWarningBelow = 200
)

// ModerationService coordinates the waitlist queue and its decisions.
type ModerationService struct {
	DB    *gorm.DB
	Audit *AuditService
}

// SubmitInput is the intake request for a new waitlist entry.
type SubmitInput struct {
	ProductSlug string
	ProductID   *string
	Payload     map[string]any
	CreatedBy   string
}

// EntryDetail is the full moderator view of one entry: the stored row, the
// current product (nil for new products), and a freshly computed diff with
// its summary and a human-readable description.
type EntryDetail struct {
	Entry       *domain.WaitlistEntry `json:"entry"`
	Product     *domain.Product       `json:"product,omitempty"`
	Diff        waitlist.Diff         `json:"diff"`
	Summary     waitlist.Summary      `json:"summary"`
	Description string                `json:"description"`
}

// BulkError describes one failed item of a bulk operation.
type BulkError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkResult is the outcome of a bulk approve or reject. Processed counts
// the successful items; the operation as a whole succeeds even when every
// item fails.
type BulkResult struct {
	Processed int         `json:"processed"`
	Failed    int         `json:"failed"`
	Errors    []BulkError `json:"errors"`
}

// VersionStats aggregates the edit history of the pending queue.
type VersionStats struct {
	Average float64 `json:"average"`
	Max     int     `json:"max"`
	Edited  int64   `json:"edited"`
}

// QueueHealth classifies the pending queue size and quality.
type QueueHealth struct {
	Status     string  `json:"status"`
	ErrorRate  float64 `json:"error_rate"`
	ReviewRate float64 `json:"review_rate"`
}

// QueueStats is the aggregate view of the pending waitlist.
type QueueStats struct {
	Total            int64                  `json:"total"`
	NewProducts      int64                  `json:"new_products"`
	Updates          int64                  `json:"updates"`
	ByReason         map[string]int64       `json:"by_reason"`
	RequiresReview   int64                  `json:"requires_review"`
	InvalidDiscounts int64                  `json:"invalid_discounts"`
	Invalid          int64                  `json:"invalid"`
	AveragePriceDrop *float64               `json:"average_price_drop"`
	Versions         VersionStats           `json:"versions"`
	Recent           []domain.WaitlistEntry `json:"recent"`
	Health           QueueHealth            `json:"health"`
}

// Submit validates and stores a proposed product payload as a pending
// waitlist entry. When the payload targets an existing product the diff and
// validation run against its current state; otherwise the entry is treated
// as a new product.
func (s *ModerationService) Submit(ctx context.Context, in SubmitInput) (*domain.WaitlistEntry, error) {
	tr := otel.Tracer("services/ModerationService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(attribute.String("product.slug", in.ProductSlug)),
	)
	defer span.End()

	slug := strings.ToLower(strings.TrimSpace(in.ProductSlug))
	if slug == "" {
		return nil, ErrEmptySlug
	}
	if len(in.Payload) == 0 {
		return nil, ErrEmptyPayload
	}

	payload := waitlist.SanitizePayload(in.Payload)

	var current map[string]any
	if in.ProductID != nil {
		p, err := repo.GetProduct(ctx, s.DB, *in.ProductID)
		if err != nil {
			if err == repo.ErrNotFound {
				return nil, ErrProductNotFound
			}
			return nil, err
		}
		current = productState(p)
	}

	diff := waitlist.ComputeDiff(current, payload)
	verdict := waitlist.Validate(payload, current)

	entry := &domain.WaitlistEntry{
		ProductSlug:          slug,
		ProductID:            in.ProductID,
		Payload:              datatypes.JSONMap(payload),
		DiffSummary:          toJSONMap(diff),
		Reason:               waitlist.ClassifyReason(diff, in.ProductID == nil),
		CreatedBy:            in.CreatedBy,
		IsValid:              verdict.IsValid,
		ValidationErrors:     marshalErrors(verdict.Errors),
		RequiresManualReview: verdict.RequiresManualReview,
		PriceDropPercentage:  verdict.PriceDropPercentage,
		HasInvalidDiscount:   verdict.HasInvalidDiscount,
	}
	if err := repo.CreateEntry(ctx, s.DB, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Get returns the full detail view of one entry, recomputing the diff
// against the product's current state so that edits made since intake are
// visible.
func (s *ModerationService) Get(ctx context.Context, id string) (*EntryDetail, error) {
	tr := otel.Tracer("services/ModerationService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("entry.id", id)),
	)
	defer span.End()

	entry, err := repo.GetEntry(ctx, s.DB, id)
	if err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	var (
		product *domain.Product
		current map[string]any
	)
	if entry.ProductID != nil {
		if p, err := repo.GetProduct(ctx, s.DB, *entry.ProductID); err == nil {
			product = p
			current = productState(p)
		}
	}

	diff := waitlist.ComputeDiff(current, entry.Payload)
	return &EntryDetail{
		Entry:       entry,
		Product:     product,
		Diff:        diff,
		Summary:     waitlist.Summarize(diff),
		Description: waitlist.Describe(diff),
	}, nil
}

// List returns one page of pending entries plus the total matching count.
func (s *ModerationService) List(ctx context.Context, f repo.WaitlistFilter, page, pageSize int) ([]domain.WaitlistEntry, int64, error) {
	tr := otel.Tracer("services/ModerationService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	total, err := repo.CountEntries(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	entries, err := repo.ListEntries(ctx, s.DB, f, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// UpdatePayload replaces an entry's proposed payload, re-runs the diff and
// validation, bumps the version, and records an update_payload audit entry
// with before/after payloads.
func (s *ModerationService) UpdatePayload(ctx context.Context, id string, payload map[string]any, actor string) (*domain.WaitlistEntry, error) {
	tr := otel.Tracer("services/ModerationService")
	ctx, span := tr.Start(ctx, "UpdatePayload",
		trace.WithAttributes(attribute.String("entry.id", id)),
	)
	defer span.End()

	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}

	entry, err := repo.GetEntry(ctx, s.DB, id)
	if err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	payload = waitlist.SanitizePayload(payload)

	var current map[string]any
	if entry.ProductID != nil {
		if p, err := repo.GetProduct(ctx, s.DB, *entry.ProductID); err == nil {
			current = productState(p)
		}
	}

	diff := waitlist.ComputeDiff(current, payload)
	verdict := waitlist.Validate(payload, current)

	before := entry.Payload
	err = repo.UpdateEntryPayload(ctx, s.DB, id,
		datatypes.JSONMap(payload), toJSONMap(diff),
		repo.ValidationUpdate{
			Reason:               waitlist.ClassifyReason(diff, entry.IsNew()),
			IsValid:              verdict.IsValid,
			ValidationErrors:     marshalErrors(verdict.Errors),
			RequiresManualReview: verdict.RequiresManualReview,
			PriceDropPercentage:  verdict.PriceDropPercentage,
			HasInvalidDiscount:   verdict.HasInvalidDiscount,
		})
	if err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	s.audit(ctx, &domain.AuditLogEntry{
		Actor:       actor,
		Action:      domain.AuditUpdatePayload,
		TargetType:  domain.AuditTargetWaitlist,
		TargetID:    id,
		BeforeState: before,
		AfterState:  datatypes.JSONMap(payload),
	})

	return repo.GetEntry(ctx, s.DB, id)
}

// Approve applies an entry's payload to the catalog and removes it from the
// queue. Entries flagged for manual review are refused unless force is set:
// a forced approval is an explicit human override, never an automated path.
func (s *ModerationService) Approve(ctx context.Context, id, actor string, force bool) (*domain.Product, error) {
	tr := otel.Tracer("services/ModerationService")
	ctx, span := tr.Start(ctx, "Approve",
		trace.WithAttributes(
			attribute.String("entry.id", id),
			attribute.Bool("force", force),
		),
	)
	defer span.End()

	entry, err := repo.GetEntry(ctx, s.DB, id)
	if err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	if entry.RequiresManualReview && !force {
		return nil, ErrManualReviewRequired
	}

	product, before, err := s.applyApproval(ctx, entry)
	if err != nil {
		return nil, err
	}

	action := domain.AuditApproveUpdate
	if entry.IsNew() {
		action = domain.AuditApproveNew
	}
	s.audit(ctx, &domain.AuditLogEntry{
		Actor:       actor,
		Action:      action,
		TargetType:  domain.AuditTargetProduct,
		TargetID:    product.ID,
		BeforeState: before,
		AfterState:  toJSONMap(productState(product)),
	})
	return product, nil
}

// Reject removes an entry from the queue without touching the catalog and
// records the decision with the moderator's reason.
func (s *ModerationService) Reject(ctx context.Context, id, actor, reason string) error {
	tr := otel.Tracer("services/ModerationService")
	ctx, span := tr.Start(ctx, "Reject",
		trace.WithAttributes(attribute.String("entry.id", id)),
	)
	defer span.End()

	entry, err := repo.GetEntry(ctx, s.DB, id)
	if err != nil {
		if err == repo.ErrNotFound {
			return ErrEntryNotFound
		}
		return err
	}
	if err := repo.DeleteEntry(ctx, s.DB, id); err != nil {
		if err == repo.ErrNotFound {
			return ErrEntryNotFound
		}
		return err
	}

	action := domain.AuditRejectUpdate
	if entry.IsNew() {
		action = domain.AuditRejectNew
	}
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	s.audit(ctx, &domain.AuditLogEntry{
		Actor:       actor,
		Action:      action,
		TargetType:  domain.AuditTargetWaitlist,
		TargetID:    id,
		BeforeState: entry.Payload,
		Reason:      reasonPtr,
	})
	return nil
}

// BulkApprove processes each id independently: one bad entry never aborts
// the batch. Flagged entries always fail; invalid entries fail when
// skipInvalid is set. Each processed item gets a bulk_approve audit row and
// the batch one bulk_approve_summary row.
func (s *ModerationService) BulkApprove(ctx context.Context, ids []string, actor string, skipInvalid bool) *BulkResult {
	tr := otel.Tracer("services/ModerationService")
	ctx, span := tr.Start(ctx, "BulkApprove",
		trace.WithAttributes(attribute.Int("bulk.size", len(ids))),
	)
	defer span.End()

	res := &BulkResult{Errors: []BulkError{}}
	for _, id := range ids {
		if err := s.bulkApproveOne(ctx, id, actor, skipInvalid); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, BulkError{ID: id, Error: err.Error()})
			continue
		}
		res.Processed++
	}

	s.audit(ctx, &domain.AuditLogEntry{
		Actor:      actor,
		Action:     domain.AuditBulkApproveSummary,
		TargetType: domain.AuditTargetBulkOperation,
		TargetID:   uuid.NewString(),
		AfterState: datatypes.JSONMap{
			"requested": len(ids),
			"approved":  res.Processed,
			"failed":    res.Failed,
		},
	})
	return res
}

func (s *ModerationService) bulkApproveOne(ctx context.Context, id, actor string, skipInvalid bool) error {
	entry, err := repo.GetEntry(ctx, s.DB, id)
	if err != nil {
		if err == repo.ErrNotFound {
			return ErrEntryNotFound
		}
		return err
	}
	if entry.RequiresManualReview {
		return ErrManualReviewRequired
	}
	if skipInvalid && !entry.IsValid {
		return ErrEntryInvalid
	}

	product, before, err := s.applyApproval(ctx, entry)
	if err != nil {
		return err
	}
	s.audit(ctx, &domain.AuditLogEntry{
		Actor:       actor,
		Action:      domain.AuditBulkApprove,
		TargetType:  domain.AuditTargetProduct,
		TargetID:    product.ID,
		BeforeState: before,
		AfterState:  toJSONMap(productState(product)),
	})
	return nil
}

// BulkReject processes each id independently, mirroring BulkApprove, with a
// shared reason recorded on every item.
func (s *ModerationService) BulkReject(ctx context.Context, ids []string, actor, reason string) *BulkResult {
	tr := otel.Tracer("services/ModerationService")
	ctx, span := tr.Start(ctx, "BulkReject",
		trace.WithAttributes(attribute.Int("bulk.size", len(ids))),
	)
	defer span.End()

	res := &BulkResult{Errors: []BulkError{}}
	for _, id := range ids {
		if err := s.bulkRejectOne(ctx, id, actor, reason); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, BulkError{ID: id, Error: err.Error()})
			continue
		}
		res.Processed++
	}

	s.audit(ctx, &domain.AuditLogEntry{
		Actor:      actor,
		Action:     domain.AuditBulkRejectSummary,
		TargetType: domain.AuditTargetBulkOperation,
		TargetID:   uuid.NewString(),
		AfterState: datatypes.JSONMap{
			"requested": len(ids),
			"rejected":  res.Processed,
			"failed":    res.Failed,
		},
	})
	return res
}

func (s *ModerationService) bulkRejectOne(ctx context.Context, id, actor, reason string) error {
	entry, err := repo.GetEntry(ctx, s.DB, id)
	if err != nil {
		if err == repo.ErrNotFound {
			return ErrEntryNotFound
		}
		return err
	}
	if err := repo.DeleteEntry(ctx, s.DB, id); err != nil {
		if err == repo.ErrNotFound {
			return ErrEntryNotFound
		}
		return err
	}
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	s.audit(ctx, &domain.AuditLogEntry{
		Actor:       actor,
		Action:      domain.AuditBulkReject,
		TargetType:  domain.AuditTargetWaitlist,
		TargetID:    id,
		BeforeState: entry.Payload,
		Reason:      reasonPtr,
	})
	return nil
}

// Stats aggregates the pending queue into a dashboard view, including a
// health classification derived from queue size and validation quality.
func (s *ModerationService) Stats(ctx context.Context) (*QueueStats, error) {
	tr := otel.Tracer("services/ModerationService")
	ctx, span := tr.Start(ctx, "Stats")
	defer span.End()

	entries, err := repo.AllEntries(ctx, s.DB)
	if err != nil {
		return nil, err
	}

	stats := &QueueStats{
		ByReason: map[string]int64{},
		Recent:   []domain.WaitlistEntry{},
	}
	var (
		dropSum, dropCount float64
		versionSum         int
	)
	for _, e := range entries {
		stats.Total++
		if e.IsNew() {
			stats.NewProducts++
		} else {
			stats.Updates++
		}
		stats.ByReason[e.Reason]++
		if e.RequiresManualReview {
			stats.RequiresReview++
		}
		if e.HasInvalidDiscount {
			stats.InvalidDiscounts++
		}
		if !e.IsValid {
			stats.Invalid++
		}
		if e.PriceDropPercentage != nil {
			dropSum += *e.PriceDropPercentage
			dropCount++
		}
		versionSum += e.Version
		if e.Version > stats.Versions.Max {
			stats.Versions.Max = e.Version
		}
		if e.Version > 1 {
			stats.Versions.Edited++
		}
	}
	if dropCount > 0 {
		avg := roundRate(dropSum / dropCount)
		stats.AveragePriceDrop = &avg
	}
	if stats.Total > 0 {
		stats.Versions.Average = roundRate(float64(versionSum) / float64(stats.Total))
		stats.Health.ErrorRate = roundRate(float64(stats.Invalid) / float64(stats.Total))
		stats.Health.ReviewRate = roundRate(float64(stats.RequiresReview) / float64(stats.Total))
	}
	switch {
	case stats.Total < queueHealthyBelow:
		stats.Health.Status = "good"
	case stats.Total < queueWarningBelow:
		stats.Health.Status = "warning"
	default:
		stats.Health.Status = "critical"
	}

	if len(entries) > recentEntriesLimit {
		stats.Recent = entries[:recentEntriesLimit]
	} else {
		stats.Recent = entries
	}
	return stats, nil
}

// applyApproval upserts the product from the entry payload and deletes the
// entry, both inside one transaction. The returned before-state is nil for
// new products.
func (s *ModerationService) applyApproval(ctx context.Context, entry *domain.WaitlistEntry) (*domain.Product, datatypes.JSONMap, error) {
	var (
		product *domain.Product
		before  datatypes.JSONMap
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if entry.IsNew() {
			p := &domain.Product{Slug: entry.ProductSlug, Status: domain.StatusActive}
			applyPayload(p, entry.Payload)
			p.Status = domain.StatusActive
			if err := repo.CreateProduct(ctx, tx, p); err != nil {
				return err
			}
			product = p
		} else {
			p, err := repo.GetProduct(ctx, tx, *entry.ProductID)
			if err != nil {
				if err == repo.ErrNotFound {
					return ErrProductNotFound
				}
				return err
			}
			before = toJSONMap(productState(p))
			applyPayload(p, entry.Payload)
			p.Status = domain.StatusActive
			if err := repo.SaveProduct(ctx, tx, p); err != nil {
				return err
			}
			product = p
		}
		return repo.DeleteEntry(ctx, tx, entry.ID)
	})
	if err != nil {
		return nil, nil, err
	}
	return product, before, nil
}

func (s *ModerationService) audit(ctx context.Context, e *domain.AuditLogEntry) {
	if s.Audit != nil {
		s.Audit.Record(ctx, e)
	}
}

// productState flattens a product into the payload field space the diff
// engine and validator reason about: column fields first, then the
// free-form attributes.
func productState(p *domain.Product) map[string]any {
	state := map[string]any{
		"name":   p.Name,
		"slug":   p.Slug,
		"price":  p.Price,
		"status": p.Status,
	}
	if p.DiscountPrice != nil {
		state["discount_price"] = *p.DiscountPrice
	}
	if p.Stock != nil {
		state["stock"] = *p.Stock
	}
	for k, v := range p.Attributes {
		state[k] = v
	}
	return state
}

// applyPayload writes payload fields onto the product: the typed columns
// when the field has one, the attributes map otherwise. Absent fields keep
// their current value.
func applyPayload(p *domain.Product, payload map[string]any) {
	if p.Attributes == nil {
		p.Attributes = datatypes.JSONMap{}
	}
	for k, v := range payload {
		switch k {
		case "name":
			if s, ok := v.(string); ok {
				p.Name = s
			}
		case "slug":
			if s, ok := v.(string); ok && s != "" {
				p.Slug = s
			}
		case "price":
			if n, ok := payloadNumber(v); ok {
				p.Price = n
			}
		case "discount_price":
			if v == nil {
				p.DiscountPrice = nil
			} else if n, ok := payloadNumber(v); ok {
				p.DiscountPrice = &n
			}
		case "stock":
			if v == nil {
				p.Stock = nil
			} else if n, ok := payloadNumber(v); ok {
				p.Stock = &n
			}
		case "status":
			if s, ok := v.(string); ok {
				p.Status = s
			}
		default:
			p.Attributes[k] = v
		}
	}
}

func payloadNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// toJSONMap converts any JSON-serializable value into a datatypes.JSONMap
// via a marshal round-trip, normalizing numbers to float64 on the way.
func toJSONMap(v any) datatypes.JSONMap {
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSONMap{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(m)
}

func marshalErrors(errs []string) datatypes.JSON {
	if len(errs) == 0 {
		return datatypes.JSON([]byte("[]"))
	}
	raw, err := json.Marshal(errs)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(raw)
}

func roundRate(v float64) float64 {
	return math.Round(v*100) / 100
}
