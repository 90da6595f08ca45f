package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vfg-store/moderation-backend/internal/domain"
)

// WaitlistFilter narrows ListEntries and CountEntries results. Zero-valued
// fields are ignored; pointer fields distinguish "unset" from "false".
type WaitlistFilter struct {
	// EntryType is "new" (no linked product), "update" (linked product)
	// or empty for both.
	EntryType string

	// RequiresReview, when set, matches the requires_manual_review flag.
	RequiresReview *bool

	// InvalidDiscount, when set, matches the has_invalid_discount flag.
	InvalidDiscount *bool

	// Reason matches the classified change reason exactly.
	Reason string
}

func applyWaitlistFilter(q *gorm.DB, f WaitlistFilter) *gorm.DB {
	switch f.EntryType {
	case "new":
		q = q.Where("product_id IS NULL")
	case "update":
		q = q.Where("product_id IS NOT NULL")
	}
	if f.RequiresReview != nil {
		q = q.Where("requires_manual_review = ?", *f.RequiresReview)
	}
	if f.InvalidDiscount != nil {
		q = q.Where("has_invalid_discount = ?", *f.InvalidDiscount)
	}
	if f.Reason != "" {
		q = q.Where("reason = ?", f.Reason)
	}
	return q
}

// CreateEntry inserts a new waitlist entry with a generated UUID primary key
// and Version 1. CreatedAt/UpdatedAt are set to UTC now.
func CreateEntry(ctx context.Context, db *gorm.DB, e *domain.WaitlistEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Version == 0 {
		e.Version = 1
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	return db.WithContext(ctx).Create(e).Error
}

// GetEntry fetches a waitlist entry by ID, or ErrNotFound.
func GetEntry(ctx context.Context, db *gorm.DB, id string) (*domain.WaitlistEntry, error) {
	var e domain.WaitlistEntry
	err := db.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEntries returns a page of waitlist entries matching the filter,
// newest first.
func ListEntries(ctx context.Context, db *gorm.DB, f WaitlistFilter, offset, limit int) ([]domain.WaitlistEntry, error) {
	var entries []domain.WaitlistEntry
	q := applyWaitlistFilter(db.WithContext(ctx).Model(&domain.WaitlistEntry{}), f)
	err := q.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CountEntries returns the total number of waitlist entries matching the
// filter, ignoring pagination.
func CountEntries(ctx context.Context, db *gorm.DB, f WaitlistFilter) (int64, error) {
	var n int64
	q := applyWaitlistFilter(db.WithContext(ctx).Model(&domain.WaitlistEntry{}), f)
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// AllEntries returns every waitlist entry, newest first. Used by the stats
// aggregation, which needs the full pending set rather than a page.
func AllEntries(ctx context.Context, db *gorm.DB) ([]domain.WaitlistEntry, error) {
	var entries []domain.WaitlistEntry
	err := db.WithContext(ctx).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// UpdateEntryPayload replaces the proposed payload, diff summary and
// validation columns of an entry and bumps its version counter. Returns
// ErrNotFound when the entry does not exist.
func UpdateEntryPayload(ctx context.Context, db *gorm.DB, id string, payload, diff datatypes.JSONMap, v ValidationUpdate) error {
	res := db.WithContext(ctx).
		Model(&domain.WaitlistEntry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"payload":                payload,
			"diff_summary":           diff,
			"reason":                 v.Reason,
			"is_valid":               v.IsValid,
			"validation_errors":      v.ValidationErrors,
			"requires_manual_review": v.RequiresManualReview,
			"price_drop_percentage":  v.PriceDropPercentage,
			"has_invalid_discount":   v.HasInvalidDiscount,
			"version":                gorm.Expr("version + 1"),
			"updated_at":             time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ValidationUpdate carries the re-validated state written alongside a
// payload edit.
type ValidationUpdate struct {
	Reason               string
	IsValid              bool
	ValidationErrors     datatypes.JSON
	RequiresManualReview bool
	PriceDropPercentage  *float64
	HasInvalidDiscount   bool
}

// DeleteEntry removes a waitlist entry by ID. Returns ErrNotFound when no
// row was deleted. Entries are removed on approval and rejection alike;
// the audit log keeps the decision trail.
func DeleteEntry(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.WaitlistEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
