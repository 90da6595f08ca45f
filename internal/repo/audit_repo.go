package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vfg-store/moderation-backend/internal/domain"
)

// AuditFilter narrows ListAudit and CountAudit results. Empty fields are
// ignored; Actor matches as a case-insensitive substring.
type AuditFilter struct {
	Actor      string
	Action     string
	TargetType string
	TargetID   string
	From       *time.Time
	To         *time.Time
}

func applyAuditFilter(q *gorm.DB, f AuditFilter) *gorm.DB {
	if f.Actor != "" {
		q = q.Where("LOWER(actor) LIKE ?", "%"+strings.ToLower(f.Actor)+"%")
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.TargetType != "" {
		q = q.Where("target_type = ?", f.TargetType)
	}
	if f.TargetID != "" {
		q = q.Where("target_id = ?", f.TargetID)
	}
	if f.From != nil {
		q = q.Where("timestamp >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("timestamp <= ?", f.To.UTC())
	}
	return q
}

// InsertAudit persists a single audit log row with a generated UUID and a
// UTC timestamp when none is set.
func InsertAudit(ctx context.Context, db *gorm.DB, e *domain.AuditLogEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(e).Error
}

// GetAudit fetches an audit entry by ID, or ErrNotFound.
func GetAudit(ctx context.Context, db *gorm.DB, id string) (*domain.AuditLogEntry, error) {
	var e domain.AuditLogEntry
	err := db.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListAudit returns a page of audit entries matching the filter, newest
// first.
func ListAudit(ctx context.Context, db *gorm.DB, f AuditFilter, offset, limit int) ([]domain.AuditLogEntry, error) {
	var entries []domain.AuditLogEntry
	q := applyAuditFilter(db.WithContext(ctx).Model(&domain.AuditLogEntry{}), f)
	err := q.Order("timestamp DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CountAudit returns the number of audit entries matching the filter.
func CountAudit(ctx context.Context, db *gorm.DB, f AuditFilter) (int64, error) {
	var n int64
	q := applyAuditFilter(db.WithContext(ctx).Model(&domain.AuditLogEntry{}), f)
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
