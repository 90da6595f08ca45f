// Package services – AuditService
//
// This file implements AuditService, the component that owns the moderation
// audit trail. Recording is strictly best-effort: a failed insert is logged
// and swallowed so that an audit outage can never block an approve/reject
// decision. Queries are plain filtered reads.
package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vfg-store/moderation-backend/internal/domain"
	"github.com/vfg-store/moderation-backend/internal/repo"
)

// AuditService records and queries moderation audit entries.
type AuditService struct {
	DB *gorm.DB
}

// Record persists an audit entry. It never returns an error: failures are
// logged at warn level and otherwise ignored, because the caller's decision
// has already been made.
func (s *AuditService) Record(ctx context.Context, e *domain.AuditLogEntry) {
	tr := otel.Tracer("services/AuditService")
	ctx, span := tr.Start(ctx, "Record",
		trace.WithAttributes(
			attribute.String("audit.action", e.Action),
			attribute.String("audit.target_id", e.TargetID),
		),
	)
	defer span.End()

	if err := repo.InsertAudit(ctx, s.DB, e); err != nil {
		log.Ctx(ctx).Warn().
			Err(err).
			Str("action", e.Action).
			Str("target_id", e.TargetID).
			Msg("audit record failed")
	}
}

// List returns a page of audit entries matching the filter plus the total
// count for pagination.
func (s *AuditService) List(ctx context.Context, f repo.AuditFilter, page, pageSize int) ([]domain.AuditLogEntry, int64, error) {
	tr := otel.Tracer("services/AuditService")
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

	total, err := repo.CountAudit(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	entries, err := repo.ListAudit(ctx, s.DB, f, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Get returns a single audit entry, or ErrAuditNotFound.
func (s *AuditService) Get(ctx context.Context, id string) (*domain.AuditLogEntry, error) {
	tr := otel.Tracer("services/AuditService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("audit.id", id)),
	)
	defer span.End()

	e, err := repo.GetAudit(ctx, s.DB, id)
	if err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrAuditNotFound
		}
		return nil, err
	}
	return e, nil
}
