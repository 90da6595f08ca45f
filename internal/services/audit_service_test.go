package services

import (
	"context"
	"testing"

	"github.com/vfg-store/moderation-backend/internal/domain"
	"github.com/vfg-store/moderation-backend/internal/repo"
)

func TestAuditRecord_PersistsEntry(t *testing.T) {
	db := newServiceDB(t)
	svc := &AuditService{DB: db}

	svc.Record(context.Background(), &domain.AuditLogEntry{
		Actor:      "admin@vfg.test",
		Action:     domain.AuditApproveNew,
		TargetType: domain.AuditTargetProduct,
		TargetID:   "p1",
	})

	entries, total, err := svc.List(context.Background(), repo.AuditFilter{}, 1, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(entries) != 1 || entries[0].Action != domain.AuditApproveNew {
		t.Fatalf("unexpected entries: total=%d %+v", total, entries)
	}
}

func TestAuditRecord_SwallowsFailures(t *testing.T) {
	db := newServiceDB(t)
	svc := &AuditService{DB: db}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	// Must not panic or surface the insert failure.
	svc.Record(context.Background(), &domain.AuditLogEntry{
		Actor:      "admin@vfg.test",
		Action:     domain.AuditRejectNew,
		TargetType: domain.AuditTargetWaitlist,
		TargetID:   "w1",
	})
}

func TestAuditGet(t *testing.T) {
	db := newServiceDB(t)
	svc := &AuditService{DB: db}

	e := &domain.AuditLogEntry{
		Actor:      "admin@vfg.test",
		Action:     domain.AuditBulkApprove,
		TargetType: domain.AuditTargetProduct,
		TargetID:   "p1",
	}
	svc.Record(context.Background(), e)

	got, err := svc.Get(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Action != domain.AuditBulkApprove {
		t.Fatalf("unexpected entry: %+v", got)
	}

	if _, err := svc.Get(context.Background(), "missing"); err != ErrAuditNotFound {
		t.Fatalf("expected ErrAuditNotFound, got %v", err)
	}
}
