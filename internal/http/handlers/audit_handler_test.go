package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vfg-store/moderation-backend/internal/domain"
	"github.com/vfg-store/moderation-backend/internal/repo"
	"github.com/vfg-store/moderation-backend/internal/services"
)

func newAuditRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/audit", h.ListAudit)
	r.GET("/audit/:id", h.GetAuditEntry)
	return r
}

func TestListAudit_ThreadsFilter(t *testing.T) {
	var gotFilter repo.AuditFilter
	svc := stubAuditSvc{list: func(_ context.Context, f repo.AuditFilter, _, _ int) ([]domain.AuditLogEntry, int64, error) {
		gotFilter = f
		return []domain.AuditLogEntry{{ID: "a1", Action: domain.AuditApproveNew}}, 1, nil
	}}
	r := newAuditRouter(New(stubModSvc{}, stubCalcSvc{}, svc))

	w := doJSON(t, r, http.MethodGet,
		"/audit?actor=bob&action=approve_new&target_type=product&from=2025-05-01T00:00:00Z&to=2025-05-02T00:00:00Z", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d", w.Code)
	}
	if gotFilter.Actor != "bob" || gotFilter.Action != "approve_new" || gotFilter.TargetType != "product" {
		t.Fatalf("filter not threaded: %+v", gotFilter)
	}
	if gotFilter.From == nil || !gotFilter.From.Equal(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from not parsed: %+v", gotFilter.From)
	}
	if gotFilter.To == nil {
		t.Fatalf("to not parsed")
	}

	var resp ListAuditResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].Action != domain.AuditApproveNew {
		t.Fatalf("unexpected entries: %+v", resp.Entries)
	}
}

func TestListAudit_IgnoresMalformedTimes(t *testing.T) {
	var gotFilter repo.AuditFilter
	svc := stubAuditSvc{list: func(_ context.Context, f repo.AuditFilter, _, _ int) ([]domain.AuditLogEntry, int64, error) {
		gotFilter = f
		return nil, 0, nil
	}}
	r := newAuditRouter(New(stubModSvc{}, stubCalcSvc{}, svc))

	w := doJSON(t, r, http.MethodGet, "/audit?from=yesterday", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d", w.Code)
	}
	if gotFilter.From != nil {
		t.Fatalf("malformed from should be dropped, got %+v", gotFilter.From)
	}
}

func TestGetAuditEntry(t *testing.T) {
	r := newAuditRouter(New(stubModSvc{}, stubCalcSvc{}, stubAuditSvc{}))
	if w := doJSON(t, r, http.MethodGet, "/audit/a1", "", nil); w.Code != http.StatusOK {
		t.Fatalf("get -> %d", w.Code)
	}

	svc := stubAuditSvc{get: func(context.Context, string) (*domain.AuditLogEntry, error) {
		return nil, services.ErrAuditNotFound
	}}
	r = newAuditRouter(New(stubModSvc{}, stubCalcSvc{}, svc))
	w := doJSON(t, r, http.MethodGet, "/audit/missing", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get missing -> %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), ErrCodeNotFound) {
		t.Fatalf("expected not_found code: %s", w.Body.String())
	}
}
