package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/vfg-store/moderation-backend/internal/domain"
	"github.com/vfg-store/moderation-backend/internal/hydraulic"
	"github.com/vfg-store/moderation-backend/internal/repo"
	"github.com/vfg-store/moderation-backend/internal/services"
)

// ---------- flexible service stubs ----------

type stubModSvc struct {
	submit        func(context.Context, services.SubmitInput) (*domain.WaitlistEntry, error)
	get           func(context.Context, string) (*services.EntryDetail, error)
	list          func(context.Context, repo.WaitlistFilter, int, int) ([]domain.WaitlistEntry, int64, error)
	updatePayload func(context.Context, string, map[string]any, string) (*domain.WaitlistEntry, error)
	approve       func(context.Context, string, string, bool) (*domain.Product, error)
	reject        func(context.Context, string, string, string) error
	bulkApprove   func(context.Context, []string, string, bool) *services.BulkResult
	bulkReject    func(context.Context, []string, string, string) *services.BulkResult
	stats         func(context.Context) (*services.QueueStats, error)
}

func (s stubModSvc) Submit(ctx context.Context, in services.SubmitInput) (*domain.WaitlistEntry, error) {
	if s.submit != nil {
		return s.submit(ctx, in)
	}
	return &domain.WaitlistEntry{ID: "w1", ProductSlug: in.ProductSlug}, nil
}

func (s stubModSvc) Get(ctx context.Context, id string) (*services.EntryDetail, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return &services.EntryDetail{Entry: &domain.WaitlistEntry{ID: id}}, nil
}

func (s stubModSvc) List(ctx context.Context, f repo.WaitlistFilter, page, pageSize int) ([]domain.WaitlistEntry, int64, error) {
	if s.list != nil {
		return s.list(ctx, f, page, pageSize)
	}
	return nil, 0, nil
}

func (s stubModSvc) UpdatePayload(ctx context.Context, id string, payload map[string]any, actor string) (*domain.WaitlistEntry, error) {
	if s.updatePayload != nil {
		return s.updatePayload(ctx, id, payload, actor)
	}
	return &domain.WaitlistEntry{ID: id, Version: 2}, nil
}

func (s stubModSvc) Approve(ctx context.Context, id, actor string, force bool) (*domain.Product, error) {
	if s.approve != nil {
		return s.approve(ctx, id, actor, force)
	}
	return &domain.Product{ID: "p1", Status: domain.StatusActive}, nil
}

func (s stubModSvc) Reject(ctx context.Context, id, actor, reason string) error {
	if s.reject != nil {
		return s.reject(ctx, id, actor, reason)
	}
	return nil
}

func (s stubModSvc) BulkApprove(ctx context.Context, ids []string, actor string, skipInvalid bool) *services.BulkResult {
	if s.bulkApprove != nil {
		return s.bulkApprove(ctx, ids, actor, skipInvalid)
	}
	return &services.BulkResult{Processed: len(ids), Errors: []services.BulkError{}}
}

func (s stubModSvc) BulkReject(ctx context.Context, ids []string, actor, reason string) *services.BulkResult {
	if s.bulkReject != nil {
		return s.bulkReject(ctx, ids, actor, reason)
	}
	return &services.BulkResult{Processed: len(ids), Errors: []services.BulkError{}}
}

func (s stubModSvc) Stats(ctx context.Context) (*services.QueueStats, error) {
	if s.stats != nil {
		return s.stats(ctx)
	}
	return &services.QueueStats{}, nil
}

type stubCalcSvc struct {
	compute   func(context.Context, hydraulic.Input) (*hydraulic.Result, error)
	create    func(context.Context, string, string, hydraulic.Input) (*domain.Calculation, error)
	list      func(context.Context, repo.CalculationFilter, int, int) ([]domain.Calculation, int64, error)
	get       func(context.Context, string) (*domain.Calculation, error)
	update    func(context.Context, string, string, hydraulic.Input) (*domain.Calculation, error)
	deleteFn  func(context.Context, string) error
	duplicate func(context.Context, string, string) (*domain.Calculation, error)
	stats     func(context.Context, string) (*services.CalculationStats, error)
}

func (s stubCalcSvc) Compute(ctx context.Context, in hydraulic.Input) (*hydraulic.Result, error) {
	if s.compute != nil {
		return s.compute(ctx, in)
	}
	res := hydraulic.Calculate(in)
	return &res, nil
}

func (s stubCalcSvc) Create(ctx context.Context, userID, name string, in hydraulic.Input) (*domain.Calculation, error) {
	if s.create != nil {
		return s.create(ctx, userID, name, in)
	}
	return &domain.Calculation{ID: "calc1", UserID: userID, Name: name}, nil
}

func (s stubCalcSvc) List(ctx context.Context, f repo.CalculationFilter, page, pageSize int) ([]domain.Calculation, int64, error) {
	if s.list != nil {
		return s.list(ctx, f, page, pageSize)
	}
	return nil, 0, nil
}

func (s stubCalcSvc) Get(ctx context.Context, id string) (*domain.Calculation, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return &domain.Calculation{ID: id}, nil
}

func (s stubCalcSvc) Update(ctx context.Context, id, name string, in hydraulic.Input) (*domain.Calculation, error) {
	if s.update != nil {
		return s.update(ctx, id, name, in)
	}
	return &domain.Calculation{ID: id, Name: name}, nil
}

func (s stubCalcSvc) Delete(ctx context.Context, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s stubCalcSvc) Duplicate(ctx context.Context, id, name string) (*domain.Calculation, error) {
	if s.duplicate != nil {
		return s.duplicate(ctx, id, name)
	}
	return &domain.Calculation{ID: "copy1", Name: name}, nil
}

func (s stubCalcSvc) Stats(ctx context.Context, userID string) (*services.CalculationStats, error) {
	if s.stats != nil {
		return s.stats(ctx, userID)
	}
	return &services.CalculationStats{}, nil
}

type stubAuditSvc struct {
	list func(context.Context, repo.AuditFilter, int, int) ([]domain.AuditLogEntry, int64, error)
	get  func(context.Context, string) (*domain.AuditLogEntry, error)
}

func (s stubAuditSvc) List(ctx context.Context, f repo.AuditFilter, page, pageSize int) ([]domain.AuditLogEntry, int64, error) {
	if s.list != nil {
		return s.list(ctx, f, page, pageSize)
	}
	return nil, 0, nil
}

func (s stubAuditSvc) Get(ctx context.Context, id string) (*domain.AuditLogEntry, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return &domain.AuditLogEntry{ID: id}, nil
}

// ---------- request helpers ----------

func newRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/waitlist", h.SubmitWaitlistEntry)
	r.GET("/waitlist", h.ListWaitlist)
	r.GET("/waitlist/stats", h.WaitlistStats)
	r.GET("/waitlist/:id", h.GetWaitlistEntry)
	r.PUT("/waitlist/:id/payload", h.UpdateWaitlistPayload)
	r.POST("/waitlist/:id/approve", h.ApproveWaitlistEntry)
	r.POST("/waitlist/:id/reject", h.RejectWaitlistEntry)
	r.POST("/waitlist/bulk/approve", h.BulkApproveWaitlist)
	r.POST("/waitlist/bulk/reject", h.BulkRejectWaitlist)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Buffer
	if body == "" {
		rd = bytes.NewBuffer(nil)
	} else {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ---------- helpers-only tests ----------

func Test_actor_and_userID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	if got := actor(c); got != "unknown" {
		t.Fatalf("fallback actor = %q", got)
	}
	c.Request.Header.Set("X-User-Email", " mod@vfg.test ")
	if got := actor(c); got != "mod@vfg.test" {
		t.Fatalf("header actor = %q", got)
	}
	if got := userID(c); got != "demo-user" {
		t.Fatalf("fallback userID = %q", got)
	}
	c.Request.Header.Set("X-User-ID", "u-42")
	if got := userID(c); got != "u-42" {
		t.Fatalf("header userID = %q", got)
	}
}

func Test_validBulkIDs(t *testing.T) {
	if validBulkIDs(nil) {
		t.Fatalf("empty slice must be invalid")
	}
	if validBulkIDs([]string{"a", " "}) {
		t.Fatalf("blank id must be invalid")
	}
	big := make([]string, bulkMaxItems+1)
	for i := range big {
		big[i] = fmt.Sprintf("id%d", i)
	}
	if validBulkIDs(big) {
		t.Fatalf("oversized slice must be invalid")
	}
	if !validBulkIDs(big[:bulkMaxItems]) {
		t.Fatalf("exactly %d ids must be valid", bulkMaxItems)
	}
}

// ---------- waitlist endpoints ----------

func TestSubmitWaitlistEntry(t *testing.T) {
	// Bad JSON -> 400
	{
		r := newRouter(New(stubModSvc{}, stubCalcSvc{}, stubAuditSvc{}))
		w := doJSON(t, r, http.MethodPost, "/waitlist", "{bad", nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("bad json -> %d", w.Code)
		}
	}

	// Success -> 201, actor threaded from header
	{
		var gotBy string
		svc := stubModSvc{submit: func(_ context.Context, in services.SubmitInput) (*domain.WaitlistEntry, error) {
			gotBy = in.CreatedBy
			return &domain.WaitlistEntry{ID: "w1", ProductSlug: in.ProductSlug}, nil
		}}
		r := newRouter(New(svc, stubCalcSvc{}, stubAuditSvc{}))
		body := `{"product_slug":"talis-e","payload":{"name":"Talis E","price":199}}`
		w := doJSON(t, r, http.MethodPost, "/waitlist", body, map[string]string{"X-User-Email": "scraper@vfg.test"})
		if w.Code != http.StatusCreated {
			t.Fatalf("submit -> %d body=%s", w.Code, w.Body.String())
		}
		if gotBy != "scraper@vfg.test" {
			t.Fatalf("created_by = %q", gotBy)
		}
	}

	// Missing product -> 404
	{
		svc := stubModSvc{submit: func(context.Context, services.SubmitInput) (*domain.WaitlistEntry, error) {
			return nil, services.ErrProductNotFound
		}}
		r := newRouter(New(svc, stubCalcSvc{}, stubAuditSvc{}))
		body := `{"product_slug":"x","payload":{"name":"y"}}`
		w := doJSON(t, r, http.MethodPost, "/waitlist", body, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("missing product -> %d", w.Code)
		}
	}
}

func TestListWaitlist_ThreadsFiltersAndPagination(t *testing.T) {
	var gotFilter repo.WaitlistFilter
	var gotPage, gotSize int
	svc := stubModSvc{list: func(_ context.Context, f repo.WaitlistFilter, page, pageSize int) ([]domain.WaitlistEntry, int64, error) {
		gotFilter, gotPage, gotSize = f, page, pageSize
		return []domain.WaitlistEntry{{ID: "w1"}}, 41, nil
	}}
	r := newRouter(New(svc, stubCalcSvc{}, stubAuditSvc{}))

	w := doJSON(t, r, http.MethodGet, "/waitlist?type=update&requires_review=true&reason=price_change&page=2&page_size=10", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d", w.Code)
	}
	if gotFilter.EntryType != "update" || gotFilter.Reason != "price_change" {
		t.Fatalf("filter not threaded: %+v", gotFilter)
	}
	if gotFilter.RequiresReview == nil || !*gotFilter.RequiresReview {
		t.Fatalf("requires_review not parsed: %+v", gotFilter.RequiresReview)
	}
	if gotPage != 2 || gotSize != 10 {
		t.Fatalf("pagination not threaded: page=%d size=%d", gotPage, gotSize)
	}

	var resp ListWaitlistResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Pagination.Total != 41 || resp.Pagination.TotalPages != 5 || !resp.Pagination.HasNext {
		t.Fatalf("unexpected pagination: %+v", resp.Pagination)
	}
}

func TestGetWaitlistEntry_NotFound(t *testing.T) {
	svc := stubModSvc{get: func(context.Context, string) (*services.EntryDetail, error) {
		return nil, services.ErrEntryNotFound
	}}
	r := newRouter(New(svc, stubCalcSvc{}, stubAuditSvc{}))
	w := doJSON(t, r, http.MethodGet, "/waitlist/w1", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get missing -> %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), ErrCodeNotFound) {
		t.Fatalf("expected not_found code, got %s", w.Body.String())
	}
}

func TestUpdateWaitlistPayload(t *testing.T) {
	r := newRouter(New(stubModSvc{}, stubCalcSvc{}, stubAuditSvc{}))

	w := doJSON(t, r, http.MethodPut, "/waitlist/w1/payload", `{"payload":{"name":"B"}}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("update -> %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPut, "/waitlist/w1/payload", `{}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing payload -> %d", w.Code)
	}
}

func TestApproveWaitlistEntry(t *testing.T) {
	// Flagged entry without force -> 409 with stable code
	{
		svc := stubModSvc{approve: func(_ context.Context, _, _ string, force bool) (*domain.Product, error) {
			if !force {
				return nil, services.ErrManualReviewRequired
			}
			return &domain.Product{ID: "p1"}, nil
		}}
		r := newRouter(New(svc, stubCalcSvc{}, stubAuditSvc{}))

		w := doJSON(t, r, http.MethodPost, "/waitlist/w1/approve", "", nil)
		if w.Code != http.StatusConflict {
			t.Fatalf("flagged approve -> %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), ErrCodeManualReviewRequired) {
			t.Fatalf("expected manual_review_required code, got %s", w.Body.String())
		}

		w = doJSON(t, r, http.MethodPost, "/waitlist/w1/approve", `{"force":true}`, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("forced approve -> %d body=%s", w.Code, w.Body.String())
		}
	}

	// Missing -> 404
	{
		svc := stubModSvc{approve: func(context.Context, string, string, bool) (*domain.Product, error) {
			return nil, services.ErrEntryNotFound
		}}
		r := newRouter(New(svc, stubCalcSvc{}, stubAuditSvc{}))
		w := doJSON(t, r, http.MethodPost, "/waitlist/w1/approve", "", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("missing approve -> %d", w.Code)
		}
	}
}

func TestRejectWaitlistEntry(t *testing.T) {
	var gotReason string
	svc := stubModSvc{reject: func(_ context.Context, _, _, reason string) error {
		gotReason = reason
		return nil
	}}
	r := newRouter(New(svc, stubCalcSvc{}, stubAuditSvc{}))

	w := doJSON(t, r, http.MethodPost, "/waitlist/w1/reject", `{"reason":"spam"}`, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("reject -> %d", w.Code)
	}
	if gotReason != "spam" {
		t.Fatalf("reason = %q", gotReason)
	}
}

func TestBulkApproveWaitlist(t *testing.T) {
	// Invalid ids -> 400 without touching the service
	{
		called := false
		svc := stubModSvc{bulkApprove: func(context.Context, []string, string, bool) *services.BulkResult {
			called = true
			return &services.BulkResult{}
		}}
		r := newRouter(New(svc, stubCalcSvc{}, stubAuditSvc{}))
		w := doJSON(t, r, http.MethodPost, "/waitlist/bulk/approve", `{"ids":[]}`, nil)
		if w.Code != http.StatusBadRequest || called {
			t.Fatalf("empty ids -> %d called=%v", w.Code, called)
		}
	}

	// Partial failure still 200
	{
		svc := stubModSvc{bulkApprove: func(_ context.Context, ids []string, _ string, _ bool) *services.BulkResult {
			return &services.BulkResult{
				Processed: 2,
				Failed:    1,
				Errors:    []services.BulkError{{ID: ids[1], Error: "waitlist entry not found"}},
			}
		}}
		r := newRouter(New(svc, stubCalcSvc{}, stubAuditSvc{}))
		w := doJSON(t, r, http.MethodPost, "/waitlist/bulk/approve", `{"ids":["a","b","c"],"skipInvalid":true}`, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("bulk approve -> %d", w.Code)
		}
		var resp BulkApproveResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Approved != 2 || resp.Failed != 1 || len(resp.Errors) != 1 || resp.Errors[0].ID != "b" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	}
}

func TestBulkRejectWaitlist(t *testing.T) {
	var gotReason string
	svc := stubModSvc{bulkReject: func(_ context.Context, ids []string, _, reason string) *services.BulkResult {
		gotReason = reason
		return &services.BulkResult{Processed: len(ids), Errors: []services.BulkError{}}
	}}
	r := newRouter(New(svc, stubCalcSvc{}, stubAuditSvc{}))

	w := doJSON(t, r, http.MethodPost, "/waitlist/bulk/reject", `{"ids":["a"],"reason":"cleanup"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("bulk reject -> %d", w.Code)
	}
	if gotReason != "cleanup" {
		t.Fatalf("reason = %q", gotReason)
	}

	var resp BulkRejectResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Rejected != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestWaitlistStats(t *testing.T) {
	svc := stubModSvc{stats: func(context.Context) (*services.QueueStats, error) {
		return &services.QueueStats{Total: 3, Health: services.QueueHealth{Status: "good"}}, nil
	}}
	r := newRouter(New(svc, stubCalcSvc{}, stubAuditSvc{}))

	w := doJSON(t, r, http.MethodGet, "/waitlist/stats", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats -> %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"good"`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}
