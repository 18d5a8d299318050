package synthesis

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"execsummary-backend/internal/candidates"
	"execsummary-backend/internal/sources"
	"execsummary-backend/internal/shared/server/middleware"
)

func TestSynthesizeRouteMapsErrorsAndRateLimits(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fx := newFixture(t, "not json")

	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	limiter := middleware.NewRateLimiter(func() time.Time { return now })
	h := NewHandler(fx.svc, limiter, middleware.PerMinute(60, 2))

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.Auth(false))
	candH := candidates.NewHandler(fx.cands)
	candH.RegisterRoutes(api)
	h.RegisterRoutes(api)
	h.RegisterCandidateRoutes(candH.Scoped(api))

	post := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("X-User-Id", "owner-1")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}
	base := "/api/v1/candidates/" + fx.candID + "/synthesize/"

	rec := post(base + "merge-results")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	if err := fx.sources.UpsertFields(t.Context(), sources.RecordResume, fx.candID, map[string]string{"results": "3x"}); err != nil {
		t.Fatalf("UpsertFields: %v", err)
	}
	rec = post(base + "merge-results")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "llm_malformed_reply" {
		t.Fatalf("unexpected error code %q", body.Error.Code)
	}

	rec = post(base + "merge-results")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/syntheses", nil)
	req.Header.Set("X-User-Id", "owner-1")
	listRec := httptest.NewRecorder()
	r.ServeHTTP(listRec, req)
	if listRec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", listRec.Code)
	}
	var list struct {
		Syntheses []Info `json:"syntheses"`
	}
	if err := json.Unmarshal(listRec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Syntheses) != 12 {
		t.Fatalf("expected 12 syntheses, got %d", len(list.Syntheses))
	}
}
