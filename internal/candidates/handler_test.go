package candidates

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"execsummary-backend/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := &Service{Repo: NewMemoryRepo(), Store: &recordingStore{}}
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.Auth(false))
	NewHandler(svc).RegisterRoutes(api)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-Id", user)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCandidateLifecycleOverHTTP(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/candidates", "owner-1", map[string]string{"name": "Ada", "linkedinUrl": "https://linkedin.com/in/ada"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created Candidate
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.OwnerID != "owner-1" {
		t.Fatalf("unexpected candidate %+v", created)
	}
	base := "/api/v1/candidates/" + created.ID

	rec = doJSON(t, r, http.MethodPatch, base, "owner-1", map[string]string{"screeningNotes": "Calm under pressure"})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, base+"/availability", "owner-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("availability: expected 200, got %d", rec.Code)
	}
	var avail Availability
	if err := json.Unmarshal(rec.Body.Bytes(), &avail); err != nil {
		t.Fatalf("decode availability: %v", err)
	}
	if !avail.Screening || avail.Resume || avail.LinkedIn {
		t.Fatalf("unexpected availability %+v", avail)
	}

	rec = doJSON(t, r, http.MethodGet, base, "owner-2", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("other owner: expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodDelete, base, "owner-1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
	rec = doJSON(t, r, http.MethodGet, base, "owner-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("after delete: expected 404, got %d", rec.Code)
	}
}

func TestCreateValidation(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name   string
		user   string
		body   any
		status int
	}{
		{name: "missing name", user: "owner-1", body: map[string]string{"name": ""}, status: http.StatusBadRequest},
		{name: "bad json", user: "owner-1", body: "not an object", status: http.StatusBadRequest},
		{name: "no identity", user: "", body: map[string]string{"name": "Ada"}, status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, r, http.MethodPost, "/api/v1/candidates", tt.user, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestPutResumeTextRejectsEmpty(t *testing.T) {
	r := newTestRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/api/v1/candidates", "owner-1", map[string]string{"name": "Ada"})
	var created Candidate
	_ = json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(t, r, http.MethodPut, "/api/v1/candidates/"+created.ID+"/resume-text", "owner-1", map[string]string{"text": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	rec = doJSON(t, r, http.MethodPut, "/api/v1/candidates/"+created.ID+"/resume-text", "owner-1", map[string]string{"text": "VP Sales"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
