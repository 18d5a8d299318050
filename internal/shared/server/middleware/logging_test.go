package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"execsummary-backend/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	restore := telemetry.SetOutput(&buf)
	defer restore()

	router := gin.New()
	router.Use(RequestID(), Auth(true), Logging())
	router.POST("/api/v1/candidates/:id/synthesize/:name", func(c *gin.Context) {
		c.Set(CandidateIDKey, c.Param("id"))
		c.Set(SynthesisKey, c.Param("name"))
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/candidates/cand-1/synthesize/merge-results", nil)
	req.Header.Set("X-User-Id", "recruiter-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatalf("expected log output")
	}
	last := lines[len(lines)-1]
	var payload map[string]any
	if err := json.Unmarshal([]byte(last), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}

	required := []string{"request_id", "user_id", "owner_hash", "candidate_id", "synthesis", "duration_ms", "status"}
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["msg"] != "request.complete" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload["user_id"] != "recruiter-1" {
		t.Fatalf("unexpected user_id: %v", payload["user_id"])
	}
	if payload["candidate_id"] != "cand-1" {
		t.Fatalf("unexpected candidate_id: %v", payload["candidate_id"])
	}
	if payload["synthesis"] != "merge-results" {
		t.Fatalf("unexpected synthesis: %v", payload["synthesis"])
	}
}
