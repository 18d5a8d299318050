package bootstrap

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"execsummary-backend/internal/llm"
	"execsummary-backend/internal/shared/config"
	"execsummary-backend/internal/shared/storage/db"
)

type scriptedLLM struct {
	reply string
	calls int
}

func (s *scriptedLLM) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	s.calls++
	return llm.Completion{Text: s.reply, Model: "scripted"}, nil
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Env:                    "dev",
		ObjectStoreType:        "local",
		LocalStoreDir:          t.TempDir(),
		LLMProvider:            "none",
		ResumePrefix:           "resumes",
		ScreenshotPrefix:       "screenshots",
		SynthesisRatePerMinute: 60,
		SynthesisBurst:         10,
	}
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "recruiter-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestBuildServesCandidateLifecycleInMemory(t *testing.T) {
	app, err := Build(testConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()
	r := app.Router

	if rec := do(t, r, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}

	rec := do(t, r, http.MethodPost, "/api/v1/candidates", map[string]string{"name": "Ada Lovelace"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var cand struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &cand); err != nil || cand.ID == "" {
		t.Fatalf("decode candidate: %v %s", err, rec.Body.String())
	}
	base := "/api/v1/candidates/" + cand.ID

	// No provider is configured yet.
	rec = do(t, r, http.MethodPatch, base+"/sources/resume", map[string]any{
		"fields": map[string]string{"credibility_statements": "Ran a 40-person EMEA sales org"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("edit source: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec = do(t, r, http.MethodPost, base+"/synthesize/merge-credibility", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("synthesize without provider: expected 503, got %d: %s", rec.Code, rec.Body.String())
	}

	model := &scriptedLLM{reply: `{"mergedStatements":["Ran a 40-person EMEA sales org"],"sourceBreakdown":{"resume":{"available":true}}}`}
	app.SynthesisService.LLM = model

	if rec = do(t, r, http.MethodPost, base+"/synthesize/merge-credibility", nil); rec.Code != http.StatusOK {
		t.Fatalf("synthesize: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if model.calls != 1 {
		t.Fatalf("expected one model call, got %d", model.calls)
	}

	rec = do(t, r, http.MethodGet, base+"/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d", rec.Code)
	}
	var sum struct {
		Fields map[string]struct {
			Value  string `json:"value"`
			Status string `json:"status"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if got := sum.Fields["credibility"]; got.Status != "draft" || got.Value != "Ran a 40-person EMEA sales org" {
		t.Fatalf("unexpected credibility field %+v", got)
	}

	if rec = do(t, r, http.MethodDelete, base, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec = do(t, r, http.MethodGet, base+"/summary", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("summary after delete: expected 404, got %d", rec.Code)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := testConfig(t)
	cfg.Env = "production"
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}

func TestBuildRejectsS3WithoutBucket(t *testing.T) {
	cfg := testConfig(t)
	cfg.ObjectStoreType = "s3"
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected error for s3 store without bucket")
	}
}

func TestBuildClosesPoolWhenLaterStepFails(t *testing.T) {
	tests := []struct {
		name       string
		migrateErr error
		storeType  string
	}{
		{name: "migrations fail", migrateErr: errors.New("goose: dirty version"), storeType: "local"},
		{name: "object store fails", storeType: "s3"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
			mockDB, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock: %v", err)
			}
			mock.ExpectClose()

			origConnect, origMigrate := connectDB, applyMigrations
			t.Cleanup(func() { connectDB, applyMigrations = origConnect, origMigrate })
			connectDB = func(ctx context.Context, url string, opts db.Options) (*sql.DB, error) {
				return mockDB, nil
			}
			applyMigrations = func(ctx context.Context, database *sql.DB) error {
				return tt.migrateErr
			}

			cfg := testConfig(t)
			cfg.Env = "production"
			cfg.DatabaseURL = "postgres://app@db/execsummary"
			cfg.ObjectStoreType = tt.storeType
			if _, err := Build(cfg); err == nil {
				t.Fatalf("expected Build to fail")
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("pool not closed: %v", err)
			}
		})
	}
}
