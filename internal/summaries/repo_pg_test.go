package summaries

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoUpsertEncodesJSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (candidate_id, field) DO UPDATE SET")).
		WithArgs("cand-1", "results", "3x", "draft", `["3x"]`, `{"resume":{"available":true}}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: db}
	err = repo.Upsert(context.Background(), "cand-1", Field{
		Name:             "results",
		Value:            "3x",
		Status:           StatusDraft,
		MergedStatements: []string{"3x"},
		SourceBreakdown:  map[string]any{"resume": map[string]any{"available": true}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetDecodesJSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT field, value, status, merged_statements, source_breakdown, updated_at").
		WithArgs("cand-1", "credibility").
		WillReturnRows(sqlmock.NewRows([]string{"field", "value", "status", "merged_statements", "source_breakdown", "updated_at"}).
			AddRow("credibility", "Built EMEA", "submitted", []byte(`["Built EMEA"]`), []byte(`{"linkedin":{"available":false}}`), now))

	repo := &PGRepo{DB: db}
	f, err := repo.Get(context.Background(), "cand-1", "credibility")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if f.Status != StatusSubmitted || len(f.MergedStatements) != 1 || f.SourceBreakdown["linkedin"] == nil {
		t.Fatalf("unexpected field %+v", f)
	}
}

func TestPGRepoGetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("FROM executive_summary_fields").
		WithArgs("cand-1", "results").
		WillReturnRows(sqlmock.NewRows([]string{"field"}))

	repo := &PGRepo{DB: db}
	if _, err := repo.Get(context.Background(), "cand-1", "results"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoResetMissingRowIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("UPDATE executive_summary_fields").
		WithArgs("cand-1", "results").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	if err := repo.Reset(context.Background(), "cand-1", "results"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
