package sources

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestUpsertAnalysisQueryIsSingleRowUpsert(t *testing.T) {
	query, args, err := upsertAnalysisQuery(RecordResume, "cand-1", map[string]string{
		"results":                "Grew ARR 3x",
		"credibility_statements": "Led 40 people",
	})
	if err != nil {
		t.Fatalf("upsertAnalysisQuery: %v", err)
	}
	if !strings.Contains(query, "INSERT INTO resume_analyses (candidate_id, credibility_statements, results, updated_at)") {
		t.Fatalf("unexpected insert clause: %s", query)
	}
	if !strings.Contains(query, "ON CONFLICT (candidate_id) DO UPDATE SET credibility_statements = EXCLUDED.credibility_statements, results = EXCLUDED.results, updated_at = now()") {
		t.Fatalf("unexpected conflict clause: %s", query)
	}
	if len(args) != 3 || args[0] != "cand-1" || args[1] != "Led 40 people" || args[2] != "Grew ARR 3x" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestUpsertAnalysisQueryRejectsUnknownColumns(t *testing.T) {
	if _, _, err := upsertAnalysisQuery(RecordScreening, "cand-1", map[string]string{"resume_optimization": "x"}); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if _, _, err := upsertAnalysisQuery(Record("candidates; DROP TABLE x"), "cand-1", map[string]string{"results": "x"}); !errors.Is(err, ErrUnknownRecord) {
		t.Fatalf("expected ErrUnknownRecord, got %v", err)
	}
	if _, _, err := upsertAnalysisQuery(RecordResume, "cand-1", map[string]string{"results; --": "x"}); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestPGRepoGetAnalysis(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT credibility_statements, case_studies, business_problems, motivations, results, updated_at FROM screening_analyses WHERE candidate_id = $1")).
		WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"credibility_statements", "case_studies", "business_problems", "motivations", "results", "updated_at"}).
			AddRow("Built EMEA", "", "", "Wants scale", "", now))

	repo := &PGRepo{DB: db}
	a, err := repo.GetAnalysis(context.Background(), RecordScreening, "cand-1")
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if !a.Found || a.Fields["credibility_statements"] != "Built EMEA" || a.Fields["motivations"] != "Wants scale" {
		t.Fatalf("unexpected analysis %+v", a)
	}
}

func TestPGRepoGetAnalysisMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("FROM resume_analyses").
		WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"credibility_statements"}))

	repo := &PGRepo{DB: db}
	if _, err := repo.GetAnalysis(context.Background(), RecordResume, "cand-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoSetSectionScreenshotReturnsPrevious(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("INSERT INTO linkedin_sections").
		WithArgs("cand-1", "about", "screenshots/cand-1/b_about.png").
		WillReturnRows(sqlmock.NewRows([]string{"screenshot_path"}).AddRow("screenshots/cand-1/a_about.png"))

	repo := &PGRepo{DB: db}
	prev, err := repo.SetSectionScreenshot(context.Background(), "cand-1", SectionAbout, "screenshots/cand-1/b_about.png")
	if err != nil {
		t.Fatalf("SetSectionScreenshot: %v", err)
	}
	if prev != "screenshots/cand-1/a_about.png" {
		t.Fatalf("unexpected previous path %q", prev)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListSectionsUsesFixedOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	mock.ExpectQuery("FROM linkedin_sections").
		WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"candidate_id", "section_type", "content", "screenshot_path", "updated_at"}).
			AddRow("cand-1", "skills", "Go", nil, now).
			AddRow("cand-1", "about", "Operator", "screenshots/x.png", now))

	repo := &PGRepo{DB: db}
	got, err := repo.ListSections(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("ListSections: %v", err)
	}
	if len(got) != 2 || got[0].Type != SectionAbout || got[1].Type != SectionSkills {
		t.Fatalf("unexpected order %+v", got)
	}
	if got[0].ScreenshotPath != "screenshots/x.png" {
		t.Fatalf("expected screenshot path, got %+v", got[0])
	}
}
