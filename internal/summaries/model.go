package summaries

import (
	"strings"
	"time"
)

// Status is the authoring state of one executive-summary field.
type Status string

const (
	StatusEmpty     Status = "empty"
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
)

func (s Status) valid() bool {
	return s == StatusEmpty || s == StatusDraft || s == StatusSubmitted
}

const (
	FieldCredibility      = "credibility"
	FieldCaseStudies      = "case_studies"
	FieldBusinessProblems = "business_problems"
	FieldMotivations      = "motivations"
	FieldResults          = "results"
	FieldCompanyProfile   = "company_profile"
	FieldExecutiveSummary = "executive_summary"
)

// Fields lists every executive-summary field in display order.
var Fields = []string{
	FieldCredibility,
	FieldCaseStudies,
	FieldBusinessProblems,
	FieldMotivations,
	FieldResults,
	FieldCompanyProfile,
	FieldExecutiveSummary,
}

// ParseField accepts a field name in snake_case, camelCase or kebab-case.
func ParseField(s string) (string, error) {
	s = strings.TrimSpace(s)
	norm := strings.ToLower(strings.ReplaceAll(s, "-", "_"))
	for _, f := range Fields {
		if norm == f || strings.EqualFold(s, strings.ReplaceAll(f, "_", "")) {
			return f, nil
		}
	}
	return "", ErrUnknownField
}

// Field is one executive-summary section.
type Field struct {
	Name             string         `json:"field"`
	Value            string         `json:"value"`
	Status           Status         `json:"status"`
	Submitted        bool           `json:"submitted"`
	MergedStatements []string       `json:"mergedStatements"`
	SourceBreakdown  map[string]any `json:"sourceBreakdown"`
	UpdatedAt        *time.Time     `json:"updatedAt,omitempty"`
}

func emptyField(name string) Field {
	return Field{Name: name, Status: StatusEmpty, MergedStatements: []string{}, SourceBreakdown: map[string]any{}}
}

// normalize fills derived and nil members so the API shape is stable.
func (f Field) normalize() Field {
	if !f.Status.valid() {
		f.Status = StatusEmpty
	}
	f.Submitted = f.Status == StatusSubmitted
	if f.MergedStatements == nil {
		f.MergedStatements = []string{}
	}
	if f.SourceBreakdown == nil {
		f.SourceBreakdown = map[string]any{}
	}
	return f
}

// Summary is the executive summary aggregate of one candidate.
type Summary struct {
	CandidateID string           `json:"candidateId"`
	Fields      map[string]Field `json:"fields"`
}
