package sources

import (
	"fmt"
	"strings"
	"time"
)

// Record names a per-candidate source table.
type Record string

const (
	RecordResume    Record = "resume_analyses"
	RecordLinkedIn  Record = "linkedin_analyses"
	RecordScreening Record = "screening_analyses"
)

// Pseudo records readable through ReadField.
const (
	RecordCandidate         = "candidate"
	RecordLinkedInAggregate = "linkedin"
)

var analysisFields = []string{"credibility_statements", "case_studies", "business_problems", "motivations", "results"}

var recordColumns = map[Record][]string{
	RecordResume:    append(append([]string{}, analysisFields...), "resume_optimization"),
	RecordLinkedIn:  append(append([]string{}, analysisFields...), "linkedin_optimization"),
	RecordScreening: append([]string{}, analysisFields...),
}

var candidateFields = map[string]bool{
	"name":             true,
	"resume_text":      true,
	"linkedin_url":     true,
	"linkedin_content": true,
	"screening_notes":  true,
}

// ParseRecord accepts a table name or its short form (resume, linkedin, screening).
func ParseRecord(s string) (Record, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "resume", string(RecordResume):
		return RecordResume, nil
	case "linkedin", string(RecordLinkedIn):
		return RecordLinkedIn, nil
	case "screening", string(RecordScreening):
		return RecordScreening, nil
	}
	return "", ErrUnknownRecord
}

// Columns returns the writable columns of the record.
func (r Record) Columns() []string {
	return recordColumns[r]
}

// Column resolves a field name given as a column or in camelCase.
func (r Record) Column(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, col := range recordColumns[r] {
		if name == col || name == CamelCase(col) {
			return col, true
		}
	}
	return "", false
}

// CamelCase converts a snake_case column name to its JSON form.
func CamelCase(col string) string {
	parts := strings.Split(col, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

// Analysis is one row of a source record. Found is false when no row exists.
type Analysis struct {
	CandidateID string            `json:"candidateId"`
	Record      Record            `json:"record"`
	Found       bool              `json:"found"`
	Fields      map[string]string `json:"fields"`
	UpdatedAt   *time.Time        `json:"updatedAt,omitempty"`
}

// HasContent reports whether any field holds non-blank text.
func (a Analysis) HasContent() bool {
	for _, v := range a.Fields {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

func emptyAnalysis(record Record, candidateID string) Analysis {
	fields := make(map[string]string, len(record.Columns()))
	for _, col := range record.Columns() {
		fields[col] = ""
	}
	return Analysis{CandidateID: candidateID, Record: record, Fields: fields}
}

// SectionType is one of the fixed LinkedIn profile sections.
type SectionType string

const (
	SectionAbout           SectionType = "about"
	SectionExperience      SectionType = "experience"
	SectionEducation       SectionType = "education"
	SectionSkills          SectionType = "skills"
	SectionRecommendations SectionType = "recommendations"
	SectionOther           SectionType = "other"
)

// SectionOrder is the order sections are concatenated in.
var SectionOrder = []SectionType{
	SectionAbout,
	SectionExperience,
	SectionEducation,
	SectionSkills,
	SectionRecommendations,
	SectionOther,
}

func ParseSectionType(s string) (SectionType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range SectionOrder {
		if string(t) == s {
			return t, nil
		}
	}
	return "", ErrUnknownSection
}

func (t SectionType) title() string {
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// LinkedInSection is pasted content for one profile section plus an optional screenshot.
type LinkedInSection struct {
	CandidateID    string      `json:"candidateId"`
	Type           SectionType `json:"type"`
	Content        string      `json:"content"`
	ScreenshotPath string      `json:"screenshotPath,omitempty"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// FieldRef names a readable text value: a candidate column, a source record
// column, or the LinkedIn aggregate.
type FieldRef struct {
	Record string
	Field  string
}

func (f FieldRef) String() string {
	if f.Field == "" {
		return f.Record
	}
	return f.Record + "." + f.Field
}

// Bundle is every source record of one candidate.
type Bundle struct {
	Resume    Analysis          `json:"resume"`
	LinkedIn  Analysis          `json:"linkedin"`
	Screening Analysis          `json:"screening"`
	Sections  []LinkedInSection `json:"linkedinSections"`
}

// checkColumns rejects records and column names outside the whitelist.
func checkColumns(record Record, fields map[string]string) error {
	if len(record.Columns()) == 0 {
		return ErrUnknownRecord
	}
	for name := range fields {
		if col, ok := record.Column(name); !ok || col != name {
			return fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
	}
	return nil
}
