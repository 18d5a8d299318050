package sources

import "testing"

func TestRecordColumnAcceptsCamelCase(t *testing.T) {
	tests := []struct {
		record Record
		name   string
		want   string
		ok     bool
	}{
		{RecordResume, "credibility_statements", "credibility_statements", true},
		{RecordResume, "credibilityStatements", "credibility_statements", true},
		{RecordResume, "resumeOptimization", "resume_optimization", true},
		{RecordLinkedIn, "resume_optimization", "", false},
		{RecordScreening, "linkedinOptimization", "", false},
		{RecordScreening, "caseStudies", "case_studies", true},
		{Record("profiles"), "name", "", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.record)+"/"+tt.name, func(t *testing.T) {
			got, ok := tt.record.Column(tt.name)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("Column(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseRecordAndSection(t *testing.T) {
	if r, err := ParseRecord("Resume"); err != nil || r != RecordResume {
		t.Fatalf("ParseRecord(Resume) = %q, %v", r, err)
	}
	if r, err := ParseRecord("screening_analyses"); err != nil || r != RecordScreening {
		t.Fatalf("ParseRecord(screening_analyses) = %q, %v", r, err)
	}
	if _, err := ParseRecord("candidates"); err != ErrUnknownRecord {
		t.Fatalf("expected ErrUnknownRecord, got %v", err)
	}
	if s, err := ParseSectionType(" Experience "); err != nil || s != SectionExperience {
		t.Fatalf("ParseSectionType = %q, %v", s, err)
	}
	if _, err := ParseSectionType("hobbies"); err != ErrUnknownSection {
		t.Fatalf("expected ErrUnknownSection, got %v", err)
	}
}
