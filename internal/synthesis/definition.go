package synthesis

import (
	"sort"

	"execsummary-backend/internal/sources"
	"execsummary-backend/internal/summaries"
)

// RecordSummary addresses executive-summary fields in a FieldRef.
const RecordSummary = "executive_summary"

// Source is one named input of a synthesis.
type Source struct {
	Key   string
	Label string
	Ref   sources.FieldRef
}

// Target is where a synthesis writes. A summary target takes the merge
// shape; a source record target takes the field shape.
type Target struct {
	Record string
	Field  string
	Fields []string
}

func (t Target) isSummary() bool {
	return t.Record == RecordSummary
}

// Definition parameterizes the generic merge-and-synthesize run.
type Definition struct {
	Name        string
	Description string
	Sources     []Source
	Target      Target
	// Prompt is the user template name under prompts/.
	Prompt string
	// Focus is the subject passed to the template.
	Focus string
}

// Info is the public listing of a definition.
type Info struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Sources     []string `json:"sources"`
	Target      string   `json:"target"`
}

func (d Definition) info() Info {
	keys := make([]string, 0, len(d.Sources))
	for _, s := range d.Sources {
		keys = append(keys, s.Key)
	}
	target := d.Target.Record + "." + d.Target.Field
	if !d.Target.isSummary() && d.Target.Field == "" {
		target = d.Target.Record
	}
	return Info{Name: d.Name, Description: d.Description, Sources: keys, Target: target}
}

var analysisTargetFields = []string{"credibility_statements", "case_studies", "business_problems", "motivations", "results"}

func analyze(name, desc, key, label string, ref sources.FieldRef, record sources.Record) Definition {
	return Definition{
		Name:        name,
		Description: desc,
		Sources:     []Source{{Key: key, Label: label, Ref: ref}},
		Target:      Target{Record: string(record), Fields: analysisTargetFields},
		Prompt:      "analyze.tmpl",
		Focus:       label,
	}
}

// merge builds a definition combining one column of every analysis record
// into a summary field.
func merge(name, column, field, focus string) Definition {
	return Definition{
		Name:        name,
		Description: "Merge " + focus + " from resume, LinkedIn and screening analyses",
		Sources: []Source{
			{Key: "resume", Label: "Resume analysis", Ref: sources.FieldRef{Record: string(sources.RecordResume), Field: column}},
			{Key: "linkedin", Label: "LinkedIn analysis", Ref: sources.FieldRef{Record: string(sources.RecordLinkedIn), Field: column}},
			{Key: "screening", Label: "Screening analysis", Ref: sources.FieldRef{Record: string(sources.RecordScreening), Field: column}},
		},
		Target: Target{Record: RecordSummary, Field: field},
		Prompt: "merge.tmpl",
		Focus:  focus,
	}
}

func summaryRef(field string) sources.FieldRef {
	return sources.FieldRef{Record: RecordSummary, Field: field}
}

// Registry holds the definitions served by the API.
type Registry struct {
	byName map[string]Definition
}

func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{byName: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		r.byName[d.Name] = d
	}
	return r
}

func (r *Registry) Lookup(name string) (Definition, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// List returns definitions sorted by name.
func (r *Registry) List() []Info {
	out := make([]Info, 0, len(r.byName))
	for _, d := range r.byName {
		out = append(out, d.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DefaultRegistry returns the built-in syntheses.
func DefaultRegistry() *Registry {
	candidate := func(field string) sources.FieldRef {
		return sources.FieldRef{Record: sources.RecordCandidate, Field: field}
	}
	linkedIn := sources.FieldRef{Record: sources.RecordLinkedInAggregate}

	return NewRegistry(
		analyze("analyze-resume", "Extract structured evidence from the resume", "resume", "Resume", candidate("resume_text"), sources.RecordResume),
		analyze("analyze-linkedin", "Extract structured evidence from the LinkedIn profile", "linkedin", "LinkedIn profile", linkedIn, sources.RecordLinkedIn),
		analyze("analyze-screening", "Extract structured evidence from screening notes", "screening", "Screening notes", candidate("screening_notes"), sources.RecordScreening),

		merge("merge-credibility", "credibility_statements", summaries.FieldCredibility, "credibility statements"),
		merge("merge-case-studies", "case_studies", summaries.FieldCaseStudies, "case studies"),
		merge("merge-business-problems", "business_problems", summaries.FieldBusinessProblems, "business problems solved"),
		merge("merge-motivations", "motivations", summaries.FieldMotivations, "motivations"),
		merge("merge-results", "results", summaries.FieldResults, "measurable results"),

		Definition{
			Name:        "company-profile",
			Description: "Describe the kind of company the candidate fits best",
			Sources: []Source{
				{Key: "business_problems", Label: "Business problems", Ref: summaryRef(summaries.FieldBusinessProblems)},
				{Key: "motivations", Label: "Motivations", Ref: summaryRef(summaries.FieldMotivations)},
				{Key: "screening", Label: "Screening notes", Ref: candidate("screening_notes")},
			},
			Target: Target{Record: RecordSummary, Field: summaries.FieldCompanyProfile},
			Prompt: "company_profile.tmpl",
			Focus:  "ideal company profile",
		},
		Definition{
			Name:        "executive-summary",
			Description: "Write the executive summary from the other summary sections",
			Sources: []Source{
				{Key: "credibility", Label: "Credibility", Ref: summaryRef(summaries.FieldCredibility)},
				{Key: "case_studies", Label: "Case studies", Ref: summaryRef(summaries.FieldCaseStudies)},
				{Key: "business_problems", Label: "Business problems", Ref: summaryRef(summaries.FieldBusinessProblems)},
				{Key: "motivations", Label: "Motivations", Ref: summaryRef(summaries.FieldMotivations)},
				{Key: "results", Label: "Results", Ref: summaryRef(summaries.FieldResults)},
				{Key: "company_profile", Label: "Company profile", Ref: summaryRef(summaries.FieldCompanyProfile)},
			},
			Target: Target{Record: RecordSummary, Field: summaries.FieldExecutiveSummary},
			Prompt: "executive_summary.tmpl",
			Focus:  "executive summary",
		},

		Definition{
			Name:        "resume-optimization",
			Description: "Suggest improvements to the resume",
			Sources:     []Source{{Key: "resume", Label: "Resume", Ref: candidate("resume_text")}},
			Target:      Target{Record: string(sources.RecordResume), Fields: []string{"resume_optimization"}},
			Prompt:      "optimization.tmpl",
			Focus:       "resume",
		},
		Definition{
			Name:        "linkedin-optimization",
			Description: "Suggest improvements to the LinkedIn profile",
			Sources:     []Source{{Key: "linkedin", Label: "LinkedIn profile", Ref: linkedIn}},
			Target:      Target{Record: string(sources.RecordLinkedIn), Fields: []string{"linkedin_optimization"}},
			Prompt:      "optimization.tmpl",
			Focus:       "LinkedIn profile",
		},
	)
}
