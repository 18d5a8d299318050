package synthesis

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.New("prompts").Option("missingkey=error").ParseFS(promptFS, "prompts/*.tmpl"))

type promptSource struct {
	Key       string
	Label     string
	Text      string
	Available bool
}

type promptData struct {
	Name    string
	Focus   string
	Sources []promptSource
	Fields  []string
}

// renderPrompt returns the system and user messages for d.
func renderPrompt(d Definition, data promptData) (string, string, error) {
	system := "system_fields.tmpl"
	if d.Target.isSummary() {
		system = "system_merge.tmpl"
	}
	sys, err := execute(system, data)
	if err != nil {
		return "", "", err
	}
	user, err := execute(d.Prompt, data)
	if err != nil {
		return "", "", err
	}
	return sys, user, nil
}

func execute(name string, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
