package main

// Run one synthesis against local files with the configured provider:
//   go run ./cmd/prompttest -name analyze-resume -resume cv.pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"execsummary-backend/internal/bootstrap"
	"execsummary-backend/internal/candidates"
	"execsummary-backend/internal/extract"
	"execsummary-backend/internal/shared/config"
)

const owner = "prompttest"

func main() {
	cfg := config.Load()

	name := flag.String("name", "", "Synthesis name (see -list)")
	list := flag.Bool("list", false, "List available syntheses and exit")
	resumePath := flag.String("resume", "", "Path to resume file (pdf or docx)")
	linkedInPath := flag.String("linkedin", "", "Path to pasted LinkedIn text (optional)")
	screeningPath := flag.String("screening", "", "Path to screening notes (optional)")
	outPath := flag.String("out", "", "Path to write JSON output (optional)")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	flag.Parse()

	// Everything stays in memory for a single run.
	cfg.Env = "local"
	cfg.DatabaseURL = ""
	cfg.RabbitMQURL = ""
	cfg.ObjectStoreType = "local"
	cfg.LocalStoreDir = os.TempDir()
	cfg.LLMProvider = *provider
	cfg.LLMModel = *model

	app, err := bootstrap.Build(cfg)
	if err != nil {
		exitErr(fmt.Sprintf("bootstrap: %v", err))
	}
	defer app.Close()

	if *list {
		for _, info := range app.SynthesisService.Definitions() {
			fmt.Printf("%-28s %s\n", info.Name, info.Description)
		}
		return
	}
	if strings.TrimSpace(*name) == "" {
		exitErr("-name is required")
	}

	ctx := context.Background()
	cand, err := app.CandidatesService.Create(ctx, candidates.Identity{ID: owner}, candidates.CreateInput{Name: "Prompt test"})
	if err != nil {
		exitErr(fmt.Sprintf("create candidate: %v", err))
	}

	if *resumePath != "" {
		text, err := resumeText(ctx, cfg, *resumePath)
		if err != nil {
			exitErr(err.Error())
		}
		if _, err := app.CandidatesService.SetResumeText(ctx, owner, cand.ID, text); err != nil {
			exitErr(fmt.Sprintf("store resume text: %v", err))
		}
	}

	update := candidates.UpdateInput{}
	if *linkedInPath != "" {
		text := readText(*linkedInPath)
		update.LinkedInContent = &text
	}
	if *screeningPath != "" {
		text := readText(*screeningPath)
		update.ScreeningNotes = &text
	}
	if update.LinkedInContent != nil || update.ScreeningNotes != nil {
		if _, err := app.CandidatesService.Update(ctx, owner, cand.ID, update); err != nil {
			exitErr(fmt.Sprintf("update candidate: %v", err))
		}
	}

	res, err := app.SynthesisService.Run(ctx, cand.ID, *name)
	if err != nil {
		exitErr(fmt.Sprintf("synthesis %s: %v", *name, err))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	if *outPath != "" {
		if err := os.WriteFile(*outPath, buf.Bytes(), 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
}

func resumeText(ctx context.Context, cfg config.Config, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read resume: %w", err)
	}
	ex := extract.New(cfg.ExtractTimeout, cfg.ExtractRetries, cfg.ExtractRetryDelay)
	text, err := ex.ExtractText(ctx, data, "", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("extract resume text: %w", err)
	}
	return text, nil
}

func readText(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		exitErr(fmt.Sprintf("read %s: %v", path, err))
	}
	return string(data)
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
