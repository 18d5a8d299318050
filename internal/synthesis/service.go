package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"execsummary-backend/internal/candidates"
	"execsummary-backend/internal/events"
	"execsummary-backend/internal/llm"
	"execsummary-backend/internal/shared/metrics"
	"execsummary-backend/internal/shared/telemetry"
	"execsummary-backend/internal/sources"
	"execsummary-backend/internal/summaries"
)

// CandidateLookup loads a candidate without an owner check.
type CandidateLookup interface {
	Lookup(ctx context.Context, id string) (candidates.Candidate, error)
}

// SourceStore reads source text and writes field-shape results.
type SourceStore interface {
	ReadField(ctx context.Context, candidateID string, ref sources.FieldRef) (string, error)
	UpsertFields(ctx context.Context, record sources.Record, candidateID string, fields map[string]string) error
}

// SummaryStore reads summary text and stores merge-shape results.
type SummaryStore interface {
	Value(ctx context.Context, candidateID, field string) (string, error)
	StoreSynthesis(ctx context.Context, candidateID, field string, statements []string, breakdown map[string]any) (summaries.Field, error)
}

// Result is what a run produced.
type Result struct {
	Name             string            `json:"name"`
	CandidateID      string            `json:"candidateId"`
	MergedStatements []string          `json:"mergedStatements,omitempty"`
	SourceBreakdown  map[string]any    `json:"sourceBreakdown,omitempty"`
	Fields           map[string]string `json:"fields,omitempty"`
	Model            string            `json:"model,omitempty"`
}

// defaultRunTimeout bounds a shared run once it is detached from the
// caller that started it.
const defaultRunTimeout = 3 * time.Minute

type Service struct {
	Registry   *Registry
	Candidates CandidateLookup
	Sources    SourceStore
	Summaries  SummaryStore
	LLM        llm.Client
	Events     events.Publisher
	// RunTimeout defaults to defaultRunTimeout.
	RunTimeout time.Duration

	group singleflight.Group
}

// Definitions lists the registered syntheses.
func (s *Service) Definitions() []Info {
	return s.Registry.List()
}

// Run executes the named synthesis for one candidate. Validation happens
// before any model call; identical runs in flight share one call.
func (s *Service) Run(ctx context.Context, candidateID, name string) (Result, error) {
	candidateID = strings.TrimSpace(candidateID)
	if candidateID == "" {
		return Result{}, fmt.Errorf("%w: candidate id is required", ErrInvalidInput)
	}
	def, ok := s.Registry.Lookup(strings.TrimSpace(name))
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownSynthesis, name)
	}
	if _, err := s.Candidates.Lookup(ctx, candidateID); err != nil {
		if errors.Is(err, candidates.ErrNotFound) {
			return Result{}, ErrNotFound
		}
		return Result{}, fmt.Errorf("load candidate: %w", err)
	}

	// The shared run outlives any single caller; each caller stops waiting
	// when its own context ends.
	ch := s.group.DoChan(candidateID+"|"+def.Name, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.runTimeout())
		defer cancel()
		return s.run(runCtx, candidateID, def)
	})
	select {
	case <-ctx.Done():
		telemetry.Info("synthesis.caller_gone", map[string]any{"candidate_id": candidateID, "synthesis": def.Name})
		return Result{}, ctx.Err()
	case r := <-ch:
		if r.Shared {
			telemetry.Info("synthesis.shared", map[string]any{"candidate_id": candidateID, "synthesis": def.Name})
		}
		if r.Err != nil {
			return Result{}, r.Err
		}
		return cloneResult(r.Val.(Result)), nil
	}
}

func (s *Service) runTimeout() time.Duration {
	if s.RunTimeout > 0 {
		return s.RunTimeout
	}
	return defaultRunTimeout
}

func (s *Service) run(ctx context.Context, candidateID string, def Definition) (res Result, err error) {
	start := time.Now()
	metrics.IncSynthesisStarted(def.Name)
	s.logStatus("started", candidateID, def.Name, start, nil)
	defer func() {
		metrics.ObserveSynthesisDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
		if err != nil {
			metrics.IncSynthesisFailed(def.Name, failureReason(err))
			s.logStatus("failed", candidateID, def.Name, start, err)
			return
		}
		metrics.IncSynthesisCompleted(def.Name)
		s.logStatus("completed", candidateID, def.Name, start, nil)
	}()

	data := promptData{Name: def.Name, Focus: def.Focus, Fields: def.Target.Fields}
	absent := map[string]bool{}
	keys := make([]string, 0, len(def.Sources))
	for _, src := range def.Sources {
		text, err := s.read(ctx, candidateID, src.Ref)
		if err != nil {
			return Result{}, fmt.Errorf("read %s: %w", src.Ref, err)
		}
		text = strings.TrimSpace(text)
		keys = append(keys, src.Key)
		if text == "" {
			absent[src.Key] = true
		}
		data.Sources = append(data.Sources, promptSource{Key: src.Key, Label: src.Label, Text: text, Available: text != ""})
	}
	if len(absent) == len(def.Sources) {
		return Result{}, ErrNoSourceData
	}

	system, user, err := renderPrompt(def, data)
	if err != nil {
		return Result{}, err
	}
	completion, err := s.LLM.Complete(ctx, llm.Request{System: system, User: user, JSON: true})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	metrics.AddLLMTokens("prompt", completion.PromptTokens)
	metrics.AddLLMTokens("completion", completion.CompletionTokens)

	res = Result{Name: def.Name, CandidateID: candidateID, Model: completion.Model}
	if def.Target.isSummary() {
		reply, err := parseMerge(completion.Text, keys, absent)
		if err != nil {
			return Result{}, err
		}
		if _, err := s.Summaries.StoreSynthesis(ctx, candidateID, def.Target.Field, reply.Statements, reply.Breakdown); err != nil {
			return Result{}, fmt.Errorf("store %s: %w", def.Target.Field, err)
		}
		res.MergedStatements = reply.Statements
		res.SourceBreakdown = reply.Breakdown
	} else {
		fields, err := parseFields(completion.Text, def.Target.Fields)
		if err != nil {
			return Result{}, err
		}
		if err := s.Sources.UpsertFields(ctx, sources.Record(def.Target.Record), candidateID, fields); err != nil {
			return Result{}, fmt.Errorf("store %s: %w", def.Target.Record, err)
		}
		res.Fields = fields
	}

	events.Emit(ctx, s.Events, events.Event{
		Type:        events.TypeCandidateUpdated,
		CandidateID: candidateID,
		Field:       def.Target.Record + "." + def.Target.Field,
		Synthesis:   def.Name,
	})
	return res, nil
}

func (s *Service) read(ctx context.Context, candidateID string, ref sources.FieldRef) (string, error) {
	if ref.Record == RecordSummary {
		return s.Summaries.Value(ctx, candidateID, ref.Field)
	}
	return s.Sources.ReadField(ctx, candidateID, ref)
}

func (s *Service) logStatus(status, candidateID, name string, start time.Time, err error) {
	fields := map[string]any{
		"status":       status,
		"candidate_id": candidateID,
		"synthesis":    name,
	}
	if status != "started" {
		fields["duration_ms"] = float64(time.Since(start).Microseconds()) / 1000.0
	}
	if err != nil {
		fields["error"] = sanitizeError(err)
		telemetry.Warn("synthesis.status", fields)
		return
	}
	telemetry.Info("synthesis.status", fields)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrNoSourceData):
		return "no_source_data"
	case errors.Is(err, ErrMalformedReply):
		return "malformed_reply"
	case errors.Is(err, llm.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrUpstream):
		return "llm_error"
	default:
		return "internal"
	}
}

// sanitizeError keeps log lines short and single-line.
func sanitizeError(err error) string {
	msg := strings.Join(strings.Fields(err.Error()), " ")
	if len(msg) > 300 {
		msg = msg[:300] + "..."
	}
	return msg
}

func cloneResult(r Result) Result {
	if r.MergedStatements != nil {
		r.MergedStatements = append([]string(nil), r.MergedStatements...)
	}
	if r.SourceBreakdown != nil {
		m := make(map[string]any, len(r.SourceBreakdown))
		for k, v := range r.SourceBreakdown {
			m[k] = v
		}
		r.SourceBreakdown = m
	}
	if r.Fields != nil {
		m := make(map[string]string, len(r.Fields))
		for k, v := range r.Fields {
			m[k] = v
		}
		r.Fields = m
	}
	return r
}
