package events

import (
	"context"
	"time"

	"execsummary-backend/internal/shared/telemetry"
)

const (
	TypeCandidateUpdated = "candidate.updated"
	TypeCandidateDeleted = "candidate.deleted"
)

// Event notifies listeners that something about a candidate changed.
type Event struct {
	Type        string    `json:"type"`
	CandidateID string    `json:"candidateId"`
	Field       string    `json:"field,omitempty"`
	Synthesis   string    `json:"synthesis,omitempty"`
	At          time.Time `json:"at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(ctx context.Context, e Event) error { return nil }

// Emit publishes e and logs failures. Notifications never fail the caller.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	if err := p.Publish(ctx, e); err != nil {
		telemetry.Warn("events.publish_failed", map[string]any{
			"type":         e.Type,
			"candidate_id": e.CandidateID,
			"error":        err.Error(),
		})
	}
}
