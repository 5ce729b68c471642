// Package event defines the domain events emitted after a status record or
// answer commits. Events are published to the in-process bus for downstream
// consumers (logs, metrics, the live stream).
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/waypoint/internal/types"
)

// Event types.
const (
	TypeStatusReported  = "status_reported"
	TypePromptAnswered  = "prompt_answered"
	TypeStatusCorrected = "status_corrected"
)

// DomainEvent carries the canonical shape of every domain event.
type DomainEvent struct {
	ID         string          `json:"id"`
	EventType  string          `json:"event_type"`
	ActorID    string          `json:"actor_id"`
	RecordID   string          `json:"record_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Summary    string          `json:"summary"`
	Payload    json.RawMessage `json:"payload"`
}

// Decode unmarshals the payload into v.
func (e DomainEvent) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Publisher sends domain events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, evt DomainEvent)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, DomainEvent) {}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ── Reports ──────────────────────────────────────────────────────────────────

// StatusReportedPayload carries event-specific data for StatusReported.
type StatusReportedPayload struct {
	State           types.State       `json:"status"`
	PrevState       types.State       `json:"prev_status,omitempty"`
	Coordinates     types.Coordinates `json:"coordinates"`
	RuleID          string            `json:"rule_id"`
	PromptCategory  types.Category    `json:"question_type,omitempty"`
	OverlayCategory types.Category    `json:"conditions_type,omitempty"`
	AlertSeverity   string            `json:"alert_severity,omitempty"`
	ElapsedSeconds  *int64            `json:"elapsed_seconds,omitempty"`
	DistanceMiles   *float64          `json:"distance_miles,omitempty"`
}

// NewStatusReported builds the event for a committed report. alertSeverity
// is the severity of the most severe active alert, empty when none.
func NewStatusReported(rec *types.StatusUpdate, ruleID, alertSeverity string) DomainEvent {
	p := StatusReportedPayload{
		State:          rec.State,
		PrevState:      rec.PrevState(),
		Coordinates:    rec.Coordinates,
		RuleID:         ruleID,
		AlertSeverity:  alertSeverity,
		ElapsedSeconds: rec.ElapsedSeconds,
		DistanceMiles:  rec.DistanceMiles,
	}
	if rec.Prompt != nil {
		p.PromptCategory = rec.Prompt.Category
	}
	if rec.Overlay != nil {
		p.OverlayCategory = rec.Overlay.Category
	}

	summary := fmt.Sprintf("Actor %s reported %s", rec.ActorID, rec.State)
	if prev := rec.PrevState(); prev != "" && prev != rec.State {
		summary = fmt.Sprintf("Actor %s went from %s to %s", rec.ActorID, prev, rec.State)
	}
	return DomainEvent{
		ID:         newID(),
		EventType:  TypeStatusReported,
		ActorID:    rec.ActorID,
		RecordID:   rec.ID,
		OccurredAt: rec.ReportedAt,
		Summary:    summary,
		Payload:    mustJSON(p),
	}
}

// ── Answers ──────────────────────────────────────────────────────────────────

// PromptAnsweredPayload carries event-specific data for PromptAnswered.
type PromptAnsweredPayload struct {
	Slot     types.PromptSlot `json:"slot"`
	Category types.Category   `json:"question_type"`
	Value    string           `json:"response_value"`
	Skipped  bool             `json:"skipped"`
}

func NewPromptAnswered(rec *types.StatusUpdate, slot types.PromptSlot, category types.Category, ans types.Answer) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  TypePromptAnswered,
		ActorID:    rec.ActorID,
		RecordID:   rec.ID,
		OccurredAt: ans.AnsweredAt,
		Summary:    fmt.Sprintf("Actor %s answered %s on record %s: %s", rec.ActorID, category, short(rec.ID), ans.Value),
		Payload: mustJSON(PromptAnsweredPayload{
			Slot:     slot,
			Category: category,
			Value:    ans.Value,
			Skipped:  ans.Value == types.SkippedValue,
		}),
	}
}

// ── Corrections ──────────────────────────────────────────────────────────────

// StatusCorrectedPayload carries event-specific data for StatusCorrected.
type StatusCorrectedPayload struct {
	CorrectedRecordID string      `json:"corrected_record_id"`
	From              types.State `json:"from_status"`
	RestoredState     types.State `json:"restored_status"`
}

func NewStatusCorrected(correction *types.StatusUpdate) DomainEvent {
	p := StatusCorrectedPayload{RestoredState: correction.State}
	if correction.CorrectsRecordID != nil {
		p.CorrectedRecordID = *correction.CorrectsRecordID
	}
	if correction.Previous != nil {
		p.From = correction.Previous.State
	}
	return DomainEvent{
		ID:         newID(),
		EventType:  TypeStatusCorrected,
		ActorID:    correction.ActorID,
		RecordID:   correction.ID,
		OccurredAt: correction.ReportedAt,
		Summary:    fmt.Sprintf("Actor %s corrected back to %s (record %s)", correction.ActorID, correction.State, short(p.CorrectedRecordID)),
		Payload:    mustJSON(p),
	}
}
