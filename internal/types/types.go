// Package types provides the Go structs shared by the decision engine, the
// record store and the HTTP layer. Records are stored as rows with the prompt
// values serialized as JSON columns.
package types

import (
	"fmt"
	"time"
)

// State is an actor's self-reported operating state.
type State string

const (
	StateMoving  State = "moving"
	StateWaiting State = "waiting"
	StateResting State = "resting"
)

// AllStates lists the states in their canonical order.
var AllStates = []State{StateMoving, StateWaiting, StateResting}

// Valid reports whether s is one of the three known states.
func (s State) Valid() bool {
	switch s {
	case StateMoving, StateWaiting, StateResting:
		return true
	}
	return false
}

// ParseState validates a raw state string.
func ParseState(raw string) (State, error) {
	s := State(raw)
	if !s.Valid() {
		return "", fmt.Errorf("state must be one of moving, waiting, resting: got %q", raw)
	}
	return s, nil
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks coordinate ranges.
func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude out of range: %v", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude out of range: %v", c.Longitude)
	}
	return nil
}

// Source records who created a status update.
type Source string

const (
	SourceUser   Source = "user"
	SourceSystem Source = "system"
)

// PromptSlot distinguishes the primary follow-up prompt from the conditions overlay.
type PromptSlot string

const (
	SlotPrimary PromptSlot = "primary"
	SlotOverlay PromptSlot = "overlay"
)

// PromptOption is one selectable answer of a prompt.
type PromptOption struct {
	Emoji       string `json:"emoji,omitempty"`
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// Prompt is a renderable follow-up question or acknowledgment.
type Prompt struct {
	Category           Category       `json:"question_type"`
	Text               string         `json:"text"`
	SubText            *string        `json:"subtext,omitempty"`
	Options            []PromptOption `json:"options"`
	Skippable          bool           `json:"skippable"`
	AutoDismissSeconds *int           `json:"auto_dismiss_seconds,omitempty"`
}

// SkippedValue is the reserved answer a client submits when a skippable prompt
// is dismissed (including auto-dismiss timers running out).
const SkippedValue = "skipped"

// Accepts reports whether value is a legal answer for the prompt.
func (p *Prompt) Accepts(value string) bool {
	if value == SkippedValue {
		return p.Skippable
	}
	for _, o := range p.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// Answer is the recorded response to a prompt.
type Answer struct {
	Value      string    `json:"response_value"`
	Text       *string   `json:"response_text,omitempty"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Report is a newly submitted state report.
type Report struct {
	State       State       `json:"status"`
	Coordinates Coordinates `json:"coordinates"`
	Accuracy    *float64    `json:"accuracy,omitempty"`
	Heading     *float64    `json:"heading,omitempty"`
	Speed       *float64    `json:"speed,omitempty"`
	ReportedAt  time.Time   `json:"reported_at"`
}

// Validate checks coordinate ranges and optional telemetry. The state is
// checked separately with ParseState.
func (r Report) Validate() error {
	if err := r.Coordinates.Validate(); err != nil {
		return err
	}
	if r.Accuracy != nil && *r.Accuracy < 0 {
		return fmt.Errorf("accuracy must be >= 0")
	}
	if r.Heading != nil && (*r.Heading < 0 || *r.Heading >= 360) {
		return fmt.Errorf("heading must be in [0, 360)")
	}
	if r.Speed != nil && *r.Speed < 0 {
		return fmt.Errorf("speed must be >= 0")
	}
	return nil
}

// Previous is the snapshot of the record a new report was computed against.
type Previous struct {
	RecordID    string      `json:"record_id"`
	State       State       `json:"state"`
	Coordinates Coordinates `json:"coordinates"`
	ReportedAt  time.Time   `json:"reported_at"`
}

// StatusUpdate is one append-only status record. Only the two answer fields
// are written after creation, each at most once.
type StatusUpdate struct {
	ID          string      `json:"id"`
	ActorID     string      `json:"actor_id"`
	Seq         int64       `json:"seq"`
	State       State       `json:"status"`
	Coordinates Coordinates `json:"coordinates"`
	Accuracy    *float64    `json:"accuracy,omitempty"`
	Heading     *float64    `json:"heading,omitempty"`
	Speed       *float64    `json:"speed,omitempty"`
	ReportedAt  time.Time   `json:"reported_at"`
	Source      Source      `json:"source"`

	Previous       *Previous `json:"previous,omitempty"`
	ElapsedSeconds *int64    `json:"elapsed_seconds,omitempty"`
	DistanceMiles  *float64  `json:"distance_miles,omitempty"`

	Prompt        *Prompt `json:"follow_up_question,omitempty"`
	PromptAnswer  *Answer `json:"follow_up_answer,omitempty"`
	Overlay       *Prompt `json:"conditions_prompt,omitempty"`
	OverlayAnswer *Answer `json:"conditions_answer,omitempty"`

	CorrectsRecordID *string `json:"corrects_record_id,omitempty"`
}

// PrevState returns the previous state or "" for a first report.
func (u *StatusUpdate) PrevState() State {
	if u.Previous == nil {
		return ""
	}
	return u.Previous.State
}

// PromptFor returns the prompt and answer held in slot.
func (u *StatusUpdate) PromptFor(slot PromptSlot) (*Prompt, *Answer) {
	if slot == SlotOverlay {
		return u.Overlay, u.OverlayAnswer
	}
	return u.Prompt, u.PromptAnswer
}

// SlotFor resolves which slot a category belongs to. An empty category
// addresses the primary prompt.
func (u *StatusUpdate) SlotFor(category Category) (PromptSlot, bool) {
	switch {
	case category == "":
		return SlotPrimary, true
	case u.Prompt != nil && u.Prompt.Category == category:
		return SlotPrimary, true
	case u.Overlay != nil && u.Overlay.Category == category:
		return SlotOverlay, true
	}
	return "", false
}
