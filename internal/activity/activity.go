// Package activity keeps each actor's activity timeline: one entry per domain
// event, classified by category and weight, queryable newest first.
package activity

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

// Entry is one line of an actor's timeline.
type Entry struct {
	Seq        int64           `json:"-"`
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	ActorID    string          `json:"actor_id"`
	RecordID   string          `json:"status_update_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Summary    string          `json:"summary"`
	Category   string          `json:"category"`
	Weight     string          `json:"weight"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Categories.
const (
	CategoryStatus     = "status"
	CategoryFollowUp   = "follow_up"
	CategoryCorrection = "correction"
	CategoryOther      = "other"
)

// Weights, from least to most significant.
const (
	WeightInfo     = "info"
	WeightModerate = "moderate"
	WeightStrong   = "strong"
)

// WeightOrder maps weights to numeric severity (lower = more severe).
var WeightOrder = map[string]int{
	WeightStrong:   1,
	WeightModerate: 2,
	WeightInfo:     3,
}

// IsAtLeastWeight reports whether actual is at least as severe as minimum.
// Unknown weights rank below info.
func IsAtLeastWeight(actual, minimum string) bool {
	return severity(actual) <= severity(minimum)
}

func severity(w string) int {
	if n, ok := WeightOrder[w]; ok {
		return n
	}
	return len(WeightOrder) + 1
}

// weightsAtLeast lists the known weights at least as severe as minimum.
func weightsAtLeast(minimum string) []string {
	var out []string
	for w := range WeightOrder {
		if IsAtLeastWeight(w, minimum) {
			out = append(out, w)
		}
	}
	return out
}

// QueryOptions controls filtering and pagination for timeline queries.
type QueryOptions struct {
	Since      *time.Time
	Until      *time.Time
	EventTypes []string // filter to specific event types
	MinWeight  string   // minimum weight (default: info)
	Text       string   // case-insensitive substring of the summary
	Limit      int      // max results (default: 50, max: 200)
	Cursor     string   // cursor returned by the previous page
}

const (
	defaultLimit = 50
	maxLimit     = 200
)

func (o QueryOptions) limit() int {
	if o.Limit <= 0 || o.Limit > maxLimit {
		return defaultLimit
	}
	return o.Limit
}

func (o QueryOptions) cursorSeq() (int64, bool) {
	if o.Cursor == "" {
		return 0, false
	}
	seq, err := strconv.ParseInt(o.Cursor, 10, 64)
	if err != nil || seq <= 0 {
		return 0, false
	}
	return seq, true
}

func encodeCursor(seq int64) string { return strconv.FormatInt(seq, 10) }

// Store reads and writes timeline entries.
type Store interface {
	// WriteEntries appends entries. Entries whose EventID is already stored
	// are skipped.
	WriteEntries(ctx context.Context, entries []Entry) error

	// QueryByActor returns an actor's entries newest first, and the cursor for
	// the next page ("" on the last page).
	QueryByActor(ctx context.Context, actorID string, opts QueryOptions) ([]Entry, string, error)
}
