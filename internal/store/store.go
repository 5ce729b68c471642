// Package store persists status records and the per-actor state mirror.
// Records are append-only: after insertion only the two answer columns are
// written, each at most once.
package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/matthewbaird/waypoint/internal/types"
)

var (
	// ErrNotFound is returned for unknown record ids.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict is returned when an actor's head moved since it was read.
	ErrVersionConflict = errors.New("actor version conflict")
	// ErrAlreadyAnswered is returned when a prompt slot already holds an answer.
	ErrAlreadyAnswered = errors.New("prompt already answered")
	// ErrAlreadyCorrected is returned when a record already has a correction.
	ErrAlreadyCorrected = errors.New("record already corrected")
)

// Head is an actor's latest record and the version of its state mirror.
// Version is 0 and Latest nil for an actor that has never reported.
type Head struct {
	Latest  *types.StatusUpdate
	Version int64
}

// ActorState is the authoritative current state of an actor, kept in step
// with the latest record by every Append.
type ActorState struct {
	ActorID         string      `json:"actor_id"`
	State           types.State `json:"status"`
	CurrentRecordID string      `json:"current_record_id"`
	Version         int64       `json:"version"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// QueryOptions controls filtering and pagination for history listings.
type QueryOptions struct {
	Limit        int    // max results (default: 50, max: 200)
	Cursor       string // cursor returned by the previous page
	PromptedOnly bool   // only records that carry a primary or overlay prompt
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

// cursorSeq decodes a cursor into the exclusive upper bound on seq. An empty
// or malformed cursor starts from the newest record.
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

// Tx is the view of the store inside a transaction.
type Tx interface {
	// Head returns the actor's latest record and state version.
	Head(ctx context.Context, actorID string) (Head, error)
	// Get returns a record by id.
	Get(ctx context.Context, id string) (*types.StatusUpdate, error)
	// Append inserts rec as the actor's newest record, assigning rec.Seq, and
	// moves the actor's state mirror to rec. It fails with ErrVersionConflict
	// when the actor's version is no longer expectedVersion, and with
	// ErrAlreadyCorrected when rec corrects a record that already has a
	// correction.
	Append(ctx context.Context, rec *types.StatusUpdate, expectedVersion int64) error
	// SetAnswer records the answer for one prompt slot of a record.
	SetAnswer(ctx context.Context, id string, slot types.PromptSlot, ans types.Answer) error
}

// Store is the durable record store.
type Store interface {
	// InTx runs fn in a transaction, committing when fn returns nil.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	Get(ctx context.Context, id string) (*types.StatusUpdate, error)
	// ListByActor returns an actor's records newest first, and the cursor for
	// the next page ("" on the last page).
	ListByActor(ctx context.Context, actorID string, opts QueryOptions) ([]*types.StatusUpdate, string, error)
	ActorState(ctx context.Context, actorID string) (*ActorState, error)
}

// Facility is a named place used to label reports.
type Facility struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Kind        string            `json:"kind,omitempty"`
	Coordinates types.Coordinates `json:"coordinates"`
}

// Box is a latitude/longitude bounding box, inclusive on all edges.
type Box struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Contains reports whether c lies inside the box.
func (b Box) Contains(c types.Coordinates) bool {
	return c.Latitude >= b.MinLat && c.Latitude <= b.MaxLat &&
		c.Longitude >= b.MinLon && c.Longitude <= b.MaxLon
}

// FacilityStore holds the facilities used for place-name lookups.
type FacilityStore interface {
	AddFacility(ctx context.Context, f Facility) error
	FacilitiesIn(ctx context.Context, box Box) ([]Facility, error)
}
