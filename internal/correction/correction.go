// Package correction recognizes answers that rewind a mistaken transition and
// builds the system record that performs the rewind.
package correction

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/waypoint/internal/types"
)

// ErrNoPriorState is returned when the corrected record has nothing to rewind to.
var ErrNoPriorState = errors.New("record has no previous state to restore")

// Applies reports whether answering slot of a record whose prompt is category
// with value triggers a correction.
func Applies(slot types.PromptSlot, category types.Category, value string) bool {
	return slot == types.SlotPrimary &&
		category == types.CategoryCallingItANight &&
		value == types.StillWaitingValue
}

// Synthesize builds the system record that reverts rec. The new record
// restores rec's previous state at rec's coordinates, points back at rec as
// both its previous record and the record it corrects, and carries no prompts.
func Synthesize(rec *types.StatusUpdate, now time.Time) (*types.StatusUpdate, error) {
	restored := rec.PrevState()
	if restored == "" {
		return nil, ErrNoPriorState
	}

	elapsed := int64(now.Sub(rec.ReportedAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	distance := 0.0
	corrects := rec.ID

	return &types.StatusUpdate{
		ID:          uuid.NewString(),
		ActorID:     rec.ActorID,
		State:       restored,
		Coordinates: rec.Coordinates,
		Accuracy:    rec.Accuracy,
		ReportedAt:  now,
		Source:      types.SourceSystem,
		Previous: &types.Previous{
			RecordID:    rec.ID,
			State:       rec.State,
			Coordinates: rec.Coordinates,
			ReportedAt:  rec.ReportedAt,
		},
		ElapsedSeconds:   &elapsed,
		DistanceMiles:    &distance,
		CorrectsRecordID: &corrects,
	}, nil
}
