package activity

import (
	"context"

	"github.com/matthewbaird/waypoint/internal/conditions"
	"github.com/matthewbaird/waypoint/internal/event"
)

// Indexer consumes domain events from the bus, classifies them, and writes
// one timeline entry per event.
type Indexer struct {
	store Store
}

// NewIndexer creates a new activity indexer.
func NewIndexer(store Store) *Indexer {
	return &Indexer{store: store}
}

// HandleEvent implements eventbus.Handler.
func (idx *Indexer) HandleEvent(ctx context.Context, evt event.DomainEvent) error {
	category, weight := Classify(evt)
	return idx.store.WriteEntries(ctx, []Entry{{
		EventID:    evt.ID,
		EventType:  evt.EventType,
		ActorID:    evt.ActorID,
		RecordID:   evt.RecordID,
		OccurredAt: evt.OccurredAt,
		Summary:    evt.Summary,
		Category:   category,
		Weight:     weight,
		Payload:    evt.Payload,
	}})
}

// Classify assigns a category and weight to an event. Corrections are
// moderate. Reports made under an Extreme or Severe alert are strong in
// every state.
func Classify(evt event.DomainEvent) (category, weight string) {
	switch evt.EventType {
	case event.TypeStatusReported:
		var p event.StatusReportedPayload
		if err := evt.Decode(&p); err != nil {
			return CategoryStatus, WeightInfo
		}
		switch conditions.Severity(p.AlertSeverity) {
		case conditions.SeverityExtreme, conditions.SeveritySevere:
			return CategoryStatus, WeightStrong
		}
		return CategoryStatus, WeightInfo
	case event.TypePromptAnswered:
		return CategoryFollowUp, WeightInfo
	case event.TypeStatusCorrected:
		return CategoryCorrection, WeightModerate
	}
	return CategoryOther, WeightInfo
}
