package conditions

import (
	"github.com/matthewbaird/waypoint/internal/catalog"
	"github.com/matthewbaird/waypoint/internal/types"
)

// Classify selects the overlay prompt for an actor entering state. It returns
// nil when no overlay applies: the feed was unavailable, or a moderate alert
// is active while resting.
func Classify(state types.State, snap *Snapshot) *types.Prompt {
	if snap == nil {
		return nil
	}
	top, ok := MostSevere(snap.Alerts)
	if !ok {
		return catalog.ConditionsClear(state)
	}

	switch top.Severity {
	case SeverityExtreme, SeveritySevere:
		switch state {
		case types.StateMoving:
			return catalog.ConditionsAlert(Emoji(top.Event), top.Event, top.Headline)
		case types.StateWaiting:
			return catalog.ConditionsRoadCheck(top.Summary())
		}
		return catalog.ConditionsStaySafe(top.Summary())
	case SeverityModerate:
		if state == types.StateResting {
			return nil
		}
		return catalog.ConditionsRoadCheck(top.Summary())
	}
	return catalog.ConditionsClear(state)
}
