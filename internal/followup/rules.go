// Package followup selects the primary prompt for a status report. Selection
// is an ordered rule table: rules are evaluated top to bottom and the first
// match wins.
package followup

import (
	"github.com/matthewbaird/waypoint/internal/catalog"
	"github.com/matthewbaird/waypoint/internal/types"
)

// Rule is one row of the decision table. A Build that returns nil is an
// explicit "no prompt" outcome.
type Rule struct {
	ID          string
	Description string
	Match       func(Input) bool
	Build       func(Input) *types.Prompt
}

const secondsPerDay = 24 * 60 * 60

// Rules is the decision table in evaluation order. Bracket lower bounds are
// inclusive everywhere: a value exactly on a threshold lands in the higher bracket.
var Rules = []Rule{
	// === Entry (2) ===
	{
		ID:          "first_report",
		Description: "Actor has never reported",
		Match:       func(in Input) bool { return in.Context.IsFirstReport },
		Build: func(in Input) *types.Prompt {
			switch in.State {
			case types.StateMoving:
				return catalog.FirstReportMoving()
			case types.StateWaiting:
				return catalog.FirstReportWaiting(in.Place)
			}
			return catalog.FirstReportResting()
		},
	},
	{
		ID:          "returning",
		Description: "Last report is at least a day old",
		Match:       func(in Input) bool { return in.Context.IsReturning },
		Build: func(in Input) *types.Prompt {
			return catalog.Returning(in.State, in.Context.Elapsed()/secondsPerDay, in.Place)
		},
	},

	// === Check-ins (4) ===
	{
		ID:          "checkin_resting_short",
		Description: "Still resting, under the long-rest threshold",
		Match: func(in Input) bool {
			return in.checkin(types.StateResting) && in.Context.Elapsed() < in.Thresholds.RestCheckinLongSeconds
		},
		Build: func(Input) *types.Prompt { return catalog.CheckinRestingShort() },
	},
	{
		ID:          "checkin_resting_long",
		Description: "Still resting after a long rest; the spot may have changed",
		Match:       func(in Input) bool { return in.checkin(types.StateResting) },
		Build:       func(Input) *types.Prompt { return catalog.CheckinRestingLong() },
	},
	{
		ID:          "checkin_waiting",
		Description: "Still waiting; facility flow changes continuously",
		Match:       func(in Input) bool { return in.checkin(types.StateWaiting) },
		Build:       func(Input) *types.Prompt { return catalog.CheckinWaiting() },
	},
	{
		ID:          "checkin_moving",
		Description: "Still moving",
		Match:       func(in Input) bool { return in.checkin(types.StateMoving) },
		Build:       func(Input) *types.Prompt { return catalog.CheckinMoving() },
	},

	// === Into resting (3) ===
	{
		ID:          "calling_it_a_night",
		Description: "Waiting to resting without moving; may be a mistaken report",
		Match: func(in Input) bool {
			return in.transition(types.StateWaiting, types.StateResting) && in.Context.IsSameLocation
		},
		Build: func(Input) *types.Prompt { return catalog.CallingItANight() },
	},
	{
		ID:          "done_at_facility",
		Description: "Left a long wait to rest nearby",
		Match: func(in Input) bool {
			return in.transition(types.StateWaiting, types.StateResting) &&
				in.Context.IsNearby &&
				in.Context.Elapsed() >= in.Thresholds.FacilityDetentionSeconds
		},
		Build: func(in Input) *types.Prompt { return catalog.DoneAtFacility(in.Context.Elapsed(), in.Place) },
	},
	{
		ID:          "resting_entry",
		Description: "Started resting",
		Match:       func(in Input) bool { return in.State == types.StateResting },
		Build:       func(in Input) *types.Prompt { return catalog.RestingEntry(in.Place) },
	},

	// === Into waiting (2) ===
	{
		ID:          "time_to_work",
		Description: "Rest is over, waiting at a facility",
		Match:       func(in Input) bool { return in.transition(types.StateResting, types.StateWaiting) },
		Build:       func(in Input) *types.Prompt { return catalog.TimeToWork(in.Place) },
	},
	{
		ID:          "waiting_entry",
		Description: "Arrived at a facility",
		Match:       func(in Input) bool { return in.State == types.StateWaiting },
		Build:       func(in Input) *types.Prompt { return catalog.WaitingEntry(in.Place) },
	},

	// === Into moving (6) ===
	{
		ID:          "drive_safe",
		Description: "Back on the road after resting",
		Match:       func(in Input) bool { return in.transition(types.StateResting, types.StateMoving) },
		Build:       func(Input) *types.Prompt { return catalog.DriveSafe() },
	},
	{
		ID:          "departed_far",
		Description: "Left a facility but reported too far away to trust the wait",
		Match: func(in Input) bool {
			return in.transition(types.StateWaiting, types.StateMoving) && !in.Context.IsNearby
		},
		Build: func(Input) *types.Prompt { return nil },
	},
	{
		ID:          "quick_turnaround",
		Description: "Short wait",
		Match: func(in Input) bool {
			return in.transition(types.StateWaiting, types.StateMoving) &&
				in.Context.Elapsed() < in.Thresholds.QuickTurnaroundSeconds
		},
		Build: func(in Input) *types.Prompt { return catalog.QuickTurnaround(in.Context.Elapsed(), in.Place) },
	},
	{
		ID:          "normal_turnaround",
		Description: "Ordinary wait",
		Match: func(in Input) bool {
			return in.transition(types.StateWaiting, types.StateMoving) &&
				in.Context.Elapsed() < in.Thresholds.DetentionSeconds
		},
		Build: func(in Input) *types.Prompt { return catalog.NormalTurnaround(in.Context.Elapsed(), in.Place) },
	},
	{
		ID:          "detention_payment",
		Description: "Wait long enough to qualify for detention pay",
		Match: func(in Input) bool {
			return in.transition(types.StateWaiting, types.StateMoving) &&
				in.Context.Elapsed() < in.Thresholds.LongDetentionSeconds
		},
		Build: func(in Input) *types.Prompt { return catalog.DetentionPayment(in.Context.Elapsed(), in.Place) },
	},
	{
		ID:          "detention_payment_long",
		Description: "Very long wait",
		Match:       func(in Input) bool { return in.transition(types.StateWaiting, types.StateMoving) },
		Build:       func(in Input) *types.Prompt { return catalog.DetentionPaymentLong(in.Context.Elapsed(), in.Place) },
	},

	// === Fallback (1) ===
	{
		ID:          NoMatchRuleID,
		Description: "No other rule applies",
		Match:       func(Input) bool { return true },
		Build:       func(Input) *types.Prompt { return nil },
	},
}

// NoMatchRuleID names the catch-all rule. It only fires for inputs with an
// unknown state.
const NoMatchRuleID = "no_match"
