package catalog

import (
	"fmt"

	"github.com/matthewbaird/waypoint/internal/types"
)

// FirstReportMoving welcomes a first-time actor who is on the road.
func FirstReportMoving() *types.Prompt {
	opts := acknowledge("Thanks")
	opts[0].Description = "Other drivers nearby can now see you moving"
	return &types.Prompt{
		Category:           types.CategoryFirstReportMoving,
		Text:               welcomeText,
		SubText:            str(onTheMap),
		Options:            opts,
		Skippable:          true,
		AutoDismissSeconds: seconds(3),
	}
}

// FirstReportWaiting welcomes a first-time actor and asks about facility flow.
func FirstReportWaiting(place Place) *types.Prompt {
	opts := flowOptions("Just got here")
	opts[0].Description = "Help others know what to expect here"
	return &types.Prompt{
		Category:  types.CategoryFirstReportWaiting,
		Text:      welcomeText,
		SubText:   str(flowQuestion + place.at()),
		Options:   opts,
		Skippable: true,
	}
}

// FirstReportResting welcomes a first-time actor and asks about the spot.
func FirstReportResting() *types.Prompt {
	opts := spotOptions()
	opts[0].Description = "Your input helps other drivers find safe spots"
	return &types.Prompt{
		Category:  types.CategoryFirstReportResting,
		Text:      welcomeText,
		SubText:   str(spotQuestion),
		Options:   opts,
		Skippable: true,
	}
}

// Returning greets an actor back after a long absence, with the entry question
// for state.
func Returning(state types.State, daysAway int64, place Place) *types.Prompt {
	greeting := ReturningGreeting(daysAway)
	switch state {
	case types.StateResting:
		return &types.Prompt{
			Category:  types.CategoryReturningResting,
			Text:      greeting,
			SubText:   str(spotQuestion),
			Options:   spotOptions(),
			Skippable: true,
		}
	case types.StateWaiting:
		return &types.Prompt{
			Category:  types.CategoryReturningWaiting,
			Text:      greeting,
			SubText:   str(flowQuestion + place.at()),
			Options:   flowOptions("Just got here"),
			Skippable: true,
		}
	}
	return &types.Prompt{
		Category:           types.CategoryReturningMoving,
		Text:               greeting + " 🚛",
		SubText:            str(onTheMap),
		Options:            acknowledge("Thanks"),
		Skippable:          true,
		AutoDismissSeconds: seconds(3),
	}
}

// CheckinRestingShort acknowledges a location refresh during a short rest.
func CheckinRestingShort() *types.Prompt {
	return &types.Prompt{
		Category:           types.CategoryCheckinRestingShort,
		Text:               updatedText,
		Options:            acknowledge("OK"),
		Skippable:          true,
		AutoDismissSeconds: seconds(2),
	}
}

// CheckinRestingLong re-asks about the spot after a long rest.
func CheckinRestingLong() *types.Prompt {
	opts := spotOptions()
	opts[0].Description = "Things can change. Lots get sketchy at night"
	return &types.Prompt{
		Category:  types.CategoryCheckinRestingLong,
		Text:      "Still here? Spot still good?",
		Options:   opts,
		Skippable: true,
	}
}

// CheckinWaiting re-asks about facility flow.
func CheckinWaiting() *types.Prompt {
	return &types.Prompt{
		Category: types.CategoryCheckinWaiting,
		Text:     "Still waiting. How's it now?",
		Options: []types.PromptOption{
			{Emoji: "🏃", Label: "Moving now", Value: "moving", Description: "Facility flow changes over time"},
			option("🐢", "Slow", "slow"),
			option("🧊", "Still dead", "dead"),
		},
		Skippable: true,
	}
}

// CheckinMoving acknowledges a location refresh on the road.
func CheckinMoving() *types.Prompt {
	return &types.Prompt{
		Category:           types.CategoryCheckinMoving,
		Text:               updatedText,
		Options:            acknowledge("OK"),
		Skippable:          true,
		AutoDismissSeconds: seconds(1),
	}
}

// RestingEntry asks about the spot on arrival.
func RestingEntry(place Place) *types.Prompt {
	return &types.Prompt{
		Category:  types.CategoryRestingEntry,
		Text:      spotQuestion,
		SubText:   place.sub(),
		Options:   spotOptions(),
		Skippable: true,
	}
}

// WaitingEntry asks about facility flow on arrival.
func WaitingEntry(place Place) *types.Prompt {
	return &types.Prompt{
		Category:  types.CategoryWaitingEntry,
		Text:      flowQuestion,
		SubText:   place.sub(),
		Options:   flowOptions("Just got here"),
		Skippable: true,
	}
}

// TimeToWork asks about facility flow after a rest.
func TimeToWork(place Place) *types.Prompt {
	return &types.Prompt{
		Category:  types.CategoryTimeToWork,
		Text:      "Time to work! " + flowQuestion,
		SubText:   place.sub(),
		Options:   flowOptions("Just started"),
		Skippable: true,
	}
}

// DriveSafe sends the actor off after a rest.
func DriveSafe() *types.Prompt {
	return &types.Prompt{
		Category:           types.CategoryDriveSafe,
		Text:               "Drive safe! 🚛",
		Options:            acknowledge("Thanks"),
		Skippable:          true,
		AutoDismissSeconds: seconds(2),
	}
}

// QuickTurnaround acknowledges a short wait.
func QuickTurnaround(elapsed int64, place Place) *types.Prompt {
	return &types.Prompt{
		Category:           types.CategoryQuickTurnaround,
		Text:               "That was quick! 🙌",
		SubText:            str(FormatDuration(elapsed) + place.at()),
		Options:            []types.PromptOption{option("👍", "Nice", "positive")},
		Skippable:          true,
		AutoDismissSeconds: seconds(2),
	}
}

// NormalTurnaround acknowledges an ordinary wait.
func NormalTurnaround(elapsed int64, place Place) *types.Prompt {
	return &types.Prompt{
		Category:           types.CategoryNormalTurnaround,
		Text:               "Not bad! Drive safe 🚛",
		SubText:            str(FormatDuration(elapsed) + place.at()),
		Options:            acknowledge("Thanks"),
		Skippable:          true,
		AutoDismissSeconds: seconds(2),
	}
}

// DetentionPayment asks whether a long wait is being paid.
func DetentionPayment(elapsed int64, place Place) *types.Prompt {
	return &types.Prompt{
		Category: types.CategoryDetentionPayment,
		Text:     fmt.Sprintf("%s. Getting paid for that?", FormatDuration(elapsed)),
		SubText:  place.sub(),
		Options: []types.PromptOption{
			option("💰", "Yep", "paid"),
			option("😤", "Nope", "unpaid"),
			option("🤷", "TBD", "unknown"),
		},
		Skippable: true,
	}
}

// DetentionPaymentLong asks the same about a very long wait.
func DetentionPaymentLong(elapsed int64, place Place) *types.Prompt {
	return &types.Prompt{
		Category: types.CategoryDetentionPaymentLong,
		Text:     fmt.Sprintf("%s. Brutal. Detention pay?", FormatDuration(elapsed)),
		SubText:  place.sub(),
		Options: []types.PromptOption{
			option("💰", "Yeah", "paid"),
			option("🖕", "Hell no", "unpaid"),
			option("🤷", "Fighting for it", "disputed"),
		},
		Skippable: true,
	}
}

// CallingItANight checks a waiting -> resting report made without moving.
// Answering types.StillWaitingValue rewinds the report.
func CallingItANight() *types.Prompt {
	return &types.Prompt{
		Category: types.CategoryCallingItANight,
		Text:     "Calling it a night?",
		Options: []types.PromptOption{
			option("😴", "Yep, done", "sleeping"),
			option("⏳", "Still waiting", types.StillWaitingValue),
		},
		Skippable: true,
	}
}

// DoneAtFacility asks about detention pay after leaving a facility to rest nearby.
func DoneAtFacility(elapsed int64, place Place) *types.Prompt {
	text := "Done for the day. Getting paid for the wait?"
	if name, ok := place.Name(); ok {
		text = fmt.Sprintf("Done at %s. Getting paid for the wait?", name)
	}
	return &types.Prompt{
		Category: types.CategoryDoneAtFacility,
		Text:     text,
		SubText:  str(FormatDuration(elapsed) + place.at()),
		Options: []types.PromptOption{
			option("💰", "Yep", "paid"),
			option("😤", "Nope", "unpaid"),
		},
		Skippable: true,
	}
}
