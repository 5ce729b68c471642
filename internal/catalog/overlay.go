package catalog

import (
	"github.com/matthewbaird/waypoint/internal/types"
)

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return str(s)
}

// ConditionsAlert is the three-way safety check shown to a moving actor under
// a severe alert.
func ConditionsAlert(emoji, event, headline string) *types.Prompt {
	return &types.Prompt{
		Category: types.CategoryConditionsAlert,
		Text:     emoji + " " + event,
		SubText:  optionalText(headline),
		Options: []types.PromptOption{
			option("👍", "I'm safe", "safe"),
			option("⚠️", "Pulling over", "stopping"),
			option("🏠", "Already stopped", "stopped"),
		},
		Skippable: true,
	}
}

// ConditionsRoadCheck asks how the roads look.
func ConditionsRoadCheck(summary string) *types.Prompt {
	return &types.Prompt{
		Category: types.CategoryConditionsRoadCheck,
		Text:     "Roads okay out there?",
		SubText:  optionalText(summary),
		Options: []types.PromptOption{
			option("👍", "All good", "good"),
			option("😬", "Sketchy", "bad"),
			option("⚠️", "Dangerous", "dangerous"),
		},
		Skippable: true,
	}
}

// ConditionsStaySafe tells a resting actor to sit tight.
func ConditionsStaySafe(summary string) *types.Prompt {
	return &types.Prompt{
		Category:           types.CategoryConditionsStaySafe,
		Text:               "Storm nearby. Stay safe!",
		SubText:            optionalText(summary),
		Options:            acknowledge("Will do"),
		Skippable:          true,
		AutoDismissSeconds: seconds(3),
	}
}

// ConditionsClear is the positive acknowledgment when nothing significant is active.
func ConditionsClear(state types.State) *types.Prompt {
	text, sub := "Weather looking good! 🌤️", "Enjoy your rest"
	switch state {
	case types.StateMoving:
		text, sub = "Clear skies ahead! ☀️", "Good driving weather"
	case types.StateWaiting:
		text, sub = "Nice weather today! 🌤️", "Good conditions"
	}
	return &types.Prompt{
		Category:           types.CategoryConditionsClear,
		Text:               text,
		SubText:            str(sub),
		Options:            acknowledge("Thanks"),
		Skippable:          true,
		AutoDismissSeconds: seconds(3),
	}
}
