package followup

import (
	"github.com/matthewbaird/waypoint/internal/catalog"
	"github.com/matthewbaird/waypoint/internal/policy"
	"github.com/matthewbaird/waypoint/internal/transition"
	"github.com/matthewbaird/waypoint/internal/types"
)

// Input is everything a rule may look at.
type Input struct {
	State      types.State
	Context    transition.Context
	Place      catalog.Place
	Thresholds policy.Thresholds
}

func (in Input) checkin(s types.State) bool {
	return in.Context.IsSameState && in.State == s
}

func (in Input) transition(from, to types.State) bool {
	return !in.Context.IsSameState && in.Context.PrevState == from && in.State == to
}

// Outcome is the result of classification. Prompt is nil for an explicit
// "no prompt" outcome.
type Outcome struct {
	RuleID string
	Prompt *types.Prompt
}

// Category returns the selected category, or "" when no prompt was chosen.
func (o Outcome) Category() types.Category {
	if o.Prompt == nil {
		return ""
	}
	return o.Prompt.Category
}

// Classify runs the decision table against in.
func Classify(in Input) Outcome {
	for _, r := range Rules {
		if r.Match(in) {
			return Outcome{RuleID: r.ID, Prompt: r.Build(in)}
		}
	}
	// Unreachable: the last rule always matches.
	return Outcome{RuleID: NoMatchRuleID}
}
