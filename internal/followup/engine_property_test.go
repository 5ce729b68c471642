package followup

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matthewbaird/waypoint/internal/policy"
	"github.com/matthewbaird/waypoint/internal/transition"
	"github.com/matthewbaird/waypoint/internal/types"
)

// input builds a classification input from generated primitives. prevIdx 3
// means the actor has no prior record.
func input(prevIdx, stateIdx int, elapsed int64, miles float64) Input {
	th := policy.Default()
	state := types.AllStates[stateIdx]
	r := types.Report{
		State:       state,
		Coordinates: offset(siteA, miles),
		ReportedAt:  t0.Add(time.Duration(elapsed) * time.Second),
	}
	var prev *types.StatusUpdate
	if prevIdx < len(types.AllStates) {
		prev = prevAt(types.AllStates[prevIdx], siteA)
	}
	return Input{State: state, Context: transition.Compute(prev, r, th), Thresholds: th}
}

func TestClassifyProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	primary := map[types.Category]bool{}
	for _, c := range types.PrimaryCategories {
		primary[c] = true
	}

	properties.Property("classification is deterministic", prop.ForAll(
		func(prevIdx, stateIdx int, elapsed int64, miles float64) bool {
			in := input(prevIdx, stateIdx, elapsed, miles)
			return reflect.DeepEqual(Classify(in), Classify(in))
		},
		gen.IntRange(0, 3),
		gen.IntRange(0, 2),
		gen.Int64Range(0, 60*24*60*60),
		gen.Float64Range(0, 500),
	))

	properties.Property("every valid input reaches a real rule", prop.ForAll(
		func(prevIdx, stateIdx int, elapsed int64, miles float64) bool {
			out := Classify(input(prevIdx, stateIdx, elapsed, miles))
			if out.RuleID == NoMatchRuleID {
				return false
			}
			if out.Prompt == nil {
				return out.RuleID == "departed_far"
			}
			return primary[out.Prompt.Category]
		},
		gen.IntRange(0, 3),
		gen.IntRange(0, 2),
		gen.Int64Range(0, 60*24*60*60),
		gen.Float64Range(0, 500),
	))

	properties.Property("first reports always prompt", prop.ForAll(
		func(stateIdx int, miles float64) bool {
			out := Classify(input(3, stateIdx, 0, miles))
			return out.RuleID == "first_report" && out.Prompt != nil
		},
		gen.IntRange(0, 2),
		gen.Float64Range(0, 500),
	))

	properties.TestingRun(t)
}
