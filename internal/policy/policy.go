// Package policy loads the classification thresholds. The defaults and their
// constraints live in policy.cue; deployments may unify an override file on top.
package policy

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed policy.cue
var defaultSource []byte

// Defaults mirrored from policy.cue.
const (
	DefaultSameLocationMiles        = 0.5
	DefaultRestNearbyMiles          = 15.0
	DefaultDetentionNearbyMiles     = 10.0
	DefaultReturningAfterSeconds    = 24 * 60 * 60
	DefaultRestCheckinLongSeconds   = 2 * 60 * 60
	DefaultFacilityDetentionSeconds = 2 * 60 * 60
	DefaultQuickTurnaroundSeconds   = 60 * 60
	DefaultDetentionSeconds         = 2 * 60 * 60
	DefaultLongDetentionSeconds     = 4 * 60 * 60
)

// Thresholds parameterizes the context calculator and the follow-up rules.
type Thresholds struct {
	SameLocationMiles        float64 `json:"same_location_miles"`
	RestNearbyMiles          float64 `json:"rest_nearby_miles"`
	DetentionNearbyMiles     float64 `json:"detention_nearby_miles"`
	ReturningAfterSeconds    int64   `json:"returning_after_seconds"`
	RestCheckinLongSeconds   int64   `json:"rest_checkin_long_seconds"`
	FacilityDetentionSeconds int64   `json:"facility_detention_seconds"`
	QuickTurnaroundSeconds   int64   `json:"quick_turnaround_seconds"`
	DetentionSeconds         int64   `json:"detention_seconds"`
	LongDetentionSeconds     int64   `json:"long_detention_seconds"`
}

// Default returns the built-in thresholds without going through CUE.
func Default() Thresholds {
	return Thresholds{
		SameLocationMiles:        DefaultSameLocationMiles,
		RestNearbyMiles:          DefaultRestNearbyMiles,
		DetentionNearbyMiles:     DefaultDetentionNearbyMiles,
		ReturningAfterSeconds:    DefaultReturningAfterSeconds,
		RestCheckinLongSeconds:   DefaultRestCheckinLongSeconds,
		FacilityDetentionSeconds: DefaultFacilityDetentionSeconds,
		QuickTurnaroundSeconds:   DefaultQuickTurnaroundSeconds,
		DetentionSeconds:         DefaultDetentionSeconds,
		LongDetentionSeconds:     DefaultLongDetentionSeconds,
	}
}

// Load compiles the embedded policy, unifies it with override (which may be
// empty) and decodes the concrete result.
func Load(override []byte) (Thresholds, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(defaultSource, cue.Filename("policy.cue"))
	if err := v.Err(); err != nil {
		return Thresholds{}, fmt.Errorf("compiling default policy: %w", err)
	}
	if len(override) > 0 {
		o := ctx.CompileBytes(override, cue.Filename("override.cue"))
		if err := o.Err(); err != nil {
			return Thresholds{}, fmt.Errorf("compiling policy override: %w", err)
		}
		v = v.Unify(o)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Thresholds{}, fmt.Errorf("validating policy: %w", err)
	}
	var t Thresholds
	if err := v.Decode(&t); err != nil {
		return Thresholds{}, fmt.Errorf("decoding policy: %w", err)
	}
	if err := t.validate(); err != nil {
		return Thresholds{}, err
	}
	return t, nil
}

// validate enforces the bracket ordering of the waiting -> moving buckets.
func (t Thresholds) validate() error {
	if t.QuickTurnaroundSeconds >= t.DetentionSeconds {
		return fmt.Errorf("validating policy: quick_turnaround_seconds (%d) must be below detention_seconds (%d)",
			t.QuickTurnaroundSeconds, t.DetentionSeconds)
	}
	if t.DetentionSeconds >= t.LongDetentionSeconds {
		return fmt.Errorf("validating policy: detention_seconds (%d) must be below long_detention_seconds (%d)",
			t.DetentionSeconds, t.LongDetentionSeconds)
	}
	return nil
}

// LoadFile is Load with the override read from path. An empty path loads the
// defaults.
func LoadFile(path string) (Thresholds, error) {
	if path == "" {
		return Load(nil)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Thresholds{}, fmt.Errorf("reading policy file: %w", err)
	}
	return Load(b)
}
