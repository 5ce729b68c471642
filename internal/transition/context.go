// Package transition computes the context of a status transition: how long the
// actor spent in the previous state, how far they moved, and the flags the
// follow-up rules branch on.
package transition

import (
	"math"

	"github.com/matthewbaird/waypoint/internal/policy"
	"github.com/matthewbaird/waypoint/internal/types"
)

// EarthRadiusMiles is the mean earth radius used for great-circle distances.
const EarthRadiusMiles = 3959.0

// Context is the derived view of a report relative to the actor's previous record.
type Context struct {
	PrevState      types.State `json:"prev_status,omitempty"`
	ElapsedSeconds *int64      `json:"time_since_seconds,omitempty"`
	DistanceMiles  *float64    `json:"distance_miles,omitempty"`

	IsFirstReport  bool `json:"is_first_report"`
	IsReturning    bool `json:"is_returning"`
	IsSameState    bool `json:"is_same_state"`
	IsSameLocation bool `json:"is_same_location"`
	IsNearby       bool `json:"is_nearby"`
}

// Elapsed returns the elapsed seconds, or 0 for a first report.
func (c Context) Elapsed() int64 {
	if c.ElapsedSeconds == nil {
		return 0
	}
	return *c.ElapsedSeconds
}

// Distance returns the displacement, or 0 for a first report.
func (c Context) Distance() float64 {
	if c.DistanceMiles == nil {
		return 0
	}
	return *c.DistanceMiles
}

// Compute derives the context of report against prev, the actor's immediately
// preceding record (nil when the actor has never reported).
func Compute(prev *types.StatusUpdate, report types.Report, t policy.Thresholds) Context {
	if prev == nil {
		return Context{IsFirstReport: true}
	}

	elapsed := int64(report.ReportedAt.Sub(prev.ReportedAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	distance := DistanceMiles(prev.Coordinates, report.Coordinates)

	return Context{
		PrevState:      prev.State,
		ElapsedSeconds: &elapsed,
		DistanceMiles:  &distance,
		IsReturning:    elapsed >= t.ReturningAfterSeconds,
		IsSameState:    prev.State == report.State,
		IsSameLocation: distance < t.SameLocationMiles,
		IsNearby:       distance < NearbyThreshold(prev.State, report.State, t),
	}
}

// NearbyThreshold returns the "nearby" radius for a transition. Leaving a
// waiting spot to rest uses the wider rest radius; every other pair uses the
// detention radius.
func NearbyThreshold(from, to types.State, t policy.Thresholds) float64 {
	if from == types.StateWaiting && to == types.StateResting {
		return t.RestNearbyMiles
	}
	return t.DetentionNearbyMiles
}

// DistanceMiles is the haversine distance between a and b.
func DistanceMiles(a, b types.Coordinates) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
