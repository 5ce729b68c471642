package transition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/waypoint/internal/policy"
	"github.com/matthewbaird/waypoint/internal/types"
)

var (
	t0     = time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	madera = types.Coordinates{Latitude: 36.9960, Longitude: -120.0968}
)

// north moves a point roughly miles statute miles due north.
func north(c types.Coordinates, miles float64) types.Coordinates {
	return types.Coordinates{Latitude: c.Latitude + miles/69.05, Longitude: c.Longitude}
}

func prior(state types.State, at time.Time, c types.Coordinates) *types.StatusUpdate {
	return &types.StatusUpdate{ID: "prev", State: state, ReportedAt: at, Coordinates: c}
}

func report(state types.State, at time.Time, c types.Coordinates) types.Report {
	return types.Report{State: state, ReportedAt: at, Coordinates: c}
}

func TestCompute_FirstReport(t *testing.T) {
	ctx := Compute(nil, report(types.StateResting, t0, madera), policy.Default())
	assert.True(t, ctx.IsFirstReport)
	assert.Nil(t, ctx.ElapsedSeconds)
	assert.Nil(t, ctx.DistanceMiles)
	assert.False(t, ctx.IsReturning)
	assert.False(t, ctx.IsSameState)
}

func TestCompute_ElapsedAndDistance(t *testing.T) {
	ctx := Compute(
		prior(types.StateWaiting, t0, madera),
		report(types.StateResting, t0.Add(2*time.Hour+30*time.Minute), north(madera, 8)),
		policy.Default(),
	)
	require.NotNil(t, ctx.ElapsedSeconds)
	require.NotNil(t, ctx.DistanceMiles)
	assert.Equal(t, int64(9000), *ctx.ElapsedSeconds)
	assert.InDelta(t, 8.0, *ctx.DistanceMiles, 0.1)
	assert.Equal(t, types.StateWaiting, ctx.PrevState)
	assert.False(t, ctx.IsSameLocation)
	assert.True(t, ctx.IsNearby, "8 mi is inside the 15 mi rest radius")
}

func TestCompute_NearbyDependsOnTransition(t *testing.T) {
	far := north(madera, 12)
	toRest := Compute(prior(types.StateWaiting, t0, madera), report(types.StateResting, t0.Add(time.Hour), far), policy.Default())
	toMove := Compute(prior(types.StateWaiting, t0, madera), report(types.StateMoving, t0.Add(time.Hour), far), policy.Default())
	assert.True(t, toRest.IsNearby)
	assert.False(t, toMove.IsNearby)
}

func TestCompute_ReturningIsInclusive(t *testing.T) {
	ctx := Compute(prior(types.StateMoving, t0, madera), report(types.StateMoving, t0.Add(24*time.Hour), madera), policy.Default())
	assert.True(t, ctx.IsReturning)

	ctx = Compute(prior(types.StateMoving, t0, madera), report(types.StateMoving, t0.Add(24*time.Hour-time.Second), madera), policy.Default())
	assert.False(t, ctx.IsReturning)
}

func TestCompute_SameStateSameLocation(t *testing.T) {
	ctx := Compute(prior(types.StateResting, t0, madera), report(types.StateResting, t0.Add(time.Minute), north(madera, 0.1)), policy.Default())
	assert.True(t, ctx.IsSameState)
	assert.True(t, ctx.IsSameLocation)
}

func TestCompute_SameLocationIsExclusive(t *testing.T) {
	th := policy.Default()
	require.Equal(t, 0.5, th.SameLocationMiles)

	ctx := Compute(prior(types.StateWaiting, t0, madera), report(types.StateMoving, t0.Add(time.Hour), north(madera, 0.49)), th)
	assert.True(t, ctx.IsSameLocation, "0.49 mi is the same location")
	ctx = Compute(prior(types.StateWaiting, t0, madera), report(types.StateMoving, t0.Add(time.Hour), north(madera, 0.51)), th)
	assert.False(t, ctx.IsSameLocation, "0.51 mi is a new location")

	// Exactly on the threshold is not the same location.
	to := north(madera, 0.5)
	th.SameLocationMiles = DistanceMiles(madera, to)
	ctx = Compute(prior(types.StateWaiting, t0, madera), report(types.StateMoving, t0.Add(time.Hour), to), th)
	assert.False(t, ctx.IsSameLocation)
}

func TestCompute_ClampsClockSkew(t *testing.T) {
	ctx := Compute(prior(types.StateMoving, t0, madera), report(types.StateWaiting, t0.Add(-time.Minute), madera), policy.Default())
	require.NotNil(t, ctx.ElapsedSeconds)
	assert.Equal(t, int64(0), *ctx.ElapsedSeconds)
}

func TestDistanceMiles(t *testing.T) {
	assert.InDelta(t, 0, DistanceMiles(madera, madera), 1e-9)

	// Fresno to Madera is about 25 miles as the crow flies.
	fresno := types.Coordinates{Latitude: 36.7378, Longitude: -119.7871}
	assert.InDelta(t, 24.9, DistanceMiles(madera, fresno), 1.5)
}

func TestNearbyThreshold(t *testing.T) {
	th := policy.Default()
	assert.Equal(t, 15.0, NearbyThreshold(types.StateWaiting, types.StateResting, th))
	assert.Equal(t, 10.0, NearbyThreshold(types.StateWaiting, types.StateMoving, th))
	assert.Equal(t, 10.0, NearbyThreshold(types.StateMoving, types.StateResting, th))
}
