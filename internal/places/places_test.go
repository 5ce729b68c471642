package places

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/waypoint/internal/store"
	"github.com/matthewbaird/waypoint/internal/types"
)

var dock = types.Coordinates{Latitude: 36.7378, Longitude: -119.7871}

func north(c types.Coordinates, miles float64) types.Coordinates {
	return types.Coordinates{Latitude: c.Latitude + miles/69.05, Longitude: c.Longitude}
}

func TestFacilityResolver_NearestWithinRadius(t *testing.T) {
	ctx := context.Background()
	fs := store.NewMemoryStore()
	require.NoError(t, fs.AddFacility(ctx, store.Facility{ID: "a", Name: "Sysco Fresno", Coordinates: dock}))
	require.NoError(t, fs.AddFacility(ctx, store.Facility{ID: "b", Name: "Pilot Travel Center", Coordinates: north(dock, 0.2)}))

	r := NewFacilityResolver(fs)

	p, err := r.Resolve(ctx, north(dock, 0.05))
	require.NoError(t, err)
	name, ok := p.Name()
	assert.True(t, ok)
	assert.Equal(t, "Sysco Fresno", name)

	p, err = r.Resolve(ctx, north(dock, 0.18))
	require.NoError(t, err)
	name, _ = p.Name()
	assert.Equal(t, "Pilot Travel Center", name)
}

func TestFacilityResolver_NothingNearby(t *testing.T) {
	ctx := context.Background()
	fs := store.NewMemoryStore()
	require.NoError(t, fs.AddFacility(ctx, store.Facility{ID: "a", Name: "Sysco Fresno", Coordinates: dock}))

	p, err := NewFacilityResolver(fs).Resolve(ctx, north(dock, 1))
	require.NoError(t, err)
	_, ok := p.Name()
	assert.False(t, ok)
}

type failingFacilities struct{ store.FacilityStore }

func (failingFacilities) FacilitiesIn(context.Context, store.Box) ([]store.Facility, error) {
	return nil, errors.New("db down")
}

func TestFacilityResolver_PropagatesLookupErrors(t *testing.T) {
	_, err := NewFacilityResolver(failingFacilities{}).Resolve(context.Background(), dock)
	assert.Error(t, err)
}

func TestBoundingBox(t *testing.T) {
	box := BoundingBox(dock, 0.3)
	assert.True(t, box.Contains(dock))
	assert.True(t, box.Contains(north(dock, 0.29)))
	assert.False(t, box.Contains(north(dock, 0.5)))
	assert.Greater(t, box.MaxLon-box.MinLon, box.MaxLat-box.MinLat, "longitude span widens away from the equator")
}

func TestStatic(t *testing.T) {
	p, err := Static{Name: "Yard 7"}.Resolve(context.Background(), dock)
	require.NoError(t, err)
	name, ok := p.Name()
	assert.True(t, ok)
	assert.Equal(t, "Yard 7", name)

	p, _ = Static{}.Resolve(context.Background(), dock)
	_, ok = p.Name()
	assert.False(t, ok)
}
