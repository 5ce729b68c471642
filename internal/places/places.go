// Package places resolves coordinates to a short place label.
package places

import (
	"context"
	"math"

	"github.com/matthewbaird/waypoint/internal/catalog"
	"github.com/matthewbaird/waypoint/internal/store"
	"github.com/matthewbaird/waypoint/internal/transition"
	"github.com/matthewbaird/waypoint/internal/types"
)

// Resolver returns a place for coordinates. An unresolved place is the zero
// catalog.Place with a nil error; errors mean the lookup itself failed.
type Resolver interface {
	Resolve(ctx context.Context, at types.Coordinates) (catalog.Place, error)
}

// DefaultFacilityRadiusMiles is how close a report must be to a facility to
// take its name.
const DefaultFacilityRadiusMiles = 0.3

// FacilityResolver names a report after the nearest registered facility
// within the radius. Candidates are prefiltered with a bounding box.
type FacilityResolver struct {
	Facilities  store.FacilityStore
	RadiusMiles float64
}

// NewFacilityResolver creates a resolver with the default radius.
func NewFacilityResolver(fs store.FacilityStore) *FacilityResolver {
	return &FacilityResolver{Facilities: fs, RadiusMiles: DefaultFacilityRadiusMiles}
}

func (r *FacilityResolver) Resolve(ctx context.Context, at types.Coordinates) (catalog.Place, error) {
	radius := r.RadiusMiles
	if radius <= 0 {
		radius = DefaultFacilityRadiusMiles
	}

	candidates, err := r.Facilities.FacilitiesIn(ctx, BoundingBox(at, radius))
	if err != nil {
		return catalog.Place{}, err
	}

	var (
		best     store.Facility
		bestDist = math.Inf(1)
	)
	for _, f := range candidates {
		d := transition.DistanceMiles(at, f.Coordinates)
		if d <= radius && d < bestDist {
			best, bestDist = f, d
		}
	}
	if math.IsInf(bestDist, 1) {
		return catalog.Place{}, nil
	}
	return catalog.NamedPlace(best.Name), nil
}

// BoundingBox returns a box that contains every point within miles of c.
func BoundingBox(c types.Coordinates, miles float64) store.Box {
	const milesPerDegree = 69.0
	dLat := miles / milesPerDegree
	cosLat := math.Cos(c.Latitude * math.Pi / 180)
	dLon := 180.0
	if cosLat > 1e-6 {
		dLon = math.Min(180, miles/(milesPerDegree*cosLat))
	}
	return store.Box{
		MinLat: c.Latitude - dLat,
		MaxLat: c.Latitude + dLat,
		MinLon: c.Longitude - dLon,
		MaxLon: c.Longitude + dLon,
	}
}

// Static resolves every location to the same label. An empty Name resolves
// nothing.
type Static struct {
	Name string
}

func (s Static) Resolve(context.Context, types.Coordinates) (catalog.Place, error) {
	return catalog.NamedPlace(s.Name), nil
}
