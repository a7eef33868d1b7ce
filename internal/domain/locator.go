package domain

import (
	"math"
	"slices"

	"github.com/jftuga/geodist"
	"github.com/paulmach/orb"
)

// DefaultNearestCount is used when a caller asks for a non-positive count.
const DefaultNearestCount = 5

// StateProviderRadiusKm bounds the "providers in this state" view around a state centroid.
const StateProviderRadiusKm = 250

// LatLng is a WGS84 coordinate in decimal degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both coordinates are finite.
func (p LatLng) Valid() bool {
	return isFinite(p.Lat) && isFinite(p.Lng)
}

// Point converts to an orb point (longitude first).
func (p LatLng) Point() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// GeoProvider is a service provider location. Lat or Lng may be NaN when the
// source row had unparseable coordinates.
type GeoProvider struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Services []string `json:"services,omitempty"`
	Contact  string   `json:"contact,omitempty"`
}

// Location returns the provider's coordinate.
func (g GeoProvider) Location() LatLng {
	return LatLng{Lat: g.Lat, Lng: g.Lng}
}

// RankedProvider is a provider annotated with its distance from a query origin.
type RankedProvider struct {
	Provider   GeoProvider `json:"provider"`
	DistanceKm float64     `json:"distance_km"`
}

// HaversineKm returns the great-circle distance in kilometres on a sphere of
// radius 6371 km. Any non-finite coordinate yields +Inf.
func HaversineKm(a, b LatLng) float64 {
	if !a.Valid() || !b.Valid() {
		return math.Inf(1)
	}
	_, km := geodist.HaversineDistance(
		geodist.Coord{Lat: a.Lat, Lon: a.Lng},
		geodist.Coord{Lat: b.Lat, Lon: b.Lng},
	)
	return km
}

// Nearest ranks providers by distance from origin and returns the closest
// min(count, len(providers)). Ties keep input order. Providers with non-finite
// coordinates carry +Inf and sort last. A non-positive count means DefaultNearestCount.
func Nearest(origin LatLng, providers []GeoProvider, count int) []RankedProvider {
	if count <= 0 {
		count = DefaultNearestCount
	}
	ranked := rank(origin, providers)
	if len(ranked) > count {
		ranked = ranked[:count]
	}
	return ranked
}

// WithinRadius returns providers no further than km from center, nearest first.
func WithinRadius(center LatLng, providers []GeoProvider, km float64) []RankedProvider {
	ranked := rank(center, providers)
	cut := len(ranked)
	for i, r := range ranked {
		if r.DistanceKm > km {
			cut = i
			break
		}
	}
	return ranked[:cut]
}

// Viewport returns the smallest bound covering origin and every ranked
// provider with finite coordinates.
func Viewport(origin LatLng, ranked []RankedProvider) orb.Bound {
	b := origin.Point().Bound()
	for _, r := range ranked {
		if loc := r.Provider.Location(); loc.Valid() {
			b = b.Extend(loc.Point())
		}
	}
	return b
}

func rank(origin LatLng, providers []GeoProvider) []RankedProvider {
	ranked := make([]RankedProvider, len(providers))
	for i, p := range providers {
		ranked[i] = RankedProvider{Provider: p, DistanceKm: HaversineKm(origin, p.Location())}
	}
	slices.SortStableFunc(ranked, func(a, b RankedProvider) int {
		switch {
		case a.DistanceKm < b.DistanceKm:
			return -1
		case a.DistanceKm > b.DistanceKm:
			return 1
		default:
			return 0
		}
	})
	return ranked
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
