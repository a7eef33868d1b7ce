// Package overlay turns a dataset snapshot into map circles: one feature per
// state with a centre, a scaled radius, a fill colour and popup details.
package overlay

import (
	"math"
	"strings"

	"github.com/couchcryptid/sterileloop/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// AllStates disables the single-state filter.
const AllStates = "All"

// View selects what to draw. Year 0 draws all-years totals, as does a year the
// dataset has never seen. State "" or AllStates draws every state.
type View struct {
	Year  int
	State string
}

// Popup is the detail shown when a circle is selected.
type Popup struct {
	State       string  `json:"state"`
	TotalKg     float64 `json:"total_kg"`
	TotalLbs    float64 `json:"total_lbs"`
	TopCompound string  `json:"top_compound,omitempty"`
	TopYear     int     `json:"top_year,omitempty"`
}

// Feature is one drawable state circle.
type Feature struct {
	State  string        `json:"state"`
	Center domain.LatLng `json:"center"`
	Value  float64       `json:"value"`
	Radius float64       `json:"radius"`
	Color  domain.Color  `json:"color"`
	Popup  Popup         `json:"popup"`
}

// Build draws a view of the snapshot. Non-positive values are dropped, the
// colour and radius maximum is taken over the whole view before the state
// filter, and states without a centroid are skipped. Features are ordered by
// descending value so larger circles are drawn first.
func Build(snap domain.Snapshot, view View, scale domain.Scale) []Feature {
	ds := snap.Dataset
	var values map[string]float64
	if view.Year != 0 && ds.Years.Has(view.Year) {
		values = ds.YearTotals(view.Year)
	} else {
		values = ds.StateTotals()
	}

	var maxValue float64
	for _, v := range values {
		if v > 0 {
			maxValue = math.Max(maxValue, v)
		}
	}

	var out []Feature
	for _, sv := range domain.RankValues(values, 0) {
		if sv.Value <= 0 {
			continue
		}
		center, ok := snap.Centroids[sv.State]
		if !ok {
			continue
		}
		if !matchesState(view.State, sv.State) {
			continue
		}
		out = append(out, Feature{
			State:  sv.State,
			Center: center,
			Value:  sv.Value,
			Radius: scale.Radius(sv.Value, maxValue),
			Color:  domain.ColorFor(sv.Value, maxValue),
			Popup:  popup(ds, sv),
		})
	}
	return out
}

func matchesState(filter, state string) bool {
	return filter == "" || filter == AllStates || strings.EqualFold(filter, state)
}

func popup(ds domain.Dataset, sv domain.StateValue) Popup {
	p := Popup{
		State:    sv.State,
		TotalKg:  math.Round(sv.Value),
		TotalLbs: math.Round(sv.Value * domain.LbsPerKg),
	}
	if d, ok := ds.Detail(sv.State); ok {
		p.TopCompound = d.TopCompound
		p.TopYear = d.TopYear
	}
	return p
}

// FeatureCollection encodes features as GeoJSON points. Radius units follow
// the scale the features were built with.
func FeatureCollection(features []Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		gf := geojson.NewFeature(orb.Point{f.Center.Lng, f.Center.Lat})
		gf.ID = f.State
		gf.Properties["state"] = f.State
		gf.Properties["value"] = f.Value
		gf.Properties["radius"] = f.Radius
		gf.Properties["color"] = f.Color.String()
		gf.Properties["total_lbs"] = f.Popup.TotalLbs
		if f.Popup.TopCompound != "" {
			gf.Properties["top_compound"] = f.Popup.TopCompound
		}
		if f.Popup.TopYear != 0 {
			gf.Properties["top_year"] = f.Popup.TopYear
		}
		fc.Append(gf)
	}
	return fc
}
