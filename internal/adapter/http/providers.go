package http

import (
	"math"
	"net/http"
	"strings"

	"github.com/couchcryptid/sterileloop/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/paulmach/orb"
)

// providerDTO mirrors domain.GeoProvider with coordinates that may be null,
// since a provider row with unparseable coordinates carries NaN.
type providerDTO struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Services []string `json:"services,omitempty"`
	Contact  string   `json:"contact,omitempty"`
}

// rankedDTO carries a null distance for providers that cannot be located.
type rankedDTO struct {
	providerDTO
	DistanceKm *float64 `json:"distance_km"`
}

type boundDTO struct {
	Min orb.Point `json:"min"` // [lng, lat]
	Max orb.Point `json:"max"`
}

type nearestResponse struct {
	Origin    domain.LatLng `json:"origin"`
	Address   string        `json:"address,omitempty"`
	Providers []rankedDTO   `json:"providers"`
	Viewport  boundDTO      `json:"viewport"`
}

type stateProvidersResponse struct {
	State     string        `json:"state"`
	Center    domain.LatLng `json:"center"`
	RadiusKm  float64       `json:"radius_km"`
	Providers []rankedDTO   `json:"providers"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func newProviderDTO(p domain.GeoProvider) providerDTO {
	return providerDTO{
		ID:       p.ID,
		Name:     p.Name,
		Lat:      finite(p.Lat),
		Lng:      finite(p.Lng),
		Services: p.Services,
		Contact:  p.Contact,
	}
}

func newRankedDTOs(ranked []domain.RankedProvider) []rankedDTO {
	out := make([]rankedDTO, len(ranked))
	for i, r := range ranked {
		out[i] = rankedDTO{providerDTO: newProviderDTO(r.Provider), DistanceKm: finite(r.DistanceKm)}
	}
	return out
}

// handleProviders lists every provider, or with ?state= the providers within
// StateProviderRadiusKm of that state's centre, nearest first.
func (a *API) handleProviders(w http.ResponseWriter, r *http.Request) {
	state := strings.TrimSpace(r.URL.Query().Get("state"))
	if state == "" {
		out := make([]providerDTO, len(a.providers))
		for i, p := range a.providers {
			out[i] = newProviderDTO(p)
		}
		sharedobs.WriteJSON(w, http.StatusOK, out)
		return
	}

	name, center, ok := a.stateCenter(state)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown state %q", state)
		return
	}
	ranked := domain.WithinRadius(center, a.providers, domain.StateProviderRadiusKm)
	sharedobs.WriteJSON(w, http.StatusOK, stateProvidersResponse{
		State:     name,
		Center:    center,
		RadiusKm:  domain.StateProviderRadiusKm,
		Providers: newRankedDTOs(ranked),
	})
}

// stateCenter prefers the published snapshot's anchor, which may come from
// the geocoder, and falls back to the built-in centroid table.
func (a *API) stateCenter(state string) (string, domain.LatLng, bool) {
	if snap, ok := a.snapshots.Current(); ok {
		if name, ok := resolveState(snap.Dataset, state); ok {
			if c, ok := snap.Centroids[name]; ok {
				return name, c, true
			}
		}
	}
	return domain.LookupState(state)
}

func (a *API) handleNearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	count, err := queryInt(q, "count", domain.DefaultNearestCount)
	if err != nil || count < 0 {
		writeError(w, http.StatusBadRequest, "count must be a non-negative integer")
		return
	}

	var resp nearestResponse
	if address := strings.TrimSpace(q.Get("address")); address != "" {
		if a.geocoder == nil {
			writeError(w, http.StatusServiceUnavailable, "address lookup is not configured")
			return
		}
		res, err := a.geocoder.ForwardGeocode(r.Context(), address)
		if err != nil {
			a.logger.Warn("address lookup failed", "address", address, "error", err)
			writeError(w, http.StatusBadGateway, "address lookup failed")
			return
		}
		if res.FormattedAddress == "" {
			writeError(w, http.StatusNotFound, "address %q not found", address)
			return
		}
		resp.Origin = domain.LatLng{Lat: res.Lat, Lng: res.Lon}
		resp.Address = res.FormattedAddress
	} else {
		lat, hasLat, errLat := queryFloat(q, "lat")
		lng, hasLng, errLng := queryFloat(q, "lng")
		switch {
		case errLat != nil || errLng != nil:
			writeError(w, http.StatusBadRequest, "lat and lng must be numbers")
			return
		case !hasLat || !hasLng:
			writeError(w, http.StatusBadRequest, "lat and lng, or address, are required")
			return
		case lat < -90 || lat > 90 || lng < -180 || lng > 180:
			writeError(w, http.StatusBadRequest, "lat or lng out of range")
			return
		}
		resp.Origin = domain.LatLng{Lat: lat, Lng: lng}
	}

	ranked := domain.Nearest(resp.Origin, a.providers, count)
	vp := domain.Viewport(resp.Origin, ranked)
	resp.Providers = newRankedDTOs(ranked)
	resp.Viewport = boundDTO{Min: vp.Min, Max: vp.Max}
	a.metrics.NearestQueries.Inc()
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}
