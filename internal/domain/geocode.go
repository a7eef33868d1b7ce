package domain

import (
	"context"
	"log/slog"
)

// ResolveCentroids finds a map anchor for every state. The embedded table is
// tried first; remaining states go to the geocoder when one is configured.
// States that cannot be resolved are left out and logged (graceful degradation).
func ResolveCentroids(ctx context.Context, states []string, geocoder Geocoder, logger *slog.Logger) map[string]LatLng {
	out := make(map[string]LatLng, len(states))
	for _, state := range states {
		if p, ok := LookupCentroid(state); ok {
			out[state] = p
			continue
		}
		if geocoder == nil || state == UnknownState {
			logger.Debug("no centroid for state", "state", state)
			continue
		}
		result, err := geocoder.ForwardGeocode(ctx, state)
		if err != nil {
			logger.Warn("forward geocoding failed", "state", state, "error", err)
			continue
		}
		if result.Lat == 0 && result.Lon == 0 {
			logger.Warn("geocoder returned no match", "state", state)
			continue
		}
		out[state] = LatLng{Lat: result.Lat, Lng: result.Lon}
	}
	return out
}
