package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves free-form place queries to coordinates.
type Geocoder interface {
	// ForwardGeocode converts a place query (a state name or street address) to coordinates.
	ForwardGeocode(ctx context.Context, query string) (GeocodingResult, error)
}
