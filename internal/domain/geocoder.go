package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	Municipality     string
	UF               string // two-letter state code, "" when the provider has none
	Confidence       float64
}

// Geocoder fills location gaps left by the source files.
type Geocoder interface {
	// ForwardGeocode converts a place name and UF to coordinates.
	ForwardGeocode(ctx context.Context, name, uf string) (GeocodingResult, error)

	// ReverseGeocode converts coordinates to municipality and state.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}
