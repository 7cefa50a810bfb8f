package domain

import (
	"context"
	"log/slog"
	"strings"
)

// LocateStation forward-geocodes a station whose metadata has no
// coordinates. Any failure leaves the station unchanged; it then simply
// cannot receive hotspots.
func LocateStation(ctx context.Context, s StationInfo, geocoder Geocoder, logger *slog.Logger) StationInfo {
	if geocoder == nil || s.HasCoordinates() || s.Name == "" {
		return s
	}

	result, err := geocoder.ForwardGeocode(ctx, s.Name, s.UF)
	if err != nil {
		logger.Warn("forward geocoding failed",
			"station", s.Code,
			"name", s.Name,
			"uf", s.UF,
			"error", err,
		)
		return s
	}
	if result.Lat == 0 && result.Lon == 0 {
		return s
	}
	s.Latitude = Some(result.Lat)
	s.Longitude = Some(result.Lon)
	return s
}

// PlaceDetection reverse-geocodes a detection whose municipality or state
// is blank in the INPE file.
func PlaceDetection(ctx context.Context, d HotspotDetection, geocoder Geocoder, logger *slog.Logger) HotspotDetection {
	if geocoder == nil || (d.Municipality != "" && d.UF != "") {
		return d
	}
	if !d.Latitude.Valid || !d.Longitude.Valid {
		return d
	}

	result, err := geocoder.ReverseGeocode(ctx, d.Latitude.Value, d.Longitude.Value)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", d.Latitude.Value,
			"lon", d.Longitude.Value,
			"error", err,
		)
		return d
	}
	if d.Municipality == "" {
		d.Municipality = strings.ToUpper(result.Municipality)
	}
	if d.UF == "" {
		d.UF = result.UF
	}
	return d
}
