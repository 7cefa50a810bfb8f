package domain

import "math"

// earthRadiusKm is the IUGG mean Earth radius.
const earthRadiusKm = 6371.0088

// Haversine returns the great-circle distance in kilometres.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// NearestStation returns the station closest to the point and its distance
// in kilometres. Stations without coordinates are ignored. ok is false
// when no station qualifies.
func NearestStation(lat, lon float64, stations []StationInfo) (StationInfo, float64, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, s := range stations {
		if !s.HasCoordinates() {
			continue
		}
		d := Haversine(lat, lon, s.Latitude.Value, s.Longitude.Value)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return StationInfo{}, 0, false
	}
	return stations[best], bestDist, true
}
