package domain

import "time"

// HotspotDetection is one satellite detection row from an INPE file.
type HotspotDetection struct {
	Time         time.Time // zero when the file has no timestamp
	Latitude     Reading
	Longitude    Reading
	Satellite    string
	Municipality string
	UF           string
	Biome        string
}

// Hotspot is the per-day, per-municipality aggregate of detections with
// its nearest INMET station.
type Hotspot struct {
	Date           string  `json:"data"`
	Municipality   string  `json:"municipio"`
	UF             string  `json:"uf"`
	Biome          string  `json:"bioma"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	NearestStation string  `json:"codigo_estacao_mais_proxima"`
	Distance       float64 `json:"distancia_estacao_mais_proxima"`
}
