package postgres

import (
	"time"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
)

// recordRow maps a RiskRecord onto risk_records. Missing readings are NULL.
type recordRow struct {
	ID               string    `db:"id"`
	Station          string    `db:"codigo_estacao"`
	Date             string    `db:"data"`
	Precipitation    *float64  `db:"precipitacao_total"`
	Pressure         *float64  `db:"pressao_atmosferica"`
	Temperature      *float64  `db:"temperatura_ar"`
	Humidity         *float64  `db:"umidade_relativa"`
	WindSpeed        *float64  `db:"velocidade_vento"`
	Latitude         *float64  `db:"latitude"`
	Longitude        *float64  `db:"longitude"`
	Biome            string    `db:"bioma"`
	Region           string    `db:"regiao"`
	UF               string    `db:"uf"`
	StationName      string    `db:"estacao"`
	Altitude         *float64  `db:"altitude"`
	DewPoint         *float64  `db:"temperatura_ponto_orvalho"`
	DryDays          int       `db:"dias_sem_chuva"`
	Angstrom         *float64  `db:"angstrom_index"`
	AngstromRisk     string    `db:"angstrom_risk"`
	Telicyn          float64   `db:"telicyn_index"`
	TelicynRisk      string    `db:"telicyn_risk"`
	Nesterov         float64   `db:"nesterov_index"`
	NesterovRisk     string    `db:"nesterov_risk"`
	Hotspot          bool      `db:"foco_incendio"`
	HotspotDistance  *float64  `db:"distancia_estacao_mais_proxima"`
	HotspotLatitude  *float64  `db:"latitude_foco_incendio"`
	HotspotLongitude *float64  `db:"longitude_foco_incendio"`
	Prediction       bool      `db:"is_prediction"`
	ProcessedAt      time.Time `db:"processed_at"`
}

func toRow(r domain.RiskRecord) recordRow {
	processed := r.ProcessedAt
	if processed.IsZero() {
		processed = time.Now().UTC()
	}
	return recordRow{
		ID:               r.ID,
		Station:          r.Station,
		Date:             r.Date,
		Precipitation:    r.Precipitation.Ptr(),
		Pressure:         r.Pressure.Ptr(),
		Temperature:      r.Temperature.Ptr(),
		Humidity:         r.Humidity.Ptr(),
		WindSpeed:        r.WindSpeed.Ptr(),
		Latitude:         r.Latitude.Ptr(),
		Longitude:        r.Longitude.Ptr(),
		Biome:            r.Biome,
		Region:           r.Region,
		UF:               r.UF,
		StationName:      r.StationName,
		Altitude:         r.Altitude.Ptr(),
		DewPoint:         r.DewPoint.Ptr(),
		DryDays:          r.DryDays,
		Angstrom:         r.Angstrom.Ptr(),
		AngstromRisk:     string(r.AngstromRisk),
		Telicyn:          r.Telicyn,
		TelicynRisk:      string(r.TelicynRisk),
		Nesterov:         r.Nesterov,
		NesterovRisk:     string(r.NesterovRisk),
		Hotspot:          r.Hotspot,
		HotspotDistance:  r.HotspotDistance.Ptr(),
		HotspotLatitude:  r.HotspotLatitude.Ptr(),
		HotspotLongitude: r.HotspotLongitude.Ptr(),
		Prediction:       r.Prediction,
		ProcessedAt:      processed,
	}
}
