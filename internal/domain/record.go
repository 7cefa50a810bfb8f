package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// clock stamps ProcessedAt. Tests freeze it with SetClock.
var clock = clockwork.NewRealClock()

// SetClock replaces the time source. nil restores the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}

// Columns is the dashboard dataset header, in file order.
var Columns = []string{
	"codigo_estacao", "data", "precipitacao_total", "pressao_atmosferica",
	"temperatura_ar", "umidade_relativa", "velocidade_vento",
	"latitude", "longitude", "bioma", "regiao", "uf", "estacao",
	"temperatura_ponto_orvalho", "dias_sem_chuva",
	"angstrom_index", "angstrom_risk", "telicyn_index", "telicyn_risk",
	"nesterov_index", "nesterov_risk", "distancia_estacao_mais_proxima",
	"foco_incendio", "latitude_foco_incendio", "longitude_foco_incendio",
	"altitude", "is_prediction",
}

// RiskRecord is one row of the dashboard dataset: a station day, its
// indices and, when a hotspot was attached to the station that day, the
// hotspot location. A day with several hotspots yields several rows.
type RiskRecord struct {
	ID            string  `json:"id"`
	Station       string  `json:"codigo_estacao"`
	Date          string  `json:"data"`
	Precipitation Reading `json:"precipitacao_total"`
	Pressure      Reading `json:"pressao_atmosferica"`
	Temperature   Reading `json:"temperatura_ar"`
	Humidity      Reading `json:"umidade_relativa"`
	WindSpeed     Reading `json:"velocidade_vento"`
	Latitude      Reading `json:"latitude"`
	Longitude     Reading `json:"longitude"`
	Biome         string  `json:"bioma"`
	Region        string  `json:"regiao"`
	UF            string  `json:"uf"`
	StationName   string  `json:"estacao"`
	Altitude      Reading `json:"altitude"`

	DewPoint     Reading   `json:"temperatura_ponto_orvalho"`
	DryDays      int       `json:"dias_sem_chuva"`
	Angstrom     Reading   `json:"angstrom_index"`
	AngstromRisk RiskLevel `json:"angstrom_risk"`
	Telicyn      float64   `json:"telicyn_index"`
	TelicynRisk  RiskLevel `json:"telicyn_risk"`
	Nesterov     float64   `json:"nesterov_index"`
	NesterovRisk RiskLevel `json:"nesterov_risk"`

	Hotspot          bool    `json:"foco_incendio"`
	HotspotDistance  Reading `json:"distancia_estacao_mais_proxima"`
	HotspotLatitude  Reading `json:"latitude_foco_incendio"`
	HotspotLongitude Reading `json:"longitude_foco_incendio"`

	Prediction  bool      `json:"is_prediction"`
	ProcessedAt time.Time `json:"processed_at"`
}

// NewRiskRecord combines a station day, its station metadata and indices.
func NewRiskRecord(obs DailyObservation, station StationInfo, idx RiskIndices, prediction bool) RiskRecord {
	r := RiskRecord{
		Station:       obs.Station,
		Date:          obs.Date,
		Precipitation: obs.Precipitation,
		Pressure:      obs.Pressure,
		Temperature:   obs.Temperature,
		Humidity:      obs.Humidity,
		WindSpeed:     obs.WindSpeed,
		Latitude:      station.Latitude,
		Longitude:     station.Longitude,
		Region:        station.Region,
		UF:            station.UF,
		StationName:   station.Name,
		Altitude:      station.Altitude,
		Prediction:    prediction,
		ProcessedAt:   clock.Now().UTC(),
	}
	r.ApplyIndices(idx)
	r.ID = r.computeID()
	return r
}

// ApplyIndices copies derived indices onto the record.
func (r *RiskRecord) ApplyIndices(idx RiskIndices) {
	r.DewPoint = idx.DewPoint
	r.DryDays = idx.DryDays
	r.Angstrom = idx.Angstrom
	r.AngstromRisk = idx.AngstromRisk
	r.Telicyn = idx.Telicyn
	r.TelicynRisk = idx.TelicynRisk
	r.Nesterov = idx.Nesterov
	r.NesterovRisk = idx.NesterovRisk
}

// AttachHotspot marks the record as a fire day and refreshes its ID.
func (r *RiskRecord) AttachHotspot(h Hotspot) {
	r.Hotspot = true
	r.HotspotDistance = Some(h.Distance)
	r.HotspotLatitude = Some(h.Latitude)
	r.HotspotLongitude = Some(h.Longitude)
	r.ID = r.computeID()
}

// computeID hashes station, date, prediction flag and hotspot position so
// re-running the pipeline upserts the same rows.
func (r RiskRecord) computeID() string {
	input := fmt.Sprintf("%s|%s|%t|%s|%s",
		r.Station, r.Date, r.Prediction, r.HotspotLatitude, r.HotspotLongitude)
	hash := sha256.Sum256([]byte(input))
	return r.Station + "-" + hex.EncodeToString(hash[:8])
}

// Strings renders the record in Columns order.
func (r RiskRecord) Strings() []string {
	return []string{
		r.Station,
		r.Date,
		r.Precipitation.String(),
		r.Pressure.String(),
		r.Temperature.String(),
		r.Humidity.String(),
		r.WindSpeed.String(),
		r.Latitude.String(),
		r.Longitude.String(),
		r.Biome,
		r.Region,
		r.UF,
		r.StationName,
		r.DewPoint.String(),
		strconv.Itoa(r.DryDays),
		r.Angstrom.String(),
		string(r.AngstromRisk),
		formatFloat(r.Telicyn),
		string(r.TelicynRisk),
		formatFloat(r.Nesterov),
		string(r.NesterovRisk),
		r.HotspotDistance.String(),
		strconv.FormatBool(r.Hotspot),
		r.HotspotLatitude.String(),
		r.HotspotLongitude.String(),
		r.Altitude.String(),
		boolDigit(r.Prediction),
	}
}

// ParseRiskRecord reads a row written by Strings. header maps column names
// to positions so extra or reordered columns are tolerated.
func ParseRiskRecord(header map[string]int, row []string) (RiskRecord, error) {
	for _, col := range []string{"codigo_estacao", "data"} {
		if _, ok := header[col]; !ok {
			return RiskRecord{}, fmt.Errorf("%w: %s", ErrMissingColumns, col)
		}
	}

	p := rowParser{header: header, row: row}
	r := RiskRecord{
		Station:          p.str("codigo_estacao"),
		Date:             p.str("data"),
		Precipitation:    p.reading("precipitacao_total"),
		Pressure:         p.reading("pressao_atmosferica"),
		Temperature:      p.reading("temperatura_ar"),
		Humidity:         p.reading("umidade_relativa"),
		WindSpeed:        p.reading("velocidade_vento"),
		Latitude:         p.reading("latitude"),
		Longitude:        p.reading("longitude"),
		Biome:            p.str("bioma"),
		Region:           p.str("regiao"),
		UF:               p.str("uf"),
		StationName:      p.str("estacao"),
		DewPoint:         p.reading("temperatura_ponto_orvalho"),
		DryDays:          int(p.reading("dias_sem_chuva").Or(0)),
		Angstrom:         p.reading("angstrom_index"),
		AngstromRisk:     RiskLevel(p.str("angstrom_risk")),
		Telicyn:          p.reading("telicyn_index").Or(0),
		TelicynRisk:      RiskLevel(p.str("telicyn_risk")),
		Nesterov:         p.reading("nesterov_index").Or(0),
		NesterovRisk:     RiskLevel(p.str("nesterov_risk")),
		HotspotDistance:  p.reading("distancia_estacao_mais_proxima"),
		Hotspot:          p.boolean("foco_incendio"),
		HotspotLatitude:  p.reading("latitude_foco_incendio"),
		HotspotLongitude: p.reading("longitude_foco_incendio"),
		Altitude:         p.reading("altitude"),
		Prediction:       p.boolean("is_prediction"),
	}
	if p.err != nil {
		return RiskRecord{}, p.err
	}
	r.ID = r.computeID()
	return r, nil
}

// Observation recovers the station day a record was built from.
func (r RiskRecord) Observation() DailyObservation {
	return DailyObservation{
		Station:       r.Station,
		Date:          r.Date,
		Precipitation: r.Precipitation,
		Pressure:      r.Pressure,
		Temperature:   r.Temperature,
		Humidity:      r.Humidity,
		DewPoint:      r.DewPoint,
		WindSpeed:     r.WindSpeed,
	}
}

// StationInfo recovers the station metadata carried by a record.
func (r RiskRecord) StationInfo() StationInfo {
	return StationInfo{
		Code:      r.Station,
		Name:      r.StationName,
		Region:    r.Region,
		UF:        r.UF,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Altitude:  r.Altitude,
	}
}

type rowParser struct {
	header map[string]int
	row    []string
	err    error
}

func (p *rowParser) str(col string) string {
	i, ok := p.header[col]
	if !ok || i >= len(p.row) {
		return ""
	}
	return strings.TrimSpace(p.row[i])
}

func (p *rowParser) reading(col string) Reading {
	s := p.str(col)
	if s == "" || strings.EqualFold(s, "nan") {
		return Reading{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("column %s: %w", col, err)
		}
		return Reading{}
	}
	return Some(v)
}

func (p *rowParser) boolean(col string) bool {
	switch strings.ToLower(p.str(col)) {
	case "true", "1", "1.0":
		return true
	default:
		return false
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
