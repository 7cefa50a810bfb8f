package csvfile

import (
	"fmt"
	"strconv"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
)

var (
	// DailyColumns is the header of the per-station merged_<CODE>.csv files.
	DailyColumns = []string{
		"codigo_estacao", "data", "precipitacao_total", "pressao_atmosferica",
		"temperatura_ar", "umidade_relativa", "temperatura_ponto_orvalho", "velocidade_vento",
	}
	// StationColumns is the header of stations_info.csv.
	StationColumns = []string{
		"codigo_estacao", "estacao", "regiao", "uf",
		"latitude", "longitude", "altitude", "data_fundacao",
	}
	// HotspotColumns is the header of the INPE daily hotspot files.
	HotspotColumns = []string{
		"data", "municipio", "uf", "bioma", "latitude", "longitude",
		"codigo_estacao_mais_proxima", "distancia_estacao_mais_proxima",
	}
)

// WriteRecords writes the dashboard dataset.
func WriteRecords(path string, records []domain.RiskRecord) error {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = r.Strings()
	}
	return Write(path, domain.Columns, rows)
}

// ReadRecords reads a dashboard dataset written by WriteRecords.
func ReadRecords(path string) ([]domain.RiskRecord, error) {
	t, err := Read(path)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RiskRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		r, err := domain.ParseRiskRecord(t.Header, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// WriteDaily writes daily station observations.
func WriteDaily(path string, days []domain.DailyObservation) error {
	rows := make([][]string, len(days))
	for i, d := range days {
		rows[i] = []string{
			d.Station,
			d.Date,
			d.Precipitation.String(),
			d.Pressure.String(),
			d.Temperature.String(),
			d.Humidity.String(),
			d.DewPoint.String(),
			d.WindSpeed.String(),
		}
	}
	return Write(path, DailyColumns, rows)
}

// WriteStations writes the station catalogue.
func WriteStations(path string, stations []domain.StationInfo) error {
	rows := make([][]string, len(stations))
	for i, s := range stations {
		rows[i] = []string{
			s.Code,
			s.Name,
			s.Region,
			s.UF,
			s.Latitude.String(),
			s.Longitude.String(),
			s.Altitude.String(),
			s.FoundationDate,
		}
	}
	return Write(path, StationColumns, rows)
}

// WriteHotspots writes daily hotspot aggregates.
func WriteHotspots(path string, hotspots []domain.Hotspot) error {
	rows := make([][]string, len(hotspots))
	for i, h := range hotspots {
		rows[i] = []string{
			h.Date,
			h.Municipality,
			h.UF,
			h.Biome,
			strconv.FormatFloat(h.Latitude, 'f', -1, 64),
			strconv.FormatFloat(h.Longitude, 'f', -1, 64),
			h.NearestStation,
			strconv.FormatFloat(h.Distance, 'f', -1, 64),
		}
	}
	return Write(path, HotspotColumns, rows)
}

// ReadStations reads a station catalogue written by WriteStations.
func ReadStations(path string) ([]domain.StationInfo, error) {
	t, err := Read(path)
	if err != nil {
		return nil, err
	}
	if _, ok := t.Header["codigo_estacao"]; !ok {
		return nil, fmt.Errorf("%w: codigo_estacao", domain.ErrMissingColumns)
	}
	out := make([]domain.StationInfo, 0, len(t.Rows))
	for i, row := range t.Rows {
		get := func(col string) string {
			j, ok := t.Header[col]
			if !ok || j >= len(row) {
				return ""
			}
			return row[j]
		}
		s := domain.StationInfo{
			Code:           get("codigo_estacao"),
			Name:           get("estacao"),
			Region:         get("regiao"),
			UF:             get("uf"),
			FoundationDate: get("data_fundacao"),
		}
		for _, f := range []struct {
			col string
			dst *domain.Reading
		}{
			{"latitude", &s.Latitude},
			{"longitude", &s.Longitude},
			{"altitude", &s.Altitude},
		} {
			v := get(f.col)
			if v == "" {
				continue
			}
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: column %s: %w", i+2, f.col, err)
			}
			*f.dst = domain.Some(n)
		}
		out = append(out, s)
	}
	return out, nil
}
