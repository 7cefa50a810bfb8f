package main

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
)

type mockStation struct {
	region, uf, code, name string
	lat, lon, alt          float64
	biome                  string
	municipality           string
}

var stations = []mockStation{
	{"CO", "DF", "A001", "BRASILIA", -15.789, -47.926, 1160.96, "Cerrado", "BRASÍLIA"},
	{"CO", "GO", "A002", "GOIANIA", -16.642, -49.220, 770.0, "Cerrado", "GOIÂNIA"},
	{"CO", "MT", "A901", "CUIABA", -15.559, -56.063, 240.0, "Pantanal", "CUIABÁ"},
	{"N", "TO", "A009", "PALMAS", -10.191, -48.302, 280.0, "Cerrado", "PALMAS"},
	{"N", "PA", "A201", "BELEM", -1.411, -48.440, 21.0, "Amazônia", "BELÉM"},
}

var ufNames = map[string]string{
	"DF": "DISTRITO FEDERAL", "GO": "GOIÁS", "MT": "MATO GROSSO", "TO": "TOCANTINS", "PA": "PARÁ",
}

var inmetHeader = []string{
	"Data", "Hora UTC",
	"PRECIPITAÇÃO TOTAL, HORÁRIO (mm)",
	"PRESSAO ATMOSFERICA AO NIVEL DA ESTACAO, HORARIA (mB)",
	"TEMPERATURA DO AR - BULBO SECO, HORARIA (°C)",
	"TEMPERATURA DO PONTO DE ORVALHO (°C)",
	"UMIDADE RELATIVA DO AR, HORARIA (%)",
	"VENTO, VELOCIDADE HORARIA (m/s)",
}

var inpeHeader = []string{"lat", "lon", "data_hora_gmt", "satelite", "municipio", "estado", "bioma"}

var satellites = []string{"AQUA_M-T", "TERRA_M-T", "NOAA-20", "NPP-375"}

type generator struct {
	start time.Time
	days  int
	rng   *rand.Rand
}

type summary struct {
	stationFiles int
	hotspotFiles int
	detections   int
	observations int
}

func newGenerator(year, days int, seed uint64) *generator {
	return &generator{
		start: time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC),
		days:  days,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (g *generator) writeAll(dataDir, obsOut string) (summary, error) {
	var sum summary
	inmetDir := filepath.Join(dataDir, "raw_data", "INMET")
	inpeDir := filepath.Join(dataDir, "raw_data", "INPE_hotspots_daily")
	for _, dir := range []string{inmetDir, inpeDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return sum, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	var hourly []domain.HourlyObservation
	dryness := make(map[string][]float64)
	for _, s := range stations {
		rows, dry := g.stationRows(s)
		dryness[s.code] = dry
		hourly = append(hourly, rows...)
		if err := writeINMET(filepath.Join(inmetDir, inmetFileName(s, g.start.Year())), s, rows); err != nil {
			return sum, err
		}
		sum.stationFiles++
	}

	for d := 0; d < g.days; d++ {
		day := g.start.AddDate(0, 0, d)
		detections := g.dayDetections(day, d, dryness)
		if len(detections) == 0 {
			continue
		}
		path := filepath.Join(inpeDir, "focos_diario_br_"+day.Format("20060102")+".csv")
		if err := writeINPE(path, detections); err != nil {
			return sum, err
		}
		sum.hotspotFiles++
		sum.detections += len(detections)
	}

	daily := domain.AggregateDaily(hourly)
	sum.observations = len(daily)
	if obsOut != "" {
		if err := writeObservations(obsOut, daily); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

func inmetFileName(s mockStation, year int) string {
	return fmt.Sprintf("INMET_%s_%s_%s_%s_01-01-%d_A_31-12-%d.CSV", s.region, s.uf, s.code, s.name, year, year)
}

// stationRows produces hourly readings following a dry season that
// deepens through the period, with rain spells drawn at random. It also
// returns each day's dryness in [0, 1], used to place hotspots.
func (g *generator) stationRows(s mockStation) ([]domain.HourlyObservation, []float64) {
	var rows []domain.HourlyObservation
	dry := make([]float64, g.days)
	raining := 0
	for d := 0; d < g.days; d++ {
		day := g.start.AddDate(0, 0, d)
		season := math.Sin(math.Pi * float64(d) / float64(g.days))
		if raining > 0 {
			raining--
		} else if g.rng.Float64() < 0.08*(1.2-season) {
			raining = 1 + g.rng.IntN(3)
		}
		dry[d] = season
		if raining > 0 {
			dry[d] = 0
		}
		for h := 0; h < 24; h++ {
			ts := day.Add(time.Duration(h) * time.Hour)
			diurnal := math.Sin(math.Pi * float64(h-10) / 14)
			temp := 22 + 6*season + 7*diurnal + g.rng.NormFloat64()
			humidity := math.Max(8, math.Min(100, 70-35*season-15*diurnal+5*g.rng.NormFloat64()))
			precip := 0.0
			if raining > 0 && g.rng.Float64() < 0.3 {
				precip = 1 + 4*g.rng.Float64()
				humidity = math.Min(100, humidity+30)
			}
			row := domain.HourlyObservation{
				Station:       s.code,
				Time:          ts,
				Precipitation: domain.Some(round1(precip)),
				Pressure:      domain.Some(round1(1013 - s.alt/8.3 + g.rng.NormFloat64())),
				Temperature:   domain.Some(round1(temp)),
				DewPoint:      domain.Some(round1(temp - (100-humidity)/5)),
				Humidity:      domain.Some(math.Round(humidity)),
				WindSpeed:     domain.Some(round1(math.Abs(2 + 1.5*g.rng.NormFloat64()))),
			}
			// Sensor gaps.
			if g.rng.Float64() < 0.01 {
				row.Temperature = domain.Reading{}
			}
			rows = append(rows, row)
		}
	}
	return rows, dry
}

type detection struct {
	lat, lon  float64
	at        time.Time
	satellite string
	station   mockStation
}

func (g *generator) dayDetections(day time.Time, d int, dryness map[string][]float64) []detection {
	var out []detection
	for _, s := range stations {
		n := g.rng.IntN(1 + int(4*dryness[s.code][d]))
		for i := 0; i < n; i++ {
			out = append(out, detection{
				lat:       s.lat + 0.3*(g.rng.Float64()-0.5),
				lon:       s.lon + 0.3*(g.rng.Float64()-0.5),
				at:        day.Add(time.Duration(13+g.rng.IntN(8))*time.Hour + time.Duration(g.rng.IntN(60))*time.Minute),
				satellite: satellites[g.rng.IntN(len(satellites))],
				station:   s,
			})
		}
	}
	return out
}

func writeINMET(path string, s mockStation, rows []domain.HourlyObservation) error {
	var b strings.Builder
	meta := [][2]string{
		{"REGIÃO:", s.region},
		{"UF:", s.uf},
		{"ESTAÇÃO:", s.name},
		{"CODIGO (WMO):", s.code},
		{"LATITUDE:", decimalComma(s.lat, 8)},
		{"LONGITUDE:", decimalComma(s.lon, 8)},
		{"ALTITUDE:", decimalComma(s.alt, 2)},
		{"DATA DE FUNDAÇÃO:", "07/05/00"},
	}
	for _, m := range meta {
		fmt.Fprintf(&b, "%s;%s\n", m[0], m[1])
	}
	fmt.Fprintf(&b, "%s;\n", strings.Join(inmetHeader, ";"))
	for _, r := range rows {
		fmt.Fprintf(&b, "%s;%s;%s;%s;%s;%s;%s;%s;\n",
			r.Time.Format("2006/01/02"),
			r.Time.Format("1504")+" UTC",
			inmetValue(r.Precipitation, 1),
			inmetValue(r.Pressure, 1),
			inmetValue(r.Temperature, 1),
			inmetValue(r.DewPoint, 1),
			inmetValue(r.Humidity, 0),
			inmetValue(r.WindSpeed, 1),
		)
	}
	encoded, err := charmap.ISO8859_1.NewEncoder().String(b.String())
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, []byte(encoded), 0o644)
}

func writeINPE(path string, detections []detection) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(inpeHeader); err != nil {
		return err
	}
	for _, d := range detections {
		rec := []string{
			fmt.Sprintf("%.5f", d.lat),
			fmt.Sprintf("%.5f", d.lon),
			d.at.Format("2006-01-02 15:04:05"),
			d.satellite,
			d.station.municipality,
			ufNames[d.station.uf],
			d.station.biome,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func writeObservations(path string, daily []domain.DailyObservation) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create observations: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)
	for _, d := range daily {
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode observation: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// inmetValue renders a reading the way INMET does: decimal comma, empty
// when missing.
func inmetValue(r domain.Reading, decimals int) string {
	if !r.Valid {
		return ""
	}
	return decimalComma(r.Value, decimals)
}

func decimalComma(v float64, decimals int) string {
	return strings.Replace(fmt.Sprintf("%.*f", decimals, v), ".", ",", 1)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
