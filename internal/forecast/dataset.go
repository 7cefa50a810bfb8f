package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
)

const (
	// Window is the number of past days fed to a model.
	Window = 14
	// Horizon is the number of days predicted ahead.
	Horizon = 7
	// minRows is the shortest series a model is trained on.
	minRows = Window + 10
)

// Variables are the forecast targets, named as in the dashboard dataset.
var Variables = []string{
	"precipitacao_total",
	"pressao_atmosferica",
	"temperatura_ar",
	"umidade_relativa",
	"velocidade_vento",
}

func valueOf(r domain.RiskRecord, variable string) domain.Reading {
	switch variable {
	case "precipitacao_total":
		return r.Precipitation
	case "pressao_atmosferica":
		return r.Pressure
	case "temperatura_ar":
		return r.Temperature
	case "umidade_relativa":
		return r.Humidity
	case "velocidade_vento":
		return r.WindSpeed
	default:
		return domain.Reading{}
	}
}

// history is one station's observed days in date order, one entry per day.
type history struct {
	station string
	days    []domain.RiskRecord
}

// groupHistory splits non-prediction records by station, keeping the first
// row of each day since hotspot rows repeat the weather.
func groupHistory(records []domain.RiskRecord) []history {
	byStation := make(map[string]map[string]domain.RiskRecord)
	for _, r := range records {
		if r.Prediction {
			continue
		}
		days, ok := byStation[r.Station]
		if !ok {
			days = make(map[string]domain.RiskRecord)
			byStation[r.Station] = days
		}
		if _, seen := days[r.Date]; !seen {
			days[r.Date] = r
		}
	}

	out := make([]history, 0, len(byStation))
	for station, days := range byStation {
		h := history{station: station, days: make([]domain.RiskRecord, 0, len(days))}
		for _, d := range days {
			h.days = append(h.days, d)
		}
		sort.Slice(h.days, func(i, j int) bool { return h.days[i].Date < h.days[j].Date })
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].station < out[j].station })
	return out
}

// segments returns the valid values of variable in date order, split
// wherever a day is missing or has no value, so that no window spans a gap.
func (h history) segments(variable string) [][]float64 {
	var (
		out  [][]float64
		cur  []float64
		prev time.Time
	)
	for _, d := range h.days {
		v := valueOf(d, variable)
		day, err := domain.ParseDay(d.Date)
		if !v.Valid || err != nil {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		if len(cur) > 0 && !day.Equal(prev.AddDate(0, 0, 1)) {
			out = append(out, cur)
			cur = nil
		}
		cur = append(cur, v.Value)
		prev = day
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// recent returns the run of consecutive values ending on the station's last
// observed day, or nil when variable is missing that day.
func (h history) recent(variable string) []float64 {
	if len(h.days) == 0 || !valueOf(h.days[len(h.days)-1], variable).Valid {
		return nil
	}
	segs := h.segments(variable)
	if len(segs) == 0 {
		return nil
	}
	return segs[len(segs)-1]
}

func (h history) lastDate() string {
	if len(h.days) == 0 {
		return ""
	}
	return h.days[len(h.days)-1].Date
}

// windows builds supervised samples: each X row holds window consecutive
// values and y the value that follows.
func windows(values []float64, window int) ([][]float64, []float64) {
	if len(values) <= window {
		return nil, nil
	}
	n := len(values) - window
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = values[i : i+window]
		y[i] = values[i+window]
	}
	return x, y
}

// splitIndex returns where the held-out tail of n ordered samples starts
// when testFrac of them are held out, rounding the tail size up.
func splitIndex(n int, testFrac float64) int {
	test := int(math.Ceil(testFrac * float64(n)))
	return n - test
}
