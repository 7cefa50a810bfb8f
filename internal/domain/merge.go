package domain

import (
	"errors"
	"sort"
)

var (
	// ErrMissingColumns is returned when a source file lacks required columns.
	ErrMissingColumns = errors.New("missing columns")
	// ErrNoRows is returned when a source has nothing usable left after cleaning.
	ErrNoRows = errors.New("no rows")
)

type stationDay struct {
	station string
	date    string
}

// BuildHistory joins station days with the hotspots attached to each
// station and derives the risk indices. Every day yields one row per
// matching hotspot, or a single row with Hotspot=false. Each station's
// biome is taken from its closest hotspot among those that joined one of
// its days.
func BuildHistory(stations []StationInfo, days []DailyObservation, hotspots []Hotspot) []RiskRecord {
	byCode := make(map[string]StationInfo, len(stations))
	for _, s := range stations {
		byCode[s.Code] = s
	}

	observed := make(map[stationDay]bool, len(days))
	for _, d := range days {
		observed[stationDay{station: d.Station, date: d.Date}] = true
	}
	matches := make(map[stationDay][]Hotspot)
	var joined []Hotspot
	for _, h := range hotspots {
		k := stationDay{station: h.NearestStation, date: h.Date}
		if !observed[k] {
			continue
		}
		matches[k] = append(matches[k], h)
		joined = append(joined, h)
	}
	biomes := StationBiomes(joined)

	sorted := make([]DailyObservation, len(days))
	copy(sorted, days)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Station != sorted[j].Station {
			return sorted[i].Station < sorted[j].Station
		}
		return sorted[i].Date < sorted[j].Date
	})

	acc := NewRiskAccumulator()
	out := make([]RiskRecord, 0, len(sorted))
	for _, day := range sorted {
		idx, err := acc.Apply(day)
		if err != nil {
			// duplicate or malformed day
			continue
		}
		rec := NewRiskRecord(day, byCode[day.Station], idx, false)
		rec.Biome = biomes[day.Station]

		hs := matches[stationDay{station: day.Station, date: day.Date}]
		if len(hs) == 0 {
			out = append(out, rec)
			continue
		}
		for _, h := range hs {
			withHotspot := rec
			withHotspot.AttachHotspot(h)
			out = append(out, withHotspot)
		}
	}
	return out
}

// StationBiomes maps each station code to the biome of its closest
// hotspot. Ties keep the first hotspot seen.
func StationBiomes(hotspots []Hotspot) map[string]string {
	type best struct {
		biome    string
		distance float64
	}
	closest := make(map[string]best)
	for _, h := range hotspots {
		if h.NearestStation == "" || h.Biome == "" {
			continue
		}
		cur, ok := closest[h.NearestStation]
		if !ok || h.Distance < cur.distance {
			closest[h.NearestStation] = best{biome: h.Biome, distance: h.Distance}
		}
	}
	out := make(map[string]string, len(closest))
	for code, b := range closest {
		out[code] = b.biome
	}
	return out
}

// FinalStates returns each station's cumulative state after its latest
// non-duplicate day in records, used to continue the sums into forecasts.
func FinalStates(records []RiskRecord) map[string]RiskState {
	out := make(map[string]RiskState)
	for _, r := range records {
		if r.Prediction {
			continue
		}
		cur, ok := out[r.Station]
		if ok && cur.LastDate >= r.Date {
			continue
		}
		out[r.Station] = RiskState{
			LastDate: r.Date,
			DryDays:  r.DryDays,
			Telicyn:  r.Telicyn,
			Nesterov: r.Nesterov,
		}
	}
	return out
}
