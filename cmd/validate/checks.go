package main

import (
	"fmt"
	"math"
	"sort"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
)

const indexTolerance = 1e-6

func validate(stations []domain.StationInfo, merged, combined []domain.RiskRecord) []*phase {
	return []*phase{
		validateStations(stations, merged),
		validateHistory(merged, combined),
		validatePredictions(combined),
		validateIndices(combined),
	}
}

// validateStations checks that every record belongs to a catalogued station.
func validateStations(stations []domain.StationInfo, merged []domain.RiskRecord) *phase {
	p := &phase{name: "Station catalogue"}
	known := make(map[string]bool, len(stations))
	for _, s := range stations {
		if known[s.Code] {
			p.errorf("station %s listed twice", s.Code)
		}
		known[s.Code] = true
	}
	missing := make(map[string]bool)
	for _, r := range merged {
		if !known[r.Station] && !missing[r.Station] {
			missing[r.Station] = true
			p.errorf("station %s has records but is not in the catalogue", r.Station)
		}
	}
	return p
}

// validateHistory checks that the combined dataset carries the merged
// history unchanged.
func validateHistory(merged, combined []domain.RiskRecord) *phase {
	p := &phase{name: "History carried into combined data"}
	ids := make(map[string]bool, len(combined))
	for _, r := range combined {
		if ids[r.ID] {
			p.errorf("duplicate record %s (%s %s)", r.ID, r.Station, r.Date)
		}
		ids[r.ID] = true
	}
	for _, r := range merged {
		if r.Prediction {
			p.errorf("merged record %s %s is flagged as prediction", r.Station, r.Date)
		}
		if !ids[r.ID] {
			p.errorf("merged record %s %s missing from combined data", r.Station, r.Date)
		}
	}
	return p
}

// validatePredictions checks that each station's predictions start the day
// after its last observed day and continue without gaps.
func validatePredictions(combined []domain.RiskRecord) *phase {
	p := &phase{name: "Prediction dates"}
	lastObserved := make(map[string]string)
	predicted := make(map[string][]string)
	for _, r := range combined {
		if r.Prediction {
			predicted[r.Station] = append(predicted[r.Station], r.Date)
		} else if r.Date > lastObserved[r.Station] {
			lastObserved[r.Station] = r.Date
		}
	}
	for station, dates := range predicted {
		sort.Strings(dates)
		last, ok := lastObserved[station]
		if !ok {
			p.errorf("station %s has predictions but no history", station)
			continue
		}
		prev, err := domain.ParseDay(last)
		if err != nil {
			p.errorf("station %s: %v", station, err)
			continue
		}
		for _, d := range dates {
			day, err := domain.ParseDay(d)
			if err != nil {
				p.errorf("station %s: %v", station, err)
				break
			}
			if want := prev.AddDate(0, 0, 1); !day.Equal(want) {
				p.errorf("station %s: prediction %s, want %s", station, d, want.Format(domain.DateLayout))
				break
			}
			prev = day
		}
	}
	return p
}

// validateIndices recomputes every index of every station and
// compares them with the stored values. Rows of one station day that differ
// only by hotspot share the same indices.
func validateIndices(combined []domain.RiskRecord) *phase {
	p := &phase{name: "Risk indices recomputation"}

	byStation := make(map[string][]domain.RiskRecord)
	for _, r := range combined {
		byStation[r.Station] = append(byStation[r.Station], r)
	}
	for station, records := range byStation {
		sort.SliceStable(records, func(i, j int) bool { return records[i].Date < records[j].Date })
		acc := domain.NewRiskAccumulator()
		var last string
		var idx domain.RiskIndices
		for _, r := range records {
			if r.Date != last {
				var err error
				idx, err = acc.Apply(r.Observation())
				if err != nil {
					p.errorf("station %s %s: %v", station, r.Date, err)
					break
				}
				last = r.Date
			}
			for _, m := range indexMismatches(r, idx) {
				p.errorf("station %s %s: %s", station, r.Date, m)
			}
		}
	}
	return p
}

// indexMismatches lists the stored indices of r that differ from idx.
func indexMismatches(r domain.RiskRecord, idx domain.RiskIndices) []string {
	var out []string
	if r.DryDays != idx.DryDays {
		out = append(out, fmt.Sprintf("dias_sem_chuva %d, recomputed %d", r.DryDays, idx.DryDays))
	}
	if !closeEnough(r.Telicyn, idx.Telicyn) {
		out = append(out, fmt.Sprintf("telicyn_index %g, recomputed %g", r.Telicyn, idx.Telicyn))
	}
	if r.TelicynRisk != idx.TelicynRisk {
		out = append(out, fmt.Sprintf("telicyn_risk %s, recomputed %s", r.TelicynRisk, idx.TelicynRisk))
	}
	if !closeEnough(r.Nesterov, idx.Nesterov) {
		out = append(out, fmt.Sprintf("nesterov_index %g, recomputed %g", r.Nesterov, idx.Nesterov))
	}
	if r.NesterovRisk != idx.NesterovRisk {
		out = append(out, fmt.Sprintf("nesterov_risk %s, recomputed %s", r.NesterovRisk, idx.NesterovRisk))
	}
	if r.Angstrom.Valid != idx.Angstrom.Valid ||
		(r.Angstrom.Valid && !closeEnough(r.Angstrom.Value, idx.Angstrom.Value)) {
		out = append(out, fmt.Sprintf("angstrom_index %s, recomputed %s", r.Angstrom, idx.Angstrom))
	}
	if r.AngstromRisk != idx.AngstromRisk {
		out = append(out, fmt.Sprintf("angstrom_risk %s, recomputed %s", r.AngstromRisk, idx.AngstromRisk))
	}
	return out
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) <= indexTolerance
}
