// Package combine appends forecast days to the observed history and derives
// their fire-risk indices, producing the dataset the dashboard reads.
package combine

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/forecast"
)

type stationDay struct {
	station string
	date    string
}

// Combine returns history unchanged (is_prediction=0) followed by one
// record per predicted station day (is_prediction=1). Predicted days carry
// the station metadata of the history, clamped humidity and an approximated
// dew point, and continue each station's cumulative indices from its last
// observed day.
func Combine(history []domain.RiskRecord, preds []forecast.Prediction, logger *slog.Logger) []domain.RiskRecord {
	pivot := make(map[stationDay]*domain.DailyObservation)
	var keys []stationDay
	for _, p := range preds {
		k := stationDay{station: p.Station, date: p.Date}
		obs, ok := pivot[k]
		if !ok {
			obs = &domain.DailyObservation{Station: p.Station, Date: p.Date}
			pivot[k] = obs
			keys = append(keys, k)
		}
		setVariable(obs, p.Variable, p.Value)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].station != keys[j].station {
			return keys[i].station < keys[j].station
		}
		return keys[i].date < keys[j].date
	})

	stations := make(map[string]domain.RiskRecord)
	for _, r := range history {
		if _, ok := stations[r.Station]; !ok && !r.Prediction {
			stations[r.Station] = r
		}
	}

	acc := domain.NewRiskAccumulator()
	for station, state := range domain.FinalStates(history) {
		acc.Seed(station, state)
	}

	out := make([]domain.RiskRecord, 0, len(history)+len(keys))
	for _, r := range history {
		r.Prediction = false
		out = append(out, r)
	}
	for _, k := range keys {
		obs := *pivot[k]
		idx, err := acc.Apply(obs)
		if err != nil {
			level := slog.LevelWarn
			if errors.Is(err, domain.ErrStaleObservation) {
				level = slog.LevelDebug
			}
			logger.Log(context.Background(), level, "skipping predicted day", "station", k.station, "date", k.date, "error", err)
			continue
		}
		meta := stations[k.station]
		rec := domain.NewRiskRecord(obs, meta.StationInfo(), idx, true)
		rec.Biome = meta.Biome
		out = append(out, rec)
	}
	return out
}

func setVariable(obs *domain.DailyObservation, variable string, v float64) {
	switch variable {
	case "precipitacao_total":
		obs.Precipitation = domain.Some(max(v, 0))
	case "pressao_atmosferica":
		obs.Pressure = domain.Some(v)
	case "temperatura_ar":
		obs.Temperature = domain.Some(v)
	case "umidade_relativa":
		obs.Humidity = domain.Some(domain.ClampHumidity(v))
	case "velocidade_vento":
		obs.WindSpeed = domain.Some(max(v, 0))
	}
}
