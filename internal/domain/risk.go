package domain

import "math"

// RiskLevel is the fire-danger class reported on the dashboard.
type RiskLevel string

const (
	RiskNone     RiskLevel = "nulo"
	RiskLow      RiskLevel = "pequeno"
	RiskMedium   RiskLevel = "medio"
	RiskHigh     RiskLevel = "alto"
	RiskVeryHigh RiskLevel = "muito_alto"
)

const (
	// telicynRainThreshold resets the dry-day count and the Telicyn sum.
	telicynRainThreshold = 2.5
	// nesterovRainThreshold resets the Nesterov sum.
	nesterovRainThreshold = 3.0
)

// ClampHumidity bounds relative humidity to [0, 100].
func ClampHumidity(rh float64) float64 {
	return math.Max(0, math.Min(rh, 100))
}

// DewPointApprox estimates the dew point from temperature and relative
// humidity with the linear approximation Td = T − (100 − H)/5.
func DewPointApprox(temperature, humidity float64) float64 {
	return temperature - (100-humidity)/5.0
}

// AngstromIndex computes B = 0.05·H − 0.1·(T − 27).
func AngstromIndex(temperature, humidity float64) float64 {
	return 0.05*humidity - 0.1*(temperature-27)
}

// AngstromRisk classifies an Angström index. Lower values mean drier air.
func AngstromRisk(b float64) RiskLevel {
	switch {
	case b > 4.0:
		return RiskNone
	case b > 2.5:
		return RiskLow
	case b > 2.0:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// TelicynTerm is one day's contribution to the Telicyn sum. Saturation
// deficits of 1 °C or less contribute nothing.
func TelicynTerm(temperature, dewPoint float64) float64 {
	deficit := temperature - dewPoint
	if deficit <= 1 {
		return 0
	}
	return math.Log10(deficit)
}

// TelicynRisk classifies a cumulative Telicyn index.
func TelicynRisk(i float64) RiskLevel {
	switch {
	case i <= 2.0:
		return RiskNone
	case i <= 3.5:
		return RiskLow
	case i <= 5.0:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// NesterovTerm is one day's contribution to the Nesterov sum. Days at or
// below freezing, or with no saturation deficit, contribute nothing.
func NesterovTerm(temperature, dewPoint float64) float64 {
	deficit := temperature - dewPoint
	if temperature <= 0 || deficit <= 0 {
		return 0
	}
	return temperature * deficit
}

// NesterovRisk classifies a cumulative Nesterov index.
func NesterovRisk(g float64) RiskLevel {
	switch {
	case g <= 300:
		return RiskNone
	case g <= 500:
		return RiskLow
	case g <= 1000:
		return RiskMedium
	case g <= 4000:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

// RiskState is the per-station memory carried between consecutive days.
type RiskState struct {
	LastDate string  `json:"last_date"`
	DryDays  int     `json:"dry_days"`
	Telicyn  float64 `json:"telicyn"`
	Nesterov float64 `json:"nesterov"`
}

// RiskIndices are the values derived for one station day.
type RiskIndices struct {
	DewPoint     Reading
	DryDays      int
	Angstrom     Reading
	AngstromRisk RiskLevel
	Telicyn      float64
	TelicynRisk  RiskLevel
	Nesterov     float64
	NesterovRisk RiskLevel
}

// Step advances a station's state by one day. Missing precipitation is
// treated as an unknown rain event and resets the cumulative values.
// Missing temperature or dew point contributes nothing without resetting.
func Step(state RiskState, obs DailyObservation) (RiskState, RiskIndices) {
	var idx RiskIndices

	humidity := obs.Humidity
	if humidity.Valid {
		humidity = Some(ClampHumidity(humidity.Value))
	}

	idx.DewPoint = obs.DewPoint
	if !idx.DewPoint.Valid && obs.Temperature.Valid && humidity.Valid {
		idx.DewPoint = Some(DewPointApprox(obs.Temperature.Value, humidity.Value))
	}

	if obs.Temperature.Valid && humidity.Valid {
		b := AngstromIndex(obs.Temperature.Value, humidity.Value)
		idx.Angstrom = Some(b)
		idx.AngstromRisk = AngstromRisk(b)
	}

	next := RiskState{LastDate: obs.Date}
	precip := obs.Precipitation
	canAccumulate := obs.Temperature.Valid && idx.DewPoint.Valid

	if precip.Valid && precip.Value <= telicynRainThreshold {
		next.DryDays = state.DryDays + 1
		next.Telicyn = state.Telicyn
		if canAccumulate {
			next.Telicyn += TelicynTerm(obs.Temperature.Value, idx.DewPoint.Value)
		}
	}
	if precip.Valid && precip.Value <= nesterovRainThreshold {
		next.Nesterov = state.Nesterov
		if canAccumulate {
			next.Nesterov += NesterovTerm(obs.Temperature.Value, idx.DewPoint.Value)
		}
	}

	idx.DryDays = next.DryDays
	idx.Telicyn = next.Telicyn
	idx.TelicynRisk = TelicynRisk(next.Telicyn)
	idx.Nesterov = next.Nesterov
	idx.NesterovRisk = NesterovRisk(next.Nesterov)
	return next, idx
}
