package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAngstromIndex(t *testing.T) {
	assert.InDelta(t, 1.7, AngstromIndex(30, 40), 1e-9)
	assert.InDelta(t, 4.7, AngstromIndex(20, 80), 1e-9)
}

func TestAngstromRisk(t *testing.T) {
	cases := []struct {
		b    float64
		want RiskLevel
	}{
		{4.5, RiskNone},
		{4.0, RiskLow},
		{2.6, RiskLow},
		{2.5, RiskMedium},
		{2.1, RiskMedium},
		{2.0, RiskHigh},
		{-1, RiskHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AngstromRisk(tc.b), "B=%v", tc.b)
	}
}

func TestTelicynTerm(t *testing.T) {
	assert.InDelta(t, 1.0, TelicynTerm(30, 20), 1e-9)
	assert.Zero(t, TelicynTerm(20, 19.5))
	assert.Zero(t, TelicynTerm(20, 21))
}

func TestTelicynRisk(t *testing.T) {
	assert.Equal(t, RiskNone, TelicynRisk(0))
	assert.Equal(t, RiskNone, TelicynRisk(2.0))
	assert.Equal(t, RiskLow, TelicynRisk(3.5))
	assert.Equal(t, RiskMedium, TelicynRisk(5.0))
	assert.Equal(t, RiskHigh, TelicynRisk(5.01))
}

func TestNesterovRisk(t *testing.T) {
	assert.Equal(t, RiskNone, NesterovRisk(300))
	assert.Equal(t, RiskLow, NesterovRisk(450))
	assert.Equal(t, RiskMedium, NesterovRisk(1000))
	assert.Equal(t, RiskHigh, NesterovRisk(3999))
	assert.Equal(t, RiskVeryHigh, NesterovRisk(4001))
}

func TestNesterovTerm(t *testing.T) {
	tests := []struct {
		name        string
		temperature float64
		dewPoint    float64
		want        float64
	}{
		{"warm and dry", 30, 10, 600},
		{"saturated", 20, 20, 0},
		{"dew point above air", 20, 22, 0},
		{"freezing", 0, -5, 0},
		{"below freezing with negative deficit", -5, 0, 0},
		{"below freezing with positive deficit", -5, -10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NesterovTerm(tt.temperature, tt.dewPoint), 1e-9)
		})
	}
}

func TestDewPointApproxAndClamp(t *testing.T) {
	assert.InDelta(t, 18.0, DewPointApprox(30, 40), 1e-9)
	assert.Equal(t, 100.0, ClampHumidity(104))
	assert.Equal(t, 0.0, ClampHumidity(-3))
	assert.Equal(t, 55.0, ClampHumidity(55))
}

func day(date string, precip, temp, dew, rh float64) DailyObservation {
	return DailyObservation{
		Station:       "A001",
		Date:          date,
		Precipitation: Some(precip),
		Temperature:   Some(temp),
		DewPoint:      Some(dew),
		Humidity:      Some(rh),
	}
}

func TestStep_AccumulatesAndResets(t *testing.T) {
	var state RiskState

	state, idx := Step(state, day("2023-08-01", 0, 30, 20, 40))
	assert.Equal(t, 1, idx.DryDays)
	assert.InDelta(t, 1.0, idx.Telicyn, 1e-9)
	assert.InDelta(t, 300.0, idx.Nesterov, 1e-9)
	assert.Equal(t, RiskNone, idx.NesterovRisk)
	assert.Equal(t, RiskHigh, idx.AngstromRisk)

	// 2.8 mm resets the Telicyn sum but not the Nesterov sum.
	state, idx = Step(state, day("2023-08-02", 2.8, 30, 20, 40))
	assert.Equal(t, 0, idx.DryDays)
	assert.Zero(t, idx.Telicyn)
	assert.InDelta(t, 600.0, idx.Nesterov, 1e-9)
	assert.Equal(t, RiskMedium, idx.NesterovRisk)

	_, idx = Step(state, day("2023-08-03", 10, 30, 20, 40))
	assert.Equal(t, 0, idx.DryDays)
	assert.Zero(t, idx.Telicyn)
	assert.Zero(t, idx.Nesterov)
}

func TestStep_DewPointFallsBackToApproximation(t *testing.T) {
	obs := DailyObservation{
		Station:       "A001",
		Date:          "2023-08-01",
		Precipitation: Some(0),
		Temperature:   Some(30),
		Humidity:      Some(140),
	}
	_, idx := Step(RiskState{}, obs)
	require.True(t, idx.DewPoint.Valid)
	assert.InDelta(t, 30.0, idx.DewPoint.Value, 1e-9)
	assert.InDelta(t, AngstromIndex(30, 100), idx.Angstrom.Value, 1e-9)
}

func TestStep_MissingPrecipitationResets(t *testing.T) {
	obs := day("2023-08-02", 0, 30, 20, 40)
	obs.Precipitation = Reading{}
	_, idx := Step(RiskState{DryDays: 5, Telicyn: 3, Nesterov: 900}, obs)
	assert.Equal(t, 0, idx.DryDays)
	assert.Zero(t, idx.Telicyn)
	assert.Zero(t, idx.Nesterov)
}

func TestStep_MissingTemperatureKeepsSums(t *testing.T) {
	obs := day("2023-08-02", 0, 0, 0, 40)
	obs.Temperature = Reading{}
	obs.DewPoint = Reading{}
	_, idx := Step(RiskState{DryDays: 2, Telicyn: 1.5, Nesterov: 400}, obs)
	assert.Equal(t, 3, idx.DryDays)
	assert.InDelta(t, 1.5, idx.Telicyn, 1e-9)
	assert.InDelta(t, 400.0, idx.Nesterov, 1e-9)
	assert.False(t, idx.Angstrom.Valid)
	assert.Empty(t, idx.AngstromRisk)
}

func TestRiskAccumulator_Apply(t *testing.T) {
	acc := NewRiskAccumulator()

	idx, err := acc.Apply(day("2023-08-01", 0, 30, 20, 40))
	require.NoError(t, err)
	assert.Equal(t, 1, idx.DryDays)

	idx, err = acc.Apply(day("2023-08-02", 0, 30, 20, 40))
	require.NoError(t, err)
	assert.Equal(t, 2, idx.DryDays)
	assert.InDelta(t, 2.0, idx.Telicyn, 1e-9)

	_, err = acc.Apply(day("2023-08-02", 0, 30, 20, 40))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStaleObservation))

	// A missing day restarts the sums.
	idx, err = acc.Apply(day("2023-08-04", 0, 30, 20, 40))
	require.NoError(t, err)
	assert.Equal(t, 1, idx.DryDays)

	state, ok := acc.State("A001")
	require.True(t, ok)
	assert.Equal(t, "2023-08-04", state.LastDate)
}

func TestRiskAccumulator_Seed(t *testing.T) {
	acc := NewRiskAccumulator()
	acc.Seed("A001", RiskState{LastDate: "2023-08-01", DryDays: 10, Telicyn: 4, Nesterov: 2000})

	idx, err := acc.Apply(day("2023-08-02", 1, 30, 20, 40))
	require.NoError(t, err)
	assert.Equal(t, 11, idx.DryDays)
	assert.InDelta(t, 5.0, idx.Telicyn, 1e-9)
	assert.InDelta(t, 2300.0, idx.Nesterov, 1e-9)
}

func TestRiskAccumulator_RejectsInvalid(t *testing.T) {
	acc := NewRiskAccumulator()
	_, err := acc.Apply(DailyObservation{Date: "2023-08-01"})
	require.Error(t, err)

	_, err = acc.Apply(DailyObservation{Station: "A001", Date: "01/08/2023"})
	require.Error(t, err)
}

func TestAdvance_LeavesAccumulatorUntouched(t *testing.T) {
	acc := NewRiskAccumulator()
	acc.Seed("A001", RiskState{LastDate: "2023-08-01", DryDays: 3})

	state, ok := acc.State("A001")
	next, idx, err := Advance(state, ok, day("2023-08-02", 0, 30, 20, 40))
	require.NoError(t, err)
	assert.Equal(t, 4, idx.DryDays)
	assert.Equal(t, "2023-08-02", next.LastDate)

	stored, _ := acc.State("A001")
	assert.Equal(t, "2023-08-01", stored.LastDate)
	assert.Equal(t, 3, stored.DryDays)

	_, _, err = Advance(next, true, day("2023-08-02", 0, 30, 20, 40))
	assert.ErrorIs(t, err, ErrStaleObservation)
}
