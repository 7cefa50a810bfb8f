package domain

import (
	"errors"
	"fmt"
	"sync"
)

// ErrStaleObservation is returned for a day at or before the station's last accepted day.
var ErrStaleObservation = errors.New("stale observation")

// RiskAccumulator keeps cumulative index state per station. Safe for
// concurrent use.
type RiskAccumulator struct {
	mu     sync.Mutex
	states map[string]RiskState
}

func NewRiskAccumulator() *RiskAccumulator {
	return &RiskAccumulator{states: make(map[string]RiskState)}
}

// Seed installs a known state for a station, e.g. the last historical day
// before predictions start.
func (a *RiskAccumulator) Seed(station string, state RiskState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.states[station] = state
}

// State returns the current state of a station.
func (a *RiskAccumulator) State(station string) (RiskState, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.states[station]
	return s, ok
}

// Apply advances the station by one day and stores the new state.
func (a *RiskAccumulator) Apply(obs DailyObservation) (RiskIndices, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	state, ok := a.states[obs.Station]
	next, idx, err := Advance(state, ok, obs)
	if err != nil {
		return RiskIndices{}, err
	}
	a.states[obs.Station] = next
	return idx, nil
}

// Advance computes the state after obs without storing it. Days must
// arrive in increasing order; a gap of more than one day starts the sums
// from zero because the rain in between is unknown. known reports whether
// state belongs to the station at all.
func Advance(state RiskState, known bool, obs DailyObservation) (RiskState, RiskIndices, error) {
	if obs.Station == "" {
		return state, RiskIndices{}, errors.New("observation has no station code")
	}
	day, err := ParseDay(obs.Date)
	if err != nil {
		return state, RiskIndices{}, err
	}

	if known && state.LastDate != "" {
		last, err := ParseDay(state.LastDate)
		if err != nil {
			return state, RiskIndices{}, err
		}
		if !day.After(last) {
			return state, RiskIndices{}, fmt.Errorf("%w: station %s day %s, last accepted %s",
				ErrStaleObservation, obs.Station, obs.Date, state.LastDate)
		}
		if day.Sub(last).Hours() > 24 {
			state = RiskState{}
		}
	}

	next, idx := Step(state, obs)
	return next, idx, nil
}
