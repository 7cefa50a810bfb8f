package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
)

// RiskTransformer implements Transformer and BatchCommitter. It decodes a
// DailyObservation, advances the station's cumulative state and attaches
// station metadata. States advanced during a batch stay pending until the
// batch is loaded, so a redelivered batch is recomputed from the same base.
type RiskTransformer struct {
	acc      *domain.RiskAccumulator
	pending  map[string]domain.RiskState
	stations map[string]domain.StationInfo
	biomes   map[string]string
	logger   *slog.Logger
}

// NewTransformer creates a RiskTransformer. stations is the catalogue
// written by preprocessing; history, when present, seeds each station's
// state and biome so the stream continues where the batch run stopped.
func NewTransformer(stations []domain.StationInfo, history []domain.RiskRecord, logger *slog.Logger) *RiskTransformer {
	t := &RiskTransformer{
		acc:      domain.NewRiskAccumulator(),
		pending:  make(map[string]domain.RiskState),
		logger:   logger,
		stations: make(map[string]domain.StationInfo, len(stations)),
		biomes:   make(map[string]string),
	}
	for _, r := range history {
		if _, ok := t.stations[r.Station]; !ok {
			t.stations[r.Station] = r.StationInfo()
		}
		if r.Biome != "" {
			t.biomes[r.Station] = r.Biome
		}
	}
	for _, s := range stations {
		t.stations[s.Code] = s
	}
	for code, state := range domain.FinalStates(history) {
		t.acc.Seed(code, state)
	}
	return t
}

func (t *RiskTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.RiskRecord, error) {
	var obs domain.DailyObservation
	if err := json.Unmarshal(raw.Value, &obs); err != nil {
		return domain.RiskRecord{}, fmt.Errorf("decode observation: %w", err)
	}
	if obs.Station == "" {
		obs.Station = string(raw.Key)
	}

	state, known := t.pending[obs.Station]
	if !known {
		state, known = t.acc.State(obs.Station)
	}
	next, idx, err := domain.Advance(state, known, obs)
	if err != nil {
		if errors.Is(err, domain.ErrStaleObservation) {
			t.logger.Debug("stale observation", "station", obs.Station, "date", obs.Date)
		}
		return domain.RiskRecord{}, err
	}
	t.pending[obs.Station] = next

	info, ok := t.stations[obs.Station]
	if !ok {
		t.logger.Debug("observation from unknown station", "station", obs.Station)
		info = domain.StationInfo{Code: obs.Station}
	}

	record := domain.NewRiskRecord(obs, info, idx, false)
	record.Biome = t.biomes[obs.Station]
	return record, nil
}

// CommitBatch stores the states advanced since the last commit or discard.
func (t *RiskTransformer) CommitBatch() {
	for code, state := range t.pending {
		t.acc.Seed(code, state)
	}
	clear(t.pending)
}

// DiscardBatch drops pending states after a failed load.
func (t *RiskTransformer) DiscardBatch() {
	clear(t.pending)
}

// StationState returns the cumulative state of a station as of the last
// loaded batch.
func (t *RiskTransformer) StationState(code string) (domain.RiskState, bool) {
	return t.acc.State(code)
}
