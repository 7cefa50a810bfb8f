package pipeline_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/pipeline"
)

// dryingSpell is two weeks of a station with rain on day 0 and day 9,
// delivered with one duplicate and a three-day outage.
func dryingSpell(t *testing.T, station string) []domain.RawEvent {
	t.Helper()
	start := time.Date(2023, time.August, 1, 0, 0, 0, 0, time.UTC)
	var out []domain.RawEvent
	for day := 0; day < 14; day++ {
		if day >= 5 && day <= 6 {
			continue // outage
		}
		precip := 0.0
		if day == 0 || day == 9 {
			precip = 12
		}
		date := start.AddDate(0, 0, day).Format(domain.DateLayout)
		out = append(out, makeRawEvent(t, observation(station, date, precip, 32, 12)))
		if day == 3 {
			out = append(out, makeRawEvent(t, observation(station, date, 0, 32, 12)))
		}
	}
	return out
}

func TestPipeline_StreamsDryingSpell(t *testing.T) {
	var batches [][]domain.RawEvent
	for _, station := range []string{"A001", "A002"} {
		events := dryingSpell(t, station)
		for len(events) > 0 {
			n := min(4, len(events))
			batches = append(batches, events[:n])
			events = events[n:]
		}
	}

	tfm := pipeline.NewTransformer(nil, nil, discardLogger())
	ldr := &mockLoader{}
	metrics := newTestMetrics()
	p := pipeline.New(&mockExtractor{batches: batches}, tfm, ldr, discardLogger(), metrics, 4)
	runFor(t, p, 500*time.Millisecond)

	byStation := map[string][]domain.RiskRecord{}
	for _, r := range ldr.loaded {
		byStation[r.Station] = append(byStation[r.Station], r)
	}

	cases := []struct {
		date    string
		dryDays int
	}{
		{"2023-08-01", 0},
		{"2023-08-02", 1},
		{"2023-08-05", 4},
		{"2023-08-08", 1}, // the outage restarts the count
		{"2023-08-09", 2},
		{"2023-08-10", 0},
		{"2023-08-14", 4},
	}
	for _, station := range []string{"A001", "A002"} {
		records := byStation[station]
		require.Len(t, records, 12, station)
		dates := map[string]domain.RiskRecord{}
		for _, r := range records {
			dates[r.Date] = r
		}
		for _, tc := range cases {
			t.Run(fmt.Sprintf("%s/%s", station, tc.date), func(t *testing.T) {
				r, ok := dates[tc.date]
				require.True(t, ok)
				assert.Equal(t, tc.dryDays, r.DryDays)
				assert.Equal(t, domain.RiskHigh, r.AngstromRisk)
			})
		}
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.TransformErrors), "the duplicate day of each station is dropped")
	state, ok := tfm.StationState("A001")
	require.True(t, ok)
	assert.Equal(t, "2023-08-14", state.LastDate)
	require.NoError(t, p.CheckReadiness(context.Background()))
}
