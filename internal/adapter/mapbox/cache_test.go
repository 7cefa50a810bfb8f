package mapbox

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
)

type countingGeocoder struct {
	forwardCalls int
	reverseCalls int
	result       domain.GeocodingResult
	err          error
}

func (m *countingGeocoder) ForwardGeocode(_ context.Context, _, _ string) (domain.GeocodingResult, error) {
	m.forwardCalls++
	return m.result, m.err
}

func (m *countingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	m.reverseCalls++
	return m.result, m.err
}

func newCached(t *testing.T, inner domain.Geocoder, size int) *CachedGeocoder {
	t.Helper()
	c, err := NewCachedGeocoder(inner, size, testMetrics())
	require.NoError(t, err)
	return c
}

func TestCachedGeocoder_ForwardCacheHit(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{Lat: -15.79, Lon: -47.93, Municipality: "Brasília", UF: "DF", FormattedAddress: "Brasília, Distrito Federal, Brasil"},
	}
	cached := newCached(t, inner, 10)

	r1, err := cached.ForwardGeocode(context.Background(), "BRASILIA", "DF")
	require.NoError(t, err)
	assert.Equal(t, "Brasília", r1.Municipality)

	r2, err := cached.ForwardGeocode(context.Background(), "Brasília", "df")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	assert.Equal(t, 1, inner.forwardCalls, "accents and case share one entry")
	assert.Equal(t, 1.0, testutil.ToFloat64(cached.metrics.GeocodeCache.WithLabelValues("forward", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(cached.metrics.GeocodeCache.WithLabelValues("forward", "miss")))
}

func TestCachedGeocoder_ReverseRoundsKey(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{Municipality: "Cuiabá", UF: "MT"},
	}
	cached := newCached(t, inner, 10)

	_, err := cached.ReverseGeocode(context.Background(), -15.60101, -56.09702)
	require.NoError(t, err)
	_, err = cached.ReverseGeocode(context.Background(), -15.60099, -56.09698)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.reverseCalls)
}

func TestCachedGeocoder_DifferentKeysMiss(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{Municipality: "Place", FormattedAddress: "Place, MT"},
	}
	cached := newCached(t, inner, 10)

	_, _ = cached.ForwardGeocode(context.Background(), "CUIABA", "MT")
	_, _ = cached.ForwardGeocode(context.Background(), "SINOP", "MT")

	assert.Equal(t, 2, inner.forwardCalls)
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := newCached(t, inner, 10)

	_, _ = cached.ReverseGeocode(context.Background(), -10, -50)
	_, _ = cached.ReverseGeocode(context.Background(), -10, -50)

	assert.Equal(t, 2, inner.reverseCalls)
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("boom")}
	cached := newCached(t, inner, 10)

	_, err := cached.ForwardGeocode(context.Background(), "CUIABA", "MT")
	require.Error(t, err)
	_, err = cached.ForwardGeocode(context.Background(), "CUIABA", "MT")
	require.Error(t, err)

	assert.Equal(t, 2, inner.forwardCalls)
}

func TestCachedGeocoder_Eviction(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{Municipality: "X"}}
	cached := newCached(t, inner, 2)
	ctx := context.Background()

	_, _ = cached.ForwardGeocode(ctx, "A", "MT")
	_, _ = cached.ForwardGeocode(ctx, "B", "MT")
	_, _ = cached.ForwardGeocode(ctx, "A", "MT") // promotes A
	_, _ = cached.ForwardGeocode(ctx, "C", "MT") // evicts B
	assert.Equal(t, 3, inner.forwardCalls)

	_, _ = cached.ForwardGeocode(ctx, "A", "MT")
	assert.Equal(t, 3, inner.forwardCalls, "A should still be cached")

	_, _ = cached.ForwardGeocode(ctx, "B", "MT")
	assert.Equal(t, 4, inner.forwardCalls, "B should have been evicted")
}

func TestNewCachedGeocoder_InvalidSize(t *testing.T) {
	_, err := NewCachedGeocoder(&countingGeocoder{}, 0, nil)
	require.Error(t, err)
}
