package mapbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/observability"
)

const (
	testToken         = "test-token"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	return &Client{
		token:      testToken,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func serveJSON(t *testing.T, check func(r *http.Request), resp response) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ForwardGeocode_Success(t *testing.T) {
	srv := serveJSON(t, func(r *http.Request) {
		assert.Contains(t, r.URL.Path, "BRASILIA, DF")
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("limit"))
		assert.Equal(t, "br", q.Get("country"))
		assert.Equal(t, "pt", q.Get("language"))
		assert.Equal(t, testToken, q.Get("access_token"))
	}, response{Features: []feature{{
		ID:        "place.123",
		Center:    []float64{-47.8823, -15.7939},
		PlaceName: "Brasília, Distrito Federal, Brasil",
		Text:      "Brasília",
		Relevance: 0.95,
		Context: []contextItem{
			{ID: "region.1", Text: "Distrito Federal", ShortCode: "BR-DF"},
			{ID: "country.2", Text: "Brasil", ShortCode: "br"},
		},
	}}})

	c := testClient(srv.URL)
	result, err := c.ForwardGeocode(context.Background(), "BRASILIA", "DF")
	require.NoError(t, err)

	assert.Equal(t, -15.7939, result.Lat)
	assert.Equal(t, -47.8823, result.Lon)
	assert.Equal(t, "Brasília, Distrito Federal, Brasil", result.FormattedAddress)
	assert.Equal(t, "Brasília", result.Municipality)
	assert.Equal(t, "DF", result.UF)
	assert.Equal(t, 0.95, result.Confidence)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("forward", "success")))
}

func TestClient_ReverseGeocode_Success(t *testing.T) {
	srv := serveJSON(t, func(r *http.Request) {
		assert.Contains(t, r.URL.Path, "-51.123400,-11.567800")
		assert.Equal(t, "place", r.URL.Query().Get("types"))
	}, response{Features: []feature{{
		ID:        "place.9",
		Center:    []float64{-50.67, -11.62},
		PlaceName: "São Félix do Araguaia, Mato Grosso, Brasil",
		Text:      "São Félix do Araguaia",
		Relevance: 0.98,
		Context: []contextItem{
			{ID: "region.5", Text: "Mato Grosso", ShortCode: "BR-MT"},
		},
	}}})

	c := testClient(srv.URL)
	result, err := c.ReverseGeocode(context.Background(), -11.5678, -51.1234)
	require.NoError(t, err)

	assert.Equal(t, "São Félix do Araguaia", result.Municipality)
	assert.Equal(t, "MT", result.UF)
	assert.Equal(t, 0.98, result.Confidence)
}

func TestFeatureResult_ContextFallbacks(t *testing.T) {
	f := feature{
		ID:   "locality.1",
		Text: "Distrito",
		Context: []contextItem{
			{ID: "place.4", Text: "Alta Floresta"},
			{ID: "region.5", Text: "Mato Grosso"},
		},
	}
	r := f.result()
	assert.Equal(t, "Alta Floresta", r.Municipality)
	assert.Equal(t, "MT", r.UF, "region name resolves when short code is missing")
}

func TestClient_ForwardGeocode_NoResults(t *testing.T) {
	srv := serveJSON(t, nil, response{Features: []feature{}})

	c := testClient(srv.URL)
	result, err := c.ForwardGeocode(context.Background(), "NONEXISTENT", "")
	require.NoError(t, err)
	assert.Equal(t, float64(0), result.Lat)
	assert.Empty(t, result.FormattedAddress)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("forward", "empty")))
}

func TestClient_ForwardGeocode_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not Authorized"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.token = "bad-token"

	_, err := c.ForwardGeocode(context.Background(), "CUIABA", "MT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("forward", "error")))
}

func TestClient_ForwardGeocode_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}

	_, err := c.ForwardGeocode(context.Background(), "CUIABA", "MT")
	require.Error(t, err)
}
