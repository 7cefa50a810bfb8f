package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- mock geocoder ---

type mockGeocoder struct {
	forwardResult GeocodingResult
	forwardErr    error
	reverseResult GeocodingResult
	reverseErr    error
	forwardCalls  int
	reverseCalls  int
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, _, _ string) (GeocodingResult, error) {
	m.forwardCalls++
	return m.forwardResult, m.forwardErr
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (GeocodingResult, error) {
	m.reverseCalls++
	return m.reverseResult, m.reverseErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestLocateStation_NilGeocoder(t *testing.T) {
	s := StationInfo{Code: "A999", Name: "GOIANIA", UF: "GO"}
	got := LocateStation(context.Background(), s, nil, discardLogger())
	assert.False(t, got.HasCoordinates())
}

func TestLocateStation_ForwardGeocode(t *testing.T) {
	geo := &mockGeocoder{forwardResult: GeocodingResult{Lat: -16.68, Lon: -49.25}}
	s := StationInfo{Code: "A002", Name: "GOIANIA", UF: "GO"}

	got := LocateStation(context.Background(), s, geo, discardLogger())

	assert.True(t, got.HasCoordinates())
	assert.Equal(t, -16.68, got.Latitude.Value)
	assert.Equal(t, -49.25, got.Longitude.Value)
	assert.Equal(t, 1, geo.forwardCalls)
}

func TestLocateStation_SkipsWhenCoordinatesPresent(t *testing.T) {
	geo := &mockGeocoder{}
	s := StationInfo{Code: "A001", Name: "BRASILIA", Latitude: Some(-15.79), Longitude: Some(-47.93)}

	LocateStation(context.Background(), s, geo, discardLogger())
	assert.Equal(t, 0, geo.forwardCalls)
}

func TestLocateStation_ErrorLeavesStation(t *testing.T) {
	geo := &mockGeocoder{forwardErr: errors.New("timeout")}
	s := StationInfo{Code: "A002", Name: "GOIANIA", UF: "GO"}

	got := LocateStation(context.Background(), s, geo, discardLogger())
	assert.Equal(t, s, got)
}

func TestPlaceDetection_FillsBlankFields(t *testing.T) {
	geo := &mockGeocoder{reverseResult: GeocodingResult{Municipality: "Corumbá", UF: "MS"}}
	d := HotspotDetection{Latitude: Some(-19.0), Longitude: Some(-57.6)}

	got := PlaceDetection(context.Background(), d, geo, discardLogger())

	assert.Equal(t, "CORUMBÁ", got.Municipality)
	assert.Equal(t, "MS", got.UF)
	assert.Equal(t, 1, geo.reverseCalls)
}

func TestPlaceDetection_KeepsKnownFields(t *testing.T) {
	geo := &mockGeocoder{reverseResult: GeocodingResult{Municipality: "Other", UF: "MT"}}
	d := HotspotDetection{Latitude: Some(-19.0), Longitude: Some(-57.6), Municipality: "CORUMBÁ"}

	got := PlaceDetection(context.Background(), d, geo, discardLogger())

	assert.Equal(t, "CORUMBÁ", got.Municipality)
	assert.Equal(t, "MT", got.UF)
}

func TestPlaceDetection_NoCallWhenComplete(t *testing.T) {
	geo := &mockGeocoder{}
	d := HotspotDetection{Latitude: Some(-19.0), Longitude: Some(-57.6), Municipality: "CORUMBÁ", UF: "MS"}

	PlaceDetection(context.Background(), d, geo, discardLogger())
	assert.Equal(t, 0, geo.reverseCalls)
}

func TestPlaceDetection_NoCoordinates(t *testing.T) {
	geo := &mockGeocoder{}
	PlaceDetection(context.Background(), HotspotDetection{}, geo, discardLogger())
	assert.Equal(t, 0, geo.reverseCalls)
}

func TestPlaceDetection_Error(t *testing.T) {
	geo := &mockGeocoder{reverseErr: errors.New("rate limited")}
	d := HotspotDetection{Latitude: Some(-19.0), Longitude: Some(-57.6)}

	got := PlaceDetection(context.Background(), d, geo, discardLogger())
	assert.Empty(t, got.Municipality)
	assert.Equal(t, 1, geo.reverseCalls)
}
