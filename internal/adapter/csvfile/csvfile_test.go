package csvfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
)

func sampleRecord() domain.RiskRecord {
	obs := domain.DailyObservation{
		Station:       "A001",
		Date:          "2023-08-01",
		Precipitation: domain.Some(0),
		Pressure:      domain.Some(887.4),
		Temperature:   domain.Some(31.2),
		Humidity:      domain.Some(22),
		DewPoint:      domain.Some(7.8),
		WindSpeed:     domain.Some(3.1),
	}
	station := domain.StationInfo{
		Code: "A001", Name: "BRASILIA", Region: "CO", UF: "DF",
		Latitude: domain.Some(-15.79), Longitude: domain.Some(-47.93), Altitude: domain.Some(1160.96),
	}
	_, idx := domain.Step(domain.RiskState{}, obs)
	r := domain.NewRiskRecord(obs, station, idx, false)
	r.Biome = "Cerrado"
	r.AttachHotspot(domain.Hotspot{Latitude: -15.81, Longitude: -47.92, Distance: 2.41})
	return r
}

func TestRecordsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged", "merged_data.csv")
	want := sampleRecord()
	require.NoError(t, WriteRecords(path, []domain.RiskRecord{want}))

	got, err := ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, want.ID, got[0].ID)
	assert.Equal(t, want.Station, got[0].Station)
	assert.Equal(t, want.Biome, got[0].Biome)
	assert.Equal(t, want.AngstromRisk, got[0].AngstromRisk)
	assert.True(t, got[0].Hotspot)
	assert.InDelta(t, want.Telicyn, got[0].Telicyn, 1e-12)
	assert.InDelta(t, 2.41, got[0].HotspotDistance.Value, 1e-12)
	assert.False(t, got[0].Prediction)
}

func TestReadRecords_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadRecords(filepath.Join(dir, "missing.csv"))
	require.Error(t, err)

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = ReadRecords(empty)
	assert.ErrorIs(t, err, domain.ErrNoRows)

	noStation := filepath.Join(dir, "no_station.csv")
	require.NoError(t, os.WriteFile(noStation, []byte("data,temperatura_ar\n2023-08-01,30\n"), 0o644))
	_, err = ReadRecords(noStation)
	assert.ErrorIs(t, err, domain.ErrMissingColumns)

	badNumber := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(badNumber, []byte("codigo_estacao,data,temperatura_ar\nA001,2023-08-01,hot\n"), 0o644))
	_, err = ReadRecords(badNumber)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestWriteDailyStationsHotspots(t *testing.T) {
	dir := t.TempDir()

	daily := filepath.Join(dir, "INMET", "merged_A001.csv")
	require.NoError(t, WriteDaily(daily, []domain.DailyObservation{
		{Station: "A001", Date: "2023-08-01", Temperature: domain.Some(31.2)},
	}))
	tbl, err := Read(daily)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "31.2", tbl.Rows[0][tbl.Header["temperatura_ar"]])
	assert.Equal(t, "", tbl.Rows[0][tbl.Header["precipitacao_total"]])

	stations := filepath.Join(dir, "INMET", "stations_info.csv")
	require.NoError(t, WriteStations(stations, []domain.StationInfo{{Code: "A001", Name: "BRASILIA"}}))
	tbl, err = Read(stations)
	require.NoError(t, err)
	assert.Equal(t, "BRASILIA", tbl.Rows[0][tbl.Header["estacao"]])

	hotspots := filepath.Join(dir, "inpe.csv")
	require.NoError(t, WriteHotspots(hotspots, []domain.Hotspot{{Date: "2023-08-01", Municipality: "BRASÍLIA", NearestStation: "A001", Distance: 2.41}}))
	tbl, err = Read(hotspots)
	require.NoError(t, err)
	assert.Equal(t, "2.41", tbl.Rows[0][tbl.Header["distancia_estacao_mais_proxima"]])
	assert.Equal(t, "BRASÍLIA", tbl.Rows[0][tbl.Header["municipio"]])
}

func TestWriteLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inmet_failed_files.txt")
	require.NoError(t, WriteLines(path, []string{"a.CSV - boom", "b.CSV - bust"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.CSV - boom", "b.CSV - bust"}, strings.Split(strings.TrimSpace(string(data)), "\n"))
}

func TestReadStations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations_info.csv")
	in := []domain.StationInfo{
		{Code: "A001", Name: "BRASILIA", Region: "CO", UF: "DF", Latitude: domain.Some(-15.79), Longitude: domain.Some(-47.93), Altitude: domain.Some(1160.96), FoundationDate: "2000-05-07"},
		{Code: "A002", Name: "GOIANIA", UF: "GO"},
	}
	require.NoError(t, WriteStations(path, in))

	out, err := ReadStations(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadStations_BadNumber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations_info.csv")
	require.NoError(t, Write(path, StationColumns, [][]string{{"A001", "X", "", "", "abc", "", "", ""}}))

	_, err := ReadStations(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude")
}
