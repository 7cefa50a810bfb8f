package xlsx

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
)

func TestWrite(t *testing.T) {
	obs := domain.DailyObservation{
		Station:       "A001",
		Date:          "2023-08-01",
		Precipitation: domain.Some(0),
		Temperature:   domain.Some(31.2),
		Humidity:      domain.Some(22),
	}
	_, idx := domain.Step(domain.RiskState{}, obs)
	rec := domain.NewRiskRecord(obs, domain.StationInfo{Code: "A001", UF: "DF"}, idx, true)

	path := filepath.Join(t.TempDir(), "out", "riscos.xlsx")
	require.NoError(t, Write(path, []domain.RiskRecord{rec}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(Sheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.Columns, rows[0])
	assert.Equal(t, "A001", rows[1][0])
	assert.Equal(t, "2023-08-01", rows[1][1])
	assert.Equal(t, "31.2", rows[1][4])

	// is_prediction is the last column and is stored as a number
	last, err := excelize.CoordinatesToCellName(len(domain.Columns), 2)
	require.NoError(t, err)
	v, err := f.GetCellValue(Sheet, last)
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestRowValues_MissingAreEmpty(t *testing.T) {
	rec := domain.RiskRecord{Station: "A001", Date: "2023-08-01"}
	values := rowValues(rec)
	require.Len(t, values, len(domain.Columns))
	assert.Equal(t, "A001", values[0])
	assert.Nil(t, values[2], "precipitation missing")
	assert.Equal(t, "false", values[22], "foco_incendio stays text")
}
