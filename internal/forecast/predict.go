package forecast

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/adapter/csvfile"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
)

// PredictionColumns is the header of predictions_7_days.csv.
var PredictionColumns = []string{"codigo_estacao", "data", "variavel", "previsao"}

// Prediction is one forecast value in long format.
type Prediction struct {
	Station  string
	Date     string
	Variable string
	Value    float64
}

// Predict forecasts Horizon days after each station's last observed day
// using the models stored under dir. Stations or variables without a model,
// or without Window consecutive days ending on that day, are skipped.
func Predict(dir string, records []domain.RiskRecord, logger *slog.Logger) ([]Prediction, error) {
	var out []Prediction
	for _, h := range groupHistory(records) {
		last, err := domain.ParseDay(h.lastDate())
		if err != nil {
			return nil, fmt.Errorf("station %s: %w", h.station, err)
		}
		for _, variable := range Variables {
			m, err := LoadModel(ModelPath(dir, h.station, variable))
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, err
			}
			values, err := m.Forecast(h.recent(variable), Horizon)
			if err != nil {
				logger.Warn("skipping prediction",
					"station", h.station,
					"variable", variable,
					"error", err,
				)
				continue
			}
			for i, v := range values {
				out = append(out, Prediction{
					Station:  h.station,
					Date:     last.AddDate(0, 0, i+1).Format(domain.DateLayout),
					Variable: variable,
					Value:    v,
				})
			}
		}
	}
	return out, nil
}

// WritePredictions writes predictions in long format.
func WritePredictions(path string, preds []Prediction) error {
	rows := make([][]string, len(preds))
	for i, p := range preds {
		rows[i] = []string{p.Station, p.Date, p.Variable, strconv.FormatFloat(p.Value, 'f', -1, 64)}
	}
	return csvfile.Write(path, PredictionColumns, rows)
}

// ReadPredictions reads a file written by WritePredictions.
func ReadPredictions(path string) ([]Prediction, error) {
	t, err := csvfile.Read(path)
	if err != nil {
		return nil, err
	}
	for _, col := range PredictionColumns {
		if _, ok := t.Header[col]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrMissingColumns, col)
		}
	}
	out := make([]Prediction, 0, len(t.Rows))
	for i, row := range t.Rows {
		if len(row) < len(PredictionColumns) {
			return nil, fmt.Errorf("row %d: %d fields", i+2, len(row))
		}
		v, err := strconv.ParseFloat(row[t.Header["previsao"]], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, Prediction{
			Station:  row[t.Header["codigo_estacao"]],
			Date:     row[t.Header["data"]],
			Variable: row[t.Header["variavel"]],
			Value:    v,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Station != out[j].Station {
			return out[i].Station < out[j].Station
		}
		return out[i].Date < out[j].Date
	})
	return out, nil
}
