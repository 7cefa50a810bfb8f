// Package forecast trains per-station autoregressive models on the daily
// weather history and predicts the next days.
package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/observability"
)

// ErrTooFewRows is returned when a series is too short to train on.
var ErrTooFewRows = errors.New("too few rows")

// Trainer fits and stores one model per station and variable under Dir.
type Trainer struct {
	Dir     string
	Workers int
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Fit is the outcome of training one variable.
type Fit struct {
	Model *Model
	// ValidationMSE holds the scaled validation error of each entry of Lambdas;
	// NaN where that penalty could not be solved.
	ValidationMSE []float64
	Scores        Scores
}

// TrainSeries trains on one run of consecutive days.
func TrainSeries(values []float64) (Fit, error) {
	return TrainSegments([][]float64{values})
}

// TrainSegments selects the ridge penalty on the validation split and scores
// the chosen model on the test split. Each segment is a run of consecutive
// days; windows are built inside segments and kept in date order.
func TrainSegments(segments [][]float64) (Fit, error) {
	var all []float64
	for _, seg := range segments {
		all = append(all, seg...)
	}
	if len(all) < minRows {
		return Fit{}, fmt.Errorf("%w: %d < %d", ErrTooFewRows, len(all), minRows)
	}

	scaler := FitScaler(all)
	var (
		x [][]float64
		y []float64
	)
	for _, seg := range segments {
		xs, ys := windows(scaler.Transform(seg), Window)
		x = append(x, xs...)
		y = append(y, ys...)
	}
	if need := minRows - Window; len(x) < need {
		return Fit{}, fmt.Errorf("%w: %d windows of consecutive days < %d", ErrTooFewRows, len(x), need)
	}

	cut := splitIndex(len(x), 0.2)
	xTrain, yTrain := x[:cut], y[:cut]
	xRest, yRest := x[cut:], y[cut:]
	cut = splitIndex(len(xRest), 0.2)
	xVal, yVal := xRest[:cut], yRest[:cut]
	xTest, yTest := xRest[cut:], yRest[cut:]
	if len(xVal) == 0 {
		xVal, yVal = xTrain, yTrain
	}

	fit := Fit{ValidationMSE: make([]float64, len(Lambdas))}
	bestMSE := math.Inf(1)
	for i, lambda := range Lambdas {
		intercept, coef, err := fitRidge(xTrain, yTrain, lambda)
		if err != nil {
			fit.ValidationMSE[i] = math.NaN()
			continue
		}
		m := &Model{Window: Window, Lambda: lambda, Intercept: intercept, Coefficients: coef, Scaler: scaler}
		mse := MSE(yVal, predictAll(m, xVal))
		fit.ValidationMSE[i] = mse
		if mse < bestMSE {
			bestMSE = mse
			fit.Model = m
		}
	}
	if fit.Model == nil {
		return Fit{}, errors.New("no ridge penalty could be solved")
	}

	actual := make([]float64, len(yTest))
	predicted := predictAll(fit.Model, xTest)
	for i := range yTest {
		actual[i] = scaler.Inverse(yTest[i])
		predicted[i] = scaler.Inverse(predicted[i])
	}
	fit.Scores = Scores{MAPE: MAPE(actual, predicted), MSE: MSE(actual, predicted)}
	return fit, nil
}

func predictAll(m *Model, x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = m.predictScaled(xi)
	}
	return out
}

// Train fits every variable of every station in records, writing models,
// metrics and plots. It returns the number of models stored.
func (t *Trainer) Train(ctx context.Context, records []domain.RiskRecord) (int, error) {
	histories := groupHistory(records)
	if len(histories) == 0 {
		return 0, fmt.Errorf("%w: no history to train on", domain.ErrNoRows)
	}
	for _, sub := range []string{"forecasters", "metrics", "plots"} {
		if err := os.MkdirAll(filepath.Join(t.Dir, sub), 0o755); err != nil {
			return 0, fmt.Errorf("create %s dir: %w", sub, err)
		}
	}

	counts := make([]int, len(histories))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(t.Workers, 1))
	for i, h := range histories {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := t.trainStation(h)
			counts[i] = n
			return err
		})
	}
	err := g.Wait()

	total := 0
	for _, n := range counts {
		total += n
	}
	return total, err
}

func (t *Trainer) trainStation(h history) (int, error) {
	fits := make(map[string]Fit)
	scores := make(map[string]Scores)
	for _, variable := range Variables {
		fit, err := TrainSegments(h.segments(variable))
		if err != nil {
			t.Logger.Warn("skipping forecaster",
				"station", h.station,
				"variable", variable,
				"error", err,
			)
			t.count(variable, "skipped")
			continue
		}
		fit.Model.Station = h.station
		fit.Model.Variable = variable
		if err := fit.Model.Save(ModelPath(t.Dir, h.station, variable)); err != nil {
			return len(fits), fmt.Errorf("save %s/%s: %w", h.station, variable, err)
		}
		fits[variable] = fit
		scores[variable] = fit.Scores
		t.count(variable, "trained")
	}
	if len(fits) == 0 {
		return 0, nil
	}

	if err := writeScores(filepath.Join(t.Dir, "metrics", h.station+"_metrics.json"), scores); err != nil {
		return len(fits), err
	}
	if err := savePlot(filepath.Join(t.Dir, "plots", h.station+"_plot.png"), h.station, fits); err != nil {
		t.Logger.Warn("validation plot failed", "station", h.station, "error", err)
	}
	t.Logger.Info("station forecasters trained", "station", h.station, "models", len(fits))
	return len(fits), nil
}

func (t *Trainer) count(variable, outcome string) {
	if t.Metrics != nil {
		t.Metrics.ForecastModels.WithLabelValues(variable, outcome).Inc()
	}
}

func writeScores(path string, scores map[string]Scores) error {
	data, err := json.MarshalIndent(scores, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
