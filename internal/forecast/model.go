package forecast

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// Lambdas are the ridge penalties tried for every model.
var Lambdas = []float64{0, 0.001, 0.01, 0.1, 1, 10}

// Model is a linear autoregression over the scaled last Window values.
type Model struct {
	Station      string       `yaml:"station"`
	Variable     string       `yaml:"variable"`
	Window       int          `yaml:"window"`
	Lambda       float64      `yaml:"lambda"`
	Intercept    float64      `yaml:"intercept"`
	Coefficients []float64    `yaml:"coefficients"`
	Scaler       RobustScaler `yaml:"scaler"`
}

// fitRidge solves min ||Xb + c - y||² + lambda·||b||² by least squares on
// the design matrix augmented with sqrt(lambda)·I. The intercept is not
// penalised.
func fitRidge(x [][]float64, y []float64, lambda float64) (intercept float64, coef []float64, err error) {
	if len(x) == 0 {
		return 0, nil, errors.New("no samples")
	}
	p := len(x[0])
	rows := len(x)
	if lambda > 0 {
		rows += p
	}
	if rows < p+1 {
		return 0, nil, fmt.Errorf("%d samples cannot fit %d parameters", len(x), p+1)
	}

	a := mat.NewDense(rows, p+1, nil)
	b := mat.NewVecDense(rows, nil)
	for i, xi := range x {
		for j, v := range xi {
			a.Set(i, j, v)
		}
		a.Set(i, p, 1)
		b.SetVec(i, y[i])
	}
	if lambda > 0 {
		s := math.Sqrt(lambda)
		for j := 0; j < p; j++ {
			a.Set(len(x)+j, j, s)
		}
	}

	var beta mat.VecDense
	if err := beta.SolveVec(a, b); err != nil {
		return 0, nil, fmt.Errorf("solve: %w", err)
	}
	coef = make([]float64, p)
	for j := range coef {
		coef[j] = beta.AtVec(j)
		if math.IsNaN(coef[j]) || math.IsInf(coef[j], 0) {
			return 0, nil, errors.New("solve: non-finite coefficient")
		}
	}
	return beta.AtVec(p), coef, nil
}

// predictScaled applies the model to one scaled window.
func (m *Model) predictScaled(window []float64) float64 {
	v := m.Intercept
	for j, c := range m.Coefficients {
		v += c * window[j]
	}
	return v
}

// Forecast rolls the model forward steps days from the last Window raw
// values, feeding each prediction back as input.
func (m *Model) Forecast(last []float64, steps int) ([]float64, error) {
	if len(last) < m.Window {
		return nil, fmt.Errorf("need %d values, have %d", m.Window, len(last))
	}
	window := m.Scaler.Transform(last[len(last)-m.Window:])
	out := make([]float64, steps)
	for i := 0; i < steps; i++ {
		next := m.predictScaled(window)
		out[i] = m.Scaler.Inverse(next)
		window = append(window[1:], next)
	}
	return out, nil
}

// ModelPath is where the model of station and variable is stored under dir.
func ModelPath(dir, station, variable string) string {
	return filepath.Join(dir, "forecasters", fmt.Sprintf("%s_%s_forecaster.yaml", station, variable))
}

// Save writes the model as YAML.
func (m *Model) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadModel reads a model saved by Save.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", filepath.Base(path), err)
	}
	if m.Window <= 0 || len(m.Coefficients) != m.Window {
		return nil, fmt.Errorf("%s: %d coefficients for window %d", filepath.Base(path), len(m.Coefficients), m.Window)
	}
	return &m, nil
}
