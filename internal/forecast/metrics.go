package forecast

import "math"

// epsilon guards MAPE against zero targets (float64 machine epsilon).
const epsilon = 2.220446049250313e-16

// MAPE is the mean absolute percentage error, as a fraction.
func MAPE(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return math.NaN()
	}
	var total float64
	for i, a := range actual {
		total += math.Abs(a-predicted[i]) / math.Max(math.Abs(a), epsilon)
	}
	return total / float64(len(actual))
}

// MSE is the mean squared error.
func MSE(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return math.NaN()
	}
	var total float64
	for i, a := range actual {
		d := a - predicted[i]
		total += d * d
	}
	return total / float64(len(actual))
}

// Scores are the test-split errors of one model in original units.
type Scores struct {
	MAPE float64 `json:"MAPE"`
	MSE  float64 `json:"MSE"`
}
