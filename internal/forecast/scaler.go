package forecast

import (
	"math"
	"sort"
)

// RobustScaler centres on the median and scales by the interquartile range.
type RobustScaler struct {
	Median float64 `yaml:"median" json:"median"`
	IQR    float64 `yaml:"iqr" json:"iqr"`
}

// FitScaler computes the median and IQR of values. A zero IQR scales by 1.
func FitScaler(values []float64) RobustScaler {
	if len(values) == 0 {
		return RobustScaler{IQR: 1}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	iqr := quantile(sorted, 0.75) - quantile(sorted, 0.25)
	if iqr == 0 || math.IsNaN(iqr) {
		iqr = 1
	}
	return RobustScaler{Median: quantile(sorted, 0.5), IQR: iqr}
}

// Transform scales values into a new slice.
func (s RobustScaler) Transform(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - s.Median) / s.IQR
	}
	return out
}

// Inverse maps a scaled value back to the original units.
func (s RobustScaler) Inverse(v float64) float64 {
	return v*s.IQR + s.Median
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
