package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// Reading is an optional measurement. Source files mark absent values with
// sentinels or empty cells; those become the zero Reading.
type Reading struct {
	Value float64
	Valid bool
}

// Some wraps a present value. NaN and infinities are treated as missing.
func Some(v float64) Reading {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Reading{}
	}
	return Reading{Value: v, Valid: true}
}

// Or returns the value, or def when the reading is missing.
func (r Reading) Or(def float64) float64 {
	if !r.Valid {
		return def
	}
	return r.Value
}

// Ptr returns nil for a missing reading, for database NULLs.
func (r Reading) Ptr() *float64 {
	if !r.Valid {
		return nil
	}
	v := r.Value
	return &v
}

// Round returns the reading rounded to the given number of decimals.
func (r Reading) Round(decimals int) Reading {
	if !r.Valid {
		return r
	}
	return Some(Round(r.Value, decimals))
}

// String formats the value with the shortest exact representation, or ""
// when missing.
func (r Reading) String() string {
	if !r.Valid {
		return ""
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}

func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Reading) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Reading{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Some(v)
	return nil
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// mean averages the valid readings; missing when none are valid.
func mean(values []Reading) Reading {
	var sum float64
	var n int
	for _, v := range values {
		if v.Valid {
			sum += v.Value
			n++
		}
	}
	if n == 0 {
		return Reading{}
	}
	return Some(sum / float64(n))
}

// sum adds the valid readings; missing when none are valid.
func sum(values []Reading) Reading {
	var total float64
	var n int
	for _, v := range values {
		if v.Valid {
			total += v.Value
			n++
		}
	}
	if n == 0 {
		return Reading{}
	}
	return Some(total)
}
