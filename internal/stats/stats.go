// Package stats provides the small set of descriptive statistics the
// analysis modules need: mean, extrema, sum, and a linear-interpolated
// percentile over float64 series, plus tolerant numeric coercion for
// loosely-typed row values.
package stats

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// ToFloat converts a loosely-typed cell value to a float64. It accepts the
// integer and float families plus numeric strings; NaN, infinities, nil,
// and anything unparseable are rejected.
func ToFloat(value any) (float64, bool) {
	var numeric float64
	switch v := value.(type) {
	case int:
		numeric = float64(v)
	case int32:
		numeric = float64(v)
	case int64:
		numeric = float64(v)
	case float32:
		numeric = float64(v)
	case float64:
		numeric = v
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		numeric = parsed
	default:
		return 0, false
	}
	if math.IsNaN(numeric) || math.IsInf(numeric, 0) {
		return 0, false
	}
	return numeric, true
}

// Mean returns the arithmetic mean, or false for an empty series.
func Mean(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	return Sum(series) / float64(len(series)), true
}

// Sum returns the sum of the series.
func Sum(series []float64) float64 {
	total := 0.0
	for _, v := range series {
		total += v
	}
	return total
}

// Min returns the smallest value, or false for an empty series.
func Min(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	min := series[0]
	for _, v := range series[1:] {
		if v < min {
			min = v
		}
	}
	return min, true
}

// Max returns the largest value, or false for an empty series.
func Max(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	max := series[0]
	for _, v := range series[1:] {
		if v > max {
			max = v
		}
	}
	return max, true
}

// Percentile returns the q-th percentile (q in [0,1]) using linear
// interpolation between order statistics, so Percentile([100,200], 0.95)
// is 195. Returns false for an empty series.
func Percentile(series []float64, q float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	sorted := append([]float64(nil), series...)
	sort.Float64s(sorted)

	rank := q * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower], true
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower]), true
}

// Round2 rounds to two decimal places.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}
