package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToFloat(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    any
		expected float64
		ok       bool
	}{
		{name: "int", input: 7, expected: 7, ok: true},
		{name: "int64", input: int64(9), expected: 9, ok: true},
		{name: "float64", input: 2.5, expected: 2.5, ok: true},
		{name: "numeric string", input: "3.25", expected: 3.25, ok: true},
		{name: "padded numeric string", input: " 10 ", expected: 10, ok: true},
		{name: "blank string", input: "   ", ok: false},
		{name: "word", input: "fast", ok: false},
		{name: "nil", input: nil, ok: false},
		{name: "bool", input: true, ok: false},
		{name: "NaN", input: math.NaN(), ok: false},
		{name: "infinity", input: math.Inf(1), ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			value, ok := ToFloat(tc.input)

			require.Equal(t, tc.ok, ok)
			if tc.ok {
				require.Equal(t, tc.expected, value)
			}
		})
	}
}

func TestPercentile_LinearInterpolation(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	series := []float64{100, 200}

	// --- Act ---
	p95, ok := Percentile(series, 0.95)

	// --- Assert ---
	require.True(t, ok)
	require.InDelta(t, 195.0, p95, 1e-9)
}

func TestPercentile_Boundaries(t *testing.T) {
	t.Parallel()

	series := []float64{30, 10, 20}

	p0, ok := Percentile(series, 0)
	require.True(t, ok)
	require.Equal(t, 10.0, p0)

	p100, ok := Percentile(series, 1)
	require.True(t, ok)
	require.Equal(t, 30.0, p100)

	median, ok := Percentile(series, 0.5)
	require.True(t, ok)
	require.Equal(t, 20.0, median)
}

func TestPercentile_EmptySeries(t *testing.T) {
	t.Parallel()

	_, ok := Percentile(nil, 0.95)
	require.False(t, ok)
}

func TestMeanMinMaxSum(t *testing.T) {
	t.Parallel()

	series := []float64{100, 200}

	mean, ok := Mean(series)
	require.True(t, ok)
	require.Equal(t, 150.0, mean)

	min, ok := Min(series)
	require.True(t, ok)
	require.Equal(t, 100.0, min)

	max, ok := Max(series)
	require.True(t, ok)
	require.Equal(t, 200.0, max)

	require.Equal(t, 300.0, Sum(series))

	_, ok = Mean(nil)
	require.False(t, ok)
}

func TestRound2(t *testing.T) {
	t.Parallel()

	require.Equal(t, 123.46, Round2(123.456))
	require.Equal(t, 123.45, Round2(123.454))
	require.Equal(t, -1.24, Round2(-1.236))
}
