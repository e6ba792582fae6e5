package timeaxis_test

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandb/threadline/internal/timeaxis"
)

func TestOptimalUnit(t *testing.T) {
	testCases := []struct {
		zoom float64
		want int64
	}{
		{zoom: 20, want: 10},
		{zoom: 1, want: 250},
		{zoom: 0.24, want: 500},
		{zoom: 0.03, want: 5_000},
		{zoom: 0.001, want: 120_000},
		{zoom: 1e-12, want: 432_000_000},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, timeaxis.OptimalUnit(tc.zoom, 120), "zoom=%v", tc.zoom)
	}
}

func TestOptimalUnit_MonotonicInZoom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	zooms := make([]float64, 2000)
	for i := range zooms {
		zooms[i] = rng.ExpFloat64() * 0.05
	}
	sort.Float64s(zooms)

	prev := timeaxis.OptimalUnit(zooms[0], 120)
	for _, z := range zooms[1:] {
		unit := timeaxis.OptimalUnit(z, 120)
		require.LessOrEqual(t, unit, prev, "zoom=%v", z)
		prev = unit
	}
}

func TestOptimalUnit_RespectsMinimumDistance(t *testing.T) {
	for _, z := range []float64{5, 0.3, 0.03, 0.002, 0.00005} {
		unit := timeaxis.OptimalUnit(z, 120)
		if unit != 432_000_000 {
			assert.GreaterOrEqual(t, float64(unit)*z, 120.0)
		}
	}
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 250*time.Millisecond, timeaxis.Duration(250))
	assert.Equal(t, "5s", timeaxis.Duration(5_000).String())
}

func TestFirstMark(t *testing.T) {
	assert.Equal(t, int64(200), timeaxis.FirstMark(150, 100))
	assert.Equal(t, int64(200), timeaxis.FirstMark(200, 100))
	assert.Equal(t, int64(0), timeaxis.FirstMark(0, 100))
	assert.Equal(t, int64(-100), timeaxis.FirstMark(-150, 100))
	assert.Equal(t, int64(7), timeaxis.FirstMark(7, 0))
}

func TestClass(t *testing.T) {
	assert.Equal(t, timeaxis.ClassMillis, timeaxis.Class(250))
	assert.Equal(t, timeaxis.ClassSeconds, timeaxis.Class(15_000))
	assert.Equal(t, timeaxis.ClassMinutes, timeaxis.Class(900_000))
	assert.Equal(t, timeaxis.ClassHours, timeaxis.Class(21_600_000))
	assert.Equal(t, timeaxis.ClassDays, timeaxis.Class(86_400_000))
	assert.Equal(t, timeaxis.ClassUnknown, timeaxis.Class(3))
}

func TestFormatMark(t *testing.T) {
	mark := time.Date(2026, 3, 4, 13, 5, 9, 450*int(time.Millisecond), time.UTC).UnixMilli()

	assert.Equal(t, "13:05:09.450", timeaxis.FormatMark(mark, 50, false, time.UTC))
	assert.Equal(t, "13:05:09", timeaxis.FormatMark(mark, 60_000, false, time.UTC))
	assert.Equal(t, "Mar 4 13:05:09", timeaxis.FormatMark(mark, 1_000, true, time.UTC))
	assert.Equal(t, "Mar 4", timeaxis.FormatMark(mark, 86_400_000, false, time.UTC))
	assert.Equal(t, "", timeaxis.FormatMark(mark, 3, false, time.UTC))
}

func TestCrossesDay(t *testing.T) {
	evening := time.Date(2026, 3, 4, 23, 59, 0, 0, time.UTC).UnixMilli()
	morning := time.Date(2026, 3, 5, 0, 1, 0, 0, time.UTC).UnixMilli()

	assert.True(t, timeaxis.CrossesDay(evening, morning, time.UTC))
	assert.False(t, timeaxis.CrossesDay(morning, morning+1000, time.UTC))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "1:02:03.450", timeaxis.FormatElapsed(3_723_450, 50))
	assert.Equal(t, "1:02:03", timeaxis.FormatElapsed(3_723_450, 1_000))
	assert.Equal(t, "0:00:00", timeaxis.FormatElapsed(0, 5_000))
	assert.Equal(t, "-0:00:01", timeaxis.FormatElapsed(-1_000, 1_000))
}

func TestDecimalUnit(t *testing.T) {
	testCases := []struct {
		factor float64
		want   int64
	}{
		{factor: 0, want: 0},
		{factor: -1, want: 0},
		{factor: 20, want: 1},
		{factor: 6, want: 2},
		{factor: 3, want: 5},
		{factor: 0.5, want: 20},
		{factor: 0.001, want: 10_000},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, timeaxis.DecimalUnit(tc.factor, 10), "factor=%v", tc.factor)
	}
}
