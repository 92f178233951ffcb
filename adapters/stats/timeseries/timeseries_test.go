package timeseries

import (
	"math"
	"testing"
	"time"

	"goanalyst/domain/core"
	"goanalyst/domain/dataset"
	"goanalyst/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthly(n int, f func(i int) float64) ([]time.Time, []float64) {
	start := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		dates[i] = start.AddDate(0, i, 0)
		values[i] = f(i)
	}
	return dates, values
}

func assertAdditive(t *testing.T, d *stats.TimeSeriesDecomposition) {
	t.Helper()
	require.Len(t, d.Trend, len(d.Original))
	require.Len(t, d.Seasonal, len(d.Original))
	require.Len(t, d.Residual, len(d.Original))
	for i := range d.Original {
		sum := d.Trend[i] + d.Seasonal[i] + d.Residual[i]
		if math.Abs(sum-d.Original[i]) > 1e-9 {
			t.Errorf("index %d: trend+seasonal+residual = %v, original %v", i, sum, d.Original[i])
		}
	}
}

func TestDecomposeMonthlySeasonality(t *testing.T) {
	dates, values := monthly(36, func(i int) float64 {
		return 100 + 2*float64(i) + 10*math.Sin(2*math.Pi*float64(i)/12)
	})

	d, err := DecomposeSeries(dates, values, Options{})
	require.NoError(t, err)

	assert.Equal(t, 12, d.Period)
	assert.True(t, d.HasSeasonality)
	assert.Equal(t, stats.TrendRising, d.Direction)
	assertAdditive(t, d)

	sum := 0.0
	for _, idx := range d.SeasonalIndices {
		sum += idx
	}
	assert.InDelta(t, 0.0, sum, 1e-9)
	// sin peaks at position 3 of a 12-month cycle
	peak := 0
	for i, v := range d.SeasonalIndices {
		if v > d.SeasonalIndices[peak] {
			peak = i
		}
	}
	assert.Equal(t, 3, peak)
}

func TestDecomposeShortSeriesHasNoPeriod(t *testing.T) {
	dates, values := monthly(10, func(i int) float64 { return 50 - float64(i) })

	d, err := DecomposeSeries(dates, values, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, d.Period)
	assert.Equal(t, 3, d.TrendWindow)
	assert.False(t, d.HasSeasonality)
	assert.Equal(t, stats.TrendFalling, d.Direction)
	assertAdditive(t, d)
}

func TestDecomposeFlat(t *testing.T) {
	dates, values := monthly(5, func(int) float64 { return 7 })
	d, err := DecomposeSeries(dates, values, Options{})
	require.NoError(t, err)
	assert.Equal(t, stats.TrendFlat, d.Direction)
	assertAdditive(t, d)
}

func TestDecomposeTwoPoints(t *testing.T) {
	dates, values := monthly(2, func(i int) float64 { return float64(i) })
	d, err := DecomposeSeries(dates, values, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, d.TrendWindow)
	assertAdditive(t, d)

	_, err = DecomposeSeries(dates[:1], values[:1], Options{})
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestDecomposeEvenPeriodForced(t *testing.T) {
	dates, values := monthly(16, func(i int) float64 {
		return []float64{5, -5, 5, -5}[i%4] + float64(i)
	})
	d, err := DecomposeSeries(dates, values, Options{Period: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, d.Period)
	assert.Equal(t, 2, d.TrendDefinedMin)
	assert.Equal(t, 13, d.TrendDefinedMax)
	assert.True(t, d.HasSeasonality)
	assertAdditive(t, d)

	_, err = DecomposeSeries(dates[:6], values[:6], Options{Period: 4})
	assert.True(t, core.IsInputError(err))
}

func TestDecomposeDatasetSortsAndSkipsBadRows(t *testing.T) {
	rows := []map[string]interface{}{
		{"date": "2024-03-01", "sales": 30},
		{"date": "2024-01-01", "sales": 10},
		{"date": "not a date", "sales": 99},
		{"date": "2024-02-01", "sales": 20},
		{"date": "2024-04-01", "sales": "n/a"},
		{"date": "2024-05-01", "sales": 50},
	}
	ds, err := dataset.FromMaps(rows, map[string]dataset.Role{
		"date":  dataset.RoleTemporal,
		"sales": dataset.RoleNumeric,
	})
	require.NoError(t, err)

	d, err := Decompose(ds, "date", "sales", Options{})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30, 50}, d.Original)
	assert.True(t, d.Dates[0].Before(d.Dates[1]))
	assert.Equal(t, "sales", d.ValueColumn)
	assert.NotEmpty(t, d.Explanation)
	assertAdditive(t, d)

	_, err = Decompose(ds, "date", "missing", Options{})
	assert.ErrorIs(t, err, core.ErrColumnNotFound)
}

func TestAutocorrelationDetectsPeriod(t *testing.T) {
	values := make([]float64, 40)
	for i := range values {
		values[i] = []float64{1, 9, 4}[i%3]
	}
	dates := make([]time.Time, len(values))
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = start.Add(time.Duration(i) * 400 * time.Hour)
	}
	assert.Equal(t, 3, DetectPeriod(dates, values))
	assert.Less(t, Autocorrelation([]float64{1, 2, 1, 2, 1, 2}, 1), 0.0)
	assert.Equal(t, 0.0, Autocorrelation([]float64{1, 2, 3}, 0))
}

func TestForecastLinear(t *testing.T) {
	f, err := Forecast([]float64{2, 4, 6, 8, 10}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, f.Slope, 1e-12)
	assert.InDelta(t, 12.0, f.Values[0], 1e-9)
	assert.InDelta(t, 16.0, f.Values[2], 1e-9)
	assert.InDelta(t, 0.0, f.StdError, 1e-9)
	assert.InDelta(t, 1.0, f.RSquared, 1e-12)
	assert.Equal(t, 3, f.Periods)

	f, err = Forecast([]float64{1, 3, 2, 4, 3, 5}, 0)
	require.NoError(t, err)
	assert.Len(t, f.Values, DefaultForecastPeriods)
	for i := range f.Values {
		assert.InDelta(t, f.Upper[i]-f.Values[i], f.Values[i]-f.Lower[i], 1e-9)
		assert.InDelta(t, ConfidenceZ*f.StdError, f.Upper[i]-f.Values[i], 1e-9)
	}

	_, err = Forecast([]float64{1, 2}, 3)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestSummarizeTrend(t *testing.T) {
	s, err := Summarize([]float64{10, 12, 14, 16, 18, 20})
	require.NoError(t, err)
	assert.Equal(t, stats.TrendRising, s.Direction)
	assert.Equal(t, "strong", s.Strength)
	assert.True(t, s.PValue.Defined)
	assert.InDelta(t, 0.0, s.PValue.Value, 1e-12)
	require.NotNil(t, s.NextForecast)
	assert.InDelta(t, 22.0, *s.NextForecast, 1e-9)
	assert.Equal(t, "moderate", s.Volatility)

	_, err = Summarize([]float64{1, 2, 3})
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}
