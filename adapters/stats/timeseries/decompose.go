// Package timeseries decomposes dated series into trend, seasonal and residual
// parts and projects simple linear trends.
package timeseries

import (
	"fmt"
	"math"
	"sort"
	"time"

	"goanalyst/adapters/stats/correlation"
	"goanalyst/adapters/stats/descriptive"
	"goanalyst/domain/dataset"
	"goanalyst/domain/stats"
	"goanalyst/internal/errors"
	"goanalyst/internal/narrative"
)

const (
	// DefaultSeasonalityThreshold is the seasonal index magnitude that counts as seasonality
	DefaultSeasonalityThreshold = 0.1
	// MinAutocorrelation is the lag correlation a period must exceed to be detected
	MinAutocorrelation = 0.3
)

// Options configures Decompose
type Options struct {
	// Period forces the seasonal period; 0 detects it
	Period               int
	SeasonalityThreshold float64
}

type observation struct {
	at    time.Time
	value float64
}

// Decompose sorts rows by date and splits the value column additively into
// trend, seasonal and residual components. Rows with an unparsable date or a
// non-numeric value are skipped.
func Decompose(ds *dataset.Dataset, dateColumn, valueColumn string, opts Options) (*stats.TimeSeriesDecomposition, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, errors.Empty("time series decomposition")
	}
	for _, name := range []string{dateColumn, valueColumn} {
		if _, ok := ds.Column(name); !ok {
			return nil, errors.ColumnNotFound(name)
		}
	}

	obs := make([]observation, 0, ds.Len())
	for _, rec := range ds.Records() {
		at, ok := rec[dateColumn].Timestamp()
		if !ok {
			continue
		}
		v, ok := rec[valueColumn].Float()
		if !ok {
			continue
		}
		obs = append(obs, observation{at: at, value: v})
	}
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].at.Before(obs[j].at) })

	dates := make([]time.Time, len(obs))
	values := make([]float64, len(obs))
	for i, o := range obs {
		dates[i], values[i] = o.at, o.value
	}

	d, err := DecomposeSeries(dates, values, opts)
	if err != nil {
		return nil, err
	}
	d.DateColumn = dateColumn
	d.ValueColumn = valueColumn
	d.Explanation = narrative.Decomposition(d)
	return d, nil
}

// DecomposeSeries decomposes values already ordered by date
func DecomposeSeries(dates []time.Time, values []float64, opts Options) (*stats.TimeSeriesDecomposition, error) {
	n := len(values)
	if n < 2 {
		return nil, errors.InsufficientData("time series decomposition", 2, n)
	}
	if len(dates) != n {
		return nil, errors.InvalidInputf("time series has %d dates for %d values", len(dates), n)
	}
	if opts.SeasonalityThreshold <= 0 {
		opts.SeasonalityThreshold = DefaultSeasonalityThreshold
	}

	period := opts.Period
	switch {
	case period < 0:
		return nil, errors.InvalidInputf("seasonal period must not be negative, got %d", period)
	case period > 1 && n < 2*period:
		return nil, errors.InsufficientData(fmt.Sprintf("a seasonal period of %d", period), 2*period, n)
	case period == 0:
		period = DetectPeriod(dates, values)
	}

	window := period
	if period < 2 {
		period = 1
		window = 3
		if n < 3 {
			window = 1
		}
	}

	trend, lo, hi := centeredMovingAverage(values, window)

	seasonal := make([]float64, n)
	indices := []float64{}
	if period > 1 {
		indices = seasonalIndices(values, trend, period, lo, hi)
		for i := range seasonal {
			seasonal[i] = indices[i%period]
		}
	}

	residual := make([]float64, n)
	for i := range values {
		residual[i] = values[i] - trend[i] - seasonal[i]
	}

	hasSeasonality := false
	for _, idx := range indices {
		if math.Abs(idx) > opts.SeasonalityThreshold {
			hasSeasonality = true
			break
		}
	}

	original := make([]float64, n)
	copy(original, values)
	outDates := make([]time.Time, n)
	copy(outDates, dates)

	return &stats.TimeSeriesDecomposition{
		Dates:           outDates,
		Original:        original,
		Trend:           trend,
		Seasonal:        seasonal,
		Residual:        residual,
		Period:          period,
		TrendWindow:     window,
		TrendDefinedMin: lo,
		TrendDefinedMax: hi,
		SeasonalIndices: indices,
		Direction:       direction(trend[0], trend[n-1]),
		HasSeasonality:  hasSeasonality,
	}, nil
}

// DetectPeriod infers a seasonal period from the date cadence when the series
// spans two full cycles, falling back to the strongest autocorrelation peak of
// the detrended values. It returns 1 when no period applies.
func DetectPeriod(dates []time.Time, values []float64) int {
	n := len(values)
	if p := cadencePeriod(dates); p > 1 && n >= 2*p {
		return p
	}
	return autocorrelationPeriod(values)
}

// cadencePeriod maps the median spacing between observations to a natural cycle
func cadencePeriod(dates []time.Time) int {
	if len(dates) < 2 {
		return 0
	}
	gaps := make([]float64, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		days := dates[i].Sub(dates[i-1]).Hours() / 24
		if days > 0 {
			gaps = append(gaps, days)
		}
	}
	if len(gaps) == 0 {
		return 0
	}
	sort.Float64s(gaps)
	gap := gaps[len(gaps)/2]

	switch {
	case gap >= 0.5 && gap <= 1.5:
		return 7 // daily, weekly cycle
	case gap >= 6 && gap <= 8:
		return 4 // weekly, monthly cycle
	case gap >= 27 && gap <= 32:
		return 12 // monthly, yearly cycle
	case gap >= 88 && gap <= 93:
		return 4 // quarterly, yearly cycle
	default:
		return 0
	}
}

// autocorrelationPeriod picks the lag in [2, n/2] whose autocorrelation is the
// highest local peak above MinAutocorrelation
func autocorrelationPeriod(values []float64) int {
	n := len(values)
	if n < 4 {
		return 1
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	detrended := make([]float64, n)
	if fit, err := correlation.Fit(xs, values); err == nil {
		for i, v := range values {
			detrended[i] = v - fit.Predict(xs[i])
		}
	} else {
		copy(detrended, values)
	}
	// a perfectly linear series leaves only rounding noise
	if descriptive.Variance(detrended) <= 1e-12*math.Max(1, descriptive.Variance(values)) {
		return 1
	}

	maxLag := n / 2
	acf := make([]float64, maxLag+2)
	for lag := 1; lag <= maxLag+1 && lag < n; lag++ {
		acf[lag] = Autocorrelation(detrended, lag)
	}

	best, bestValue := 1, MinAutocorrelation
	for lag := 2; lag <= maxLag; lag++ {
		v := acf[lag]
		if v <= bestValue || v < acf[lag-1] || v < acf[lag+1] {
			continue
		}
		best, bestValue = lag, v
	}
	return best
}

// Autocorrelation returns the sample autocorrelation at lag
func Autocorrelation(values []float64, lag int) float64 {
	n := len(values)
	if lag <= 0 || lag >= n {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	var num, den float64
	for i, v := range values {
		d := v - mean
		den += d * d
		if i+lag < n {
			num += d * (values[i+lag] - mean)
		}
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// centeredMovingAverage smooths values with a centered window; even windows use
// a 2xw average with half weights at both ends. Points without a full window
// take the nearest centered value. lo and hi bound the fully centered range.
func centeredMovingAverage(values []float64, window int) (trend []float64, lo, hi int) {
	n := len(values)
	trend = make([]float64, n)
	if window <= 1 {
		copy(trend, values)
		return trend, 0, n - 1
	}

	half := window / 2
	lo, hi = half, n-1-half
	if lo > hi {
		mean := 0.0
		for _, v := range values {
			mean += v
		}
		mean /= float64(n)
		for i := range trend {
			trend[i] = mean
		}
		return trend, 0, n - 1
	}

	for i := lo; i <= hi; i++ {
		sum := 0.0
		if window%2 == 1 {
			for j := i - half; j <= i+half; j++ {
				sum += values[j]
			}
		} else {
			sum = 0.5*values[i-half] + 0.5*values[i+half]
			for j := i - half + 1; j <= i+half-1; j++ {
				sum += values[j]
			}
		}
		trend[i] = sum / float64(window)
	}
	for i := 0; i < lo; i++ {
		trend[i] = trend[lo]
	}
	for i := hi + 1; i < n; i++ {
		trend[i] = trend[hi]
	}
	return trend, lo, hi
}

// seasonalIndices averages detrended values per position within the period over
// the fully centered range and centers the result on zero
func seasonalIndices(values, trend []float64, period, lo, hi int) []float64 {
	sums := make([]float64, period)
	counts := make([]int, period)
	for i := lo; i <= hi; i++ {
		pos := i % period
		sums[pos] += values[i] - trend[i]
		counts[pos]++
	}

	indices := make([]float64, period)
	mean := 0.0
	for pos := range indices {
		if counts[pos] > 0 {
			indices[pos] = sums[pos] / float64(counts[pos])
		}
		mean += indices[pos]
	}
	mean /= float64(period)
	for pos := range indices {
		indices[pos] -= mean
	}
	return indices
}

func direction(first, last float64) stats.TrendDirection {
	switch {
	case last > first:
		return stats.TrendRising
	case last < first:
		return stats.TrendFalling
	default:
		return stats.TrendFlat
	}
}
