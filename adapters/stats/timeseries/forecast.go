package timeseries

import (
	"math"

	"goanalyst/adapters/stats/correlation"
	"goanalyst/adapters/stats/descriptive"
	"goanalyst/domain/stats"
	"goanalyst/internal/errors"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DefaultForecastPeriods is used when a caller asks for zero periods
	DefaultForecastPeriods = 6
	// ConfidenceZ scales the residual error into a 95% band
	ConfidenceZ = 1.96
)

// Forecast extends the least-squares line through values (indexed 0..n-1) by
// the given number of periods, with a band of ConfidenceZ times the residual RMSE
func Forecast(values []float64, periods int) (*stats.Forecast, error) {
	data := descriptive.Clean(values)
	n := len(data)
	if n < 3 {
		return nil, errors.InsufficientData("forecasting", 3, n)
	}
	if periods <= 0 {
		periods = DefaultForecastPeriods
	}

	xs := index(n)
	fit, err := correlation.Fit(xs, data)
	if err != nil {
		return nil, err
	}

	mse := 0.0
	for i, y := range data {
		r := y - fit.Predict(xs[i])
		mse += r * r
	}
	rmse := math.Sqrt(mse / float64(n))

	out := &stats.Forecast{
		Values:     make([]float64, periods),
		Upper:      make([]float64, periods),
		Lower:      make([]float64, periods),
		Slope:      fit.Slope,
		Intercept:  fit.Intercept,
		RSquared:   fit.RSquared,
		StdError:   rmse,
		Periods:    periods,
		Historical: n,
	}
	for h := 0; h < periods; h++ {
		v := fit.Predict(float64(n + h))
		out.Values[h] = v
		out.Upper[h] = v + ConfidenceZ*rmse
		out.Lower[h] = v - ConfidenceZ*rmse
	}
	return out, nil
}

// Summarize describes the linear trend and volatility of a series. At least
// four values are required.
func Summarize(values []float64) (stats.TrendSummary, error) {
	data := descriptive.Clean(values)
	n := len(data)
	if n < 4 {
		return stats.TrendSummary{}, errors.InsufficientData("trend summary", 4, n)
	}

	col, err := descriptive.Compute(data)
	if err != nil {
		return stats.TrendSummary{}, err
	}
	xs := index(n)
	fit, err := correlation.Fit(xs, data)
	if err != nil {
		return stats.TrendSummary{}, err
	}
	r := correlation.Pearson(xs, data)

	summary := stats.TrendSummary{
		Mean:       col.Mean,
		StdDev:     col.StdDev,
		Min:        col.Min,
		Max:        col.Max,
		Slope:      fit.Slope,
		RSquared:   fit.RSquared,
		PValue:     slopeSignificance(r, n),
		Direction:  direction(0, fit.Slope),
		Strength:   strength(r),
		Volatility: volatility(col.StdDev, col.Mean),
	}
	if math.Abs(r) > 0.3 {
		next := fit.Predict(float64(n))
		summary.NextForecast = &next
	}
	return summary, nil
}

// slopeSignificance is the two-sided p-value of r under a t distribution with n-2 df
func slopeSignificance(r float64, n int) stats.Significance {
	if n < 3 {
		return stats.Significance{}
	}
	if math.Abs(r) >= 1 {
		return stats.DefinedSignificance(0)
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return stats.DefinedSignificance(2 * dist.Survival(math.Abs(t)))
}

func strength(r float64) string {
	switch a := math.Abs(r); {
	case a > 0.7:
		return "strong"
	case a > 0.4:
		return "moderate"
	default:
		return "weak"
	}
}

func volatility(sd, mean float64) string {
	m := math.Abs(mean)
	switch {
	case sd > m*0.3:
		return "high"
	case sd > m*0.1:
		return "moderate"
	default:
		return "low"
	}
}

func index(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	return xs
}
