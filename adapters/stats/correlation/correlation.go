// Package correlation computes pairwise coefficients, correlation matrices and
// simple linear regressions over dataset columns.
package correlation

import (
	"math"
	"sort"

	"goanalyst/domain/dataset"
	"goanalyst/domain/stats"
	"goanalyst/internal/errors"

	"gonum.org/v1/gonum/stat"
)

// DefaultThreshold is the |r| above which a pair counts as strong
const DefaultThreshold = 0.6

// Options configures Matrix
type Options struct {
	Method    stats.CorrelationMethod
	Threshold float64
}

// DefaultOptions returns Pearson with the default strong-pair threshold
func DefaultOptions() Options {
	return Options{Method: stats.MethodPearson, Threshold: DefaultThreshold}
}

// Pearson returns the product-moment correlation. Mismatched lengths, fewer than
// two points or a zero-variance series yield 0.
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0
	}
	return clamp(r)
}

// Spearman returns Pearson's r over average ranks
func Spearman(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	return Pearson(Rank(x), Rank(y))
}

// Kendall returns tau-b, which corrects for ties in either series
func Kendall(x, y []float64) float64 {
	n := len(x)
	if n != len(y) || n < 2 {
		return 0
	}

	var concordant, discordant, tiesX, tiesY float64
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			dx := sign(x[j] - x[i])
			dy := sign(y[j] - y[i])
			switch {
			case dx == 0 && dy == 0:
			case dx == 0:
				tiesX++
			case dy == 0:
				tiesY++
			case dx == dy:
				concordant++
			default:
				discordant++
			}
		}
	}

	denom := math.Sqrt((concordant + discordant + tiesX) * (concordant + discordant + tiesY))
	if denom == 0 {
		return 0
	}
	return clamp((concordant - discordant) / denom)
}

// Coefficient dispatches on method; unknown methods fall back to Pearson
func Coefficient(method stats.CorrelationMethod, x, y []float64) float64 {
	switch method {
	case stats.MethodSpearman:
		return Spearman(x, y)
	case stats.MethodKendall:
		return Kendall(x, y)
	default:
		return Pearson(x, y)
	}
}

// Rank converts values to 1-based ranks, averaging the ranks of tied values
func Rank(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return []float64{}
	}

	type pair struct {
		value float64
		index int
	}
	pairs := make([]pair, n)
	for i, val := range data {
		pairs[i] = pair{value: val, index: i}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].value < pairs[j].value
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i + 1
		for j < n && pairs[j].value == pairs[i].value {
			j++
		}
		avgRank := float64(i+1) + float64(j-i-1)/2.0
		for k := i; k < j; k++ {
			ranks[pairs[k].index] = avgRank
		}
		i = j
	}
	return ranks
}

// StrengthLabel buckets |r| into Strong, Moderate, Weak or Very Weak
func StrengthLabel(r float64) string {
	a := math.Abs(r)
	switch {
	case a >= 0.7:
		return "Strong"
	case a >= 0.3:
		return "Moderate"
	case a >= 0.1:
		return "Weak"
	default:
		return "Very Weak"
	}
}

// Matrix computes all pairwise coefficients among the given numeric columns,
// using pairwise-complete observations. An empty column list selects every
// numeric column.
func Matrix(ds *dataset.Dataset, columns []string, opts Options) (*stats.CorrelationMatrix, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, errors.Empty("correlation matrix")
	}
	if opts.Method == "" {
		opts.Method = stats.MethodPearson
	}
	switch opts.Method {
	case stats.MethodPearson, stats.MethodSpearman, stats.MethodKendall:
	default:
		return nil, errors.InvalidInputf("unknown correlation method %q", opts.Method)
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}

	cols, err := numericColumns(ds, columns)
	if err != nil {
		return nil, err
	}
	if len(cols) < 2 {
		return nil, errors.InsufficientColumns("correlation matrix", 2, len(cols))
	}

	k := len(cols)
	values := make([][]float64, k)
	for i := range values {
		values[i] = make([]float64, k)
		values[i][i] = 1.0
	}

	pairs := make([]stats.CorrelationPair, 0, k*(k-1)/2)
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			xs, ys, err := ds.Pairs(cols[i], cols[j])
			if err != nil {
				return nil, err
			}
			r := Coefficient(opts.Method, xs, ys)
			values[i][j], values[j][i] = r, r
			pairs = append(pairs, stats.CorrelationPair{
				A:           cols[i],
				B:           cols[j],
				Coefficient: r,
				Strength:    StrengthLabel(r),
				N:           len(xs),
			})
		}
	}

	// Stable sort keeps column order for equal magnitudes
	sort.SliceStable(pairs, func(a, b int) bool {
		return math.Abs(pairs[a].Coefficient) > math.Abs(pairs[b].Coefficient)
	})

	strong := []stats.CorrelationPair{}
	for _, p := range pairs {
		if math.Abs(p.Coefficient) >= opts.Threshold {
			strong = append(strong, p)
		}
	}

	return &stats.CorrelationMatrix{
		Method:      opts.Method,
		Columns:     cols,
		Values:      values,
		Threshold:   opts.Threshold,
		StrongPairs: strong,
		TopPairs:    pairs,
	}, nil
}

// FitRegression fits y = slope*x + intercept by ordinary least squares over the
// rows where both columns are numeric.
func FitRegression(ds *dataset.Dataset, xColumn, yColumn string) (*stats.RegressionModel, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, errors.Empty("regression")
	}
	for _, name := range []string{xColumn, yColumn} {
		if _, ok := ds.Column(name); !ok {
			return nil, errors.ColumnNotFound(name)
		}
	}
	xs, ys, err := ds.Pairs(xColumn, yColumn)
	if err != nil {
		return nil, err
	}
	model, err := Fit(xs, ys)
	if err != nil {
		return nil, err
	}
	model.XColumn = xColumn
	model.YColumn = yColumn
	return model, nil
}

// Fit is FitRegression over raw paired slices
func Fit(xs, ys []float64) (*stats.RegressionModel, error) {
	if len(xs) != len(ys) {
		return nil, errors.InvalidInputf("regression requires paired series, got %d and %d values", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, errors.InsufficientData("regression", 2, len(xs))
	}

	meanX, meanY := stat.Mean(xs, nil), stat.Mean(ys, nil)
	var sxy, sxx float64
	for i := range xs {
		dx := xs[i] - meanX
		sxy += dx * (ys[i] - meanY)
		sxx += dx * dx
	}

	slope := 0.0
	if sxx > 0 {
		slope = sxy / sxx
	}
	intercept := meanY - slope*meanX

	fitted := make([]float64, len(xs))
	for i, x := range xs {
		fitted[i] = slope*x + intercept
	}
	r := Pearson(fitted, ys)

	return &stats.RegressionModel{
		Slope:     slope,
		Intercept: intercept,
		RSquared:  r * r,
		N:         len(xs),
	}, nil
}

// numericColumns resolves the requested columns, defaulting to every numeric one
func numericColumns(ds *dataset.Dataset, columns []string) ([]string, error) {
	if len(columns) == 0 {
		return ds.NumericColumns(), nil
	}
	seen := make(map[string]bool, len(columns))
	out := make([]string, 0, len(columns))
	for _, name := range columns {
		col, ok := ds.Column(name)
		if !ok {
			return nil, errors.ColumnNotFound(name)
		}
		if col.Role != dataset.RoleNumeric {
			return nil, errors.InvalidInputf("column %q is %s, not numeric", name, col.Role)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func clamp(r float64) float64 {
	return math.Max(-1, math.Min(1, r))
}
