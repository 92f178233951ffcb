// Package descriptive computes single-column summary statistics.
package descriptive

import (
	"math"
	"sort"

	"goanalyst/domain/stats"
	"goanalyst/internal/errors"

	mstats "github.com/montanaflynn/stats"
)

// OutlierFence is the IQR multiplier used for outlier fences
const OutlierFence = 1.5

// Clean drops NaN and infinite values, preserving order
func Clean(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Mean returns the arithmetic mean
func Mean(values []float64) (float64, error) {
	data := Clean(values)
	if len(data) == 0 {
		return 0, errors.Empty("mean")
	}
	return mstats.Mean(data)
}

// Median returns the middle value, averaging the two central values for even counts
func Median(values []float64) (float64, error) {
	data := Clean(values)
	if len(data) == 0 {
		return 0, errors.Empty("median")
	}
	return mstats.Median(data)
}

// Mode returns the most frequent value. Ties resolve to the smallest value,
// so an all-unique column reports its minimum.
func Mode(values []float64) (float64, error) {
	data := Clean(values)
	if len(data) == 0 {
		return 0, errors.Empty("mode")
	}
	sorted := sortedCopy(data)

	best, bestCount := sorted[0], 0
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if j-i > bestCount {
			best, bestCount = sorted[i], j-i
		}
		i = j
	}
	return best, nil
}

// Variance returns the sample variance (n-1 denominator); 0 for fewer than 2 values
func Variance(values []float64) float64 {
	data := Clean(values)
	if len(data) < 2 {
		return 0
	}
	v, err := mstats.SampleVariance(data)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return v
}

// StdDev returns the sample standard deviation
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// Skewness returns the adjusted Fisher-Pearson coefficient of skewness
func Skewness(values []float64) float64 {
	data := Clean(values)
	n := float64(len(data))
	if len(data) < 3 {
		return 0
	}
	m2, m3, _ := centralMoments(data)
	if m2 <= 0 {
		return 0
	}
	g1 := m3 / math.Pow(m2, 1.5)
	return math.Sqrt(n*(n-1)) / (n - 2) * g1
}

// Kurtosis returns excess kurtosis: the fourth standardized moment minus 3
func Kurtosis(values []float64) float64 {
	data := Clean(values)
	if len(data) < 2 {
		return 0
	}
	m2, _, m4 := centralMoments(data)
	if m2 <= 0 {
		return 0
	}
	return m4/(m2*m2) - 3
}

// Quartiles splits the sorted data at n/2 and takes the median of each half.
// Odd-length inputs exclude the median from both halves.
func Quartiles(values []float64) (q1, q2, q3 float64, err error) {
	data := Clean(values)
	switch len(data) {
	case 0:
		return 0, 0, 0, errors.Empty("quartiles")
	case 1:
		return data[0], data[0], data[0], nil
	}
	q, err := mstats.Quartile(data)
	if err != nil {
		return 0, 0, 0, err
	}
	return q.Q1, q.Q2, q.Q3, nil
}

// Outliers returns values outside [Q1-1.5*IQR, Q3+1.5*IQR] in input order
func Outliers(values []float64) []float64 {
	data := Clean(values)
	q1, _, q3, err := Quartiles(data)
	if err != nil {
		return []float64{}
	}
	iqr := q3 - q1
	lower, upper := q1-OutlierFence*iqr, q3+OutlierFence*iqr

	out := []float64{}
	for _, v := range data {
		if v < lower || v > upper {
			out = append(out, v)
		}
	}
	return out
}

// ZScores standardizes values; a zero standard deviation yields all zeros.
// Non-finite inputs map to 0.
func ZScores(values []float64) []float64 {
	out := make([]float64, len(values))
	mean, err := Mean(values)
	if err != nil {
		return out
	}
	sd := StdDev(values)
	if sd == 0 {
		return out
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = (v - mean) / sd
	}
	return out
}

// Standardize is ZScores for feature matrices: missing cells land on the
// mean, which is 0 after scaling.
func Standardize(values []float64) []float64 {
	return ZScores(values)
}

// MovingAverage returns the trailing mean over a fixed window; the result has
// len(values)-window+1 entries, the first covering values[0:window].
func MovingAverage(values []float64, window int) ([]float64, error) {
	data := Clean(values)
	if window < 1 {
		return nil, errors.InvalidInputf("moving average window must be positive, got %d", window)
	}
	if len(data) < window {
		return nil, errors.InsufficientData("moving average", window, len(data))
	}
	out := make([]float64, 0, len(data)-window+1)
	sum := 0.0
	for i, v := range data {
		sum += v
		if i >= window {
			sum -= data[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}
	return out, nil
}

// Compute builds the full statistics snapshot for one column
func Compute(values []float64) (stats.ColumnStatistics, error) {
	data := Clean(values)
	if len(data) == 0 {
		return stats.ColumnStatistics{}, errors.Empty("descriptive statistics")
	}

	mean, _ := Mean(data)
	median, _ := Median(data)
	mode, _ := Mode(data)
	q1, q2, q3, _ := Quartiles(data)
	min, _ := mstats.Min(data)
	max, _ := mstats.Max(data)
	variance := Variance(data)

	return stats.ColumnStatistics{
		Count:    len(data),
		Mean:     mean,
		Median:   median,
		Mode:     mode,
		Variance: variance,
		StdDev:   math.Sqrt(variance),
		Skewness: Skewness(data),
		Kurtosis: Kurtosis(data),
		Q1:       q1,
		Q2:       q2,
		Q3:       q3,
		IQR:      q3 - q1,
		Min:      min,
		Max:      max,
		Outliers: Outliers(data),
	}, nil
}

// centralMoments returns the population second, third and fourth central moments
func centralMoments(data []float64) (m2, m3, m4 float64) {
	mean, _ := mstats.Mean(data)
	for _, v := range data {
		d := v - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	n := float64(len(data))
	return m2 / n, m3 / n, m4 / n
}

func sortedCopy(data []float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	sort.Float64s(out)
	return out
}
