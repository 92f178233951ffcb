package correlation

import (
	"math"
	"testing"

	"goanalyst/domain/core"
	"goanalyst/domain/dataset"
	"goanalyst/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numericDataset(t *testing.T, cols map[string][]interface{}) *dataset.Dataset {
	t.Helper()
	n := 0
	for _, v := range cols {
		n = len(v)
		break
	}
	rows := make([]map[string]interface{}, n)
	for i := range rows {
		rows[i] = map[string]interface{}{}
		for name, v := range cols {
			rows[i][name] = v[i]
		}
	}
	ds, err := dataset.FromMaps(rows, nil)
	require.NoError(t, err)
	return ds
}

func TestPearsonBasics(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, Pearson(x, x), 1e-12)
	assert.InDelta(t, -1.0, Pearson(x, []float64{10, 8, 6, 4, 2}), 1e-12)

	y := []float64{2, 1, 4, 3, 7}
	assert.InDelta(t, Pearson(x, y), Pearson(y, x), 1e-12)

	assert.Equal(t, 0.0, Pearson(x, []float64{3, 3, 3, 3, 3}), "zero variance")
	assert.Equal(t, 0.0, Pearson(x, []float64{1, 2}), "length mismatch")
}

func TestSpearmanIsRankBased(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{1, 4, 9, 16, 1000}
	assert.InDelta(t, 1.0, Spearman(x, y), 1e-12)
	assert.Less(t, Pearson(x, y), 1.0)
}

func TestRankAveragesTies(t *testing.T) {
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, Rank([]float64{10, 20, 20, 30}))
	assert.Equal(t, []float64{3, 1, 2}, Rank([]float64{9, 1, 5}))
}

func TestKendallTauB(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.0, Kendall(x, []float64{2, 4, 6, 8}), 1e-12)
	assert.InDelta(t, -1.0, Kendall(x, []float64{8, 6, 4, 2}), 1e-12)
	// one discordant pair out of six
	assert.InDelta(t, 4.0/6.0, Kendall(x, []float64{1, 3, 2, 4}), 1e-12)
	assert.Equal(t, 0.0, Kendall(x, []float64{1, 1, 1, 1}))
}

func TestStrengthLabel(t *testing.T) {
	tests := []struct {
		r    float64
		want string
	}{
		{0.95, "Strong"},
		{-0.7, "Strong"},
		{0.5, "Moderate"},
		{-0.3, "Moderate"},
		{0.15, "Weak"},
		{0.05, "Very Weak"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StrengthLabel(tt.r), "r=%v", tt.r)
	}
}

func TestMatrixSymmetricUnitDiagonal(t *testing.T) {
	ds := numericDataset(t, map[string][]interface{}{
		"a": {1, 2, 3, 4, 5, 6},
		"b": {2, 4, 6, 8, 10, 12},
		"c": {6, 1, 4, 2, 5, 3},
	})

	m, err := Matrix(ds, nil, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, m.Columns, 3)

	for i := range m.Columns {
		assert.Equal(t, 1.0, m.Values[i][i])
		for j := range m.Columns {
			assert.Equal(t, m.Values[i][j], m.Values[j][i])
		}
	}

	r, ok := m.Get("a", "b")
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-12)

	require.NotEmpty(t, m.StrongPairs)
	assert.Equal(t, "a", m.StrongPairs[0].A)
	assert.Equal(t, "b", m.StrongPairs[0].B)
	assert.Equal(t, "Strong", m.StrongPairs[0].Strength)
	assert.Len(t, m.TopPairs, 3)
	for i := 1; i < len(m.TopPairs); i++ {
		assert.GreaterOrEqual(t, math.Abs(m.TopPairs[i-1].Coefficient), math.Abs(m.TopPairs[i].Coefficient))
	}
}

func TestMatrixPairwiseComplete(t *testing.T) {
	ds := numericDataset(t, map[string][]interface{}{
		"a": {1, 2, nil, 4, 5},
		"b": {1, 2, 3, nil, 5},
	})
	m, err := Matrix(ds, []string{"a", "b"}, Options{Method: stats.MethodSpearman})
	require.NoError(t, err)
	assert.Equal(t, 3, m.TopPairs[0].N)
	assert.Equal(t, DefaultThreshold, m.Threshold)
}

func TestMatrixRequiresTwoNumericColumns(t *testing.T) {
	ds := numericDataset(t, map[string][]interface{}{
		"a":    {1, 2, 3},
		"name": {"x", "y", "z"},
	})
	_, err := Matrix(ds, nil, DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInsufficientColumns)
	assert.Contains(t, err.Error(), "found 1")

	_, err = Matrix(ds, []string{"a", "name"}, DefaultOptions())
	assert.True(t, core.IsInputError(err))

	_, err = Matrix(ds, []string{"a", "missing"}, DefaultOptions())
	assert.ErrorIs(t, err, core.ErrColumnNotFound)
}

func TestFitRegressionExactLine(t *testing.T) {
	ds := numericDataset(t, map[string][]interface{}{
		"x": {1, 2, 3},
		"y": {2, 4, 6},
	})
	m, err := FitRegression(ds, "x", "y")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, m.Slope, 1e-12)
	assert.InDelta(t, 0.0, m.Intercept, 1e-12)
	assert.InDelta(t, 1.0, m.RSquared, 1e-12)
	assert.Equal(t, 3, m.N)
	assert.InDelta(t, 8.0, m.Predict(4), 1e-12)
}

func TestFitRegressionProperties(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	ys := []float64{9, 7, 8, 5, 6, 3, 4, 1}

	m, err := Fit(xs, ys)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, m.RSquared, 0.0)
	assert.LessOrEqual(t, m.RSquared, 1.0)

	r := Pearson(xs, ys)
	assert.Equal(t, math.Signbit(r), math.Signbit(m.Slope), "slope sign matches r")
	assert.InDelta(t, r*r, m.RSquared, 1e-9)
}

func TestFitRegressionInsufficientPairs(t *testing.T) {
	ds := numericDataset(t, map[string][]interface{}{
		"x": {1, nil, 3},
		"y": {2, 4, nil},
	})
	_, err := FitRegression(ds, "x", "y")
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = FitRegression(ds, "x", "nope")
	assert.ErrorIs(t, err, core.ErrColumnNotFound)
}
