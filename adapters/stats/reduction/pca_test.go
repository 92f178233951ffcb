package reduction

import (
	"math/rand"
	"testing"

	"goanalyst/domain/core"
	"goanalyst/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDataset(t *testing.T, rows []map[string]interface{}) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromMaps(rows, nil)
	require.NoError(t, err)
	return ds
}

func randomRows(seed int64, n int) []map[string]interface{} {
	rng := rand.New(rand.NewSource(seed))
	rows := make([]map[string]interface{}, n)
	for i := range rows {
		a := rng.NormFloat64()
		rows[i] = map[string]interface{}{
			"a": a,
			"b": 0.8*a + 0.2*rng.NormFloat64(),
			"c": rng.NormFloat64() * 3,
			"d": rng.Float64(),
		}
	}
	return rows
}

func TestPCAExplainedVarianceSumsToHundred(t *testing.T) {
	ds := buildDataset(t, randomRows(42, 60))

	res, err := PCA(ds, nil, Options{})
	require.NoError(t, err)
	require.Len(t, res.ExplainedVariance, 4)

	sum := 0.0
	for _, v := range res.ExplainedVariance {
		sum += v
	}
	assert.InDelta(t, 100.0, sum, 1e-6)

	for i := 1; i < len(res.CumulativeVariance); i++ {
		assert.GreaterOrEqual(t, res.CumulativeVariance[i], res.CumulativeVariance[i-1])
		assert.LessOrEqual(t, res.CumulativeVariance[i], 100.0)
	}
	for i := 1; i < len(res.Eigenvalues); i++ {
		assert.GreaterOrEqual(t, res.Eigenvalues[i-1], res.Eigenvalues[i])
	}
	assert.Len(t, res.TransformedData, 60)
}

func TestPCAPerfectlyCorrelatedColumns(t *testing.T) {
	rows := []map[string]interface{}{}
	for i := 1; i <= 10; i++ {
		rows = append(rows, map[string]interface{}{"x": i, "y": 3*i + 1})
	}
	res, err := PCA(buildDataset(t, rows), nil, Options{})
	require.NoError(t, err)

	assert.InDelta(t, 100.0, res.ExplainedVariance[0], 1e-6)
	assert.InDelta(t, 1.0, res.FeatureImportance["x"], 1e-6)
	assert.InDelta(t, 1.0, res.FeatureImportance["y"], 1e-6)
}

func TestPCALoadingSignIsNormalized(t *testing.T) {
	res, err := PCA(buildDataset(t, randomRows(7, 40)), nil, Options{})
	require.NoError(t, err)

	for c, vec := range res.Loadings {
		best := 0
		for j := range vec {
			if abs(vec[j]) > abs(vec[best]) {
				best = j
			}
		}
		assert.Greater(t, vec[best], 0.0, "component %d", c)
	}
}

func TestPCAImputesMissingCells(t *testing.T) {
	rows := randomRows(3, 20)
	rows[4]["a"] = nil
	rows[9]["c"] = nil

	res, err := PCA(buildDataset(t, rows), []string{"a", "b", "c"}, Options{Components: 2})
	require.NoError(t, err)
	assert.Len(t, res.TransformedData, 20)
	assert.Len(t, res.TransformedData[4], 2)
	assert.Equal(t, 2, res.Components)
}

func TestPCAFeatureImportanceMaxIsOne(t *testing.T) {
	res, err := PCA(buildDataset(t, randomRows(11, 50)), nil, Options{})
	require.NoError(t, err)

	max := 0.0
	for _, v := range res.FeatureImportance {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0+1e-12)
		if v > max {
			max = v
		}
	}
	assert.InDelta(t, 1.0, max, 1e-12)
}

func TestPCARequiresTwoNumericColumns(t *testing.T) {
	ds := buildDataset(t, []map[string]interface{}{
		{"a": 1, "label": "x"},
		{"a": 2, "label": "y"},
	})
	_, err := PCA(ds, nil, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInsufficientColumns)
	assert.Equal(t, "at least 2 numeric columns required for PCA, found 1", err.Error())
}

func TestPCARequiresTwoRows(t *testing.T) {
	ds := buildDataset(t, []map[string]interface{}{{"a": 1, "b": 2}})
	_, err := PCA(ds, nil, Options{})
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestPCAConstantColumnsShareVariance(t *testing.T) {
	ds := buildDataset(t, []map[string]interface{}{
		{"a": 1, "b": 5},
		{"a": 1, "b": 5},
		{"a": 1, "b": 5},
	})
	res, err := PCA(ds, nil, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, res.ExplainedVariance[0], 1e-12)
	assert.InDelta(t, 100.0, res.CumulativeVariance[1], 1e-12)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
