package hypothesis

import (
	"math/rand"
	"testing"

	"goanalyst/domain/core"
	"goanalyst/domain/dataset"
	"goanalyst/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grouped(t *testing.T, groups map[string][]float64, order []string) *dataset.Dataset {
	t.Helper()
	var rows []map[string]interface{}
	for _, name := range order {
		for _, v := range groups[name] {
			rows = append(rows, map[string]interface{}{"value": v, "group": name})
		}
	}
	ds, err := dataset.FromMaps(rows, nil)
	require.NoError(t, err)
	return ds
}

func TestWelchIdenticalGroupsDoNotReject(t *testing.T) {
	values := []float64{4, 5, 6, 5, 4, 6}
	ds := grouped(t, map[string][]float64{"a": values, "b": values}, []string{"a", "b"})

	res, err := Run(stats.TestWelchT, ds, []string{"value", "group"}, 0.05)
	require.NoError(t, err)
	assert.False(t, res.RejectNull)
	assert.True(t, res.PValue.Defined)
	assert.InDelta(t, 1.0, res.PValue.Value, 1e-9)
	assert.InDelta(t, 0.0, res.Statistic, 1e-12)
	assert.NotEmpty(t, res.Interpretation)
}

func TestWelchDetectsShift(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := make([]float64, 30)
	b := make([]float64, 30)
	for i := range a {
		a[i] = 10 + rng.NormFloat64()
		b[i] = 14 + rng.NormFloat64()*2
	}
	ds := grouped(t, map[string][]float64{"control": a, "treated": b}, []string{"control", "treated"})

	res, err := Run(stats.TestWelchT, ds, []string{"value", "group"}, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultAlpha, res.Alpha)
	assert.True(t, res.RejectNull)
	assert.Less(t, res.Statistic, 0.0)
	assert.Less(t, res.EffectSize, 0.0)
	assert.Greater(t, res.DegreesOfFreedom, 29.0)
	assert.Less(t, res.DegreesOfFreedom, 58.0)
	require.Len(t, res.Groups, 2)
	assert.Equal(t, "control", res.Groups[0].Name)
}

func TestWelchKnownValue(t *testing.T) {
	res, err := WelchT(
		Group{Name: "a", Values: []float64{1, 2, 3, 4, 5}},
		Group{Name: "b", Values: []float64{2, 4, 6, 8, 10}},
	)
	require.NoError(t, err)
	// t = -3 / sqrt(2.5/5 + 10/5) = -1.8974, df = 5.882
	assert.InDelta(t, -1.8974, res.Statistic, 1e-4)
	assert.InDelta(t, 5.882, res.DegreesOfFreedom, 1e-3)
	assert.InDelta(t, 0.1075, res.PValue.Value, 1e-3)
}

func TestWelchDegenerateVarianceIsUndefined(t *testing.T) {
	ds := grouped(t, map[string][]float64{"a": {3, 3, 3}, "b": {3, 3}}, []string{"a", "b"})
	res, err := Run(stats.TestWelchT, ds, []string{"value", "group"}, 0.05)
	require.NoError(t, err)
	assert.False(t, res.PValue.Defined)
	assert.False(t, res.RejectNull)
}

func TestWelchSmallGroupFails(t *testing.T) {
	ds := grouped(t, map[string][]float64{"a": {1, 2, 3}, "b": {4}}, []string{"a", "b"})
	res, err := Run(stats.TestWelchT, ds, []string{"value", "group"}, 0.05)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, core.ErrInsufficientGroupSize)
	assert.Contains(t, err.Error(), `"b"`)
}

func TestWelchNeedsExactlyTwoGroups(t *testing.T) {
	ds := grouped(t, map[string][]float64{"a": {1, 2}, "b": {3, 4}, "c": {5, 6}}, []string{"a", "b", "c"})
	_, err := Run(stats.TestWelchT, ds, []string{"value", "group"}, 0.05)
	assert.True(t, core.IsInputError(err))
}

func TestANOVA(t *testing.T) {
	ds := grouped(t, map[string][]float64{
		"low":  {1, 2, 3, 2},
		"mid":  {5, 6, 5, 6},
		"high": {9, 10, 11, 10},
	}, []string{"low", "mid", "high"})

	res, err := Run(stats.TestANOVA, ds, []string{"value", "group"}, 0.05)
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.DegreesOfFreedom)
	assert.Equal(t, 9.0, res.DF2)
	assert.True(t, res.RejectNull)
	assert.Greater(t, res.EffectSize, 0.9)
	assert.Len(t, res.Groups, 3)

	two := grouped(t, map[string][]float64{"a": {1, 2, 3}, "b": {1, 2, 3}}, []string{"a", "b"})
	res, err = Run(stats.TestANOVA, two, []string{"value", "group"}, 0.05)
	require.NoError(t, err)
	assert.False(t, res.RejectNull)
	assert.InDelta(t, 1.0, res.PValue.Value, 1e-9)
}

func TestChiSquare(t *testing.T) {
	var rows []map[string]interface{}
	add := func(a, b string, n int) {
		for i := 0; i < n; i++ {
			rows = append(rows, map[string]interface{}{"plan": a, "churned": b})
		}
	}
	add("basic", "yes", 30)
	add("basic", "no", 10)
	add("premium", "yes", 5)
	add("premium", "no", 35)
	ds, err := dataset.FromMaps(rows, nil)
	require.NoError(t, err)

	res, err := Run(stats.TestChiSquare, ds, []string{"plan", "churned"}, 0.05)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.DegreesOfFreedom)
	assert.True(t, res.RejectNull)
	// 2x2 with these counts: chi2 = 31.75
	assert.InDelta(t, 31.746, res.Statistic, 1e-2)
	assert.Greater(t, res.EffectSize, 0.5)
}

func TestChiSquareRequiresTwoLevelsAndSizes(t *testing.T) {
	ds, err := dataset.FromMaps([]map[string]interface{}{
		{"a": "x", "b": "p"}, {"a": "x", "b": "q"}, {"a": "x", "b": "p"},
	}, nil)
	require.NoError(t, err)
	_, err = Run(stats.TestChiSquare, ds, []string{"a", "b"}, 0.05)
	assert.True(t, core.IsInputError(err))

	ds, err = dataset.FromMaps([]map[string]interface{}{
		{"a": "x", "b": "p"}, {"a": "x", "b": "q"}, {"a": "y", "b": "p"}, {"a": "y", "b": "p"}, {"a": "z", "b": "q"},
	}, nil)
	require.NoError(t, err)
	_, err = Run(stats.TestChiSquare, ds, []string{"a", "b"}, 0.05)
	assert.ErrorIs(t, err, core.ErrInsufficientGroupSize)
}

func TestCorrelationTest(t *testing.T) {
	ds, err := dataset.FromMaps([]map[string]interface{}{
		{"x": 1, "y": 2.1}, {"x": 2, "y": 3.9}, {"x": 3, "y": 6.2},
		{"x": 4, "y": 7.8}, {"x": 5, "y": 10.1}, {"x": 6, "y": 12.2},
	}, nil)
	require.NoError(t, err)

	res, err := Run(stats.TestCorrelation, ds, []string{"x", "y"}, 0.05)
	require.NoError(t, err)
	assert.True(t, res.RejectNull)
	assert.Greater(t, res.EffectSize, 0.99)
	assert.Equal(t, 4.0, res.DegreesOfFreedom)

	flat, err := dataset.FromMaps([]map[string]interface{}{
		{"x": 1, "y": 5}, {"x": 2, "y": 5}, {"x": 3, "y": 5},
	}, nil)
	require.NoError(t, err)
	res, err = Run(stats.TestCorrelation, flat, []string{"x", "y"}, 0.05)
	require.NoError(t, err)
	assert.False(t, res.PValue.Defined)
	assert.False(t, res.RejectNull)
}

func TestNormality(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var normal, skewed []map[string]interface{}
	for i := 0; i < 500; i++ {
		normal = append(normal, map[string]interface{}{"v": rng.NormFloat64()})
		skewed = append(skewed, map[string]interface{}{"v": rng.ExpFloat64()})
	}

	ds, err := dataset.FromMaps(normal, nil)
	require.NoError(t, err)
	res, err := Run(stats.TestNormality, ds, []string{"v"}, 0.01)
	require.NoError(t, err)
	assert.False(t, res.RejectNull)
	assert.Equal(t, 2.0, res.DegreesOfFreedom)

	ds, err = dataset.FromMaps(skewed, nil)
	require.NoError(t, err)
	res, err = Run(stats.TestNormality, ds, []string{"v"}, 0.01)
	require.NoError(t, err)
	assert.True(t, res.RejectNull)
	assert.Greater(t, res.EffectSize, 1.0)
}

func TestRunRejectsUnknownKindAndColumns(t *testing.T) {
	ds := grouped(t, map[string][]float64{"a": {1, 2}, "b": {3, 4}}, []string{"a", "b"})

	_, err := Run("mann-whitney", ds, []string{"value", "group"}, 0.05)
	assert.ErrorIs(t, err, core.ErrUnsupportedTest)

	_, err = Run(stats.TestWelchT, ds, []string{"value", "nope"}, 0.05)
	assert.ErrorIs(t, err, core.ErrColumnNotFound)

	_, err = Run(stats.TestWelchT, ds, []string{"value"}, 0.05)
	assert.True(t, core.IsInputError(err))
}
