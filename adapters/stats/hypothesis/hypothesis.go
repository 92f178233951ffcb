// Package hypothesis runs classical significance tests over dataset columns.
package hypothesis

import (
	"math"

	"goanalyst/adapters/stats/correlation"
	"goanalyst/adapters/stats/descriptive"
	"goanalyst/domain/core"
	"goanalyst/domain/dataset"
	"goanalyst/domain/stats"
	"goanalyst/internal/errors"
	"goanalyst/internal/narrative"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultAlpha is the significance level used when none is given
const DefaultAlpha = 0.05

// Kinds lists the supported tests
func Kinds() []stats.TestKind {
	return []stats.TestKind{
		stats.TestWelchT,
		stats.TestChiSquare,
		stats.TestANOVA,
		stats.TestCorrelation,
		stats.TestNormality,
	}
}

// Run executes one test. Column order matters:
//
//	t-test, anova:       [numeric value, grouping]
//	chi-square:          [categorical, categorical]
//	correlation:         [numeric, numeric]
//	normality:           [numeric]
//
// alpha outside (0, 1) falls back to DefaultAlpha.
func Run(kind stats.TestKind, ds *dataset.Dataset, columns []string, alpha float64) (*stats.HypothesisTestResult, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, errors.Empty(string(kind))
	}
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	for _, name := range columns {
		if _, ok := ds.Column(name); !ok {
			return nil, errors.ColumnNotFound(name)
		}
	}

	var (
		res *stats.HypothesisTestResult
		err error
	)
	switch kind {
	case stats.TestWelchT:
		if err := wantColumns(kind, columns, 2); err != nil {
			return nil, err
		}
		groups, gerr := groupValues(ds, columns[0], columns[1])
		if gerr != nil {
			return nil, gerr
		}
		res, err = welch(groups)
	case stats.TestANOVA:
		if err := wantColumns(kind, columns, 2); err != nil {
			return nil, err
		}
		groups, gerr := groupValues(ds, columns[0], columns[1])
		if gerr != nil {
			return nil, gerr
		}
		res, err = anova(groups)
	case stats.TestChiSquare:
		if err := wantColumns(kind, columns, 2); err != nil {
			return nil, err
		}
		res, err = chiSquare(ds, columns[0], columns[1])
	case stats.TestCorrelation:
		if err := wantColumns(kind, columns, 2); err != nil {
			return nil, err
		}
		xs, ys, perr := ds.Pairs(columns[0], columns[1])
		if perr != nil {
			return nil, perr
		}
		res, err = correlationTest(xs, ys)
	case stats.TestNormality:
		if err := wantColumns(kind, columns, 1); err != nil {
			return nil, err
		}
		values, ferr := ds.Floats(columns[0])
		if ferr != nil {
			return nil, ferr
		}
		res, err = jarqueBera(values)
	default:
		return nil, errors.Unsupported("hypothesis test", string(kind), core.ErrUnsupportedTest)
	}
	if err != nil {
		return nil, err
	}

	res.Kind = kind
	res.Columns = append([]string(nil), columns...)
	res.Alpha = alpha
	res.RejectNull = res.PValue.Below(alpha)
	res.Interpretation = narrative.Hypothesis(res)
	return res, nil
}

// Group is one level of a grouping column with its numeric observations
type Group struct {
	Name   string
	Values []float64
}

// WelchT compares the means of two groups without assuming equal variances
func WelchT(a, b Group) (*stats.HypothesisTestResult, error) {
	return welch([]Group{a, b})
}

func welch(groups []Group) (*stats.HypothesisTestResult, error) {
	if len(groups) != 2 {
		return nil, errors.InvalidInputf("t-test requires exactly 2 groups, found %d", len(groups))
	}
	if err := checkGroupSizes(stats.TestWelchT, groups); err != nil {
		return nil, err
	}
	summaries := summarize(groups)
	g1, g2 := summaries[0], summaries[1]
	n1, n2 := float64(g1.N), float64(g2.N)

	res := &stats.HypothesisTestResult{N: g1.N + g2.N, Groups: summaries}

	pooled := math.Sqrt(((n1-1)*g1.Variance + (n2-1)*g2.Variance) / (n1 + n2 - 2))
	if pooled > 0 {
		res.EffectSize = (g1.Mean - g2.Mean) / pooled
	}

	se2 := g1.Variance/n1 + g2.Variance/n2
	if se2 == 0 {
		return res, nil
	}
	t := (g1.Mean - g2.Mean) / math.Sqrt(se2)
	a, b := g1.Variance/n1, g2.Variance/n2
	df := se2 * se2 / (a*a/(n1-1) + b*b/(n2-1))

	res.Statistic = t
	res.DegreesOfFreedom = df
	res.PValue = stats.DefinedSignificance(2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t)))
	return res, nil
}

// OneWayANOVA compares the means of two or more groups
func OneWayANOVA(groups []Group) (*stats.HypothesisTestResult, error) {
	return anova(groups)
}

func anova(groups []Group) (*stats.HypothesisTestResult, error) {
	if len(groups) < 2 {
		return nil, errors.InvalidInputf("anova requires at least 2 groups, found %d", len(groups))
	}
	if err := checkGroupSizes(stats.TestANOVA, groups); err != nil {
		return nil, err
	}
	summaries := summarize(groups)

	total, count := 0.0, 0
	for _, g := range groups {
		for _, v := range g.Values {
			total += v
		}
		count += len(g.Values)
	}
	grand := total / float64(count)

	var ssb, ssw float64
	for i, g := range groups {
		d := summaries[i].Mean - grand
		ssb += float64(len(g.Values)) * d * d
		for _, v := range g.Values {
			e := v - summaries[i].Mean
			ssw += e * e
		}
	}

	k := float64(len(groups))
	df1, df2 := k-1, float64(count)-k
	res := &stats.HypothesisTestResult{
		N:                count,
		Groups:           summaries,
		DegreesOfFreedom: df1,
		DF2:              df2,
	}
	if sst := ssb + ssw; sst > 0 {
		res.EffectSize = ssb / sst
	}
	if ssw == 0 {
		return res, nil
	}

	f := (ssb / df1) / (ssw / df2)
	res.Statistic = f
	res.PValue = stats.DefinedSignificance(distuv.F{D1: df1, D2: df2}.Survival(f))
	return res, nil
}

// chiSquare tests independence of two categorical columns over rows where both are present
func chiSquare(ds *dataset.Dataset, aName, bName string) (*stats.HypothesisTestResult, error) {
	var aLabels, bLabels []string
	for _, rec := range ds.Records() {
		a, okA := rec[aName].Label()
		b, okB := rec[bName].Label()
		if okA && okB {
			aLabels = append(aLabels, a)
			bLabels = append(bLabels, b)
		}
	}
	return ChiSquareIndependence(aName, aLabels, bName, bLabels)
}

// ChiSquareIndependence tests whether two paired label sequences are independent
func ChiSquareIndependence(aName string, a []string, bName string, b []string) (*stats.HypothesisTestResult, error) {
	if len(a) != len(b) {
		return nil, errors.InvalidInputf("chi-square requires paired labels, got %d and %d", len(a), len(b))
	}
	rows, rowIndex := levels(a)
	cols, colIndex := levels(b)
	if len(rows) < 2 {
		return nil, errors.InvalidInputf("chi-square requires at least 2 levels in %q, found %d", aName, len(rows))
	}
	if len(cols) < 2 {
		return nil, errors.InvalidInputf("chi-square requires at least 2 levels in %q, found %d", bName, len(cols))
	}

	observed := make([][]float64, len(rows))
	for i := range observed {
		observed[i] = make([]float64, len(cols))
	}
	rowTotals := make([]float64, len(rows))
	colTotals := make([]float64, len(cols))
	for i := range a {
		r, c := rowIndex[a[i]], colIndex[b[i]]
		observed[r][c]++
		rowTotals[r]++
		colTotals[c]++
	}
	for r, total := range rowTotals {
		if total < 2 {
			return nil, errors.InsufficientGroupSize(string(stats.TestChiSquare), aName+"="+rows[r], int(total))
		}
	}
	for c, total := range colTotals {
		if total < 2 {
			return nil, errors.InsufficientGroupSize(string(stats.TestChiSquare), bName+"="+cols[c], int(total))
		}
	}

	n := float64(len(a))
	chi := 0.0
	for r := range rows {
		for c := range cols {
			expected := rowTotals[r] * colTotals[c] / n
			d := observed[r][c] - expected
			chi += d * d / expected
		}
	}

	df := float64((len(rows) - 1) * (len(cols) - 1))
	minDim := math.Min(float64(len(rows)), float64(len(cols))) - 1
	return &stats.HypothesisTestResult{
		Statistic:        chi,
		DegreesOfFreedom: df,
		PValue:           stats.DefinedSignificance(distuv.ChiSquared{K: df}.Survival(chi)),
		EffectSize:       math.Sqrt(chi / (n * minDim)),
		N:                len(a),
	}, nil
}

// correlationTest converts Pearson's r into a t statistic with n-2 degrees of freedom
func correlationTest(xs, ys []float64) (*stats.HypothesisTestResult, error) {
	n := len(xs)
	if n < 3 {
		return nil, errors.InsufficientData(string(stats.TestCorrelation), 3, n)
	}
	res := &stats.HypothesisTestResult{N: n, DegreesOfFreedom: float64(n - 2)}
	if descriptive.Variance(xs) == 0 || descriptive.Variance(ys) == 0 {
		return res, nil
	}

	r := correlation.Pearson(xs, ys)
	res.EffectSize = r
	if math.Abs(r) >= 1 {
		// t is unbounded; keep it finite for JSON
		res.Statistic = math.Copysign(math.MaxFloat64, r)
		res.PValue = stats.DefinedSignificance(0)
		return res, nil
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	res.Statistic = t
	res.PValue = stats.DefinedSignificance(2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t)))
	return res, nil
}

// jarqueBera tests normality from sample skewness and excess kurtosis
func jarqueBera(values []float64) (*stats.HypothesisTestResult, error) {
	data := descriptive.Clean(values)
	n := len(data)
	if n < 3 {
		return nil, errors.InsufficientData(string(stats.TestNormality), 3, n)
	}
	res := &stats.HypothesisTestResult{N: n, DegreesOfFreedom: 2}

	mean, _ := descriptive.Mean(data)
	var m2, m3, m4 float64
	for _, v := range data {
		d := v - mean
		m2 += d * d
		m3 += d * d * d
		m4 += d * d * d * d
	}
	fn := float64(n)
	m2, m3, m4 = m2/fn, m3/fn, m4/fn
	if m2 == 0 {
		return res, nil
	}

	skew := m3 / math.Pow(m2, 1.5)
	kurt := m4/(m2*m2) - 3
	jb := fn / 6 * (skew*skew + kurt*kurt/4)

	res.Statistic = jb
	res.EffectSize = skew
	res.PValue = stats.DefinedSignificance(distuv.ChiSquared{K: 2}.Survival(jb))
	return res, nil
}

// groupValues splits a numeric column by the labels of a grouping column, in
// first-seen label order
func groupValues(ds *dataset.Dataset, valueColumn, groupColumn string) ([]Group, error) {
	col, _ := ds.Column(valueColumn)
	if col.Role != dataset.RoleNumeric {
		return nil, errors.InvalidInputf("column %q is %s, not numeric", valueColumn, col.Role)
	}
	index := map[string]int{}
	var groups []Group
	for _, rec := range ds.Records() {
		v, ok := rec[valueColumn].Float()
		if !ok {
			continue
		}
		label, ok := rec[groupColumn].Label()
		if !ok {
			continue
		}
		i, seen := index[label]
		if !seen {
			i = len(groups)
			index[label] = i
			groups = append(groups, Group{Name: label})
		}
		groups[i].Values = append(groups[i].Values, v)
	}
	return groups, nil
}

func checkGroupSizes(kind stats.TestKind, groups []Group) error {
	for _, g := range groups {
		if len(g.Values) < 2 {
			return errors.InsufficientGroupSize(string(kind), g.Name, len(g.Values))
		}
	}
	return nil
}

func summarize(groups []Group) []stats.GroupSummary {
	out := make([]stats.GroupSummary, len(groups))
	for i, g := range groups {
		mean, _ := descriptive.Mean(g.Values)
		out[i] = stats.GroupSummary{
			Name:     g.Name,
			N:        len(g.Values),
			Mean:     mean,
			Variance: descriptive.Variance(g.Values),
		}
	}
	return out
}

func levels(labels []string) ([]string, map[string]int) {
	index := map[string]int{}
	var out []string
	for _, l := range labels {
		if _, ok := index[l]; !ok {
			index[l] = len(out)
			out = append(out, l)
		}
	}
	return out, index
}

func wantColumns(kind stats.TestKind, columns []string, n int) error {
	if len(columns) != n {
		return errors.InvalidInputf("%s requires %d columns, got %d", kind, n, len(columns))
	}
	return nil
}
