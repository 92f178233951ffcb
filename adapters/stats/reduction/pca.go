// Package reduction projects numeric columns onto principal components.
package reduction

import (
	"math"
	"sort"

	"goanalyst/adapters/stats/descriptive"
	"goanalyst/domain/dataset"
	"goanalyst/domain/stats"
	"goanalyst/internal/errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultImportanceCoverage is the cumulative variance (percent) whose leading
// components feed feature importance
const DefaultImportanceCoverage = 80.0

// Options configures PCA
type Options struct {
	// Components retained in TransformedData; 0 keeps all
	Components int
	// ImportanceCoverage in percent; 0 uses DefaultImportanceCoverage
	ImportanceCoverage float64
}

// PCA standardizes the columns, eigendecomposes their covariance and projects
// every row onto the components. Missing cells are mean-imputed.
func PCA(ds *dataset.Dataset, columns []string, opts Options) (*stats.PCAResult, error) {
	if ds == nil {
		return nil, errors.Empty("PCA")
	}
	cols, err := resolveColumns(ds, columns)
	if err != nil {
		return nil, err
	}
	if len(cols) < 2 {
		return nil, errors.InsufficientColumns("PCA", 2, len(cols))
	}
	n := ds.Len()
	if n < 2 {
		return nil, errors.InsufficientData("PCA", 2, n)
	}
	if opts.ImportanceCoverage <= 0 {
		opts.ImportanceCoverage = DefaultImportanceCoverage
	}

	p := len(cols)
	z := mat.NewDense(n, p, nil)
	for j, name := range cols {
		raw, err := ds.AlignedFloats(name)
		if err != nil {
			return nil, err
		}
		for i, v := range descriptive.Standardize(raw) {
			z.Set(i, j, v)
		}
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, z, nil)

	var eig mat.EigenSym
	if ok := eig.Factorize(&cov, true); !ok {
		return nil, errors.InternalError("PCA eigendecomposition did not converge")
	}
	rawValues := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	order := make([]int, p)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return rawValues[order[a]] > rawValues[order[b]]
	})

	eigenvalues := make([]float64, p)
	loadings := make([][]float64, p)
	for c, idx := range order {
		eigenvalues[c] = math.Max(0, rawValues[idx])
		vec := make([]float64, p)
		for j := 0; j < p; j++ {
			vec[j] = vectors.At(j, idx)
		}
		loadings[c] = normalizeSign(vec)
	}

	explained, cumulative := explainedVariance(eigenvalues)

	retained := p
	if opts.Components > 0 && opts.Components < p {
		retained = opts.Components
	}
	transformed := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, retained)
		for c := 0; c < retained; c++ {
			sum := 0.0
			for j := 0; j < p; j++ {
				sum += z.At(i, j) * loadings[c][j]
			}
			row[c] = sum
		}
		transformed[i] = row
	}

	return &stats.PCAResult{
		Columns:            cols,
		Eigenvalues:        eigenvalues,
		ExplainedVariance:  explained,
		CumulativeVariance: cumulative,
		Loadings:           loadings,
		TransformedData:    transformed,
		FeatureImportance:  featureImportance(cols, loadings, explained, cumulative, opts.ImportanceCoverage),
		Components:         retained,
	}, nil
}

// normalizeSign flips a loading vector so its largest-magnitude entry is positive
func normalizeSign(vec []float64) []float64 {
	best := 0
	for j := range vec {
		if math.Abs(vec[j]) > math.Abs(vec[best]) {
			best = j
		}
	}
	if vec[best] < 0 {
		for j := range vec {
			vec[j] = -vec[j]
		}
	}
	return vec
}

// explainedVariance returns per-component and running percentages. With no
// variance at all the components share it equally so the total stays 100.
func explainedVariance(eigenvalues []float64) (explained, cumulative []float64) {
	p := len(eigenvalues)
	explained = make([]float64, p)
	cumulative = make([]float64, p)

	total := 0.0
	for _, v := range eigenvalues {
		total += v
	}
	running := 0.0
	for c, v := range eigenvalues {
		if total > 0 {
			explained[c] = v / total * 100
		} else {
			explained[c] = 100 / float64(p)
		}
		running += explained[c]
		cumulative[c] = math.Min(100, running)
	}
	return explained, cumulative
}

// featureImportance weights absolute loadings of the leading components by their
// explained ratio and scales the result so the top feature is 1
func featureImportance(cols []string, loadings [][]float64, explained, cumulative []float64, coverage float64) map[string]float64 {
	leading := len(explained)
	for c, cum := range cumulative {
		if cum >= coverage {
			leading = c + 1
			break
		}
	}

	scores := make([]float64, len(cols))
	for c := 0; c < leading; c++ {
		for j := range cols {
			scores[j] += explained[c] / 100 * math.Abs(loadings[c][j])
		}
	}

	max := 0.0
	for _, s := range scores {
		max = math.Max(max, s)
	}
	out := make(map[string]float64, len(cols))
	for j, name := range cols {
		if max > 0 {
			out[name] = scores[j] / max
		} else {
			out[name] = 0
		}
	}
	return out
}

func resolveColumns(ds *dataset.Dataset, columns []string) ([]string, error) {
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
		if col.Role != dataset.RoleNumeric || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}
