package analysis

import (
	"fmt"
	"math"

	"goanalyst/adapters/stats/descriptive"
	"goanalyst/domain/dataset"
	"goanalyst/internal/errors"
	"goanalyst/internal/narrative"

	"gonum.org/v1/gonum/mat"
)

// maxCondition bounds the design matrix condition number before drivers are
// reported as collinear
const maxCondition = 1e10

// DriverAnalysis is a multiple linear regression of a target on its
// candidate drivers
type DriverAnalysis struct {
	Target       string             `json:"target"`
	Features     []string           `json:"features"`
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
	// Importance is |coefficient × feature std dev|, normalized to sum to 1
	Importance  map[string]float64 `json:"importance"`
	RSquared    float64            `json:"r_squared"`
	Quality     string             `json:"quality"`
	TopDriver   string             `json:"top_driver"`
	N           int                `json:"n"`
	Explanation string             `json:"explanation"`
}

// Drivers regresses a numeric target on the given features (all other
// numeric columns when empty) over complete rows
func Drivers(ds *dataset.Dataset, target string, features []string) (*DriverAnalysis, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, errors.Empty("driver analysis")
	}
	col, ok := ds.Column(target)
	if !ok {
		return nil, errors.ColumnNotFound(target)
	}
	if col.Role != dataset.RoleNumeric {
		return nil, errors.InvalidInputf("driver analysis needs a numeric target, %q is %s", target, col.Role)
	}

	if len(features) == 0 {
		for _, name := range ds.NumericColumns() {
			if name != target {
				features = append(features, name)
			}
		}
	}
	for _, name := range features {
		if name == target {
			return nil, errors.InvalidSelection(fmt.Sprintf("target %q is also selected as a driver", target))
		}
		f, ok := ds.Column(name)
		if !ok {
			return nil, errors.ColumnNotFound(name)
		}
		if f.Role != dataset.RoleNumeric {
			return nil, errors.InvalidInputf("driver %q is %s, not numeric", name, f.Role)
		}
	}
	if len(features) == 0 {
		return nil, errors.InsufficientColumns("driver analysis", 2, 1)
	}

	var xs [][]float64
	var ys []float64
	for _, rec := range ds.Records() {
		y, ok := rec[target].Float()
		if !ok {
			continue
		}
		row := make([]float64, len(features))
		complete := true
		for j, name := range features {
			v, ok := rec[name].Float()
			if !ok {
				complete = false
				break
			}
			row[j] = v
		}
		if complete {
			xs = append(xs, row)
			ys = append(ys, y)
		}
	}
	p := len(features)
	if len(ys) < p+2 {
		return nil, errors.InsufficientData("driver analysis", p+2, len(ys))
	}

	n := len(ys)
	a := mat.NewDense(n, p+1, nil)
	for i, row := range xs {
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
	}
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDNone) || svd.Cond() > maxCondition {
		return nil, errors.InvalidInputf("drivers of %q are collinear; drop redundant columns", target)
	}
	var beta mat.VecDense
	if err := beta.SolveVec(a, mat.NewVecDense(n, ys)); err != nil {
		return nil, errors.InvalidInputf("drivers of %q are collinear; drop redundant columns", target)
	}

	res := &DriverAnalysis{
		Target:       target,
		Features:     features,
		Intercept:    beta.AtVec(0),
		Coefficients: make(map[string]float64, p),
		Importance:   make(map[string]float64, p),
		N:            n,
	}
	raw := make([]float64, p)
	total := 0.0
	for j, name := range features {
		coef := beta.AtVec(j + 1)
		res.Coefficients[name] = coef
		column := make([]float64, n)
		for i := range xs {
			column[i] = xs[i][j]
		}
		raw[j] = math.Abs(coef * descriptive.StdDev(column))
		total += raw[j]
	}
	best := -1.0
	for j, name := range features {
		w := 1 / float64(p)
		if total > 0 {
			w = raw[j] / total
		}
		res.Importance[name] = w
		if w > best {
			best, res.TopDriver = w, name
		}
	}

	mean, _ := descriptive.Mean(ys)
	ssTot, ssRes := 0.0, 0.0
	for i, row := range xs {
		fitted := res.Intercept
		for j, v := range row {
			fitted += res.Coefficients[features[j]] * v
		}
		ssRes += (ys[i] - fitted) * (ys[i] - fitted)
		ssTot += (ys[i] - mean) * (ys[i] - mean)
	}
	if ssTot > 0 {
		res.RSquared = math.Max(0, math.Min(1, 1-ssRes/ssTot))
	}
	res.Quality = narrative.ModelQuality(res.RSquared)
	res.Explanation = narrative.Drivers(target, res.TopDriver, res.RSquared)
	return res, nil
}
