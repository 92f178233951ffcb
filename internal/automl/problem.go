package automl

import (
	"math"

	"goanalyst/domain/dataset"
	"goanalyst/internal/errors"
)

// ProblemType is the kind of target a model predicts
type ProblemType string

const (
	Classification ProblemType = "classification"
	Regression     ProblemType = "regression"
)

// MaxClassCount is the largest number of distinct integer values a numeric
// target may have and still be treated as class labels
const MaxClassCount = 10

// Valid reports whether p is a known problem type
func (p ProblemType) Valid() bool {
	return p == Classification || p == Regression
}

// DetermineProblemType inspects the target column. Text, boolean and date
// labels mean classification. A numeric target is classification when every
// value is an integer, there are at most MaxClassCount distinct values and no
// more than half as many distinct values as rows; otherwise regression.
func DetermineProblemType(ds *dataset.Dataset, target string) (ProblemType, error) {
	if ds == nil || ds.Len() == 0 {
		return "", errors.Empty("problem type detection")
	}
	col, ok := ds.Column(target)
	if !ok {
		return "", errors.ColumnNotFound(target)
	}
	values, err := ds.Values(target)
	if err != nil {
		return "", errors.ColumnNotFound(target)
	}

	present := 0
	for _, v := range values {
		if !v.IsNull() {
			present++
		}
	}
	if present == 0 {
		return "", errors.InvalidSelection("target column " + target + " has no values")
	}

	if col.Role != dataset.RoleNumeric {
		return Classification, nil
	}

	distinct := map[float64]bool{}
	for _, v := range values {
		f, ok := v.Float()
		if !ok {
			if !v.IsNull() {
				return Classification, nil
			}
			continue
		}
		if f != math.Trunc(f) {
			return Regression, nil
		}
		distinct[f] = true
	}
	if len(distinct) <= MaxClassCount && len(distinct)*2 <= present {
		return Classification, nil
	}
	return Regression, nil
}
