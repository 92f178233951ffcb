package automl

import (
	"fmt"
	"math"
	"sort"

	"goanalyst/adapters/stats/descriptive"
	"goanalyst/domain/dataset"
	"goanalyst/internal/errors"
)

// Scaler holds per-feature standardization statistics. A zero standard
// deviation maps every input of that feature to 0.
type Scaler struct {
	Means   []float64 `json:"means" yaml:"means"`
	StdDevs []float64 `json:"std_devs" yaml:"std_devs"`
}

func (s Scaler) transform(x []float64) []float64 {
	z := make([]float64, len(x))
	for j, v := range x {
		if s.StdDevs[j] > 0 {
			z[j] = (v - s.Means[j]) / s.StdDevs[j]
		}
	}
	return z
}

// design is a dataset reduced to a dense, imputed and standardized matrix
type design struct {
	features []string
	skipped  []string
	raw      [][]float64
	z        [][]float64
	y        []float64
	classes  []string
	fill     []float64
	scaler   Scaler
	// targetStd is the spread of a regression target; 0 for classification
	targetStd float64
	warnings  []string
}

func (d *design) rows() int { return len(d.y) }

// preprocess validates the selection, drops rows with no usable target,
// imputes missing feature cells and standardizes the features
func preprocess(ds *dataset.Dataset, target string, features []string, problem ProblemType, cfg Config) (*design, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, errors.Empty("model training")
	}
	if _, ok := ds.Column(target); !ok {
		return nil, errors.ColumnNotFound(target)
	}
	if len(features) == 0 {
		return nil, errors.InvalidSelection("at least one feature column is required")
	}

	d := &design{}
	seen := map[string]bool{}
	for _, name := range features {
		if name == target {
			return nil, errors.InvalidSelection(fmt.Sprintf("target %q is also selected as a feature", target))
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		col, ok := ds.Column(name)
		if !ok {
			return nil, errors.ColumnNotFound(name)
		}
		if col.Role != dataset.RoleNumeric {
			d.skipped = append(d.skipped, name)
			d.warnings = append(d.warnings, fmt.Sprintf("feature %q is %s and was ignored; encode it numerically to use it", name, col.Role))
			continue
		}
		d.features = append(d.features, name)
	}
	if len(d.features) == 0 {
		return nil, errors.InvalidSelection("no numeric feature columns to train on")
	}

	var labels []string
	var kept []dataset.Record
	for _, rec := range ds.Records() {
		v := rec[target]
		if problem == Classification {
			label, ok := v.Label()
			if !ok {
				continue
			}
			labels = append(labels, label)
		} else {
			f, ok := v.Float()
			if !ok {
				continue
			}
			d.y = append(d.y, f)
		}
		kept = append(kept, rec)
	}
	if len(kept) == 0 {
		return nil, errors.InvalidSelection(fmt.Sprintf("target column %q has no valid values", target))
	}
	if len(kept) < cfg.MinRows {
		return nil, errors.InsufficientData("model training", cfg.MinRows, len(kept))
	}

	if problem == Classification {
		d.classes = distinctSorted(labels)
		if len(d.classes) < 2 {
			return nil, errors.InvalidSelection(fmt.Sprintf("target column %q needs at least 2 classes, found %d", target, len(d.classes)))
		}
		index := make(map[string]int, len(d.classes))
		for i, c := range d.classes {
			index[c] = i
		}
		d.y = make([]float64, len(labels))
		for i, l := range labels {
			d.y[i] = float64(index[l])
		}
	} else {
		d.targetStd = descriptive.StdDev(d.y)
	}

	p := len(d.features)
	d.fill = make([]float64, p)
	d.scaler = Scaler{Means: make([]float64, p), StdDevs: make([]float64, p)}
	columns := make([][]float64, p)
	for j, name := range d.features {
		col := make([]float64, len(kept))
		var present []float64
		for i, rec := range kept {
			if f, ok := rec[name].Float(); ok {
				col[i] = f
				present = append(present, f)
			} else {
				col[i] = math.NaN()
			}
		}
		fill, err := imputeValue(present, cfg.Imputation)
		if err != nil {
			d.warnings = append(d.warnings, fmt.Sprintf("feature %q has no values; filled with 0", name))
		}
		d.fill[j] = fill
		for i, v := range col {
			if math.IsNaN(v) {
				col[i] = fill
			}
		}
		d.scaler.Means[j], _ = descriptive.Mean(col)
		d.scaler.StdDevs[j] = descriptive.StdDev(col)
		columns[j] = col
	}

	d.raw = make([][]float64, len(kept))
	d.z = make([][]float64, len(kept))
	for i := range kept {
		row := make([]float64, p)
		for j := range columns {
			row[j] = columns[j][i]
		}
		d.raw[i] = row
		d.z[i] = d.scaler.transform(row)
	}
	return d, nil
}

func imputeValue(present []float64, strategy Imputation) (float64, error) {
	if strategy == ImputeMedian {
		return descriptive.Median(present)
	}
	return descriptive.Mean(present)
}

func distinctSorted(labels []string) []string {
	set := map[string]bool{}
	for _, l := range labels {
		set[l] = true
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
