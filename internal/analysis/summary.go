package analysis

import (
	"goanalyst/adapters/stats/descriptive"
	"goanalyst/domain/dataset"
	"goanalyst/domain/stats"
	"goanalyst/internal/errors"
)

// DataSummary is the first look at a dataset: its shape, missing cells and
// per-column statistics
type DataSummary struct {
	Rows               int                               `json:"rows"`
	Columns            int                               `json:"columns"`
	NumericColumns     []string                          `json:"numeric_columns"`
	CategoricalColumns []string                          `json:"categorical_columns"`
	TemporalColumns    []string                          `json:"temporal_columns"`
	Missing            map[string]int                    `json:"missing"`
	MissingTotal       int                               `json:"missing_total"`
	Statistics         map[string]stats.ColumnStatistics `json:"statistics"`
	// Levels counts distinct labels of categorical columns
	Levels map[string]int `json:"levels"`
}

// Completeness is the share of non-missing cells in [0, 1]
func (s *DataSummary) Completeness() float64 {
	cells := s.Rows * s.Columns
	if cells == 0 {
		return 0
	}
	return 1 - float64(s.MissingTotal)/float64(cells)
}

// Summarize counts rows, columns and missing cells, and computes descriptive
// statistics for every numeric column with at least one value
func Summarize(ds *dataset.Dataset) (*DataSummary, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, errors.Empty("data summary")
	}
	s := &DataSummary{
		Rows:               ds.Len(),
		Columns:            len(ds.Columns()),
		NumericColumns:     nonNil(ds.ColumnsWithRole(dataset.RoleNumeric)),
		CategoricalColumns: nonNil(ds.ColumnsWithRole(dataset.RoleCategorical)),
		TemporalColumns:    nonNil(ds.ColumnsWithRole(dataset.RoleTemporal)),
		Missing:            map[string]int{},
		Statistics:         map[string]stats.ColumnStatistics{},
		Levels:             map[string]int{},
	}

	for _, col := range ds.Columns() {
		values, err := ds.Values(col.Name)
		if err != nil {
			return nil, err
		}
		missing := 0
		for _, v := range values {
			if v.IsNull() {
				missing++
			}
		}
		s.Missing[col.Name] = missing
		s.MissingTotal += missing

		switch col.Role {
		case dataset.RoleNumeric:
			floats, err := ds.Floats(col.Name)
			if err != nil {
				return nil, err
			}
			if len(floats) == 0 {
				continue
			}
			cs, err := descriptive.Compute(floats)
			if err != nil {
				return nil, err
			}
			s.Statistics[col.Name] = cs
		case dataset.RoleCategorical:
			s.Levels[col.Name] = len(dataset.DistinctLabels(values))
		}
	}
	return s, nil
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
