package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"goanalyst/domain/core"
)

// Role describes how a column participates in analysis
type Role string

const (
	RoleNumeric     Role = "numeric"
	RoleCategorical Role = "categorical"
	RoleTemporal    Role = "temporal"
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleNumeric, RoleCategorical, RoleTemporal:
		return true
	}
	return false
}

// Column names a column and its role
type Column struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Record maps column name to cell value. Every record of a dataset carries
// every column; missing cells are explicit nulls.
type Record map[string]Value

// Dataset is an immutable snapshot of rows plus column roles
type Dataset struct {
	columns []Column
	index   map[string]int
	records []Record
}

// New validates records against the column set and returns a dataset.
// A record with an omitted or unknown key is rejected.
func New(columns []Column, records []Record) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: dataset has no columns", core.ErrEmptyInput)
	}

	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if strings.TrimSpace(col.Name) == "" {
			return nil, fmt.Errorf("%w: column %d has an empty name", core.ErrInvalidInput, i)
		}
		if !col.Role.Valid() {
			return nil, fmt.Errorf("%w: column %q has unknown role %q", core.ErrInvalidInput, col.Name, col.Role)
		}
		if _, dup := index[col.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", core.ErrInvalidInput, col.Name)
		}
		index[col.Name] = i
	}

	for i, rec := range records {
		if len(rec) != len(columns) {
			return nil, fmt.Errorf("%w: record %d has %d fields, expected %d", core.ErrSchemaMismatch, i, len(rec), len(columns))
		}
		for name := range rec {
			if _, ok := index[name]; !ok {
				return nil, fmt.Errorf("%w: record %d has unknown column %q", core.ErrSchemaMismatch, i, name)
			}
		}
	}

	cols := make([]Column, len(columns))
	copy(cols, columns)

	return &Dataset{columns: cols, index: index, records: records}, nil
}

// FromMaps builds a dataset from loosely typed rows such as decoded JSON.
// Column order follows first appearance; keys absent from a row become nulls.
// Roles listed in roles win; the rest are inferred.
func FromMaps(rows []map[string]interface{}, roles map[string]Role) (*Dataset, error) {
	var names []string
	seen := map[string]bool{}
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
		// map order is random; keep new keys of one row stable
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = true
			names = append(names, k)
		}
	}
	for name := range roles {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	records := make([]Record, len(rows))
	for i, row := range rows {
		rec := make(Record, len(names))
		for _, name := range names {
			rec[name] = ValueOf(row[name])
		}
		records[i] = rec
	}

	return FromRecords(names, records, roles)
}

// FromRecords infers roles for columns not present in roles and builds the dataset
func FromRecords(names []string, records []Record, roles map[string]Role) (*Dataset, error) {
	columns := make([]Column, len(names))
	for i, name := range names {
		role, ok := roles[name]
		if !ok {
			values := make([]Value, len(records))
			for r, rec := range records {
				values[r] = rec[name]
			}
			role = InferRole(values)
		}
		columns[i] = Column{Name: name, Role: role}
	}
	return New(columns, records)
}

// Len returns the number of records
func (d *Dataset) Len() int { return len(d.records) }

// Records returns the underlying rows; callers must not mutate them
func (d *Dataset) Records() []Record { return d.records }

// Columns returns a copy of the column definitions
func (d *Dataset) Columns() []Column {
	out := make([]Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// ColumnNames returns column names in dataset order
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name
func (d *Dataset) Column(name string) (Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return Column{}, false
	}
	return d.columns[i], true
}

// ColumnsWithRole lists the names of columns having role, in dataset order
func (d *Dataset) ColumnsWithRole(role Role) []string {
	var names []string
	for _, c := range d.columns {
		if c.Role == role {
			names = append(names, c.Name)
		}
	}
	return names
}

// NumericColumns lists the numeric column names
func (d *Dataset) NumericColumns() []string { return d.ColumnsWithRole(RoleNumeric) }

// Require fails with ErrColumnNotFound for the first missing column
func (d *Dataset) Require(names ...string) error {
	for _, name := range names {
		if _, ok := d.index[name]; !ok {
			return fmt.Errorf("%w: %q", core.ErrColumnNotFound, name)
		}
	}
	return nil
}

// Values returns the raw cells of a column, one per record
func (d *Dataset) Values(name string) ([]Value, error) {
	if err := d.Require(name); err != nil {
		return nil, err
	}
	out := make([]Value, len(d.records))
	for i, rec := range d.records {
		out[i] = rec[name]
	}
	return out, nil
}

// Floats returns the numeric cells of a column, skipping nulls and non-numbers
func (d *Dataset) Floats(name string) ([]float64, error) {
	if err := d.Require(name); err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(d.records))
	for _, rec := range d.records {
		if f, ok := rec[name].Float(); ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// AlignedFloats returns one entry per record with NaN marking missing cells
func (d *Dataset) AlignedFloats(name string) ([]float64, error) {
	if err := d.Require(name); err != nil {
		return nil, err
	}
	out := make([]float64, len(d.records))
	for i, rec := range d.records {
		if f, ok := rec[name].Float(); ok {
			out[i] = f
		} else {
			out[i] = math.NaN()
		}
	}
	return out, nil
}

// Pairs returns the rows where both columns are numeric
func (d *Dataset) Pairs(xName, yName string) (xs, ys []float64, err error) {
	if err := d.Require(xName, yName); err != nil {
		return nil, nil, err
	}
	for _, rec := range d.records {
		x, okX := rec[xName].Float()
		y, okY := rec[yName].Float()
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return xs, ys, nil
}

// Hash returns a content hash over columns, roles and every cell
func (d *Dataset) Hash() core.DatasetHash {
	var b strings.Builder
	for _, c := range d.columns {
		b.WriteString(c.Name)
		b.WriteByte(':')
		b.WriteString(string(c.Role))
		b.WriteByte(';')
	}
	b.WriteByte('\n')
	for _, rec := range d.records {
		for _, c := range d.columns {
			v := rec[c.Name]
			b.WriteString(v.Kind.String())
			b.WriteByte('=')
			b.WriteString(v.String())
			b.WriteByte('\x1f')
		}
		b.WriteByte('\n')
	}
	return core.NewDatasetHash([]byte(b.String()))
}
