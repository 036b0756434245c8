// Package datasets provides column-oriented data containers, a CSV loader
// and simulated data generators for causal estimation workflows. A Dataset
// satisfies dml.Table, so named columns feed straight into dml.NewDataFrom.
package datasets

import (
	"github.com/YuminosukeSato/godml/dml"
	"github.com/YuminosukeSato/godml/pkg/errors"
)

// Dataset is an immutable-by-convention set of named float64 columns of
// equal length. Mutating methods return errors instead of reslicing shared
// storage; Column hands out copies.
type Dataset struct {
	names []string
	cols  [][]float64
	index map[string]int
}

var _ dml.Table = (*Dataset)(nil)

// NewDataset builds a Dataset from parallel name and column slices. Column
// values are copied. Names must be unique and non-empty, columns must share
// one length.
func NewDataset(names []string, cols [][]float64) (*Dataset, error) {
	const op = "datasets.NewDataset"

	if len(names) == 0 {
		return nil, errors.NewValueError(op, "at least one column is required")
	}
	if len(names) != len(cols) {
		return nil, errors.NewDimensionError(op, len(names), len(cols), 0)
	}

	n := len(cols[0])
	ds := &Dataset{
		names: make([]string, len(names)),
		cols:  make([][]float64, len(cols)),
		index: make(map[string]int, len(names)),
	}
	for i, name := range names {
		if name == "" {
			return nil, errors.NewValidationError("names", "column names must not be empty", i)
		}
		if _, dup := ds.index[name]; dup {
			return nil, errors.NewDataError(op, name, "duplicate column name")
		}
		if len(cols[i]) != n {
			return nil, errors.NewDataError(op, name, "columns must have equal length")
		}
		ds.names[i] = name
		ds.index[name] = i
		col := make([]float64, n)
		copy(col, cols[i])
		ds.cols[i] = col
	}
	return ds, nil
}

// NumRows returns the number of rows.
func (ds *Dataset) NumRows() int {
	if len(ds.cols) == 0 {
		return 0
	}
	return len(ds.cols[0])
}

// NumColumns returns the number of columns.
func (ds *Dataset) NumColumns() int {
	return len(ds.cols)
}

// Names returns the column names in order.
func (ds *Dataset) Names() []string {
	out := make([]string, len(ds.names))
	copy(out, ds.names)
	return out
}

// HasColumn reports whether a column with the given name exists.
func (ds *Dataset) HasColumn(name string) bool {
	_, ok := ds.index[name]
	return ok
}

// Column returns a copy of the named column.
func (ds *Dataset) Column(name string) ([]float64, error) {
	i, ok := ds.index[name]
	if !ok {
		return nil, errors.NewDataError("datasets.Column", name, "no such column")
	}
	out := make([]float64, len(ds.cols[i]))
	copy(out, ds.cols[i])
	return out, nil
}

// AddColumn appends a derived column. The values are copied; the name must
// be new and the length must match the existing rows.
func (ds *Dataset) AddColumn(name string, values []float64) error {
	const op = "datasets.AddColumn"

	if name == "" {
		return errors.NewValidationError("name", "column name must not be empty", name)
	}
	if _, dup := ds.index[name]; dup {
		return errors.NewDataError(op, name, "duplicate column name")
	}
	if len(values) != ds.NumRows() {
		return errors.NewDimensionError(op, ds.NumRows(), len(values), 0)
	}

	col := make([]float64, len(values))
	copy(col, values)
	ds.index[name] = len(ds.cols)
	ds.names = append(ds.names, name)
	ds.cols = append(ds.cols, col)
	return nil
}

// Select returns a new Dataset holding only the named columns, in the given
// order.
func (ds *Dataset) Select(names ...string) (*Dataset, error) {
	cols := make([][]float64, len(names))
	for i, name := range names {
		col, err := ds.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return NewDataset(names, cols)
}
