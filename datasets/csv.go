package datasets

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/godml/pkg/errors"
	"github.com/YuminosukeSato/godml/pkg/log"
)

// LoadCSV reads a headed CSV stream into a Dataset. Every cell must parse as
// a finite float64: missing markers such as "NA" or empty cells are rejected
// with the column and row named, never silently dropped or imputed.
func LoadCSV(r io.Reader) (*Dataset, error) {
	const op = "datasets.LoadCSV"

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrap(errors.ErrEmptyData, op)
	}
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	names := make([]string, len(header))
	for i, name := range header {
		names[i] = strings.TrimSpace(name)
	}

	cols := make([][]float64, len(names))
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, op)
		}
		for i, cell := range record {
			v, perr := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if perr != nil {
				return nil, errors.NewDataError(op, names[i],
					fmt.Sprintf("row %d: cannot parse %q as a number", row, cell))
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.NewDataError(op, names[i],
					fmt.Sprintf("row %d: non-finite value %q", row, cell))
			}
			cols[i] = append(cols[i], v)
		}
		row++
	}
	if row == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, op)
	}

	ds, err := NewDataset(names, cols)
	if err != nil {
		return nil, err
	}

	log.GetLoggerWithName("datasets.csv").Debug("csv loaded",
		log.SamplesKey, ds.NumRows(),
		log.FeaturesKey, ds.NumColumns(),
	)
	return ds, nil
}

// LoadCSVFile reads a headed CSV file into a Dataset.
func LoadCSVFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "datasets.LoadCSVFile: open %s", path)
	}
	defer f.Close()
	return LoadCSV(f)
}

// WriteCSV writes the Dataset as a headed CSV stream. Values round-trip
// through LoadCSV exactly: they are formatted with strconv's shortest
// representation that parses back to the same float64.
func (ds *Dataset) WriteCSV(w io.Writer) error {
	const op = "datasets.WriteCSV"

	writer := csv.NewWriter(w)
	if err := writer.Write(ds.names); err != nil {
		return errors.Wrap(err, op)
	}

	record := make([]string, len(ds.cols))
	for row := 0; row < ds.NumRows(); row++ {
		for i, col := range ds.cols {
			record[i] = strconv.FormatFloat(col[row], 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, op)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrap(err, op)
	}
	return nil
}

// WriteCSVFile writes the Dataset as a headed CSV file, replacing any
// existing file at path.
func (ds *Dataset) WriteCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "datasets.WriteCSVFile: create %s", path)
	}
	if err := ds.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "datasets.WriteCSVFile: close %s", path)
}
