package excel

import (
	"encoding/csv"
	"io"
	"os"
	"time"

	"goanalyst/domain/core"
	"goanalyst/domain/dataset"
	"goanalyst/internal/errors"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet name written to new workbooks
const DefaultSheet = "Sheet1"

// WriteFile writes a dataset as CSV or XLSX, choosing by the file extension
func WriteFile(path string, ds *dataset.Dataset) error {
	switch FileTypeOf(path) {
	case FileTypeCSV:
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrapf(err, "failed to create %s", path)
		}
		if err := WriteCSV(f, ds); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case FileTypeXLSX:
		return WriteXLSX(path, ds)
	default:
		return errors.Unsupported("file type", FileTypeOf(path), core.ErrInvalidInput)
	}
}

// WriteCSV writes a header row and one row per record; nulls are empty cells
func WriteCSV(w io.Writer, ds *dataset.Dataset) error {
	cw := csv.NewWriter(w)
	names := ds.ColumnNames()
	if err := cw.Write(names); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}
	row := make([]string, len(names))
	for _, rec := range ds.Records() {
		for j, name := range names {
			row[j] = cellText(rec[name])
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "failed to write CSV row")
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the dataset to the first sheet of a new workbook
func WriteXLSX(path string, ds *dataset.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	names := ds.ColumnNames()
	header := make([]interface{}, len(names))
	for j, name := range names {
		header[j] = name
	}
	if err := f.SetSheetRow(DefaultSheet, "A1", &header); err != nil {
		return errors.Wrap(err, "failed to write header row")
	}
	for i, rec := range ds.Records() {
		row := make([]interface{}, len(names))
		for j, name := range names {
			v := rec[name]
			switch v.Kind {
			case dataset.KindNumber:
				row[j] = v.Num
			case dataset.KindNull:
				row[j] = nil
			default:
				row[j] = cellText(v)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "failed to address row")
		}
		if err := f.SetSheetRow(DefaultSheet, cell, &row); err != nil {
			return errors.Wrapf(err, "failed to write row %d", i+1)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	return nil
}

// cellText renders dates at midnight as plain days
func cellText(v dataset.Value) string {
	switch v.Kind {
	case dataset.KindNull:
		return ""
	case dataset.KindTime:
		if v.Time.Equal(v.Time.Truncate(24 * time.Hour)) {
			return v.Time.Format("2006-01-02")
		}
		return v.Time.Format(time.RFC3339)
	default:
		return v.String()
	}
}
