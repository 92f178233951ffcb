package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"goanalyst/adapters/coercer"
	"goanalyst/domain/core"
	"goanalyst/domain/dataset"
	"goanalyst/internal/errors"

	"github.com/xuri/excelize/v2"
)

// File types the reader understands
const (
	FileTypeCSV  = "csv"
	FileTypeXLSX = "xlsx"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	config   ExcelConfig
	fileType string
	coercer  *coercer.TypeCoercer
}

// NewDataReader creates a new data reader that handles both Excel and CSV
// files, choosing by the file extension
func NewDataReader(config ExcelConfig) *DataReader {
	return &DataReader{
		config:   config,
		fileType: FileTypeOf(config.FilePath),
		coercer:  coercer.NewTypeCoercer(config.CoercionConfig),
	}
}

// FileTypeOf maps a file name to csv or xlsx; unknown extensions return the
// bare extension
func FileTypeOf(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "csv", "txt":
		return FileTypeCSV
	case "xlsx", "xlsm":
		return FileTypeXLSX
	default:
		return ext
	}
}

// Load reads the configured file and coerces it into a dataset
func (r *DataReader) Load() (*dataset.Dataset, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	return r.ToDataset(data)
}

// ReadData reads data from Excel or CSV files into structured format
func (r *DataReader) ReadData() (*ExcelData, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.config.FilePath)

	if _, err := os.Stat(r.config.FilePath); os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), r.config.FilePath))
	}
	f, err := os.Open(r.config.FilePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", r.config.FilePath)
	}
	defer f.Close()
	return r.ReadStream(f, r.fileType)
}

// ReadStream reads an uploaded CSV or XLSX stream
func (r *DataReader) ReadStream(src io.Reader, fileType string) (*ExcelData, error) {
	switch fileType {
	case FileTypeCSV:
		return r.readCSVData(src)
	case FileTypeXLSX:
		return r.readExcelData(src)
	default:
		return nil, errors.Unsupported("file type", fileType, core.ErrInvalidInput)
	}
}

// readExcelData reads the configured (or first) sheet
func (r *DataReader) readExcelData(src io.Reader) (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, errors.InvalidInputf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.Empty("reading Excel workbook")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.InvalidInputf("failed to read sheet %q: %v", sheet, err)
	}
	log.Printf("[DataReader] %s read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData(src io.Reader) (*ExcelData, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.InvalidInputf("failed to read CSV file: %v", err)
	}
	log.Printf("[DataReader] CSV read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

// processRows converts raw string rows into ExcelData. Blank headers are
// named column_N, repeated headers get a numeric suffix and blank rows are
// dropped.
func (r *DataReader) processRows(rows [][]string) (*ExcelData, error) {
	if len(rows) < 2 {
		return nil, errors.Empty("reading " + strings.ToUpper(r.fileType))
	}

	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	seen := map[string]int{}
	for i, header := range headerRow {
		name := strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		seen[name]++
		if seen[name] > 1 {
			name = fmt.Sprintf("%s_%d", name, seen[name])
		}
		headers[i] = name
	}

	var dataRows []RawRowData
	for _, row := range rows[1:] {
		if r.config.MaxRows > 0 && len(dataRows) >= r.config.MaxRows {
			break
		}
		rowData := make(RawRowData, len(headers))
		blank := true
		for j, cell := range row {
			if j < len(headers) {
				cell = strings.TrimSpace(cell)
				rowData[headers[j]] = cell
				if cell != "" {
					blank = false
				}
			}
		}
		if !blank {
			dataRows = append(dataRows, rowData)
		}
	}
	if len(dataRows) == 0 {
		return nil, errors.Empty("reading " + strings.ToUpper(r.fileType))
	}

	log.Printf("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &ExcelData{Headers: headers, Rows: dataRows}, nil
}

// ToDataset infers a role per column with the type coercer and converts every
// cell under it
func (r *DataReader) ToDataset(data *ExcelData) (*dataset.Dataset, error) {
	columns := make([]dataset.Column, len(data.Headers))
	records := make([]dataset.Record, len(data.Rows))
	for i := range records {
		records[i] = make(dataset.Record, len(data.Headers))
	}
	for j, header := range data.Headers {
		role, values := r.coercer.CoerceColumn(data.Column(header))
		columns[j] = dataset.Column{Name: header, Role: role}
		for i, v := range values {
			records[i][header] = v
		}
	}
	return dataset.New(columns, records)
}
