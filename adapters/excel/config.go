package excel

import (
	"goanalyst/adapters/coercer"
)

// ExcelConfig holds configuration for spreadsheet data sources
type ExcelConfig struct {
	FilePath string `json:"file_path"`
	// Sheet names the XLSX sheet to read; empty reads the first sheet
	Sheet string `json:"sheet"`
	// MaxRows caps the data rows read; 0 reads all
	MaxRows        int                    `json:"max_rows"`
	CoercionConfig coercer.CoercionConfig `json:"coercion_config"`
}

// DefaultExcelConfig returns sensible defaults for spreadsheet processing
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		CoercionConfig: coercer.DefaultCoercionConfig(),
	}
}
