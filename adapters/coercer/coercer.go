// Package coercer turns raw spreadsheet text into typed dataset values and
// decides a role for each column.
package coercer

import (
	"regexp"
	"strings"
	"time"

	"goanalyst/domain/dataset"
)

// TypeCoercer handles deterministic type coercion of raw cells
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold   float64 `json:"numeric_threshold" toml:"numeric_threshold"`     // % of values that must parse as numbers
	BooleanThreshold   float64 `json:"boolean_threshold" toml:"boolean_threshold"`     // % of values that must parse as booleans
	TimestampThreshold float64 `json:"timestamp_threshold" toml:"timestamp_threshold"` // % of values that must parse as timestamps
	NormalizeStrings   bool    `json:"normalize_strings" toml:"normalize_strings"`     // Whether to trim/lower strings
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold:   0.8, // 80% must parse as numbers
		BooleanThreshold:   0.9, // 90% must parse as booleans
		TimestampThreshold: 0.8, // 80% must parse as timestamps
		NormalizeStrings:   false,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

// missingMarkers are read as null in any column
var missingMarkers = map[string]bool{
	"": true, "na": true, "n/a": true, "nan": true, "null": true, "none": true, "-": true,
}

// IsMissing reports whether a raw cell denotes a missing value
func IsMissing(raw string) bool {
	return missingMarkers[strings.ToLower(strings.TrimSpace(raw))]
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount      int          `json:"total_count"`
	ValidCount      int          `json:"valid_count"`
	NumericCount    int          `json:"numeric_count"`
	BooleanCount    int          `json:"boolean_count"`
	TimestampCount  int          `json:"timestamp_count"`
	NumericRatio    float64      `json:"numeric_ratio"`
	BooleanRatio    float64      `json:"boolean_ratio"`
	TimestampRatio  float64      `json:"timestamp_ratio"`
	RecommendedRole dataset.Role `json:"recommended_role"`
}

// AnalyzeTypeDistribution counts how many non-missing cells parse as each type
// and recommends a role. Numbers win over booleans, booleans over dates.
// Booleans are categorical.
func (c *TypeCoercer) AnalyzeTypeDistribution(values []string) TypeAnalysis {
	analysis := TypeAnalysis{TotalCount: len(values)}
	for _, raw := range values {
		if IsMissing(raw) {
			continue
		}
		analysis.ValidCount++
		if _, ok := c.ParseNumeric(raw); ok {
			analysis.NumericCount++
		}
		if _, ok := parseBoolean(raw); ok {
			analysis.BooleanCount++
		}
		if _, ok := c.ParseTimestamp(raw); ok {
			analysis.TimestampCount++
		}
	}
	if analysis.ValidCount == 0 {
		analysis.RecommendedRole = dataset.RoleCategorical
		return analysis
	}
	valid := float64(analysis.ValidCount)
	analysis.NumericRatio = float64(analysis.NumericCount) / valid
	analysis.BooleanRatio = float64(analysis.BooleanCount) / valid
	analysis.TimestampRatio = float64(analysis.TimestampCount) / valid
	analysis.RecommendedRole = c.recommendedRole(analysis)
	return analysis
}

func (c *TypeCoercer) recommendedRole(a TypeAnalysis) dataset.Role {
	switch {
	// 0/1 columns stay numeric so they can serve as a model target or feature
	case a.NumericRatio >= c.config.NumericThreshold:
		return dataset.RoleNumeric
	case a.BooleanRatio >= c.config.BooleanThreshold:
		return dataset.RoleCategorical
	case a.TimestampRatio >= c.config.TimestampThreshold:
		return dataset.RoleTemporal
	default:
		return dataset.RoleCategorical
	}
}

// Coerce converts a raw cell into a value for a column of the given role.
// Cells that do not parse under the role become null for numeric and temporal
// columns; categorical cells keep their text.
func (c *TypeCoercer) Coerce(raw string, role dataset.Role) dataset.Value {
	if IsMissing(raw) {
		return dataset.Null()
	}
	switch role {
	case dataset.RoleNumeric:
		if f, ok := c.ParseNumeric(raw); ok {
			return dataset.Number(f)
		}
		return dataset.Null()
	case dataset.RoleTemporal:
		if t, ok := c.ParseTimestamp(raw); ok {
			return dataset.Time(t)
		}
		return dataset.Null()
	default:
		if c.config.NormalizeStrings {
			raw = normalizeString(raw)
		} else {
			raw = strings.TrimSpace(raw)
		}
		return dataset.Text(raw)
	}
}

// CoerceColumn analyzes a column and converts every cell under the recommended role
func (c *TypeCoercer) CoerceColumn(values []string) (dataset.Role, []dataset.Value) {
	role := c.AnalyzeTypeDistribution(values).RecommendedRole
	out := make([]dataset.Value, len(values))
	for i, raw := range values {
		out[i] = c.Coerce(raw, role)
	}
	return role, out
}

// ParseNumeric parses numbers with strict rules.
// Handles international formats: parentheses for negatives, European decimals, currency symbols
func (c *TypeCoercer) ParseNumeric(strVal string) (float64, bool) {
	cleanVal := strings.TrimSpace(strVal)
	if cleanVal == "" {
		return 0, false
	}

	// Handle parentheses for negative numbers: (123) -> -123
	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range []string{"$", "€", "£", "¥", "USD", "EUR", "GBP", "JPY", "%"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.TrimSpace(cleanVal)

	hasComma := strings.Contains(cleanVal, ",")
	hasPeriod := strings.Contains(cleanVal, ".")
	hasSpace := strings.Contains(cleanVal, " ")

	switch {
	case hasComma && (hasPeriod || hasSpace):
		// 1.234,56 or 1 234,56 when the comma comes last with up to 3 digits after it
		commaIdx := strings.LastIndex(cleanVal, ",")
		afterComma := cleanVal[commaIdx+1:]
		if commaIdx > strings.LastIndex(cleanVal, ".") && len(afterComma) <= 3 && allDigits(afterComma) {
			cleanVal = strings.ReplaceAll(cleanVal, ".", "")
			cleanVal = strings.ReplaceAll(cleanVal, " ", "")
			cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
		} else {
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
			cleanVal = strings.ReplaceAll(cleanVal, " ", "")
		}
	case hasComma:
		// 1,234 groups thousands; 3,5 is a decimal comma
		if thousands.MatchString(cleanVal) {
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
		} else {
			cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
		}
	default:
		cleanVal = strings.ReplaceAll(cleanVal, " ", "")
	}

	if isNegative {
		cleanVal = "-" + cleanVal
	}

	f, ok := dataset.Text(cleanVal).Float()
	if !ok {
		return 0, false
	}
	return f, true
}

// ParseTimestamp parses the date layouts the dataset model knows plus a few
// spreadsheet exports
func (c *TypeCoercer) ParseTimestamp(strVal string) (time.Time, bool) {
	s := strings.TrimSpace(strVal)
	if t, ok := dataset.ParseTime(s); ok {
		return t, true
	}
	for _, layout := range []string{"02-Jan-2006", "2-Jan-06", "Jan 2, 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseBoolean(strVal string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(strVal)) {
	case "true", "yes", "y", "on":
		return true, true
	case "false", "no", "n", "off":
		return false, true
	}
	return false, false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var (
	whitespace = regexp.MustCompile(`\s+`)
	thousands  = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+$`)
)

// normalizeString applies deterministic string normalization
func normalizeString(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespace.ReplaceAllString(s, " ")
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}
