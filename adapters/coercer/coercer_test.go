package coercer

import (
	"testing"
	"time"

	"goanalyst/domain/dataset"

	"github.com/stretchr/testify/assert"
)

func TestParseNumeric(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())
	cases := map[string]float64{
		"42":           42,
		" 3.5 ":        3.5,
		"$1,234.50":    1234.5,
		"(250)":        -250,
		"1.234,56":     1234.56,
		"1 234,5":      1234.5,
		"3,5":          3.5,
		"12,345":       12345,
		"15%":          15,
		"EUR 99":       99,
		"1e3":          1000,
		"-7":           -7,
		"1,234,567.89": 1234567.89,
	}
	for in, want := range cases {
		got, ok := c.ParseNumeric(in)
		if assert.True(t, ok, in) {
			assert.InDelta(t, want, got, 1e-9, in)
		}
	}

	for _, in := range []string{"", "abc", "2024-01-01", "NaN", "Inf"} {
		_, ok := c.ParseNumeric(in)
		assert.False(t, ok, in)
	}
}

func TestParseTimestamp(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())
	for _, in := range []string{"2024-02-03", "2024-02-03T10:00:00Z", "03-Feb-2024", "Feb 3, 2024"} {
		got, ok := c.ParseTimestamp(in)
		if assert.True(t, ok, in) {
			assert.Equal(t, time.February, got.Month(), in)
		}
	}
	_, ok := c.ParseTimestamp("soon")
	assert.False(t, ok)
}

func TestAnalyzeTypeDistribution(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	a := c.AnalyzeTypeDistribution([]string{"1", "2", "n/a", "3", "4", "x"})
	assert.Equal(t, 6, a.TotalCount)
	assert.Equal(t, 5, a.ValidCount)
	assert.Equal(t, 4, a.NumericCount)
	assert.InDelta(t, 0.8, a.NumericRatio, 1e-12)
	assert.Equal(t, dataset.RoleNumeric, a.RecommendedRole)

	assert.Equal(t, dataset.RoleCategorical, c.AnalyzeTypeDistribution([]string{"yes", "no", "yes"}).RecommendedRole)
	assert.Equal(t, dataset.RoleNumeric, c.AnalyzeTypeDistribution([]string{"0", "1", "1"}).RecommendedRole)
	assert.Equal(t, dataset.RoleTemporal, c.AnalyzeTypeDistribution([]string{"2024-01-01", "2024-01-02"}).RecommendedRole)
	assert.Equal(t, dataset.RoleCategorical, c.AnalyzeTypeDistribution([]string{"", "NULL"}).RecommendedRole)
	assert.Equal(t, dataset.RoleCategorical, c.AnalyzeTypeDistribution([]string{"red", "1", "blue"}).RecommendedRole)
}

func TestCoerceColumn(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	role, values := c.CoerceColumn([]string{"1", "2", "-", "4", "5", "oops"})
	assert.Equal(t, dataset.RoleNumeric, role)
	assert.Equal(t, dataset.Number(1), values[0])
	assert.True(t, values[2].IsNull())
	assert.True(t, values[5].IsNull(), "unparsable cells in a numeric column are missing")

	role, values = c.CoerceColumn([]string{" North ", "south", ""})
	assert.Equal(t, dataset.RoleCategorical, role)
	assert.Equal(t, dataset.Text("North"), values[0])
	assert.True(t, values[2].IsNull())

	normalizing := DefaultCoercionConfig()
	normalizing.NormalizeStrings = true
	_, values = NewTypeCoercer(normalizing).CoerceColumn([]string{"  New   York "})
	assert.Equal(t, dataset.Text("new york"), values[0])
}
