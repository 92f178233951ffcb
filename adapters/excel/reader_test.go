package excel

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"goanalyst/domain/core"
	"goanalyst/domain/dataset"
	"goanalyst/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readerFor(path string) *DataReader {
	config := DefaultExcelConfig()
	config.FilePath = path
	return NewDataReader(config)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileTypeOf(t *testing.T) {
	assert.Equal(t, FileTypeCSV, FileTypeOf("data.CSV"))
	assert.Equal(t, FileTypeXLSX, FileTypeOf("/tmp/book.xlsx"))
	assert.Equal(t, "xls", FileTypeOf("old.xls"))
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "sales.csv", strings.Join([]string{
		"date,region,revenue,units,,region",
		"2024-01-01,North,\"$1,200.50\",3,a,x",
		"2024-01-02,South,980,n/a,b,y",
		",,,,,",
		"2024-01-03,North,(15),4,c,z",
	}, "\n"))

	ds, err := readerFor(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len(), "blank rows are dropped")
	assert.Equal(t, []string{"date", "region", "revenue", "units", "column_5", "region_2"}, ds.ColumnNames())

	roles := map[string]dataset.Role{}
	for _, c := range ds.Columns() {
		roles[c.Name] = c.Role
	}
	assert.Equal(t, dataset.RoleTemporal, roles["date"])
	assert.Equal(t, dataset.RoleCategorical, roles["region"])
	assert.Equal(t, dataset.RoleNumeric, roles["revenue"])
	assert.Equal(t, dataset.RoleNumeric, roles["units"])

	revenue, err := ds.Floats("revenue")
	require.NoError(t, err)
	assert.Equal(t, []float64{1200.5, 980, -15}, revenue)

	units, err := ds.AlignedFloats("units")
	require.NoError(t, err)
	assert.Equal(t, 3.0, units[0])
	assert.True(t, ds.Records()[1]["units"].IsNull())
}

func TestLoadCSVMaxRows(t *testing.T) {
	path := writeFile(t, "big.csv", "x\n1\n2\n3\n4\n")
	config := DefaultExcelConfig()
	config.FilePath = path
	config.MaxRows = 2

	ds, err := NewDataReader(config).Load()
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
}

func TestLoadErrors(t *testing.T) {
	_, err := readerFor(filepath.Join(t.TempDir(), "missing.csv")).Load()
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = readerFor(writeFile(t, "header.csv", "a,b\n")).Load()
	assert.ErrorIs(t, err, core.ErrEmptyInput)

	_, err = readerFor(writeFile(t, "data.json", "{}")).Load()
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = readerFor(writeFile(t, "broken.xlsx", "not a zip")).Load()
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestReadStream(t *testing.T) {
	r := NewDataReader(DefaultExcelConfig())
	data, err := r.ReadStream(strings.NewReader("a,b\n1,x\n2,y\n"), FileTypeCSV)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, data.Headers)
	assert.Equal(t, []string{"x", "y"}, data.Column("b"))

	_, err = r.ReadStream(strings.NewReader("{}"), "json")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestXLSXRoundTrip(t *testing.T) {
	config := testkit.DefaultShoppingConfig()
	config.OrderCount = 40
	orders, err := testkit.NewShoppingDataGenerator(config).GenerateOrders()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "orders.xlsx")
	require.NoError(t, WriteFile(path, orders))

	ds, err := readerFor(path).Load()
	require.NoError(t, err)
	assert.Equal(t, orders.Len(), ds.Len())
	assert.Equal(t, orders.ColumnNames(), ds.ColumnNames())
	for _, want := range orders.Columns() {
		got, ok := ds.Column(want.Name)
		require.True(t, ok)
		assert.Equal(t, want.Role, got.Role, want.Name)
	}

	wantCart, err := orders.Floats(testkit.ColCartValue)
	require.NoError(t, err)
	gotCart, err := ds.Floats(testkit.ColCartValue)
	require.NoError(t, err)
	assert.InDeltaSlice(t, wantCart, gotCart, 1e-9)

	wantDiscount, _ := orders.AlignedFloats(testkit.ColDiscountPct)
	gotDiscount, _ := ds.AlignedFloats(testkit.ColDiscountPct)
	for i := range wantDiscount {
		assert.Equal(t, math.IsNaN(wantDiscount[i]), math.IsNaN(gotDiscount[i]), "null discount at row %d", i)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	sales, err := testkit.GenerateDailySales(testkit.DefaultDailySalesConfig())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, WriteFile(path, sales))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "date,sales\n2024-01-01,"))

	ds, err := readerFor(path).Load()
	require.NoError(t, err)
	assert.Equal(t, sales.Hash(), ds.Hash())
}
