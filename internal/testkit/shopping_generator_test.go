package testkit

import (
	"testing"
	"time"

	"goanalyst/adapters/stats/correlation"
	"goanalyst/adapters/stats/timeseries"
	"goanalyst/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShoppingDataGenerator_Basic(t *testing.T) {
	config := DefaultShoppingConfig()
	config.OrderCount = 200

	ds, err := NewShoppingDataGenerator(config).GenerateOrders()
	require.NoError(t, err)
	assert.Equal(t, 200, ds.Len())
	assert.Len(t, ds.Columns(), len(OrderColumns))

	end := config.StartDate.AddDate(0, 0, config.Days)
	missing := 0
	for i, rec := range ds.Records() {
		at, ok := rec[ColOrderDate].Timestamp()
		require.True(t, ok, "row %d", i)
		assert.False(t, at.Before(config.StartDate))
		assert.True(t, at.Before(end))

		if rec[ColDiscountPct].IsNull() {
			missing++
		}
		returned, _ := rec[ColReturned].Label()
		assert.Contains(t, []string{"yes", "no"}, returned)
	}
	assert.Greater(t, missing, 0, "some discounts are unknown")
	assert.Less(t, missing, 60)
}

func TestShoppingDataGenerator_Deterministic(t *testing.T) {
	config := DefaultShoppingConfig()
	config.OrderCount = 50

	one, err := NewShoppingDataGenerator(config).GenerateOrders()
	require.NoError(t, err)
	two, err := NewShoppingDataGenerator(config).GenerateOrders()
	require.NoError(t, err)
	assert.Equal(t, one.Hash(), two.Hash())

	config.Seed++
	other, err := NewShoppingDataGenerator(config).GenerateOrders()
	require.NoError(t, err)
	assert.NotEqual(t, one.Hash(), other.Hash())
}

func TestShoppingDataGenerator_PlantedSignal(t *testing.T) {
	ds, err := NewShoppingDataGenerator(DefaultShoppingConfig()).GenerateOrders()
	require.NoError(t, err)

	cart, value, err := ds.Pairs(ColCartValue, ColOrderValue)
	require.NoError(t, err)
	assert.Greater(t, correlation.Pearson(cart, value), 0.8)

	noise, value, err := ds.Pairs(ColRandomNoise, ColOrderValue)
	require.NoError(t, err)
	assert.Less(t, correlation.Pearson(noise, value), 0.2)
	assert.Greater(t, correlation.Pearson(noise, value), -0.2)
}

func TestGenerateDailySales(t *testing.T) {
	ds, err := GenerateDailySales(DefaultDailySalesConfig())
	require.NoError(t, err)
	assert.Equal(t, 84, ds.Len())

	date, ok := ds.Column("date")
	require.True(t, ok)
	assert.Equal(t, dataset.RoleTemporal, date.Role)

	first, _ := ds.Records()[0]["date"].Timestamp()
	last, _ := ds.Records()[83]["date"].Timestamp()
	assert.Equal(t, 83*24*time.Hour, last.Sub(first))

	d, err := timeseries.Decompose(ds, "date", "sales", timeseries.Options{})
	require.NoError(t, err)
	assert.Equal(t, 7, d.Period)
	assert.True(t, d.HasSeasonality)
}
