// Package testkit generates seeded synthetic datasets with known structure for
// tests and demos.
package testkit

import (
	"math"
	"math/rand"
	"time"

	"goanalyst/domain/dataset"
)

// ShoppingGeneratorConfig configures the shopping order generator
type ShoppingGeneratorConfig struct {
	OrderCount int       `json:"order_count"`
	StartDate  time.Time `json:"start_date"`
	// Days spreads order dates over [StartDate, StartDate+Days)
	Days int `json:"days"`
	// MissingDiscountRate is the share of orders whose discount is unknown
	MissingDiscountRate float64 `json:"missing_discount_rate"`
	ReturnRateBase      float64 `json:"return_rate_base"`
	Seed                int64   `json:"seed"`
}

// DefaultShoppingConfig returns sensible defaults for shopping data generation
func DefaultShoppingConfig() ShoppingGeneratorConfig {
	return ShoppingGeneratorConfig{
		OrderCount:          500,
		StartDate:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Days:                90,
		MissingDiscountRate: 0.1,
		ReturnRateBase:      0.08,
		Seed:                42,
	}
}

// Order columns. order_value is driven by pages_viewed, cart_value and
// tenure_days; returned depends on discount_pct; random_noise drives nothing.
const (
	ColOrderDate       = "order_date"
	ColCountry         = "country"
	ColDeviceType      = "device_type"
	ColTrafficSource   = "traffic_source"
	ColPagesViewed     = "pages_viewed"
	ColSessionDuration = "session_duration_sec"
	ColDiscountPct     = "discount_pct"
	ColCartValue       = "cart_value"
	ColTenureDays      = "tenure_days"
	ColRandomNoise     = "random_noise"
	ColReturned        = "returned"
	ColOrderValue      = "order_value"
)

// OrderColumns lists the generated columns in dataset order
var OrderColumns = []dataset.Column{
	{Name: ColOrderDate, Role: dataset.RoleTemporal},
	{Name: ColCountry, Role: dataset.RoleCategorical},
	{Name: ColDeviceType, Role: dataset.RoleCategorical},
	{Name: ColTrafficSource, Role: dataset.RoleCategorical},
	{Name: ColPagesViewed, Role: dataset.RoleNumeric},
	{Name: ColSessionDuration, Role: dataset.RoleNumeric},
	{Name: ColDiscountPct, Role: dataset.RoleNumeric},
	{Name: ColCartValue, Role: dataset.RoleNumeric},
	{Name: ColTenureDays, Role: dataset.RoleNumeric},
	{Name: ColRandomNoise, Role: dataset.RoleNumeric},
	{Name: ColReturned, Role: dataset.RoleCategorical},
	{Name: ColOrderValue, Role: dataset.RoleNumeric},
}

// ShoppingDataGenerator generates realistic e-commerce order data
type ShoppingDataGenerator struct {
	config ShoppingGeneratorConfig
	rng    *rand.Rand
}

// NewShoppingDataGenerator creates a new shopping data generator
func NewShoppingDataGenerator(config ShoppingGeneratorConfig) *ShoppingDataGenerator {
	if config.Days <= 0 {
		config.Days = 1
	}
	if config.StartDate.IsZero() {
		config.StartDate = DefaultShoppingConfig().StartDate
	}
	return &ShoppingDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateOrders returns one record per order. The same config always yields
// the same dataset.
func (g *ShoppingDataGenerator) GenerateOrders() (*dataset.Dataset, error) {
	records := make([]dataset.Record, g.config.OrderCount)
	for i := range records {
		records[i] = g.order()
	}
	return dataset.New(OrderColumns, records)
}

func (g *ShoppingDataGenerator) order() dataset.Record {
	date := g.config.StartDate.AddDate(0, 0, g.rng.Intn(g.config.Days))
	device := g.randomDeviceType()

	pages := 1 + g.rng.Intn(20)
	if device == "desktop" {
		pages += 3
	}
	session := float64(pages)*45 + g.rng.Float64()*120
	cart := 20 + g.rng.Float64()*180
	tenure := math.Floor(g.rng.Float64() * 720)

	discount := dataset.Null()
	discountPct := 0.0
	if g.rng.Float64() >= g.config.MissingDiscountRate {
		discountPct = float64(5 * g.rng.Intn(7))
		discount = dataset.Number(discountPct)
	}

	returnRate := g.config.ReturnRateBase + discountPct/100
	returned := "no"
	if g.rng.Float64() < returnRate {
		returned = "yes"
	}

	value := 15 + 2.5*float64(pages) + 0.8*cart + 0.02*tenure + g.rng.NormFloat64()*5

	return dataset.Record{
		ColOrderDate:       dataset.Time(date),
		ColCountry:         dataset.Text(g.randomCountry()),
		ColDeviceType:      dataset.Text(device),
		ColTrafficSource:   dataset.Text(g.randomTrafficSource()),
		ColPagesViewed:     dataset.Number(float64(pages)),
		ColSessionDuration: dataset.Number(math.Round(session)),
		ColDiscountPct:     discount,
		ColCartValue:       dataset.Number(math.Round(cart*100) / 100),
		ColTenureDays:      dataset.Number(tenure),
		ColRandomNoise:     dataset.Number(g.rng.NormFloat64()),
		ColReturned:        dataset.Text(returned),
		ColOrderValue:      dataset.Number(math.Round(value*100) / 100),
	}
}

// DailySalesConfig configures the daily sales series
type DailySalesConfig struct {
	Days      int       `json:"days"`
	StartDate time.Time `json:"start_date"`
	Base      float64   `json:"base"`
	// Growth is added per day
	Growth float64 `json:"growth"`
	// Weekly is the amplitude of the day-of-week pattern
	Weekly float64 `json:"weekly"`
	Noise  float64 `json:"noise"`
	Seed   int64   `json:"seed"`
}

// DefaultDailySalesConfig returns twelve weeks of rising sales with a weekend peak
func DefaultDailySalesConfig() DailySalesConfig {
	return DailySalesConfig{
		Days:      84,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Base:      1000,
		Growth:    5,
		Weekly:    150,
		Noise:     10,
		Seed:      42,
	}
}

// weekdayShape peaks on Saturday, with Monday as day zero
var weekdayShape = []float64{-0.6, -0.4, -0.2, 0, 0.4, 1, 0.8}

// GenerateDailySales returns a date and sales column, one row per day
func GenerateDailySales(config DailySalesConfig) (*dataset.Dataset, error) {
	rng := rand.New(rand.NewSource(config.Seed))
	columns := []dataset.Column{
		{Name: "date", Role: dataset.RoleTemporal},
		{Name: "sales", Role: dataset.RoleNumeric},
	}
	records := make([]dataset.Record, config.Days)
	for i := range records {
		day := config.StartDate.AddDate(0, 0, i)
		offset := (int(day.Weekday()) + 6) % 7
		sales := config.Base + config.Growth*float64(i) + config.Weekly*weekdayShape[offset] + rng.NormFloat64()*config.Noise
		records[i] = dataset.Record{
			"date":  dataset.Time(day),
			"sales": dataset.Number(math.Round(sales*100) / 100),
		}
	}
	return dataset.New(columns, records)
}

// Helper methods for random value generation

func (g *ShoppingDataGenerator) randomCountry() string {
	countries := []string{"US", "CA", "GB", "DE", "FR", "AU", "JP"}
	return countries[g.rng.Intn(len(countries))]
}

func (g *ShoppingDataGenerator) randomDeviceType() string {
	return g.weighted([]string{"mobile", "desktop", "tablet"}, []float64{0.6, 0.35, 0.05})
}

func (g *ShoppingDataGenerator) randomTrafficSource() string {
	return g.weighted(
		[]string{"organic", "paid_search", "email", "social", "direct"},
		[]float64{0.35, 0.25, 0.2, 0.15, 0.05},
	)
}

func (g *ShoppingDataGenerator) weighted(choices []string, weights []float64) string {
	r := g.rng.Float64()
	cumulative := 0.0
	for i, weight := range weights {
		cumulative += weight
		if r <= cumulative {
			return choices[i]
		}
	}
	return choices[0]
}
