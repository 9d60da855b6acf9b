// Package generator produces synthetic sales transactions.
//
// With a fixed seed every call returns the same rows: dates, categories,
// customer ids and money amounts are all drawn from a single seeded stream.
package generator

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
)

const (
	DefaultSampleSize = 1000
	DefaultCustomers  = 100
	DefaultSeed       = int64(42)

	maxQuantity = 9
	day         = 24 * time.Hour
)

var (
	DefaultRegions  = []string{"North", "South", "East", "West"}
	DefaultChannels = []string{"Online", "Store", "Partner"}
	DefaultProducts = []string{
		"Laptop", "Monitor", "Keyboard", "Mouse", "Headset",
		"Webcam", "Dock", "Tablet", "Printer", "Router",
	}
)

// Params configures a generation run.
type Params struct {
	SampleSize int
	// Seed makes the output reproducible. Nil seeds from the clock.
	Seed *int64

	Start time.Time
	End   time.Time

	Regions  []string
	Channels []string
	Products []string

	// Customers is the size of the customer id pool.
	Customers int

	MinUnitPrice float64
	MaxUnitPrice float64
	MinCostRatio float64
	MaxCostRatio float64
}

// DefaultParams covers a year of sales ending today.
func DefaultParams() Params {
	seed := DefaultSeed
	end := time.Now().UTC().Truncate(day)
	return Params{
		SampleSize:   DefaultSampleSize,
		Seed:         &seed,
		Start:        end.AddDate(-1, 0, 0),
		End:          end,
		Regions:      slices.Clone(DefaultRegions),
		Channels:     slices.Clone(DefaultChannels),
		Products:     slices.Clone(DefaultProducts),
		Customers:    DefaultCustomers,
		MinUnitPrice: 10,
		MaxUnitPrice: 500,
		MinCostRatio: 0.6,
		MaxCostRatio: 0.8,
	}
}

// WithSeed returns a copy of p using seed.
func (p Params) WithSeed(seed int64) Params {
	p.Seed = &seed
	return p
}

// Validate checks the parameters and returns an INVALID_GENERATION_PARAMETERS
// error describing the first problem found.
func (p Params) Validate() error {
	if p.SampleSize <= 0 {
		return errors.InvalidParameters("sample size must be positive, got %d", p.SampleSize)
	}
	if p.Start.IsZero() || p.End.IsZero() {
		return errors.InvalidParameters("date range requires both start and end")
	}
	if !p.End.After(p.Start) {
		return errors.InvalidParameters("end date %s must be after start date %s",
			p.End.Format(time.DateOnly), p.Start.Format(time.DateOnly))
	}
	if p.End.Sub(p.Start) < day {
		return errors.InvalidParameters("date range must span at least one day")
	}
	if err := validateCategories("regions", p.Regions); err != nil {
		return err
	}
	if err := validateCategories("channels", p.Channels); err != nil {
		return err
	}
	if err := validateCategories("products", p.Products); err != nil {
		return err
	}
	if p.Customers <= 0 {
		return errors.InvalidParameters("customer pool must be positive, got %d", p.Customers)
	}
	for _, v := range []float64{p.MinUnitPrice, p.MaxUnitPrice, p.MinCostRatio, p.MaxCostRatio} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.InvalidParameters("price and cost ratio bounds must be finite, got %g", v)
		}
	}
	if p.MinUnitPrice <= 0 || p.MaxUnitPrice < p.MinUnitPrice {
		return errors.InvalidParameters("unit price range [%g, %g] is invalid", p.MinUnitPrice, p.MaxUnitPrice)
	}
	if p.MinCostRatio < 0 || p.MaxCostRatio < p.MinCostRatio {
		return errors.InvalidParameters("cost ratio range [%g, %g] is invalid", p.MinCostRatio, p.MaxCostRatio)
	}
	return nil
}

func validateCategories(name string, values []string) error {
	if len(values) == 0 {
		return errors.InvalidParameters("%s must not be empty", name)
	}
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if v == "" {
			return errors.InvalidParameters("%s must not contain blank values", name)
		}
		if seen[v] {
			return errors.InvalidParameters("%s contains duplicate value %q", name, v)
		}
		seen[v] = true
	}
	return nil
}

// Generate returns exactly p.SampleSize transactions.
func Generate(p Params) ([]models.Transaction, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	seed := time.Now().UnixNano()
	if p.Seed != nil {
		seed = *p.Seed
	}
	g := &generator{
		params: p,
		r:      rand.New(rand.NewSource(seed)),
		days:   int(p.End.Sub(p.Start) / day),
	}

	customers, err := g.customerPool()
	if err != nil {
		return nil, err
	}
	g.customers = customers

	rows := make([]models.Transaction, p.SampleSize)
	for i := range rows {
		rows[i] = g.transaction(i)
	}
	return rows, nil
}

type generator struct {
	params    Params
	r         *rand.Rand
	days      int
	customers []string
}

// customerPool draws UUIDs from the seeded stream so ids are reproducible.
func (g *generator) customerPool() ([]string, error) {
	ids := make([]string, g.params.Customers)
	for i := range ids {
		id, err := uuid.NewRandomFromReader(g.r)
		if err != nil {
			return nil, fmt.Errorf("generate customer id: %w", err)
		}
		ids[i] = id.String()
	}
	return ids, nil
}

func (g *generator) transaction(i int) models.Transaction {
	p := g.params

	date := p.Start.Add(time.Duration(g.r.Intn(g.days)) * day)
	quantity := 1 + g.r.Intn(maxQuantity)
	unitPrice := cents(g.uniform(p.MinUnitPrice, p.MaxUnitPrice))
	revenue := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	cost := cents(revenue.InexactFloat64() * g.uniform(p.MinCostRatio, p.MaxCostRatio))

	return models.Transaction{
		ID:         fmt.Sprintf("TX-%06d", i+1),
		Date:       date,
		Region:     pick(g.r, p.Regions),
		Channel:    pick(g.r, p.Channels),
		Product:    pick(g.r, p.Products),
		CustomerID: pick(g.r, g.customers),
		Quantity:   quantity,
		UnitPrice:  unitPrice.InexactFloat64(),
		Revenue:    revenue.InexactFloat64(),
		Cost:       cost.InexactFloat64(),
		Profit:     revenue.Sub(cost).InexactFloat64(),
	}
}

func (g *generator) uniform(lo, hi float64) float64 {
	return lo + g.r.Float64()*(hi-lo)
}

func pick(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}

func cents(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
