package generator

import (
	"math"
	"reflect"
	"slices"
	"testing"
	"time"

	"sales-dashboard/internal/errors"
)

func testParams(n int, seed int64) Params {
	p := DefaultParams().WithSeed(seed)
	p.SampleSize = n
	p.End = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	p.Start = p.End.AddDate(-1, 0, 0)
	return p
}

func TestGenerate_RowCount(t *testing.T) {
	for _, n := range []int{1, 10, 1000} {
		rows, err := Generate(testParams(n, 42))
		if err != nil {
			t.Fatalf("Generate(%d) error = %v", n, err)
		}
		if len(rows) != n {
			t.Errorf("Generate(%d) returned %d rows", n, len(rows))
		}
	}
}

func TestGenerate_ClosedCategories(t *testing.T) {
	p := testParams(500, 7)
	p.Regions = []string{"North", "South", "East"}
	p.Channels = []string{"Online", "Store"}
	p.Customers = 20

	rows, err := Generate(p)
	if err != nil {
		t.Fatal(err)
	}

	customers := make(map[string]bool)
	for i, tx := range rows {
		if !slices.Contains(p.Regions, tx.Region) {
			t.Fatalf("row %d: region %q outside configured set", i, tx.Region)
		}
		if !slices.Contains(p.Channels, tx.Channel) {
			t.Fatalf("row %d: channel %q outside configured set", i, tx.Channel)
		}
		if !slices.Contains(p.Products, tx.Product) {
			t.Fatalf("row %d: product %q outside configured set", i, tx.Product)
		}
		if tx.Date.Before(p.Start) || !tx.Date.Before(p.End) {
			t.Fatalf("row %d: date %s outside [%s, %s)", i, tx.Date, p.Start, p.End)
		}
		if tx.Quantity < 1 || tx.Quantity > maxQuantity {
			t.Fatalf("row %d: quantity %d out of range", i, tx.Quantity)
		}
		if tx.Revenue <= 0 || tx.Cost < 0 {
			t.Fatalf("row %d: revenue %v cost %v", i, tx.Revenue, tx.Cost)
		}
		if math.Abs(tx.Profit-(tx.Revenue-tx.Cost)) > 0.005 {
			t.Fatalf("row %d: profit %v != revenue %v - cost %v", i, tx.Profit, tx.Revenue, tx.Cost)
		}
		customers[tx.CustomerID] = true
	}
	if len(customers) > p.Customers {
		t.Errorf("got %d customers, pool is %d", len(customers), p.Customers)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate(testParams(200, 42))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(testParams(200, 42))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed should produce identical rows")
	}

	c, err := Generate(testParams(200, 43))
	if err != nil {
		t.Fatal(err)
	}
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds should produce different rows")
	}
}

func TestGenerate_UniqueIDs(t *testing.T) {
	rows, err := Generate(testParams(300, 1))
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]bool, len(rows))
	for _, tx := range rows {
		if seen[tx.ID] {
			t.Fatalf("duplicate transaction id %s", tx.ID)
		}
		seen[tx.ID] = true
	}
}

func TestGenerate_InvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
	}{
		{"zero sample size", func(p *Params) { p.SampleSize = 0 }},
		{"negative sample size", func(p *Params) { p.SampleSize = -5 }},
		{"end before start", func(p *Params) { p.Start, p.End = p.End, p.Start }},
		{"sub-day range", func(p *Params) { p.End = p.Start.Add(time.Hour) }},
		{"zero start", func(p *Params) { p.Start = time.Time{} }},
		{"empty regions", func(p *Params) { p.Regions = nil }},
		{"duplicate channel", func(p *Params) { p.Channels = []string{"Online", "Online"} }},
		{"blank product", func(p *Params) { p.Products = []string{"Laptop", ""} }},
		{"no customers", func(p *Params) { p.Customers = 0 }},
		{"inverted price range", func(p *Params) { p.MinUnitPrice, p.MaxUnitPrice = 100, 10 }},
		{"inverted cost ratio", func(p *Params) { p.MinCostRatio, p.MaxCostRatio = 0.9, 0.1 }},
		{"NaN max price", func(p *Params) { p.MaxUnitPrice = math.NaN() }},
		{"infinite max price", func(p *Params) { p.MaxUnitPrice = math.Inf(1) }},
		{"NaN min price", func(p *Params) { p.MinUnitPrice = math.NaN() }},
		{"NaN cost ratio", func(p *Params) { p.MaxCostRatio = math.NaN() }},
		{"infinite min cost ratio", func(p *Params) { p.MinCostRatio = math.Inf(-1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams(10, 42)
			tt.modify(&p)
			rows, err := Generate(p)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.HasCode(err, errors.CodeInvalidParameters) {
				t.Errorf("error = %v, want INVALID_GENERATION_PARAMETERS", err)
			}
			if rows != nil {
				t.Error("no rows should be returned on error")
			}
		})
	}
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
	if p.Seed == nil || *p.Seed != DefaultSeed {
		t.Errorf("default seed = %v, want %d", p.Seed, DefaultSeed)
	}
	if p.SampleSize != DefaultSampleSize {
		t.Errorf("default sample size = %d", p.SampleSize)
	}
}

func TestDefaultParams_OwnsCategories(t *testing.T) {
	regions := slices.Clone(DefaultRegions)
	channels := slices.Clone(DefaultChannels)
	products := slices.Clone(DefaultProducts)

	p := DefaultParams()
	p.Regions[0] = "Atlantis"
	p.Channels[0] = "Carrier Pigeon"
	p.Products[0] = "Perpetual Motion"

	if !slices.Equal(DefaultRegions, regions) {
		t.Errorf("DefaultRegions changed to %v", DefaultRegions)
	}
	if !slices.Equal(DefaultChannels, channels) {
		t.Errorf("DefaultChannels changed to %v", DefaultChannels)
	}
	if !slices.Equal(DefaultProducts, products) {
		t.Errorf("DefaultProducts changed to %v", DefaultProducts)
	}
	if q := DefaultParams(); q.Regions[0] != regions[0] {
		t.Errorf("later DefaultParams sees region %q", q.Regions[0])
	}
}

func BenchmarkGenerate(b *testing.B) {
	p := testParams(DefaultSampleSize, 42)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Generate(p); err != nil {
			b.Fatal(err)
		}
	}
}
