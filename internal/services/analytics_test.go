package services

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/generator"
	"sales-dashboard/internal/kpi"
	"sales-dashboard/internal/models"
)

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testParams(size int) generator.Params {
	p := generator.DefaultParams().WithSeed(42)
	p.SampleSize = size
	p.End = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	p.Start = p.End.AddDate(-1, 0, 0)
	return p
}

func newTestAnalytics(opts ...Option) *Analytics {
	base := []Option{
		WithParams(testParams(100)),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return NewAnalytics(append(base, opts...)...)
}

func testRows() []models.Transaction {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	return []models.Transaction{
		{ID: "T1", Date: day(1), Region: "North", Channel: "Online", Product: "Laptop", CustomerID: "C1", Quantity: 1, Revenue: 100, Cost: 60, Profit: 40},
		{ID: "T2", Date: day(2), Region: "South", Channel: "Store", Product: "Mouse", CustomerID: "C2", Quantity: 2, Revenue: 50, Cost: 40, Profit: 10},
		{ID: "T3", Date: day(3), Region: "North", Channel: "Store", Product: "Laptop", CustomerID: "C1", Quantity: 1, Revenue: 150, Cost: 100, Profit: 50},
	}
}

func TestNewAnalytics(t *testing.T) {
	a := NewAnalytics()
	if a == nil {
		t.Fatal("NewAnalytics() returned nil")
	}
	if a.sessions == nil {
		t.Error("sessions should be initialized")
	}
	if a.logger == nil {
		t.Error("logger should be initialized")
	}
	if a.sessionTTL != defaultSessionTTL {
		t.Errorf("sessionTTL = %v, want %v", a.sessionTTL, defaultSessionTTL)
	}
}

func TestAnalytics_Generate(t *testing.T) {
	a := newTestAnalytics()
	if err := a.Generate(context.Background()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if got := len(a.Table("")); got != 100 {
		t.Errorf("base table has %d rows, want 100", got)
	}
	if got := a.Seed(""); got != 42 {
		t.Errorf("Seed() = %d, want 42", got)
	}
}

func TestAnalytics_Generate_SeedNeverCleared(t *testing.T) {
	a := newTestAnalytics(WithParams(testParams(10)))
	if err := a.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for i := 0; i < 200; i++ {
			if err := a.Generate(context.Background()); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				if got := a.Seed(""); got != 42 {
					t.Errorf("Seed() = %d during Generate, want 42", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestAnalytics_Generate_InvalidParams(t *testing.T) {
	a := newTestAnalytics(WithParams(testParams(0)))

	err := a.Generate(context.Background())
	if !errors.HasCode(err, errors.CodeInvalidParameters) {
		t.Errorf("Generate() error = %v, want INVALID_GENERATION_PARAMETERS", err)
	}
}

func TestAnalytics_SetData(t *testing.T) {
	a := newTestAnalytics()
	a.SetData(testRows())

	stats := a.Stats()
	if stats["record_count"] != 3 {
		t.Errorf("record_count = %v, want 3", stats["record_count"])
	}
	if stats["regions"] != 2 {
		t.Errorf("regions = %v, want 2", stats["regions"])
	}
	if stats["date_from"] != "2024-01-01" || stats["date_to"] != "2024-01-03" {
		t.Errorf("date range = %v..%v", stats["date_from"], stats["date_to"])
	}
}

func TestAnalytics_LoadFromCSV_ValidData(t *testing.T) {
	validCSV := `transaction_id,date,region,channel,product,customer_id,quantity,unit_price,revenue,cost,profit
T001,2024-01-15,North,Online,Laptop,C1,1,999.99,999.99,700.00,299.99
T002,2024-01-16,South,Store,Mouse,C2,2,29.99,59.98,40.00,19.98`

	a := newTestAnalytics()
	if err := a.LoadFromCSV(context.Background(), createTempCSV(t, validCSV)); err != nil {
		t.Fatalf("LoadFromCSV() with valid data should not error, got: %v", err)
	}

	s, err := a.Snapshot(context.Background(), "", kpi.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if s.RecordCount != 2 {
		t.Errorf("RecordCount = %d, want 2", s.RecordCount)
	}
	if got := a.Seed(""); got != 0 {
		t.Errorf("loaded table Seed() = %d, want 0", got)
	}
}

func TestAnalytics_LoadFromCSV_InvalidData(t *testing.T) {
	tests := []struct {
		name      string
		csv       string
		malformed bool
	}{
		{
			name:      "empty file",
			csv:       "",
			malformed: true,
		},
		{
			name: "header only",
			csv:  "date,region,channel,product,customer_id,quantity,revenue",
		},
		{
			name:      "missing channel column",
			csv:       "date,region,product,customer_id,quantity,revenue\n2024-01-01,North,Laptop,C1,1,10",
			malformed: true,
		},
		{
			name:      "invalid date format",
			csv:       "date,region,channel,product,customer_id,quantity,revenue\ninvalid-date,North,Online,Laptop,C1,1,10",
			malformed: true,
		},
		{
			name:      "blank region",
			csv:       "date,region,channel,product,customer_id,quantity,revenue\n2024-01-01,,Online,Laptop,C1,1,10",
			malformed: true,
		},
		{
			name:      "invalid quantity",
			csv:       "date,region,channel,product,customer_id,quantity,revenue\n2024-01-01,North,Online,Laptop,C1,many,10",
			malformed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAnalytics()
			err := a.LoadFromCSV(context.Background(), createTempCSV(t, tt.csv))

			if err == nil {
				t.Fatal("LoadFromCSV() should fail")
			}
			if got := errors.HasCode(err, errors.CodeMalformedInput); got != tt.malformed {
				t.Errorf("HasCode(MALFORMED_INPUT) = %v, want %v (err: %v)", got, tt.malformed, err)
			}
		})
	}
}

func TestAnalytics_Snapshot_Filter(t *testing.T) {
	a := newTestAnalytics()
	a.SetData(testRows())

	s, err := a.Snapshot(context.Background(), "", kpi.Filter{Regions: []string{"North"}})
	if err != nil {
		t.Fatal(err)
	}
	if s.TotalRevenue != 250 {
		t.Errorf("TotalRevenue = %v, want 250", s.TotalRevenue)
	}
	if len(s.RevenueByRegion) != 1 {
		t.Errorf("RevenueByRegion has %d keys, want 1", len(s.RevenueByRegion))
	}

	stats := a.Stats()
	if stats["snapshots_served"] != int64(1) {
		t.Errorf("snapshots_served = %v, want 1", stats["snapshots_served"])
	}
}

func TestAnalytics_Rows(t *testing.T) {
	a := newTestAnalytics()
	a.SetData(testRows())

	rows, total, err := a.Rows(context.Background(), "", kpi.Filter{}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(rows) != 2 {
		t.Fatalf("Rows() = %d rows of %d, want 2 of 3", len(rows), total)
	}
	if rows[0].Date != "2024-01-03" {
		t.Errorf("first row date = %s, want newest 2024-01-03", rows[0].Date)
	}
}

func TestAnalytics_Regenerate(t *testing.T) {
	a := newTestAnalytics()
	a.SetData(testRows())
	ctx := context.Background()

	n, err := a.Regenerate(ctx, "s1", 7)
	if err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}
	if n != 100 {
		t.Errorf("Regenerate() = %d rows, want 100", n)
	}

	if got := len(a.Table("s1")); got != 100 {
		t.Errorf("session table has %d rows, want 100", got)
	}
	if got := len(a.Table("s2")); got != 3 {
		t.Errorf("other session sees %d rows, want the base 3", got)
	}
	if seed, ok := a.SessionSeed("s1"); !ok || seed != 7 {
		t.Errorf("SessionSeed() = %d, %v", seed, ok)
	}

	// same seed, same table
	first := a.Table("s1")
	if _, err := a.Regenerate(ctx, "s1", 7); err != nil {
		t.Fatal(err)
	}
	second := a.Table("s1")
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("row %d differs after regenerating with the same seed", i)
		}
	}

	a.Reset("s1")
	if _, ok := a.SessionSeed("s1"); ok {
		t.Error("Reset() should drop the session table")
	}
	if got := len(a.Table("s1")); got != 3 {
		t.Errorf("after Reset() session sees %d rows, want 3", got)
	}
}

func TestAnalytics_Regenerate_RequiresSession(t *testing.T) {
	a := newTestAnalytics()
	if _, err := a.Regenerate(context.Background(), "", 1); err == nil {
		t.Error("Regenerate() without a session should fail")
	}
}

func TestAnalytics_EvictIdle(t *testing.T) {
	a := newTestAnalytics(WithSessionTTL(time.Minute))
	if _, err := a.Regenerate(context.Background(), "s1", 1); err != nil {
		t.Fatal(err)
	}

	if n := a.evictIdle(time.Now()); n != 0 {
		t.Errorf("evictIdle() evicted %d fresh sessions", n)
	}
	if n := a.evictIdle(time.Now().Add(2 * time.Minute)); n != 1 {
		t.Errorf("evictIdle() = %d, want 1", n)
	}
	if _, ok := a.SessionSeed("s1"); ok {
		t.Error("idle session should be gone")
	}
}

func TestAnalytics_JanitorClose(t *testing.T) {
	a := newTestAnalytics()

	// Close without a janitor returns immediately.
	if err := a.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	b := newTestAnalytics()
	b.StartJanitor(10 * time.Millisecond)
	b.StartJanitor(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := b.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := b.Close(ctx); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestAnalytics_ConcurrentAccess(t *testing.T) {
	a := newTestAnalytics()
	a.SetData(testRows())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			session := "s" + string(rune('0'+i%3))
			if i%2 == 0 {
				if _, err := a.Regenerate(ctx, session, int64(i)); err != nil {
					t.Error(err)
				}
			}
			if _, err := a.Snapshot(ctx, session, kpi.Filter{}); err != nil {
				t.Error(err)
			}
			_ = a.Options(session)
			_ = a.Stats()
		}()
	}
	wg.Wait()
}

func TestAnalytics_EmptyData(t *testing.T) {
	a := newTestAnalytics()

	s, err := a.Snapshot(context.Background(), "", kpi.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if s.RecordCount != 0 || s.TotalRevenue != 0 || s.ProfitMargin != 0 {
		t.Errorf("empty snapshot = %+v", s)
	}
	if len(s.RevenueByRegion) != 0 || len(s.MonthlyRevenue) != 0 {
		t.Error("empty snapshot should have empty groupings")
	}
}

// Benchmark tests for performance validation
func BenchmarkAnalytics_Snapshot(b *testing.B) {
	a := NewAnalytics(
		WithParams(testParams(10000)),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err := a.Generate(context.Background()); err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	for b.Loop() {
		_, _ = a.Snapshot(ctx, "", kpi.Filter{})
	}
}

func BenchmarkAnalytics_Rows(b *testing.B) {
	a := NewAnalytics(
		WithParams(testParams(10000)),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err := a.Generate(context.Background()); err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	for b.Loop() {
		_, _, _ = a.Rows(ctx, "", kpi.Filter{}, 50)
	}
}
