package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/generator"
	"sales-dashboard/internal/kpi"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
)

const (
	defaultSessionTTL = 30 * time.Minute
	maxSessions       = 1000
)

// Analytics serves KPI snapshots over an immutable base table. A dashboard
// session may replace its view with a regenerated copy; other sessions keep
// reading the base table.
type Analytics struct {
	mu           sync.RWMutex
	base         []models.Transaction
	baseSeed     int64
	lastModified time.Time
	sessions     map[string]*session

	params     generator.Params
	kpiOptions kpi.Options
	sessionTTL time.Duration

	snapshotsServed atomic.Int64
	logger          *slog.Logger

	janitor  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	stopped  chan struct{}
}

type session struct {
	rows     []models.Transaction
	seed     int64
	lastSeen time.Time
}

type Option func(*Analytics)

func WithParams(p generator.Params) Option {
	return func(a *Analytics) { a.params = p }
}

func WithKPIOptions(o kpi.Options) Option {
	return func(a *Analytics) { a.kpiOptions = o }
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(a *Analytics) { a.sessionTTL = ttl }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) { a.logger = logger }
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		base:       []models.Transaction{},
		sessions:   make(map[string]*session),
		params:     generator.DefaultParams(),
		kpiOptions: kpi.DefaultOptions(),
		sessionTTL: defaultSessionTTL,
		logger:     slog.Default(),
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetData replaces the base table. rows must not be modified afterwards.
func (a *Analytics) SetData(data []models.Transaction) {
	a.setData(data, 0)
}

// setData swaps the base table and the seed it was generated from together.
func (a *Analytics) setData(data []models.Transaction, seed int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.base = data
	a.baseSeed = seed
	a.lastModified = time.Now()
}

// Generate builds the base table from the configured generator parameters.
func (a *Analytics) Generate(ctx context.Context) error {
	_, span := observability.StartSpan(ctx, "analytics.generate")
	defer span.End(ctx, a.logger)

	start := time.Now()
	p := a.params
	if p.Seed == nil {
		p = p.WithSeed(start.UnixNano())
	}
	rows, err := generator.Generate(p)
	if err != nil {
		span.SetError(err)
		return fmt.Errorf("generate dataset: %w", err)
	}
	a.setData(rows, *p.Seed)

	a.logger.Info("dataset generated",
		"records", len(rows),
		"seed", *p.Seed,
		"duration", time.Since(start),
	)
	return nil
}

// LoadFromCSV replaces the base table with a previously exported dataset.
func (a *Analytics) LoadFromCSV(ctx context.Context, filename string) error {
	start := time.Now()
	a.logger.Info("loading CSV dataset", "filename", filename)

	rows, err := dataset.ReadFile(ctx, filename)
	if err != nil {
		return fmt.Errorf("process csv: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("process csv: no records found")
	}
	if err := kpi.Validate(rows); err != nil {
		return fmt.Errorf("process csv: %w", err)
	}
	a.SetData(rows)

	duration := time.Since(start)
	a.logger.Info("csv load complete",
		"records", len(rows),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(rows))/duration.Seconds()))
	return nil
}

// Table returns the table a session sees. Unknown or empty session ids get
// the base table.
func (a *Analytics) Table(sessionID string) []models.Transaction {
	a.mu.RLock()
	s, ok := a.sessions[sessionID]
	base := a.base
	a.mu.RUnlock()

	if !ok {
		return base
	}

	a.mu.Lock()
	s.lastSeen = time.Now()
	a.mu.Unlock()
	return s.rows
}

// Regenerate gives sessionID its own table generated with seed.
func (a *Analytics) Regenerate(ctx context.Context, sessionID string, seed int64) (int, error) {
	if sessionID == "" {
		return 0, fmt.Errorf("regenerate requires a session")
	}

	_, span := observability.StartSpan(ctx, "analytics.regenerate")
	span.SetTag("seed", fmt.Sprint(seed))
	defer span.End(ctx, a.logger)

	rows, err := generator.Generate(a.params.WithSeed(seed))
	if err != nil {
		span.SetError(err)
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.sessions[sessionID]; !exists && len(a.sessions) >= maxSessions {
		a.evictOldestLocked()
	}
	a.sessions[sessionID] = &session{rows: rows, seed: seed, lastSeen: time.Now()}
	return len(rows), nil
}

// SessionSeed reports the seed of a session's private table.
func (a *Analytics) SessionSeed(sessionID string) (int64, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s, ok := a.sessions[sessionID]
	if !ok {
		return 0, false
	}
	return s.seed, true
}

// Seed returns the seed behind the table a session sees. Tables that were
// loaded rather than generated report 0.
func (a *Analytics) Seed(sessionID string) int64 {
	if seed, ok := a.SessionSeed(sessionID); ok {
		return seed
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.baseSeed
}

// Reset drops a session's private table.
func (a *Analytics) Reset(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, sessionID)
}

// Snapshot filters the session's table and computes every KPI over it.
func (a *Analytics) Snapshot(ctx context.Context, sessionID string, filter kpi.Filter) (*models.Snapshot, error) {
	_, span := observability.StartSpan(ctx, "analytics.snapshot")
	defer span.End(ctx, a.logger)

	rows := filter.Apply(a.Table(sessionID))
	span.SetTag("rows", fmt.Sprint(len(rows)))

	snapshot, err := kpi.Compute(rows, a.kpiOptions)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	a.snapshotsServed.Add(1)
	return snapshot, nil
}

// Rows returns the filtered daily table truncated to limit rows, plus the
// untruncated row count.
func (a *Analytics) Rows(ctx context.Context, sessionID string, filter kpi.Filter, limit int) ([]models.TableRow, int, error) {
	rows := filter.Apply(a.Table(sessionID))
	if err := kpi.Validate(rows); err != nil {
		return nil, 0, err
	}

	table := kpi.DailyTable(rows)
	total := len(table)
	if limit > 0 && total > limit {
		table = table[:limit]
	}
	return table, total, nil
}

// Transactions returns filtered raw rows, at most limit when limit > 0.
func (a *Analytics) Transactions(sessionID string, filter kpi.Filter, limit int) []models.Transaction {
	rows := filter.Apply(a.Table(sessionID))
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// Options returns the filter widget domains for the session's table.
func (a *Analytics) Options(sessionID string) models.FilterOptions {
	return kpi.Domains(a.Table(sessionID))
}

// StartJanitor evicts sessions idle for longer than the session TTL until
// Close is called.
func (a *Analytics) StartJanitor(interval time.Duration) {
	if !a.janitor.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(a.stopped)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-a.stop:
				return
			case now := <-ticker.C:
				if n := a.evictIdle(now); n > 0 {
					a.logger.Debug("evicted idle sessions", "count", n)
				}
			}
		}
	}()
}

// Close stops the janitor, waiting for it at most until ctx is done.
func (a *Analytics) Close(ctx context.Context) error {
	a.stopOnce.Do(func() { close(a.stop) })
	if !a.janitor.Load() {
		return nil
	}

	select {
	case <-a.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Analytics) evictIdle(now time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	evicted := 0
	for id, s := range a.sessions {
		if now.Sub(s.lastSeen) > a.sessionTTL {
			delete(a.sessions, id)
			evicted++
		}
	}
	return evicted
}

func (a *Analytics) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, s := range a.sessions {
		if oldestID == "" || s.lastSeen.Before(oldest) {
			oldestID, oldest = id, s.lastSeen
		}
	}
	delete(a.sessions, oldestID)
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	domains := kpi.Domains(a.base)
	return map[string]any{
		"record_count":     len(a.base),
		"seed":             a.baseSeed,
		"last_modified":    a.lastModified,
		"regions":          len(domains.Regions),
		"channels":         len(domains.Channels),
		"date_from":        domains.From,
		"date_to":          domains.To,
		"active_sessions":  len(a.sessions),
		"snapshots_served": a.snapshotsServed.Load(),
	}
}
