package kpi

import (
	"slices"
	"time"

	"sales-dashboard/internal/models"
)

// Filter restricts a table to the dashboard's widget selection. Dimensions
// are AND-combined, values within a dimension OR-combined. A nil list or a
// zero date leaves that dimension unrestricted, while a non-nil empty list
// (a multi-select with nothing chosen) matches no rows. Date bounds are
// inclusive calendar days.
type Filter struct {
	Regions  []string  `json:"regions"`
	Channels []string  `json:"channels"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
}

func (f Filter) IsEmpty() bool {
	return f.Regions == nil && f.Channels == nil && f.From.IsZero() && f.To.IsZero()
}

// Match reports whether tx passes every constraint.
func (f Filter) Match(tx models.Transaction) bool {
	if f.Regions != nil && !slices.Contains(f.Regions, tx.Region) {
		return false
	}
	if f.Channels != nil && !slices.Contains(f.Channels, tx.Channel) {
		return false
	}
	day := tx.Day()
	if !f.From.IsZero() && day < f.From.UTC().Format(time.DateOnly) {
		return false
	}
	if !f.To.IsZero() && day > f.To.UTC().Format(time.DateOnly) {
		return false
	}
	return true
}

// Apply returns the matching rows in their original order. The result never
// aliases rows, so callers may hold it independently of the source table.
func (f Filter) Apply(rows []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, 0, len(rows))
	for _, tx := range rows {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// Domains returns the values the filter widgets can offer for rows: sorted
// distinct regions and channels plus the covered date span.
func Domains(rows []models.Transaction) models.FilterOptions {
	opts := models.FilterOptions{Regions: []string{}, Channels: []string{}}
	regions := make(map[string]bool)
	channels := make(map[string]bool)
	var first, last string

	for _, tx := range rows {
		if !regions[tx.Region] {
			regions[tx.Region] = true
			opts.Regions = append(opts.Regions, tx.Region)
		}
		if !channels[tx.Channel] {
			channels[tx.Channel] = true
			opts.Channels = append(opts.Channels, tx.Channel)
		}
		day := tx.Day()
		if first == "" || day < first {
			first = day
		}
		if day > last {
			last = day
		}
	}

	slices.Sort(opts.Regions)
	slices.Sort(opts.Channels)
	opts.From, opts.To = first, last
	return opts
}
