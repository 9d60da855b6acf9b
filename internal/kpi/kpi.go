// Package kpi computes sales KPIs from a transaction table.
//
// Every function is pure: inputs are never mutated and each call recomputes
// its result from scratch. On an empty table sums are 0, mappings and
// sequences are empty (never nil) and ratios return 0 instead of dividing by
// zero.
//
// Only Compute checks its input. The individual KPI functions expect rows that
// passed Validate; a blank region, channel, product or customer id is grouped
// under the empty key rather than rejected.
package kpi

import (
	"slices"
	"strings"

	"sales-dashboard/internal/models"
)

// group accumulates one aggregate per key while remembering first-seen order,
// which is the tie-break order for rankings.
type group struct {
	order  []string
	values map[string]float64
}

func newGroup() *group {
	return &group{values: make(map[string]float64)}
}

func (g *group) add(key string, v float64) {
	if _, ok := g.values[key]; !ok {
		g.order = append(g.order, key)
	}
	g.values[key] += v
}

func (g *group) mapping() map[string]float64 {
	out := make(map[string]float64, len(g.values))
	for k, v := range g.values {
		out[k] = v
	}
	return out
}

// ranked sorts descending by value; equal values keep first-seen order.
// limit <= 0 keeps every entry.
func (g *group) ranked(limit int) []models.RankedValue {
	out := make([]models.RankedValue, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, models.RankedValue{Label: k, Value: g.values[k]})
	}
	slices.SortStableFunc(out, func(a, b models.RankedValue) int {
		switch {
		case a.Value > b.Value:
			return -1
		case a.Value < b.Value:
			return 1
		default:
			return 0
		}
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// monthly returns the series ordered by month ascending.
func (g *group) monthly() []models.MonthlyValue {
	out := make([]models.MonthlyValue, 0, len(g.values))
	for k, v := range g.values {
		out = append(out, models.MonthlyValue{Month: k, Value: v})
	}
	slices.SortFunc(out, func(a, b models.MonthlyValue) int {
		return strings.Compare(a.Month, b.Month)
	})
	return out
}

func sumBy(rows []models.Transaction, key func(models.Transaction) string, value func(models.Transaction) float64) *group {
	g := newGroup()
	for _, tx := range rows {
		g.add(key(tx), value(tx))
	}
	return g
}

func byRegion(tx models.Transaction) string   { return tx.Region }
func byChannel(tx models.Transaction) string  { return tx.Channel }
func byProduct(tx models.Transaction) string  { return tx.Product }
func byCustomer(tx models.Transaction) string { return tx.CustomerID }
func byMonth(tx models.Transaction) string    { return tx.Month() }

func revenue(tx models.Transaction) float64  { return tx.Revenue }
func profit(tx models.Transaction) float64   { return tx.Profit }
func quantity(tx models.Transaction) float64 { return float64(tx.Quantity) }

// ratio is the shared zero-denominator convention for every ratio KPI.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func TotalRevenue(rows []models.Transaction) float64 {
	var total float64
	for _, tx := range rows {
		total += tx.Revenue
	}
	return total
}

func TotalProfit(rows []models.Transaction) float64 {
	var total float64
	for _, tx := range rows {
		total += tx.Profit
	}
	return total
}

func RevenueByRegion(rows []models.Transaction) map[string]float64 {
	return sumBy(rows, byRegion, revenue).mapping()
}

func RevenueByChannel(rows []models.Transaction) map[string]float64 {
	return sumBy(rows, byChannel, revenue).mapping()
}

func ProfitByRegion(rows []models.Transaction) map[string]float64 {
	return sumBy(rows, byRegion, profit).mapping()
}

func ProfitByChannel(rows []models.Transaction) map[string]float64 {
	return sumBy(rows, byChannel, profit).mapping()
}

// MonthlyRevenue sums revenue per calendar month, ascending.
func MonthlyRevenue(rows []models.Transaction) []models.MonthlyValue {
	return sumBy(rows, byMonth, revenue).monthly()
}

// MonthlyProfit sums profit per calendar month, ascending.
func MonthlyProfit(rows []models.Transaction) []models.MonthlyValue {
	return sumBy(rows, byMonth, profit).monthly()
}

// MonthlyRevenueByChannel splits the monthly revenue series per channel.
// Every channel series covers the same months; missing months are 0.
func MonthlyRevenueByChannel(rows []models.Transaction) map[string][]models.MonthlyValue {
	months := sumBy(rows, byMonth, revenue).monthly()
	perChannel := make(map[string]*group)
	for _, tx := range rows {
		g, ok := perChannel[tx.Channel]
		if !ok {
			g = newGroup()
			perChannel[tx.Channel] = g
		}
		g.add(tx.Month(), tx.Revenue)
	}

	out := make(map[string][]models.MonthlyValue, len(perChannel))
	for channel, g := range perChannel {
		series := make([]models.MonthlyValue, len(months))
		for i, m := range months {
			series[i] = models.MonthlyValue{Month: m.Month, Value: g.values[m.Month]}
		}
		out[channel] = series
	}
	return out
}

// ProfitMargin is total profit over total revenue as a fraction.
func ProfitMargin(rows []models.Transaction) float64 {
	return ratio(TotalProfit(rows), TotalRevenue(rows))
}

func ProfitMarginByRegion(rows []models.Transaction) map[string]float64 {
	return marginBy(rows, byRegion)
}

func ProfitMarginByChannel(rows []models.Transaction) map[string]float64 {
	return marginBy(rows, byChannel)
}

func marginBy(rows []models.Transaction, key func(models.Transaction) string) map[string]float64 {
	rev := sumBy(rows, key, revenue)
	prof := sumBy(rows, key, profit)
	out := make(map[string]float64, len(rev.values))
	for k, r := range rev.values {
		out[k] = ratio(prof.values[k], r)
	}
	return out
}

// TopProductsByRevenue ranks products by summed revenue, at most n entries.
func TopProductsByRevenue(rows []models.Transaction, n int) []models.RankedValue {
	return sumBy(rows, byProduct, revenue).ranked(n)
}

// TopProductsByQuantity ranks products by units sold, at most n entries.
func TopProductsByQuantity(rows []models.Transaction, n int) []models.RankedValue {
	return sumBy(rows, byProduct, quantity).ranked(n)
}

// ProductProfitability ranks every product by summed profit.
func ProductProfitability(rows []models.Transaction) []models.RankedValue {
	return sumBy(rows, byProduct, profit).ranked(0)
}

// TopCustomers ranks customers by summed revenue, at most n entries.
func TopCustomers(rows []models.Transaction, n int) []models.RankedValue {
	return sumBy(rows, byCustomer, revenue).ranked(n)
}

func UniqueCustomers(rows []models.Transaction) int {
	seen := make(map[string]struct{})
	for _, tx := range rows {
		seen[tx.CustomerID] = struct{}{}
	}
	return len(seen)
}

func AvgRevenuePerCustomer(rows []models.Transaction) float64 {
	return ratio(TotalRevenue(rows), float64(UniqueCustomers(rows)))
}

func AverageOrderValue(rows []models.Transaction) float64 {
	return ratio(TotalRevenue(rows), float64(len(rows)))
}

// CustomersByRegion counts distinct customers per region.
func CustomersByRegion(rows []models.Transaction) map[string]int {
	seen := make(map[string]map[string]struct{})
	for _, tx := range rows {
		set, ok := seen[tx.Region]
		if !ok {
			set = make(map[string]struct{})
			seen[tx.Region] = set
		}
		set[tx.CustomerID] = struct{}{}
	}
	out := make(map[string]int, len(seen))
	for region, set := range seen {
		out[region] = len(set)
	}
	return out
}

// RegionChannelRevenue sums revenue per (region, channel) pair.
func RegionChannelRevenue(rows []models.Transaction) map[string]map[string]float64 {
	out := make(map[string]map[string]float64)
	for _, tx := range rows {
		inner, ok := out[tx.Region]
		if !ok {
			inner = make(map[string]float64)
			out[tx.Region] = inner
		}
		inner[tx.Channel] += tx.Revenue
	}
	return out
}
