package kpi

import (
	"cmp"
	"slices"

	"sales-dashboard/internal/models"
)

// DailyTable aggregates rows by (day, region, channel) for the dashboard data
// table, newest day first.
func DailyTable(rows []models.Transaction) []models.TableRow {
	type key struct{ day, region, channel string }
	index := make(map[key]int)
	out := make([]models.TableRow, 0)

	for _, tx := range rows {
		k := key{tx.Day(), tx.Region, tx.Channel}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, models.TableRow{Date: k.day, Region: k.region, Channel: k.channel})
		}
		out[i].Quantity += tx.Quantity
		out[i].Revenue += tx.Revenue
		out[i].Cost += tx.Cost
		out[i].Profit += tx.Profit
	}

	for i := range out {
		out[i].ProfitMargin = ratio(out[i].Profit, out[i].Revenue)
	}

	slices.SortFunc(out, func(a, b models.TableRow) int {
		return cmp.Or(
			cmp.Compare(b.Date, a.Date),
			cmp.Compare(a.Region, b.Region),
			cmp.Compare(a.Channel, b.Channel),
		)
	})
	return out
}
