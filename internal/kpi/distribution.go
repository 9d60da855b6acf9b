package kpi

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"sales-dashboard/internal/models"
)

// DefaultBins is the histogram resolution used when none is given.
const DefaultBins = 30

// RevenueDistribution describes per-transaction revenue: summary statistics
// and a fixed-width histogram of bins buckets between min and max.
func RevenueDistribution(rows []models.Transaction, bins int) models.Distribution {
	d := models.Distribution{Count: len(rows), Bins: []models.HistogramBin{}}
	if len(rows) == 0 {
		return d
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	values := make([]float64, len(rows))
	for i, tx := range rows {
		values[i] = tx.Revenue
	}
	sort.Float64s(values)

	d.Min = floats.Min(values)
	d.Max = floats.Max(values)
	d.Mean = stat.Mean(values, nil)
	d.Median = stat.Quantile(0.5, stat.Empirical, values, nil)
	if len(values) > 1 {
		d.StdDev = stat.StdDev(values, nil)
	}
	d.Bins = histogram(values, d.Min, d.Max, bins)
	return d
}

// histogram expects sorted values. The last bin is closed on the right so the
// maximum is counted.
func histogram(values []float64, lo, hi float64, n int) []models.HistogramBin {
	if hi == lo {
		return []models.HistogramBin{{Lower: lo, Upper: hi, Count: len(values)}}
	}

	width := (hi - lo) / float64(n)
	out := make([]models.HistogramBin, n)
	for i := range out {
		out[i] = models.HistogramBin{
			Lower: lo + float64(i)*width,
			Upper: lo + float64(i+1)*width,
		}
	}
	out[n-1].Upper = hi

	for _, v := range values {
		i := int(math.Floor((v - lo) / width))
		if i >= n {
			i = n - 1
		}
		out[i].Count++
	}
	return out
}
