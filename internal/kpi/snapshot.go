package kpi

import (
	"time"

	"sales-dashboard/internal/models"
)

const (
	DefaultTopN         = 5
	DefaultTopCustomers = 10
)

type Options struct {
	TopN         int
	TopCustomers int
	Bins         int
}

func DefaultOptions() Options {
	return Options{
		TopN:         DefaultTopN,
		TopCustomers: DefaultTopCustomers,
		Bins:         DefaultBins,
	}
}

// Compute validates rows and evaluates every KPI over them.
func Compute(rows []models.Transaction, opts Options) (*models.Snapshot, error) {
	if err := Validate(rows); err != nil {
		return nil, err
	}

	return &models.Snapshot{
		RecordCount: len(rows),

		TotalRevenue:      TotalRevenue(rows),
		TotalProfit:       TotalProfit(rows),
		ProfitMargin:      ProfitMargin(rows),
		AverageOrderValue: AverageOrderValue(rows),

		UniqueCustomers:       UniqueCustomers(rows),
		AvgRevenuePerCustomer: AvgRevenuePerCustomer(rows),

		RevenueByRegion:       RevenueByRegion(rows),
		RevenueByChannel:      RevenueByChannel(rows),
		ProfitByRegion:        ProfitByRegion(rows),
		ProfitByChannel:       ProfitByChannel(rows),
		ProfitMarginByRegion:  ProfitMarginByRegion(rows),
		ProfitMarginByChannel: ProfitMarginByChannel(rows),
		CustomersByRegion:     CustomersByRegion(rows),

		MonthlyRevenue:          MonthlyRevenue(rows),
		MonthlyProfit:           MonthlyProfit(rows),
		MonthlyRevenueByChannel: MonthlyRevenueByChannel(rows),

		TopProductsByRevenue:  TopProductsByRevenue(rows, opts.TopN),
		TopProductsByQuantity: TopProductsByQuantity(rows, opts.TopN),
		ProductProfitability:  ProductProfitability(rows),
		TopCustomers:          TopCustomers(rows, opts.TopCustomers),

		RegionChannelRevenue: RegionChannelRevenue(rows),

		Distribution: RevenueDistribution(rows, opts.Bins),

		ComputedAt: time.Now().UTC(),
	}, nil
}
