package models

import "time"

type MonthlyValue struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

type RankedValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Distribution summarizes the per-transaction revenue distribution.
type Distribution struct {
	Count  int            `json:"count"`
	Min    float64        `json:"min"`
	Max    float64        `json:"max"`
	Mean   float64        `json:"mean"`
	Median float64        `json:"median"`
	StdDev float64        `json:"std_dev"`
	Bins   []HistogramBin `json:"bins"`
}

// Snapshot holds every KPI computed over one (possibly filtered) table.
// Margins are fractions; zero denominators yield 0.
type Snapshot struct {
	RecordCount int `json:"record_count"`

	TotalRevenue      float64 `json:"total_revenue"`
	TotalProfit       float64 `json:"total_profit"`
	ProfitMargin      float64 `json:"profit_margin"`
	AverageOrderValue float64 `json:"average_order_value"`

	UniqueCustomers       int     `json:"unique_customers"`
	AvgRevenuePerCustomer float64 `json:"avg_revenue_per_customer"`

	RevenueByRegion       map[string]float64 `json:"revenue_by_region"`
	RevenueByChannel      map[string]float64 `json:"revenue_by_channel"`
	ProfitByRegion        map[string]float64 `json:"profit_by_region"`
	ProfitByChannel       map[string]float64 `json:"profit_by_channel"`
	ProfitMarginByRegion  map[string]float64 `json:"profit_margin_by_region"`
	ProfitMarginByChannel map[string]float64 `json:"profit_margin_by_channel"`
	CustomersByRegion     map[string]int     `json:"customers_by_region"`

	MonthlyRevenue          []MonthlyValue            `json:"monthly_revenue"`
	MonthlyProfit           []MonthlyValue            `json:"monthly_profit"`
	MonthlyRevenueByChannel map[string][]MonthlyValue `json:"monthly_revenue_by_channel"`

	TopProductsByRevenue  []RankedValue `json:"top_products_by_revenue"`
	TopProductsByQuantity []RankedValue `json:"top_products_by_quantity"`
	ProductProfitability  []RankedValue `json:"product_profitability"`
	TopCustomers          []RankedValue `json:"top_customers"`

	RegionChannelRevenue map[string]map[string]float64 `json:"region_channel_revenue"`

	Distribution Distribution `json:"distribution"`

	ComputedAt time.Time `json:"computed_at"`
}

// TableRow is one line of the dashboard data table: rows aggregated by day,
// region and channel.
type TableRow struct {
	Date         string  `json:"date"`
	Region       string  `json:"region"`
	Channel      string  `json:"channel"`
	Quantity     int     `json:"quantity"`
	Revenue      float64 `json:"revenue"`
	Cost         float64 `json:"cost"`
	Profit       float64 `json:"profit"`
	ProfitMargin float64 `json:"profit_margin"`
}

// FilterOptions are the domains offered by the dashboard filter widgets.
type FilterOptions struct {
	Regions  []string `json:"regions"`
	Channels []string `json:"channels"`
	From     string   `json:"from"`
	To       string   `json:"to"`
}
