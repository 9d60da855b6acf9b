package templates

import (
	"context"
	"strings"

	"github.com/a-h/templ"

	"sales-dashboard/internal/models"
)

// Element ids patched by the SSE handlers.
const (
	KPICardsID   = "kpi-cards"
	DataTableID  = "data-table"
	ErrorID      = "error-banner"
	FilterFormID = "filters"
)

type kpiCard struct {
	Label string
	Value string
}

func kpiCards(s *models.Snapshot) []kpiCard {
	return []kpiCard{
		{"Total Revenue", Money(s.TotalRevenue)},
		{"Total Profit", Money(s.TotalProfit)},
		{"Profit Margin", Percent(s.ProfitMargin)},
		{"Average Order Value", Money(s.AverageOrderValue)},
		{"Unique Customers", Count(s.UniqueCustomers)},
		{"Revenue per Customer", Money(s.AvgRevenuePerCustomer)},
		{"Transactions", Count(s.RecordCount)},
	}
}

type pageSignals struct {
	Regions  []string `json:"regions"`
	Channels []string `json:"channels"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Seed     int64    `json:"seed"`
	Charts   any      `json:"charts"`
}

func newPageSignals(opts models.FilterOptions, seed int64) pageSignals {
	return pageSignals{
		Regions:  opts.Regions,
		Channels: opts.Channels,
		From:     opts.From,
		To:       opts.To,
		Seed:     seed,
		Charts:   map[string]any{},
	}
}

type chartPanel struct {
	ID    string
	Title string
}

var chartPanels = []chartPanel{
	{"chart-region", "Revenue by Region"},
	{"chart-channel", "Revenue by Channel"},
	{"chart-monthly", "Monthly Revenue Trend"},
	{"chart-products", "Top Products by Revenue"},
	{"chart-margin", "Profit Margin by Channel (%)"},
	{"chart-distribution", "Sales Amount Distribution"},
	{"chart-heatmap", "Sales Heatmap: Region vs Channel"},
}

// Render writes c to a string.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var buf strings.Builder
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
