// Package charts renders KPI snapshots as static PNG images.
//
// File names are fixed: one file per visualization, listed in Files.
package charts

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"sales-dashboard/internal/models"
)

const (
	RevenueByRegion       = "revenue_by_region.png"
	RevenueByChannel      = "revenue_by_channel.png"
	MonthlyRevenue        = "monthly_revenue.png"
	ProfitMarginByChannel = "profit_margin_by_channel.png"
	TopProducts           = "top_products.png"
	SalesDistribution     = "sales_distribution.png"
	RegionChannelHeatmap  = "region_channel_heatmap.png"
	CustomersByRegion     = "customers_by_region.png"

	maxWorkers = 4
)

// Files lists every file Render writes, in render order.
func Files() []string {
	return []string{
		RevenueByRegion,
		RevenueByChannel,
		MonthlyRevenue,
		ProfitMarginByChannel,
		TopProducts,
		SalesDistribution,
		RegionChannelHeatmap,
		CustomersByRegion,
	}
}

type Renderer struct {
	Width  vg.Length
	Height vg.Length
	logger *slog.Logger
}

func NewRenderer(logger *slog.Logger) *Renderer {
	return &Renderer{
		Width:  10 * vg.Inch,
		Height: 6 * vg.Inch,
		logger: logger,
	}
}

type builder func(*models.Snapshot) (*plot.Plot, error)

func (r *Renderer) builders() map[string]builder {
	return map[string]builder{
		RevenueByRegion:       revenueByRegion,
		RevenueByChannel:      revenueByChannel,
		MonthlyRevenue:        monthlyRevenue,
		ProfitMarginByChannel: profitMarginByChannel,
		TopProducts:           topProducts,
		SalesDistribution:     salesDistribution,
		RegionChannelHeatmap:  regionChannelHeatmap,
		CustomersByRegion:     customersByRegion,
	}
}

// Render writes every chart for snapshot into dir, creating it if needed,
// and returns the written paths in Files order.
func (r *Renderer) Render(ctx context.Context, snapshot *models.Snapshot, dir string) ([]string, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("render charts: nil snapshot")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}

	start := time.Now()
	builders := r.builders()
	files := Files()
	paths := make([]string, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for i, name := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			p, err := builders[name](snapshot)
			if err != nil {
				return fmt.Errorf("build %s: %w", name, err)
			}

			path := filepath.Join(dir, name)
			if err := p.Save(r.Width, r.Height, path); err != nil {
				return fmt.Errorf("save %s: %w", name, err)
			}
			paths[i] = path
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Info("charts rendered",
		"dir", dir,
		"files", len(paths),
		"duration", time.Since(start),
	)
	return paths, nil
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

// emptyPlot stands in for a chart whose input has no rows, keeping the file
// set complete.
func emptyPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title + " (no data)"
	p.HideAxes()
	return p
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func barChart(title, xLabel, yLabel string, labels []string, values plotter.Values, c color.Color) (*plot.Plot, error) {
	if len(values) == 0 {
		return emptyPlot(title), nil
	}

	p := newPlot(title, xLabel, yLabel)
	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return nil, err
	}
	bars.Color = c
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)
	return p, nil
}

func mappingChart(title, xLabel, yLabel string, m map[string]float64, scale float64, c color.Color) (*plot.Plot, error) {
	labels := sortedKeys(m)
	values := make(plotter.Values, len(labels))
	for i, k := range labels {
		values[i] = m[k] * scale
	}
	return barChart(title, xLabel, yLabel, labels, values, c)
}

func revenueByRegion(s *models.Snapshot) (*plot.Plot, error) {
	return mappingChart("Revenue by Region", "Region", "Revenue ($)", s.RevenueByRegion, 1, plotutil.Color(0))
}

func revenueByChannel(s *models.Snapshot) (*plot.Plot, error) {
	return mappingChart("Revenue by Channel", "Channel", "Revenue ($)", s.RevenueByChannel, 1, plotutil.Color(1))
}

func profitMarginByChannel(s *models.Snapshot) (*plot.Plot, error) {
	return mappingChart("Profit Margin by Channel", "Channel", "Profit Margin (%)", s.ProfitMarginByChannel, 100, plotutil.Color(2))
}

func customersByRegion(s *models.Snapshot) (*plot.Plot, error) {
	counts := make(map[string]float64, len(s.CustomersByRegion))
	for k, v := range s.CustomersByRegion {
		counts[k] = float64(v)
	}
	return mappingChart("Customer Distribution by Region", "Region", "Unique Customers", counts, 1, plotutil.Color(3))
}

func monthlyRevenue(s *models.Snapshot) (*plot.Plot, error) {
	const title = "Monthly Revenue Trend"
	if len(s.MonthlyRevenue) == 0 {
		return emptyPlot(title), nil
	}

	p := newPlot(title, "Month", "Revenue ($)")
	pts := make(plotter.XYs, len(s.MonthlyRevenue))
	months := make([]string, len(s.MonthlyRevenue))
	for i, m := range s.MonthlyRevenue {
		pts[i].X = float64(i)
		pts[i].Y = m.Value
		months[i] = m.Month
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, err
	}
	line.Color = plotutil.Color(0)
	line.Width = vg.Points(2)
	points.Shape = plotutil.Shape(0)
	points.Color = plotutil.Color(0)

	p.Add(line, points)
	p.NominalX(months...)
	return p, nil
}

func topProducts(s *models.Snapshot) (*plot.Plot, error) {
	title := fmt.Sprintf("Top %d Products by Revenue", len(s.TopProductsByRevenue))
	if len(s.TopProductsByRevenue) == 0 {
		return emptyPlot("Top Products by Revenue"), nil
	}

	// Horizontal bars read bottom-up, so the best seller goes last.
	n := len(s.TopProductsByRevenue)
	labels := make([]string, n)
	values := make(plotter.Values, n)
	for i, rv := range s.TopProductsByRevenue {
		labels[n-1-i] = rv.Label
		values[n-1-i] = rv.Value
	}

	p := newPlot(title, "Revenue ($)", "Product")
	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return nil, err
	}
	bars.Horizontal = true
	bars.Color = plotutil.Color(4)
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalY(labels...)
	return p, nil
}

func salesDistribution(s *models.Snapshot) (*plot.Plot, error) {
	const title = "Sales Amount Distribution"
	if len(s.Distribution.Bins) == 0 {
		return emptyPlot(title), nil
	}

	p := newPlot(title, "Sales Amount ($)", "Frequency")
	bins := make([]plotter.HistogramBin, len(s.Distribution.Bins))
	for i, b := range s.Distribution.Bins {
		bins[i] = plotter.HistogramBin{Min: b.Lower, Max: b.Upper, Weight: float64(b.Count)}
	}

	hist := &plotter.Histogram{
		Bins:      bins,
		Width:     s.Distribution.Max - s.Distribution.Min,
		FillColor: color.RGBA{R: 0x22, G: 0xa7, B: 0xf0, A: 0xff},
		LineStyle: plotter.DefaultLineStyle,
	}
	p.Add(hist)
	return p, nil
}

// heatGrid adapts the region x channel matrix to plotter.GridXYZ: columns are
// channels, rows are regions.
type heatGrid struct {
	regions  []string
	channels []string
	values   map[string]map[string]float64
}

func (g heatGrid) Dims() (c, r int)   { return len(g.channels), len(g.regions) }
func (g heatGrid) X(c int) float64    { return float64(c) }
func (g heatGrid) Y(r int) float64    { return float64(r) }
func (g heatGrid) Z(c, r int) float64 { return g.values[g.regions[r]][g.channels[c]] }

func regionChannelHeatmap(s *models.Snapshot) (*plot.Plot, error) {
	const title = "Sales by Region and Channel"
	if len(s.RegionChannelRevenue) == 0 {
		return emptyPlot(title), nil
	}

	channelSet := make(map[string]bool)
	for _, inner := range s.RegionChannelRevenue {
		for ch := range inner {
			channelSet[ch] = true
		}
	}
	grid := heatGrid{
		regions:  sortedKeys(s.RegionChannelRevenue),
		channels: sortedKeys(channelSet),
		values:   s.RegionChannelRevenue,
	}

	hm := plotter.NewHeatMap(grid, palette.Heat(12, 1))
	if hm.Min == hm.Max {
		hm.Max = hm.Min + 1
	}

	cols, rows := grid.Dims()
	labels := plotter.XYLabels{
		XYs:    make(plotter.XYs, 0, cols*rows),
		Labels: make([]string, 0, cols*rows),
	}
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			labels.XYs = append(labels.XYs, plotter.XY{X: grid.X(c), Y: grid.Y(r)})
			labels.Labels = append(labels.Labels, fmt.Sprintf("%.0f", grid.Z(c, r)))
		}
	}
	text, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Channel"
	p.Y.Label.Text = "Region"
	p.Add(hm, text)
	p.NominalX(grid.channels...)
	p.NominalY(grid.regions...)
	return p, nil
}
