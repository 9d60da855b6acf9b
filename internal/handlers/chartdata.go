package handlers

import (
	"fmt"
	"maps"
	"slices"

	"sales-dashboard/internal/models"
)

type series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

type heatmapSeries struct {
	Regions  []string    `json:"regions"`
	Channels []string    `json:"channels"`
	Values   [][]float64 `json:"values"`
}

// chartData is the "charts" signal consumed by the dashboard's drawCharts.
type chartData struct {
	Region       series        `json:"region"`
	Channel      series        `json:"channel"`
	Monthly      series        `json:"monthly"`
	Products     series        `json:"products"`
	Margin       series        `json:"margin"`
	Distribution series        `json:"distribution"`
	Heatmap      heatmapSeries `json:"heatmap"`
}

func newChartData(s *models.Snapshot) chartData {
	return chartData{
		Region:       mappingSeries(s.RevenueByRegion, 1),
		Channel:      mappingSeries(s.RevenueByChannel, 1),
		Monthly:      monthlySeries(s.MonthlyRevenue),
		Products:     rankedSeries(s.TopProductsByRevenue),
		Margin:       mappingSeries(s.ProfitMarginByChannel, 100),
		Distribution: histogramSeries(s.Distribution.Bins),
		Heatmap:      newHeatmapSeries(s.RegionChannelRevenue),
	}
}

func mappingSeries(m map[string]float64, scale float64) series {
	out := series{Labels: slices.Sorted(maps.Keys(m))}
	out.Values = make([]float64, len(out.Labels))
	for i, label := range out.Labels {
		out.Values[i] = m[label] * scale
	}
	return out
}

func monthlySeries(values []models.MonthlyValue) series {
	out := series{Labels: make([]string, len(values)), Values: make([]float64, len(values))}
	for i, v := range values {
		out.Labels[i] = v.Month
		out.Values[i] = v.Value
	}
	return out
}

func rankedSeries(values []models.RankedValue) series {
	out := series{Labels: make([]string, len(values)), Values: make([]float64, len(values))}
	for i, v := range values {
		out.Labels[i] = v.Label
		out.Values[i] = v.Value
	}
	return out
}

func histogramSeries(bins []models.HistogramBin) series {
	out := series{Labels: make([]string, len(bins)), Values: make([]float64, len(bins))}
	for i, b := range bins {
		out.Labels[i] = fmt.Sprintf("%.0f-%.0f", b.Lower, b.Upper)
		out.Values[i] = float64(b.Count)
	}
	return out
}

// newHeatmapSeries lays the region x channel matrix out as rows per region,
// with a zero for combinations that have no sales.
func newHeatmapSeries(m map[string]map[string]float64) heatmapSeries {
	channelSet := make(map[string]struct{})
	for _, byChannel := range m {
		for ch := range byChannel {
			channelSet[ch] = struct{}{}
		}
	}

	h := heatmapSeries{
		Regions:  slices.Sorted(maps.Keys(m)),
		Channels: slices.Sorted(maps.Keys(channelSet)),
	}
	h.Values = make([][]float64, len(h.Regions))
	for i, region := range h.Regions {
		row := make([]float64, len(h.Channels))
		for j, ch := range h.Channels {
			row[j] = m[region][ch]
		}
		h.Values[i] = row
	}
	return h
}
