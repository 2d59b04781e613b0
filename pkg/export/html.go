package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/depotsim/core/analysis"
)

// WriteHTMLCharts renders one page holding a histogram per sample, with one
// series per simulation, and the simulation-level rate chart.
func WriteHTMLCharts(w io.Writer, rep analysis.Report, bins int) error {
	page := components.NewPage()
	page.PageTitle = "Depot simulation analysis"
	for _, sample := range analysis.SampleNames() {
		if bar := histogramChart(rep, sample, bins); bar != nil {
			page.AddCharts(bar)
		}
	}
	page.AddCharts(rateChart(rep))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render charts: %w", err)
	}
	return nil
}

func histogramChart(rep analysis.Report, sample string, bins int) *charts.Bar {
	sets := make([][]float64, len(rep.Simulations))
	for i, r := range rep.Simulations {
		sets[i] = r.Samples(sample)
	}
	edges := Edges(bins, sets...)
	if edges == nil {
		return nil
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Histogram of " + Title(sample)}),
		charts.WithXAxisOpts(opts.XAxis{Name: axisLabel(sample)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Frequency"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)
	var xAxis []string
	for _, c := range (Histogram{Edges: edges, Counts: make([]float64, len(edges)-1)}).Centers() {
		xAxis = append(xAxis, fmt.Sprintf("%.1f", c))
	}
	bar.SetXAxis(xAxis)
	for i, r := range rep.Simulations {
		h := NewHistogram(sets[i], edges)
		data := make([]opts.BarData, len(h.Counts))
		for j, c := range h.Counts {
			data[j] = opts.BarData{Value: c}
		}
		bar.AddSeries(r.Metrics.Simulation, data)
	}
	return bar
}

func rateChart(rep analysis.Report) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Simulation-level Metrics"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Events per Hour / Utilization"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)
	names := make([]string, len(rep.Simulations))
	lambda := make([]opts.BarData, len(rep.Simulations))
	mu := make([]opts.BarData, len(rep.Simulations))
	util := make([]opts.BarData, len(rep.Simulations))
	for i, r := range rep.Simulations {
		m := r.Metrics
		names[i] = m.Simulation
		lambda[i] = opts.BarData{Value: finiteOrZero(m.LambdaPerHour)}
		mu[i] = opts.BarData{Value: finiteOrZero(m.MuPerHour)}
		util[i] = opts.BarData{Value: finiteOrZero(m.Utilization)}
	}
	bar.SetXAxis(names).
		AddSeries("lambda_per_hour", lambda).
		AddSeries("mu_per_hour", mu).
		AddSeries("utilization", util)
	return bar
}

// Title turns a sample name such as "wait_times" into "Wait Times".
func Title(sample string) string {
	words := strings.Split(sample, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func axisLabel(sample string) string {
	if sample == analysis.SampleQueueLengths {
		return "Vehicles"
	}
	return "Minutes"
}
