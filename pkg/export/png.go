package export

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/kilianp07/depotsim/core/analysis"
)

const (
	pngWidth  = 10 * vg.Inch
	pngHeight = 6 * vg.Inch
)

// WritePNGCharts saves histogram_<sample>.png for every sample and
// utilization.png into dir. It returns the written paths.
func WritePNGCharts(dir string, rep analysis.Report, bins int) ([]string, error) {
	var files []string
	for _, sample := range analysis.SampleNames() {
		p, ok := histogramPlot(rep, sample, bins)
		if !ok {
			continue
		}
		path := filepath.Join(dir, "histogram_"+sample+".png")
		if err := p.Save(pngWidth, pngHeight, path); err != nil {
			return files, fmt.Errorf("save %s: %w", path, err)
		}
		files = append(files, path)
	}
	p, err := ratePlot(rep)
	if err != nil {
		return files, err
	}
	path := filepath.Join(dir, "utilization.png")
	if err := p.Save(pngWidth, pngHeight, path); err != nil {
		return files, fmt.Errorf("save %s: %w", path, err)
	}
	return append(files, path), nil
}

func histogramPlot(rep analysis.Report, sample string, bins int) (*plot.Plot, bool) {
	sets := make([][]float64, len(rep.Simulations))
	for i, r := range rep.Simulations {
		sets[i] = r.Samples(sample)
	}
	edges := Edges(bins, sets...)
	if edges == nil {
		return nil, false
	}
	p := plot.New()
	p.Title.Text = "Histogram of " + Title(sample)
	p.X.Label.Text = axisLabel(sample)
	p.Y.Label.Text = "Frequency"
	p.Legend.Top = true
	for i, r := range rep.Simulations {
		h := NewHistogram(sets[i], edges)
		hist := &plotter.Histogram{
			Bins:      make([]plotter.HistogramBin, len(h.Counts)),
			Width:     edges[1] - edges[0],
			LineStyle: plotter.DefaultLineStyle,
		}
		for j, c := range h.Counts {
			hist.Bins[j] = plotter.HistogramBin{Min: edges[j], Max: edges[j+1], Weight: c}
		}
		hist.FillColor = translucent(plotutil.Color(i))
		hist.LineStyle.Width = vg.Length(0.5)
		p.Add(hist)
		p.Legend.Add(r.Metrics.Simulation, hist)
	}
	return p, true
}

func ratePlot(rep analysis.Report) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Simulation-level Metrics"
	p.Y.Label.Text = "Events per Hour / Utilization"
	p.Legend.Top = true

	n := len(rep.Simulations)
	series := []struct {
		name string
		get  func(analysis.SimulationMetrics) float64
	}{
		{"lambda_per_hour", func(m analysis.SimulationMetrics) float64 { return m.LambdaPerHour }},
		{"mu_per_hour", func(m analysis.SimulationMetrics) float64 { return m.MuPerHour }},
		{"utilization", func(m analysis.SimulationMetrics) float64 { return m.Utilization }},
	}
	names := make([]string, n)
	for i, r := range rep.Simulations {
		names[i] = r.Metrics.Simulation
	}
	w := vg.Points(12)
	for k, s := range series {
		vals := make(plotter.Values, n)
		for i, r := range rep.Simulations {
			vals[i] = finiteOrZero(s.get(r.Metrics))
		}
		if n == 0 {
			vals = plotter.Values{0}
		}
		bars, err := plotter.NewBarChart(vals, w)
		if err != nil {
			return nil, fmt.Errorf("%s bars: %w", s.name, err)
		}
		bars.Color = plotutil.Color(k)
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = w * vg.Length(k-1)
		p.Add(bars)
		p.Legend.Add(s.name, bars)
	}
	if n > 0 {
		p.NominalX(names...)
	}
	return p, nil
}

func translucent(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 150}
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
