package export

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultBins is the number of histogram bins used by every chart.
const DefaultBins = 30

// Histogram holds bin edges and counts; len(Edges) == len(Counts)+1.
type Histogram struct {
	Edges  []float64
	Counts []float64
}

// Centers returns the midpoint of each bin.
func (h Histogram) Centers() []float64 {
	c := make([]float64, len(h.Counts))
	for i := range c {
		c[i] = (h.Edges[i] + h.Edges[i+1]) / 2
	}
	return c
}

// Edges spans the finite range of every sample set with bins equal-width bins.
// It returns nil when no finite value exists.
func Edges(bins int, samples ...[]float64) []float64 {
	if bins < 1 {
		bins = DefaultBins
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		for _, v := range s {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return nil
	}
	if hi == lo {
		hi = lo + 1
	}
	// stat.Histogram excludes the upper divider.
	hi = math.Nextafter(hi, math.Inf(1))
	return floats.Span(make([]float64, bins+1), lo, hi)
}

// NewHistogram counts the finite samples falling into edges.
func NewHistogram(samples, edges []float64) Histogram {
	h := Histogram{Edges: edges}
	if len(edges) < 2 {
		return h
	}
	x := make([]float64, 0, len(samples))
	for _, v := range samples {
		if v >= edges[0] && v < edges[len(edges)-1] {
			x = append(x, v)
		}
	}
	sort.Float64s(x)
	h.Counts = stat.Histogram(nil, edges, x, nil)
	return h
}
