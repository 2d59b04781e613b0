package export

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
)

// ASCIIHistogram renders the bin counts of samples as a terminal line chart.
func ASCIIHistogram(samples []float64, bins int, caption string) string {
	edges := Edges(bins, samples)
	if edges == nil {
		return caption + ": no data\n"
	}
	h := NewHistogram(samples, edges)
	graph := asciigraph.Plot(h.Counts,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s (%.1f .. %.1f, n=%d)", caption, edges[0], edges[len(edges)-1], len(samples))),
	)
	return graph + "\n"
}
