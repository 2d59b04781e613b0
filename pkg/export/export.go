// Package export writes analysis results as CSV tables and charts.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kilianp07/depotsim/core/analysis"
)

// Output formats understood by WriteAll.
const (
	FormatCSV  = "csv"
	FormatHTML = "html"
	FormatPNG  = "png"
)

// Formats lists every supported output format.
func Formats() []string { return []string{FormatCSV, FormatHTML, FormatPNG} }

// Options select what WriteAll produces.
type Options struct {
	Dir     string
	Bins    int
	Formats []string
}

// WriteAll writes the requested outputs into opts.Dir and returns the created files.
func WriteAll(rep analysis.Report, opts Options) ([]string, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if len(opts.Formats) == 0 {
		opts.Formats = Formats()
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}
	var files []string
	for _, f := range opts.Formats {
		switch f {
		case FormatCSV:
			for _, t := range []struct {
				name  string
				write func(io.Writer, analysis.Report) error
			}{
				{"summary.csv", WriteSummaryCSV},
				{"fits.csv", WriteFitsCSV},
			} {
				path := filepath.Join(opts.Dir, t.name)
				if err := writeFile(path, func(w io.Writer) error { return t.write(w, rep) }); err != nil {
					return files, err
				}
				files = append(files, path)
			}
		case FormatHTML:
			path := filepath.Join(opts.Dir, "charts.html")
			if err := writeFile(path, func(w io.Writer) error { return WriteHTMLCharts(w, rep, opts.Bins) }); err != nil {
				return files, err
			}
			files = append(files, path)
		case FormatPNG:
			pngs, err := WritePNGCharts(opts.Dir, rep, opts.Bins)
			files = append(files, pngs...)
			if err != nil {
				return files, err
			}
		default:
			return files, fmt.Errorf("unknown output format %q", f)
		}
	}
	return files, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
