package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/depotsim/app"
	"github.com/kilianp07/depotsim/config"
	"github.com/kilianp07/depotsim/core/analysis"
	"github.com/kilianp07/depotsim/infra/logger"
	"github.com/kilianp07/depotsim/pkg/export"
)

var analyzeFlags struct {
	logDir  string
	output  string
	runID   string
	servers int
	bins    int
	formats []string
	dists   []string
	ascii   bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Fit distributions and queueing metrics to stored simulations",
	RunE:  runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeFlags.logDir, "logs", "l", "", "directory of *_logs.json files (overrides the store)")
	f.StringVarP(&analyzeFlags.output, "output", "o", "", "output directory")
	f.StringVar(&analyzeFlags.runID, "run", "", "run id to analyse (default: latest run in the store)")
	f.IntVar(&analyzeFlags.servers, "servers", 0, "server count override")
	f.IntVar(&analyzeFlags.bins, "bins", 0, "histogram bins")
	f.StringSliceVar(&analyzeFlags.formats, "format", nil, "output formats (csv, html, png)")
	f.StringSliceVar(&analyzeFlags.dists, "dist", nil, "candidate distributions")
	f.BoolVar(&analyzeFlags.ascii, "ascii", false, "print terminal histograms")
	rootCmd.AddCommand(analyzeCmd)
}

func applyAnalyzeFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("logs") {
		cfg.Analysis.LogDir = analyzeFlags.logDir
	}
	if f.Changed("output") {
		cfg.Analysis.OutputDir = analyzeFlags.output
	}
	if f.Changed("run") {
		cfg.Analysis.RunID = analyzeFlags.runID
	}
	if f.Changed("servers") {
		cfg.Analysis.Servers = analyzeFlags.servers
	}
	if f.Changed("bins") {
		cfg.Analysis.Bins = analyzeFlags.bins
	}
	if f.Changed("format") {
		cfg.Analysis.Formats = analyzeFlags.formats
	}
	if f.Changed("dist") {
		cfg.Analysis.Distributions = analyzeFlags.dists
	}
	return cfg.Analysis.Validate()
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyAnalyzeFlags(cmd, cfg); err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	rep, files, err := svc.Analyze(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if rep.RunID != "" {
		fmt.Fprintf(out, "run %s\n", rep.RunID)
	}
	for _, r := range rep.Simulations {
		printMetrics(out, r)
		if analyzeFlags.ascii {
			for _, name := range analysis.SampleNames() {
				fmt.Fprint(out, export.ASCIIHistogram(r.Samples(name), cfg.Analysis.Bins, export.Title(name)))
			}
		}
	}
	for _, f := range files {
		fmt.Fprintf(out, "wrote %s\n", f)
	}
	return nil
}

func printMetrics(w io.Writer, r analysis.SimulationResult) {
	m := r.Metrics
	fmt.Fprintf(w, "%s\n", m.Simulation)
	fmt.Fprintf(w, "  requests=%d starts=%d pairs=%d servers=%d\n", m.Requests, m.Starts, m.Pairs, m.Servers)
	fmt.Fprintf(w, "  lambda=%.3f/h mu=%.3f/h utilization=%.3f p_wait=%.3f\n", m.LambdaPerHour, m.MuPerHour, m.Utilization, m.Queue.PWait)
	fmt.Fprintf(w, "  mean_wait=%.1fmin predicted_wait=%.1fmin mean_charging=%.1fmin dispersion=%.2f\n",
		m.MeanWait, m.PredictedWait, m.MeanCharging, m.DispersionIndex)
	for _, name := range analysis.SampleNames() {
		fr, ok := r.Fits[name]
		if !ok {
			continue
		}
		if best, ok := fr.Best(); ok {
			fmt.Fprintf(w, "  %-15s best=%s aic=%.1f ks=%.3f\n", name, best.Distribution, best.AIC, best.KS)
		} else {
			fmt.Fprintf(w, "  %-15s no fit\n", name)
		}
	}
	if math.IsInf(m.Queue.Wq, 1) {
		fmt.Fprintln(w, "  queue is unstable (utilization >= 1)")
	}
}
