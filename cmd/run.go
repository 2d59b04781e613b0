package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/depotsim/app"
	"github.com/kilianp07/depotsim/config"
	"github.com/kilianp07/depotsim/infra/logger"
)

var runFlags struct {
	iterations  int
	concurrency int
	days        int
	seed        uint64
	out         string
	backend     string
	failFast    bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate the depot and store the event logs",
	RunE:  runSimulation,
}

func init() {
	f := runCmd.Flags()
	f.IntVarP(&runFlags.iterations, "iterations", "n", 0, "number of independent simulations")
	f.IntVar(&runFlags.concurrency, "concurrency", 0, "simulations run at once")
	f.IntVar(&runFlags.days, "days", 0, "simulated days per iteration")
	f.Uint64Var(&runFlags.seed, "seed", 0, "seed of the first iteration")
	f.StringVarP(&runFlags.out, "out", "o", "", "log store path")
	f.StringVar(&runFlags.backend, "store", "", "log store backend (json, jsonl, rotating, sqlite)")
	f.BoolVar(&runFlags.failFast, "fail-fast", false, "stop after the first failed iteration")
	rootCmd.AddCommand(runCmd)
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("iterations") {
		cfg.Experiment.Iterations = runFlags.iterations
	}
	if f.Changed("concurrency") {
		cfg.Experiment.Concurrency = runFlags.concurrency
	}
	if f.Changed("days") {
		cfg.Simulation.Days = runFlags.days
	}
	if f.Changed("seed") {
		cfg.Simulation.Seed = runFlags.seed
	}
	if f.Changed("store") {
		cfg.Store.Backend = runFlags.backend
		if !f.Changed("out") {
			cfg.Store.Path = ""
		}
	}
	if f.Changed("out") {
		cfg.Store.Path = runFlags.out
	}
	if f.Changed("fail-fast") {
		cfg.Experiment.FailFast = runFlags.failFast
	}
	cfg.SetDefaults()
	return cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
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

	rep, err := svc.Simulate(ctx)
	out := cmd.OutOrStdout()
	for _, it := range rep.Iterations {
		if it.Err != nil {
			fmt.Fprintf(out, "%-20s seed=%-6d FAILED: %v\n", it.Simulation, it.Seed, it.Err)
			continue
		}
		s := it.Summary
		fmt.Fprintf(out, "%-20s seed=%-6d events=%-6d deliveries=%-5d sessions=%-5d mean_wait=%.1fmin max_wait=%.1fmin energy=%.1fkWh\n",
			it.Simulation, it.Seed, s.Events, s.Deliveries, s.Sessions, s.MeanWait, s.MaxWait, s.EnergyKWh)
	}
	fmt.Fprintf(out, "run %s: %d iteration(s), %d failed, logs in %s\n", rep.RunID, len(rep.Iterations), rep.Failed(), cfg.Store.Path)
	if err != nil {
		return err
	}
	if n := rep.Failed(); n > 0 {
		return fmt.Errorf("%d iteration(s) failed", n)
	}
	return nil
}
