package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/depotsim/app"
	"github.com/kilianp07/depotsim/infra/logger"
)

var serveFlags struct {
	addr     string
	simulate bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve /metrics and the simulation API over the log store",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.addr, "addr", "", "listen address")
	f.BoolVar(&serveFlags.simulate, "simulate", false, "run the configured experiment before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveFlags.addr
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
	if serveFlags.simulate {
		rep, err := svc.Simulate(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d iteration(s), %d failed\n", rep.RunID, len(rep.Iterations), rep.Failed())
	}
	return svc.Serve(ctx)
}
