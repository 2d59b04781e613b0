package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/depotsim/config"
	"github.com/kilianp07/depotsim/infra/logger"
)

var (
	cfgPath  string
	preset   string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "depotsim",
	Short: "EV depot charging simulator and queueing analysis",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logLevel != "" {
			logger.SetLevel(logLevel)
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVarP(&preset, "preset", "p", "", "depot preset seeding the simulation section")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath, preset)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel == "" {
		logger.SetLevel(cfg.Log.Level)
	}
	return cfg, nil
}
