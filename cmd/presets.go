package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/depotsim/core/depot"
)

var presetsCmd = &cobra.Command{
	Use:   "presets [name]",
	Short: "List depot presets or print one as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			for _, n := range depot.PresetNames() {
				fmt.Fprintln(out, n)
			}
			return nil
		}
		c, err := depot.Preset(args[0])
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}
