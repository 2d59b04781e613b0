package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/depotsim/core/analysis"
)

var erlangFlags struct {
	lambda  float64
	mu      float64
	servers int
	target  float64
	limit   int
}

var erlangCmd = &cobra.Command{
	Use:   "erlang",
	Short: "Evaluate an M/M/c queue (Erlang C)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runErlang(cmd.OutOrStdout(), cmd.Flags().Changed("target"))
	},
}

func init() {
	f := erlangCmd.Flags()
	f.Float64Var(&erlangFlags.lambda, "lambda", 0, "arrival rate per hour")
	f.Float64Var(&erlangFlags.mu, "mu", 0, "service rate per server per hour")
	f.IntVarP(&erlangFlags.servers, "servers", "s", 1, "number of servers")
	f.Float64Var(&erlangFlags.target, "target", 0, "also size the depot for this P(wait)")
	f.IntVar(&erlangFlags.limit, "limit", 100, "largest server count tried with --target")
	_ = erlangCmd.MarkFlagRequired("lambda")
	_ = erlangCmd.MarkFlagRequired("mu")
	rootCmd.AddCommand(erlangCmd)
}

func runErlang(w io.Writer, sizing bool) error {
	m, err := analysis.MMc(erlangFlags.lambda, erlangFlags.mu, erlangFlags.servers)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "lambda=%.4f/h mu=%.4f/h servers=%d\n", m.Lambda, m.Mu, m.Servers)
	fmt.Fprintf(w, "offered load a=%.4f utilization rho=%.4f\n", m.OfferedLoad, m.Rho)
	if !m.Stable {
		fmt.Fprintln(w, "unstable: rho >= 1, the queue grows without bound")
	} else {
		fmt.Fprintf(w, "P(wait)=%.4f Lq=%.4f Wq=%.2fmin L=%.4f W=%.2fmin\n",
			m.PWait, m.Lq, m.Wq*60, m.L, m.W*60)
	}
	if sizing {
		c, err := analysis.ServersFor(m.Lambda, m.Mu, erlangFlags.target, erlangFlags.limit)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "servers for P(wait) <= %.3f: %d\n", erlangFlags.target, c)
	}
	return nil
}
