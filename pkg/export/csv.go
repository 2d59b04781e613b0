package export

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/kilianp07/depotsim/core/analysis"
)

var summaryHeader = []string{
	"simulation", "requests", "starts", "pairs",
	"lambda_per_hour", "mu_per_hour", "utilization", "servers",
	"rho", "stable", "p_wait", "lq", "wq_minutes",
	"mean_wait", "mean_charging", "mean_queue_length",
	"dispersion_index", "arrival_trend",
}

// WriteSummaryCSV writes one row of queueing metrics per simulation.
func WriteSummaryCSV(w io.Writer, rep analysis.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return err
	}
	for _, r := range rep.Simulations {
		m := r.Metrics
		rec := []string{
			m.Simulation,
			strconv.Itoa(m.Requests),
			strconv.Itoa(m.Starts),
			strconv.Itoa(m.Pairs),
			formatFloat(m.LambdaPerHour),
			formatFloat(m.MuPerHour),
			formatFloat(m.Utilization),
			strconv.Itoa(m.Servers),
			formatFloat(m.Queue.Rho),
			strconv.FormatBool(m.Queue.Stable),
			formatFloat(m.Queue.PWait),
			formatFloat(m.Queue.Lq),
			formatFloat(m.PredictedWait),
			formatFloat(m.MeanWait),
			formatFloat(m.MeanCharging),
			formatFloat(m.MeanQueueLength),
			formatFloat(m.DispersionIndex),
			formatFloat(m.ArrivalTrend),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFitsCSV writes every fitted candidate, best first within a sample.
func WriteFitsCSV(w io.Writer, rep analysis.Report) error {
	cw := csv.NewWriter(w)
	header := []string{"simulation", "sample", "distribution", "params", "n", "log_likelihood", "aic", "ks", "best", "error"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rep.Simulations {
		for _, sample := range analysis.SampleNames() {
			fr, ok := r.Fits[sample]
			if !ok {
				continue
			}
			for i, f := range fr.Results {
				errStr := ""
				if f.Err != nil {
					errStr = f.Err.Error()
				}
				rec := []string{
					r.Metrics.Simulation,
					sample,
					string(f.Distribution),
					formatParams(f.Params),
					strconv.Itoa(f.N),
					formatFloat(f.LogLikelihood),
					formatFloat(f.AIC),
					formatFloat(f.KS),
					strconv.FormatBool(i == 0 && f.OK()),
					errStr,
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatParams(p map[string]float64) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + formatFloat(p[k])
	}
	return strings.Join(parts, ";")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
