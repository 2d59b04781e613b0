package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/depotsim/core/factory"
	coremetrics "github.com/kilianp07/depotsim/core/metrics"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		// The listen address lives in metrics.prometheus_addr; PromSink only registers collectors.
		return NewPromSinkWithRegistry(coremetrics.Config{}, prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
			Epoch  string `json:"epoch"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		sink := NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket)
		if is, ok := sink.(*InfluxSink); ok && c.Epoch != "" {
			t, err := time.Parse(time.RFC3339, c.Epoch)
			if err != nil {
				return nil, err
			}
			is.WithEpoch(t)
		}
		return sink, nil
	})
}
