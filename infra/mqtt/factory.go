package mqtt

import (
	"github.com/kilianp07/depotsim/core/factory"
	coremetrics "github.com/kilianp07/depotsim/core/metrics"
)

func init() {
	_ = coremetrics.RegisterMetricsSink("mqtt", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		c.SetDefaults()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		cli, err := NewPahoClient(c)
		if err != nil {
			return nil, err
		}
		return NewEventPublisher(cli, c.TopicPrefix), nil
	})
}
