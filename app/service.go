package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/kilianp07/depotsim/api/events"
	"github.com/kilianp07/depotsim/api/simulations"
	"github.com/kilianp07/depotsim/config"
	"github.com/kilianp07/depotsim/core/analysis"
	"github.com/kilianp07/depotsim/core/experiment"
	coremetrics "github.com/kilianp07/depotsim/core/metrics"
	coremon "github.com/kilianp07/depotsim/core/monitoring"
	coremqtt "github.com/kilianp07/depotsim/core/mqtt"
	"github.com/kilianp07/depotsim/core/store"
	"github.com/kilianp07/depotsim/infra/logger"
	"github.com/kilianp07/depotsim/infra/metrics"
	"github.com/kilianp07/depotsim/infra/monitoring"
	"github.com/kilianp07/depotsim/infra/mqtt"
	"github.com/kilianp07/depotsim/internal/eventbus"
	"github.com/kilianp07/depotsim/pkg/export"
)

// Version is stamped into run manifests.
var Version = "dev"

var newMQTTPublisher = func(cfg mqtt.Config) (coremqtt.Publisher, error) {
	cli, err := mqtt.NewPahoClient(cfg)
	if err != nil {
		return nil, err
	}
	return cli, nil
}

// Service wires the log store, metrics sinks, event bus and monitoring
// around the experiment runner and the analysis pipeline.
type Service struct {
	cfg     *config.Config
	Store   store.LogStore
	Sink    coremetrics.MetricsSink
	bus     *eventbus.Bus
	monitor coremon.Monitor
	log     logger.Logger

	stop      context.CancelFunc
	collected <-chan struct{}
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	st, err := store.Open(cfg.Store.Options())
	if err != nil {
		return nil, fmt.Errorf("log store: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	if cfg.MQTT.Broker != "" {
		pub, err := newMQTTPublisher(cfg.MQTT)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("mqtt: %w", err)
		}
		sink = coremetrics.NewMultiSink(sink, mqtt.NewEventPublisher(pub, cfg.MQTT.TopicPrefix))
		logg.Infof("streaming events to %s", cfg.MQTT.Broker)
	}

	bus := eventbus.New()
	ctx, cancel := context.WithCancel(context.Background())
	svc := &Service{
		cfg:     cfg,
		Store:   st,
		Sink:    sink,
		bus:     bus,
		monitor: mon,
		log:     logg,
		stop:    cancel,
	}
	svc.collected = metrics.StartEventCollector(ctx, bus, sink, logger.New("collector"))
	return svc, nil
}

// ManifestDir is the directory receiving the run manifest.
func (s *Service) ManifestDir() string {
	if s.cfg.Store.Backend == store.BackendJSON {
		return s.cfg.Store.Path
	}
	return filepath.Dir(s.cfg.Store.Path)
}

// Simulate runs the configured experiment and writes its manifest.
func (s *Service) Simulate(ctx context.Context) (experiment.Report, error) {
	runner, err := experiment.NewRunner(s.cfg.Simulation, s.cfg.Experiment,
		experiment.WithStore(s.Store),
		experiment.WithSink(s.Sink),
		experiment.WithBus(s.bus),
		experiment.WithMonitor(s.monitor),
		experiment.WithLogger(logger.New("experiment")),
	)
	if err != nil {
		return experiment.Report{}, err
	}
	path, err := config.WriteManifest(s.ManifestDir(), config.Manifest{
		RunID:     runner.RunID(),
		CreatedAt: time.Now().UTC(),
		Version:   Version,
		Config:    *s.cfg,
	})
	if err != nil {
		return experiment.Report{}, fmt.Errorf("manifest: %w", err)
	}
	s.log.Infof("manifest written to %s", path)
	return runner.Run(ctx)
}

// Analyze reads the stored simulations, records their metrics in the sinks
// and writes the configured outputs. It returns the report and the files written.
func (s *Service) Analyze(ctx context.Context) (analysis.Report, []string, error) {
	src := s.Store
	if dir := s.cfg.Analysis.LogDir; dir != "" {
		js, err := store.NewJSONStore(dir)
		if err != nil {
			return analysis.Report{}, nil, err
		}
		src = js
	}
	dists, err := s.cfg.Analysis.DistributionList()
	if err != nil {
		return analysis.Report{}, nil, err
	}
	rep, err := analysis.Analyze(ctx, src, analysis.Options{
		RunID:         s.cfg.Analysis.RunID,
		Servers:       s.cfg.Analysis.Servers,
		Distributions: dists,
		Logger:        logger.New("analysis"),
	})
	if err != nil {
		return rep, nil, err
	}
	if rec, ok := s.Sink.(coremetrics.AnalysisRecorder); ok {
		for _, r := range rep.Simulations {
			if err := rec.RecordAnalysis(r.Metrics); err != nil {
				s.log.Warnf("record analysis %s: %v", r.Metrics.Simulation, err)
				coremon.CaptureException(err, map[string]string{"simulation": r.Metrics.Simulation})
			}
		}
	}
	files, err := export.WriteAll(rep, export.Options{
		Dir:     s.cfg.Analysis.OutputDir,
		Bins:    s.cfg.Analysis.Bins,
		Formats: s.cfg.Analysis.Formats,
	})
	return rep, files, err
}

// Handler exposes /metrics and the read-only API over the log store.
func (s *Service) Handler() http.Handler {
	token := s.cfg.Server.Token
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(nil))
	mux.Handle("/api/events", events.NewHandler(s.Store, token))
	mux.Handle("/api/simulations", simulations.NewListHandler(s.Store, token))
	mux.Handle("/api/simulations/", simulations.NewMetricsHandler(s.Store, token, analysis.MetricsOptions{Servers: s.cfg.Analysis.Servers}))
	return mux
}

// Serve listens on the server address until ctx is cancelled. A separate
// Prometheus listener starts when metrics.prometheus_addr is set.
func (s *Service) Serve(ctx context.Context) error {
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	srv := &http.Server{Addr: s.cfg.Server.Addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("server shutdown: %v", err)
		}
	}()
	s.log.Infof("listening on %s", s.cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close drains the event collector and releases the store and sinks.
func (s *Service) Close() error {
	s.bus.Close()
	<-s.collected
	s.stop()
	s.monitor.Flush(2 * time.Second)
	var errs []error
	if c, ok := s.Sink.(coremetrics.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sinks: %w", err))
		}
	}
	if err := s.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
