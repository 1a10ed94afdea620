package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	simulateapi "github.com/kwhlab/battsim/api/simulate"
	"github.com/kwhlab/battsim/config"
	coremetrics "github.com/kwhlab/battsim/core/metrics"
	"github.com/kwhlab/battsim/infra/logger"
	"github.com/kwhlab/battsim/infra/metrics"
	"github.com/kwhlab/battsim/infra/mqtt"
)

// Service wires the simulation API, metrics sinks and the optional MQTT
// publisher together.
type Service struct {
	cfg  *config.Config
	log  logger.Logger
	sink coremetrics.MetricsSink
	pub  mqtt.Publisher
	srv  *http.Server
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logger.Configure(cfg.Logging.Level, cfg.Logging.Format)
	logg := logger.New("service")

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.MetricsSink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	var pub mqtt.Publisher
	if cfg.MQTT.Enabled {
		p, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		pub = p
	}

	solveTimeout := time.Duration(cfg.Solver.TimeoutMillis) * time.Millisecond
	handler := simulateapi.NewHandler(logger.New("api"), sink, pub, nil, solveTimeout, cfg.Solver.DefaultPriceSpread)

	mux := http.NewServeMux()
	mux.Handle("/api/simulate", handler)
	mux.Handle("/api/example", simulateapi.NewExampleHandler())
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux}

	return &Service{cfg: cfg, log: logg, sink: sink, pub: pub, srv: srv}, nil
}

// Run starts the HTTP servers and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, ":"+s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("simulation API listening on %s", s.cfg.Server.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.sink.Close()
	if s.pub != nil {
		s.pub.Close()
	}
	return nil
}
