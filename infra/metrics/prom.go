package metrics

import (
	coremetrics "github.com/kwhlab/battsim/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records simulation runs in Prometheus metrics.
type PromSink struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cost     *prometheus.GaugeVec
}

// NewPromSink registers simulation metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "simulation_runs_total",
		Help: "Total number of simulation requests",
	}, []string{"model", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "simulation_duration_seconds",
		Help:    "Wall-clock time of one simulation including the LP solve",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})
	cost := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "simulation_last_cost_eur",
		Help: "Total daily cost of the most recent successful simulation",
	}, []string{"model"})

	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(cost); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			cost = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{runs: runs, duration: duration, cost: cost}, nil
}

// RecordSimulation updates the counters for one simulation request.
func (s *PromSink) RecordSimulation(rec coremetrics.SimulationRecord) error {
	s.runs.WithLabelValues(rec.Model, rec.Outcome).Inc()
	s.duration.WithLabelValues(rec.Model).Observe(rec.DurationSeconds)
	if rec.Outcome == "ok" {
		s.cost.WithLabelValues(rec.Model).Set(rec.TotalCostEur)
	}
	return nil
}

// Close is a no-op; the registry owns the collectors.
func (s *PromSink) Close() {}
