package metrics

import (
	"errors"

	coremetrics "github.com/kwhlab/battsim/core/metrics"
)

// MultiSink fans records out to several sinks.
type MultiSink struct {
	sinks []coremetrics.MetricsSink
}

// NewMultiSink combines the given sinks into one.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// RecordSimulation forwards the record to every sink and joins any errors.
func (m *MultiSink) RecordSimulation(rec coremetrics.SimulationRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordSimulation(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (m *MultiSink) Close() {
	for _, s := range m.sinks {
		s.Close()
	}
}
