package metrics

// SimulationRecord summarizes one completed (or failed) simulation
// request.
type SimulationRecord struct {
	ID              string
	Model           string
	DurationSeconds float64
	TotalCostEur    float64
	TotalGridKWh    float64
	Outcome         string // "ok", "validation", "infeasible" or "error"
}

// MetricsSink receives simulation summaries. Implementations must be safe
// for concurrent use.
type MetricsSink interface {
	RecordSimulation(rec SimulationRecord) error
	Close()
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordSimulation(SimulationRecord) error { return nil }
func (NopSink) Close()                                  {}
