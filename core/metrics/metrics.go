// Package metrics defines the sink interface simulation components use to
// record observations. Concrete sinks (Prometheus, InfluxDB, multi) live in
// infra/metrics.
package metrics

import (
	"time"

	"github.com/tbrossard/evtwin/core/model"
)

// RunResult summarizes one completed simulation run for recording.
type RunResult struct {
	RunID              string
	Scenario           string
	Steps              int
	Snapshots          int
	DistanceKm         float64
	EnergyKWh          float64
	EfficiencyKmPerKWh float64
	FinalSoCPercent    float64
	MaxSpeedKmh        float64
	MotorHealthScore   float64
	WallTime           time.Duration
}

// Sink records telemetry snapshots and run results.
type Sink interface {
	RecordSnapshot(model.TelemetrySnapshot) error
	RecordRun(RunResult) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) RecordSnapshot(model.TelemetrySnapshot) error { return nil }
func (NopSink) RecordRun(RunResult) error                    { return nil }
