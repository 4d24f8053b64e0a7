// Package sim contains the scenario-driven stepping engine: it drives a
// digital twin through a driving scenario in fixed time increments with
// periodic telemetry logging and a post-run summary.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/tbrossard/evtwin/core/logger"
	"github.com/tbrossard/evtwin/core/metrics"
	"github.com/tbrossard/evtwin/core/model"
	"github.com/tbrossard/evtwin/core/scenario"
	"github.com/tbrossard/evtwin/core/twin"
)

const defaultLogInterval = 10

// Engine steps one DigitalTwin through scenarios from a registry. The
// stepping loop is single-threaded and synchronous: one step fully completes
// before the next begins.
type Engine struct {
	twin *twin.DigitalTwin
	reg  *scenario.Registry
	dt   float64

	log      logger.Logger
	sink     metrics.Sink
	cadence  time.Duration
	observer func(model.TelemetrySnapshot)
	override func(scenario.ControlInput) scenario.ControlInput
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithSink sets the metrics sink receiving logged snapshots and run results.
func WithSink(s metrics.Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithCadence paces the loop at one step per tick. Zero runs flat out. The
// live streaming session uses a 100 ms cadence to step and publish at 10 Hz.
func WithCadence(d time.Duration) Option {
	return func(e *Engine) { e.cadence = d }
}

// WithObserver invokes fn with a fresh snapshot after every step, regardless
// of the log interval.
func WithObserver(fn func(model.TelemetrySnapshot)) Option {
	return func(e *Engine) { e.observer = fn }
}

// WithControlOverride rewrites the scenario's control inputs before each
// step, e.g. for a manual throttle override during a live session.
func WithControlOverride(fn func(scenario.ControlInput) scenario.ControlInput) Option {
	return func(e *Engine) { e.override = fn }
}

// New creates an engine around a freshly built twin.
func New(tw *twin.DigitalTwin, reg *scenario.Registry, dt float64, opts ...Option) (*Engine, error) {
	if tw == nil {
		return nil, fmt.Errorf("engine: twin is required")
	}
	if reg == nil {
		return nil, fmt.Errorf("engine: scenario registry is required")
	}
	if dt <= 0 {
		return nil, fmt.Errorf("engine: time step must be positive, got %v", dt)
	}
	e := &Engine{twin: tw, reg: reg, dt: dt, log: logger.NopLogger{}, sink: metrics.NopSink{}}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Twin returns the engine's digital twin, e.g. for exporting its log.
func (e *Engine) Twin() *twin.DigitalTwin { return e.twin }

// RunScenario resolves the named scenario and iterates floor(duration/dt)
// fixed steps, logging telemetry every logInterval steps. Unknown names fail
// before the first step. Cancellation is honored at step boundaries only;
// a canceled run still yields the summary of the steps executed so far,
// together with the context error.
func (e *Engine) RunScenario(ctx context.Context, name string, logInterval int) (Summary, error) {
	sc, err := e.reg.Get(name)
	if err != nil {
		return Summary{}, err
	}
	if logInterval <= 0 {
		logInterval = defaultLogInterval
	}

	steps := int(sc.DurationS / e.dt)
	e.log.Infof("scenario %s: %.0fs, %d steps of %.3fs", sc.Name, sc.DurationS, steps, e.dt)

	var ticker *time.Ticker
	if e.cadence > 0 {
		ticker = time.NewTicker(e.cadence)
		defer ticker.Stop()
	}

	start := time.Now()
	var runErr error
	logCounter := 0
	executed := 0

loop:
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break loop
		default:
		}
		if ticker != nil {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				runErr = ctx.Err()
				break loop
			}
		}

		in := sc.Inputs(float64(i) * e.dt)
		if e.override != nil {
			in = e.override(in)
		}
		e.twin.Step(in.ThrottlePct, in.BrakePct, e.dt)
		executed++

		logCounter++
		if logCounter >= logInterval {
			snap := e.twin.LogTelemetry()
			if err := e.sink.RecordSnapshot(snap); err != nil {
				e.log.Warnf("record snapshot: %v", err)
			}
			logCounter = 0
		}
		if e.observer != nil {
			e.observer(e.twin.Telemetry())
		}
		if i%100 == 0 {
			snap := e.twin.Telemetry()
			e.log.Debugw("progress", map[string]any{
				"step":         i,
				"speed_kmh":    snap.Vehicle.SpeedKmh,
				"soc_percent":  snap.Battery.SoCPercent,
				"motor_temp_c": snap.Motor.TemperatureC,
			})
		}
	}

	summary, ok := e.Summarize()
	if ok {
		res := metrics.RunResult{
			RunID:              e.twin.RunID,
			Scenario:           sc.Name,
			Steps:              executed,
			Snapshots:          summary.Snapshots,
			DistanceKm:         summary.DistanceKm,
			EnergyKWh:          summary.EnergyKWh,
			EfficiencyKmPerKWh: summary.EfficiencyKmPerKWh,
			FinalSoCPercent:    summary.FinalSoCPercent,
			MaxSpeedKmh:        summary.MaxSpeedKmh,
			MotorHealthScore:   summary.MotorHealthScore,
			WallTime:           time.Since(start),
		}
		if err := e.sink.RecordRun(res); err != nil {
			e.log.Warnf("record run: %v", err)
		}
		e.log.Infof("scenario %s complete: %.2f km, %.2f kWh, %.2f km/kWh, final SOC %.1f%%, max %.1f km/h",
			sc.Name, summary.DistanceKm, summary.EnergyKWh, summary.EfficiencyKmPerKWh,
			summary.FinalSoCPercent, summary.MaxSpeedKmh)
	}
	return summary, runErr
}
