// Package app owns the live simulation session and the service wiring.
// The session object replaces any shared global state: each run gets a
// freshly built DigitalTwin, and at most one runner is active at a time.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tbrossard/evtwin/core/logger"
	"github.com/tbrossard/evtwin/core/metrics"
	"github.com/tbrossard/evtwin/core/model"
	"github.com/tbrossard/evtwin/core/scenario"
	"github.com/tbrossard/evtwin/core/sim"
	"github.com/tbrossard/evtwin/core/twin"
	"github.com/tbrossard/evtwin/internal/eventbus"
)

// ErrSimulationAlreadyRunning is returned when a run is started against a
// session that already has an active runner. The existing run is unaffected.
var ErrSimulationAlreadyRunning = errors.New("simulation already running")

// defaultCadence paces live runs at one step per tick, i.e. 10 Hz.
const defaultCadence = 100 * time.Millisecond

// RunResult is delivered to the completion callback after a run finishes,
// whether it ran to completion or was stopped.
type RunResult struct {
	RunID      string
	Scenario   string
	ExportPath string
	Summary    sim.Summary
	Stopped    bool
}

// SessionConfig parameterizes live runs.
type SessionConfig struct {
	TimeStepS   float64
	LogInterval int
	Cadence     time.Duration
	OutputDir   string
	Seed        uint64
}

// Session runs scenarios against freshly built twins in a background
// goroutine, publishing every snapshot on an internal bus. Stop requests
// take effect at step boundaries only, never mid-step.
type Session struct {
	cfg     SessionConfig
	twinCfg twin.Config
	reg     *scenario.Registry
	bus     *eventbus.TypedBus[model.TelemetrySnapshot]
	log     logger.Logger
	sink    metrics.Sink

	onComplete func(RunResult)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc

	ctrlMu   sync.Mutex
	throttle float64 // manual override percentage, negative when inactive
}

// NewSession creates an idle session.
func NewSession(twinCfg twin.Config, reg *scenario.Registry, cfg SessionConfig, log logger.Logger, sink metrics.Sink) *Session {
	if cfg.TimeStepS <= 0 {
		cfg.TimeStepS = 0.1
	}
	if cfg.LogInterval <= 0 {
		cfg.LogInterval = 10
	}
	if cfg.Cadence <= 0 {
		cfg.Cadence = defaultCadence
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Session{
		cfg:      cfg,
		twinCfg:  twinCfg,
		reg:      reg,
		bus:      eventbus.NewTyped[model.TelemetrySnapshot](),
		log:      log,
		sink:     sink,
		throttle: -1,
	}
}

// OnComplete registers the completion callback. Must be set before Start.
func (s *Session) OnComplete(fn func(RunResult)) {
	s.onComplete = fn
}

// Start launches the named scenario on a fresh twin and returns its run ID.
// It fails with ErrSimulationAlreadyRunning while a run is active and with
// scenario.ErrUnknownScenario before any step executes.
func (s *Session) Start(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return "", ErrSimulationAlreadyRunning
	}
	sc, err := s.reg.Get(name)
	if err != nil {
		return "", err
	}

	var topts []twin.Option
	if s.cfg.Seed != 0 {
		topts = append(topts, twin.WithSeed(s.cfg.Seed))
	}
	tw, err := twin.New(s.twinCfg, topts...)
	if err != nil {
		return "", err
	}
	eng, err := sim.New(tw, s.reg, s.cfg.TimeStepS,
		sim.WithLogger(s.log),
		sim.WithSink(s.sink),
		sim.WithCadence(s.cfg.Cadence),
		sim.WithObserver(s.bus.Publish),
		sim.WithControlOverride(s.applyOverride),
	)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	go s.run(ctx, eng, sc.Name)
	return tw.RunID, nil
}

// Stop requests cancellation of the active run, if any. The runner observes
// it before its next step.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Running reports whether a run is active.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Subscribe returns a channel receiving every published snapshot.
func (s *Session) Subscribe() <-chan model.TelemetrySnapshot {
	return s.bus.Subscribe()
}

// Unsubscribe releases a subscription channel.
func (s *Session) Unsubscribe(sub <-chan model.TelemetrySnapshot) {
	s.bus.Unsubscribe(sub)
}

// SetThrottle overrides the scenario's throttle demand until cleared or the
// run ends. Values are clamped by the twin.
func (s *Session) SetThrottle(pct float64) {
	s.ctrlMu.Lock()
	s.throttle = pct
	s.ctrlMu.Unlock()
}

// ClearThrottle restores scenario control.
func (s *Session) ClearThrottle() {
	s.ctrlMu.Lock()
	s.throttle = -1
	s.ctrlMu.Unlock()
}

// Close stops any active run and closes the snapshot bus.
func (s *Session) Close() {
	s.Stop()
	s.bus.Close()
}

func (s *Session) applyOverride(in scenario.ControlInput) scenario.ControlInput {
	s.ctrlMu.Lock()
	t := s.throttle
	s.ctrlMu.Unlock()
	if t >= 0 {
		in.ThrottlePct = t
	}
	return in
}

func (s *Session) run(ctx context.Context, eng *sim.Engine, name string) {
	summary, err := eng.RunScenario(ctx, name, s.cfg.LogInterval)
	stopped := errors.Is(err, context.Canceled)
	if err != nil && !stopped {
		s.log.Errorf("run %s: %v", name, err)
	}

	exportPath, expErr := s.export(eng.Twin(), name)
	if expErr != nil {
		s.log.Errorf("export telemetry: %v", expErr)
	}

	s.mu.Lock()
	s.running = false
	s.cancel = nil
	s.mu.Unlock()
	s.ClearThrottle()

	if s.onComplete != nil {
		s.onComplete(RunResult{
			RunID:      eng.Twin().RunID,
			Scenario:   name,
			ExportPath: exportPath,
			Summary:    summary,
			Stopped:    stopped,
		})
	}
}

func (s *Session) export(tw *twin.DigitalTwin, name string) (string, error) {
	if s.cfg.OutputDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.cfg.OutputDir, fmt.Sprintf("telemetry_%s_%s.json", name, tw.RunID[:8]))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := tw.ExportTelemetry(f); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}
