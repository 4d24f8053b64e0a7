package app

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tbrossard/evtwin/core/scenario"
	"github.com/tbrossard/evtwin/core/twin"
)

func testTwinConfig() twin.Config {
	return twin.Config{
		Powertrain: twin.PowertrainConfig{MaxPowerKW: 150, MaxTorqueNm: 310, Efficiency: 0.95},
		Battery:    twin.BatteryConfig{CapacityKWh: 75, NominalVoltage: 400, InitialSoC: 0.8},
		Vehicle:    twin.VehicleConfig{MassKg: 1800, DragCoefficient: 0.28, FrontalAreaM2: 2.3, RollingResistance: 0.015},
	}
}

func testSessionRegistry(t *testing.T, durationS float64) *scenario.Registry {
	t.Helper()
	reg := scenario.NewRegistry()
	reg.MustRegister(scenario.Scenario{
		Name:      "cruise",
		DurationS: durationS,
		Inputs:    func(float64) scenario.ControlInput { return scenario.ControlInput{ThrottlePct: 50} },
	})
	return reg
}

func newTestSession(t *testing.T, durationS float64) *Session {
	t.Helper()
	return NewSession(testTwinConfig(), testSessionRegistry(t, durationS), SessionConfig{
		TimeStepS:   0.1,
		LogInterval: 1,
		Cadence:     time.Millisecond,
		OutputDir:   t.TempDir(),
		Seed:        1,
	}, nil, nil)
}

func waitForResult(t *testing.T, done <-chan RunResult) RunResult {
	t.Helper()
	select {
	case res := <-done:
		return res
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for run completion")
		return RunResult{}
	}
}

func TestSessionRunCompletes(t *testing.T) {
	s := newTestSession(t, 1) // 10 steps
	defer s.Close()

	done := make(chan RunResult, 1)
	s.OnComplete(func(res RunResult) { done <- res })

	runID, err := s.Start("cruise")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if runID == "" {
		t.Fatal("expected a run id")
	}

	res := waitForResult(t, done)
	if res.Stopped {
		t.Fatal("expected a completed run, got stopped")
	}
	if res.RunID != runID {
		t.Fatalf("expected run id %q, got %q", runID, res.RunID)
	}
	if res.Summary.Snapshots != 10 {
		t.Fatalf("expected 10 snapshots, got %d", res.Summary.Snapshots)
	}
	if want := filepath.Join(filepath.Dir(res.ExportPath), "telemetry_cruise_"+runID[:8]+".json"); res.ExportPath != want {
		t.Fatalf("unexpected export path %q", res.ExportPath)
	}
	if s.Running() {
		t.Fatal("session still marked running after completion")
	}
}

func TestSessionRejectsConcurrentRuns(t *testing.T) {
	s := newTestSession(t, 60)
	defer s.Close()

	done := make(chan RunResult, 1)
	s.OnComplete(func(res RunResult) { done <- res })

	if _, err := s.Start("cruise"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.Start("cruise"); !errors.Is(err, ErrSimulationAlreadyRunning) {
		t.Fatalf("expected ErrSimulationAlreadyRunning, got %v", err)
	}

	s.Stop()
	waitForResult(t, done)

	// Once the runner has exited a new run is accepted.
	if _, err := s.Start("cruise"); err != nil {
		t.Fatalf("restart after stop: %v", err)
	}
	s.Stop()
	waitForResult(t, done)
}

func TestSessionStartUnknownScenario(t *testing.T) {
	s := newTestSession(t, 1)
	defer s.Close()

	_, err := s.Start("offroad")
	if !errors.Is(err, scenario.ErrUnknownScenario) {
		t.Fatalf("expected ErrUnknownScenario, got %v", err)
	}
	if s.Running() {
		t.Fatal("failed start must not mark the session running")
	}
}

func TestSessionStopDeliversPartialResult(t *testing.T) {
	s := newTestSession(t, 60)
	defer s.Close()

	done := make(chan RunResult, 1)
	s.OnComplete(func(res RunResult) { done <- res })

	sub := s.Subscribe()
	if _, err := s.Start("cruise"); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Wait for at least one live snapshot before stopping.
	select {
	case <-sub:
	case <-time.After(10 * time.Second):
		t.Fatal("no snapshot published")
	}
	s.Stop()

	res := waitForResult(t, done)
	if !res.Stopped {
		t.Fatal("expected a stopped run")
	}
	s.Unsubscribe(sub)
}

func TestSessionThrottleOverride(t *testing.T) {
	s := newTestSession(t, 2) // 20 steps
	defer s.Close()

	done := make(chan RunResult, 1)
	s.OnComplete(func(res RunResult) { done <- res })

	s.SetThrottle(0)
	if _, err := s.Start("cruise"); err != nil {
		t.Fatalf("start: %v", err)
	}
	res := waitForResult(t, done)

	// With the throttle forced to zero the vehicle never moves.
	if res.Summary.MaxSpeedKmh != 0 {
		t.Fatalf("expected stationary vehicle, got max speed %v", res.Summary.MaxSpeedKmh)
	}
}
