// Package twin implements the vehicle digital twin: three coupled physical
// subsystems (motor, battery, chassis) stepped forward in fixed time
// increments, producing an append-only telemetry log.
package twin

import (
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"

	"github.com/tbrossard/evtwin/core/model"
	"github.com/tbrossard/evtwin/pkg/export"
)

// Drivetrain and environment constants shared by the coupled models.
const (
	gearRatio     = 10.0
	wheelRadiusM  = 0.35
	airDensity    = 1.225
	gravity       = 9.81
	ambientTempC  = 25.0
	overheatTempC = 120.0
	maxBrakeG     = 0.8
	minVoltage    = 1e-6
)

// DigitalTwin exclusively owns one instance of each subsystem plus the
// accumulated simulation time and the telemetry log. A twin serves exactly
// one run; a new run gets a fresh twin.
type DigitalTwin struct {
	RunID    string
	Motor    *ElectricMotor
	Battery  *BatteryPack
	Dynamics *VehicleDynamics

	SimulationTime float64

	log []model.TelemetrySnapshot
	now func() time.Time
}

// Option customizes twin construction.
type Option func(*options)

type options struct {
	seed    uint64
	hasSeed bool
	now     func() time.Time
}

// WithSeed fixes the seed of the sensor-noise random source so observation
// jitter is reproducible. The physics trajectory is deterministic either way.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.hasSeed = true
	}
}

// WithClock injects the wall clock used for snapshot and sensor timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New validates the configuration and builds a fresh twin. Construction is
// the only place configuration errors can surface; Step always succeeds on
// a valid twin.
func New(cfg Config, opts ...Option) (*DigitalTwin, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.hasSeed {
		o.seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewSource(o.seed)
	return &DigitalTwin{
		RunID:    uuid.NewString(),
		Motor:    NewElectricMotor(cfg.Powertrain, src, o.now),
		Battery:  NewBatteryPack(cfg.Battery, src, o.now),
		Dynamics: NewVehicleDynamics(cfg.Vehicle, src, o.now),
		now:      o.now,
	}, nil
}

// Step executes one coupled simulation step of dt seconds. Throttle and
// brake percentages outside [0,100] are clamped so the stepping loop is
// total. Ordering is load-bearing: the motor must realize its power before
// the battery discharges it, and the chassis must integrate the realized
// (post-clamp) torque, not the requested one.
func (tw *DigitalTwin) Step(throttlePct, brakePct, dt float64) {
	throttle := clampPct(throttlePct)
	brake := clampPct(brakePct)

	requestedTorque := tw.Motor.MaxTorqueNm * throttle / 100

	// Invert the drivetrain kinematics: the motor's instantaneous speed
	// follows from the current vehicle velocity.
	rpm := tw.Dynamics.VelocityMPS / wheelRadiusM * gearRatio * 60 / (2 * math.Pi)

	tw.Motor.ApplyLoad(requestedTorque, rpm)

	// Discharge only; braking never returns energy to the pack.
	if tw.Motor.PowerKW > 0 {
		tw.Battery.Discharge(tw.Motor.PowerKW, dt/3600)
	}

	tw.Dynamics.ApplyBrakes(brake)
	tw.Dynamics.Update(tw.Motor.TorqueNm, dt, gearRatio)

	tw.Motor.RuntimeHours += dt / 3600
	tw.SimulationTime += dt
}

// Telemetry assembles a snapshot of all subsystem statuses. It is a pure
// read: repeated calls without an intervening Step return identical values
// apart from the wall-clock timestamp.
func (tw *DigitalTwin) Telemetry() model.TelemetrySnapshot {
	return model.TelemetrySnapshot{
		Timestamp:      tw.now().Format(time.RFC3339Nano),
		SimulationTime: model.Round2(tw.SimulationTime),
		Motor:          tw.Motor.Status(),
		Battery:        tw.Battery.Status(),
		Vehicle:        tw.Dynamics.Status(),
	}
}

// LogTelemetry appends the current snapshot to the telemetry log and returns
// it. Insertion order is chronological order.
func (tw *DigitalTwin) LogTelemetry() model.TelemetrySnapshot {
	snap := tw.Telemetry()
	tw.log = append(tw.log, snap)
	return snap
}

// Log returns a copy of the telemetry log.
func (tw *DigitalTwin) Log() []model.TelemetrySnapshot {
	out := make([]model.TelemetrySnapshot, len(tw.log))
	copy(out, tw.log)
	return out
}

// ExportTelemetry serializes the whole telemetry log to w as an ordered JSON
// array. An empty log exports as an empty array.
func (tw *DigitalTwin) ExportTelemetry(w io.Writer) error {
	return export.WriteJSON(w, tw.log)
}

func clampPct(v float64) float64 {
	return math.Min(math.Max(v, 0), 100)
}
