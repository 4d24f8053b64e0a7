package twin

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
)

func testDynamics() *VehicleDynamics {
	cfg := VehicleConfig{MassKg: 1800, DragCoefficient: 0.28, FrontalAreaM2: 2.3, RollingResistance: 0.015}
	return NewVehicleDynamics(cfg, rand.NewSource(1), nil)
}

func TestDynamicsStaysAtRestWithoutDrive(t *testing.T) {
	d := testDynamics()

	// Rolling resistance must not drag a parked vehicle backwards.
	d.Update(0, 0.1, 10)
	if d.VelocityMPS != 0 {
		t.Fatalf("expected vehicle to stay at rest, got %v m/s", d.VelocityMPS)
	}
	if d.PositionM != 0 {
		t.Fatalf("expected position unchanged, got %v m", d.PositionM)
	}
}

func TestDynamicsAcceleratesUnderTorque(t *testing.T) {
	d := testDynamics()

	d.Update(310, 0.1, 10)
	if d.VelocityMPS <= 0 {
		t.Fatalf("expected forward motion, got %v m/s", d.VelocityMPS)
	}
	if d.AccelerationMPS2 <= 0 {
		t.Fatalf("expected positive acceleration, got %v", d.AccelerationMPS2)
	}
	if d.PositionM <= 0 {
		t.Fatalf("expected position advance, got %v m", d.PositionM)
	}
}

func TestDynamicsBrakeForceCappedAtMaxDecel(t *testing.T) {
	d := testDynamics()

	d.ApplyBrakes(100)
	want := 1800 * 9.81 * 0.8
	if math.Abs(d.BrakeForceN-want) > 1e-9 {
		t.Fatalf("expected brake force %v got %v", want, d.BrakeForceN)
	}

	d.ApplyBrakes(250)
	if math.Abs(d.BrakeForceN-want) > 1e-9 {
		t.Fatalf("expected overshoot clamped to %v, got %v", want, d.BrakeForceN)
	}

	d.ApplyBrakes(-10)
	if d.BrakeForceN != 0 {
		t.Fatalf("expected negative pedal clamped to 0, got %v", d.BrakeForceN)
	}
}

func TestDynamicsVelocityNeverNegative(t *testing.T) {
	d := testDynamics()
	d.VelocityMPS = 1

	d.ApplyBrakes(100)
	d.Update(0, 1.0, 10)
	if d.VelocityMPS != 0 {
		t.Fatalf("expected full brake to stop the vehicle, got %v m/s", d.VelocityMPS)
	}
}

func TestDynamicsPositionMonotonic(t *testing.T) {
	d := testDynamics()

	prev := 0.0
	for i := 0; i < 100; i++ {
		torque := 310.0
		if i > 50 {
			torque = 0
			d.ApplyBrakes(100)
		}
		d.Update(torque, 0.1, 10)
		if d.PositionM < prev {
			t.Fatalf("position regressed at step %d: %v < %v", i, d.PositionM, prev)
		}
		prev = d.PositionM
	}
}
