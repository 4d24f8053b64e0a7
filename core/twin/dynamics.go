package twin

import (
	"time"

	"golang.org/x/exp/rand"

	"github.com/tbrossard/evtwin/core/model"
)

// VehicleDynamics models longitudinal chassis motion under drive, drag,
// rolling resistance and brake forces, integrated with explicit Euler.
type VehicleDynamics struct {
	MassKg            float64
	DragCoefficient   float64
	FrontalAreaM2     float64
	RollingResistance float64

	VelocityMPS      float64
	AccelerationMPS2 float64
	PositionM        float64
	BrakeForceN      float64

	SpeedSensor    *Sensor
	AccelSensor    *Sensor
	PositionSensor *Sensor
}

// NewVehicleDynamics creates a chassis model at rest.
func NewVehicleDynamics(cfg VehicleConfig, src rand.Source, now func() time.Time) *VehicleDynamics {
	return &VehicleDynamics{
		MassKg:            cfg.MassKg,
		DragCoefficient:   cfg.DragCoefficient,
		FrontalAreaM2:     cfg.FrontalAreaM2,
		RollingResistance: cfg.RollingResistance,
		SpeedSensor:       NewSensor("vehicle_speed", "speed", "wheel", "km/h", src, now),
		AccelSensor:       NewSensor("acceleration", "acceleration", "chassis", "m/s²", src, now),
		PositionSensor:    NewSensor("gps_position", "position", "roof", "m", src, now),
	}
}

// Update advances velocity and position by one time step. The velocity is
// clamped at zero, so position is monotonically non-decreasing.
func (d *VehicleDynamics) Update(motorTorqueNm, dt, gearRatio float64) {
	driveForceN := motorTorqueNm * gearRatio / wheelRadiusM
	dragForceN := 0.5 * airDensity * d.DragCoefficient * d.FrontalAreaM2 * d.VelocityMPS * d.VelocityMPS
	rollingForceN := d.RollingResistance * d.MassKg * gravity
	netForceN := driveForceN - dragForceN - rollingForceN - d.BrakeForceN

	d.AccelerationMPS2 = netForceN / d.MassKg
	d.VelocityMPS += d.AccelerationMPS2 * dt
	if d.VelocityMPS < 0 {
		d.VelocityMPS = 0
	}
	d.PositionM += d.VelocityMPS * dt

	d.SpeedSensor.Update(d.VelocityMPS * 3.6)
	d.AccelSensor.Update(d.AccelerationMPS2)
	d.PositionSensor.Update(d.PositionM)
}

// ApplyBrakes sets the brake force for the given pedal percentage, capping
// deceleration at 0.8 g. Out-of-range percentages are clamped.
func (d *VehicleDynamics) ApplyBrakes(brakePct float64) {
	d.BrakeForceN = d.MassKg * gravity * maxBrakeG * (clampPct(brakePct) / 100)
}

// Status returns a rounded snapshot of the chassis state. It has no side
// effects.
func (d *VehicleDynamics) Status() model.VehicleStatus {
	return model.VehicleStatus{
		SpeedKmh:         model.Round2(d.VelocityMPS * 3.6),
		AccelerationMPS2: model.Round2(d.AccelerationMPS2),
		PositionKm:       model.Round2(d.PositionM / 1000),
		BrakeForceN:      model.Round2(d.BrakeForceN),
	}
}
