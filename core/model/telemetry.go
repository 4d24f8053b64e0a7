// Package model defines the telemetry exchange schema shared by the
// simulation core and every external consumer (exporters, metric sinks,
// the MQTT stream).
package model

import "math"

// MotorStatus is the rounded, read-only view of the electric motor.
type MotorStatus struct {
	PowerKW      float64 `json:"power_kw"`
	TorqueNm     float64 `json:"torque_nm"`
	RPM          float64 `json:"rpm"`
	TemperatureC float64 `json:"temperature_c"`
	Efficiency   float64 `json:"efficiency"`
	HealthScore  float64 `json:"health_score"`
}

// BatteryStatus is the rounded, read-only view of the battery pack.
// CurrentA is negative while charging.
type BatteryStatus struct {
	SoCPercent   float64 `json:"soc_percent"`
	ChargeKWh    float64 `json:"charge_kwh"`
	Voltage      float64 `json:"voltage"`
	CurrentA     float64 `json:"current_a"`
	TemperatureC float64 `json:"temperature_c"`
	HealthSoH    float64 `json:"health_soh"`
	CycleCount   int     `json:"cycle_count"`
}

// VehicleStatus is the rounded, read-only view of the chassis dynamics.
type VehicleStatus struct {
	SpeedKmh         float64 `json:"speed_kmh"`
	AccelerationMPS2 float64 `json:"acceleration_mps2"`
	PositionKm       float64 `json:"position_km"`
	BrakeForceN      float64 `json:"brake_force_n"`
}

// TelemetrySnapshot is one timestamped record of all subsystem statuses.
// Snapshots are immutable once assembled; the telemetry log is an ordered,
// append-only sequence of them.
type TelemetrySnapshot struct {
	Timestamp      string        `json:"timestamp"`
	SimulationTime float64       `json:"simulation_time"`
	Motor          MotorStatus   `json:"motor"`
	Battery        BatteryStatus `json:"battery"`
	Vehicle        VehicleStatus `json:"vehicle"`
}

// Round2 rounds v to two decimal places, the precision used for every float
// field of the telemetry schema except efficiency.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
