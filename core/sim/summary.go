package sim

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates a run's telemetry log. It is computed from the logged
// snapshots only, so a run without logging yields no summary.
type Summary struct {
	Snapshots          int
	DistanceKm         float64
	EnergyKWh          float64
	EfficiencyKmPerKWh float64
	FinalSoCPercent    float64
	MaxSpeedKmh        float64
	MeanSpeedKmh       float64
	MotorHealthScore   float64
}

// Summarize computes the summary from the twin's telemetry log. An empty log
// returns a zero Summary and false; it is never an error.
func (e *Engine) Summarize() (Summary, bool) {
	log := e.twin.Log()
	if len(log) == 0 {
		return Summary{}, false
	}
	first, last := log[0], log[len(log)-1]

	speeds := make([]float64, len(log))
	for i, s := range log {
		speeds[i] = s.Vehicle.SpeedKmh
	}

	distance := last.Vehicle.PositionKm
	energy := first.Battery.ChargeKWh - last.Battery.ChargeKWh
	efficiency := 0.0
	if energy > 0 {
		efficiency = distance / energy
	}
	return Summary{
		Snapshots:          len(log),
		DistanceKm:         distance,
		EnergyKWh:          energy,
		EfficiencyKmPerKWh: efficiency,
		FinalSoCPercent:    last.Battery.SoCPercent,
		MaxSpeedKmh:        floats.Max(speeds),
		MeanSpeedKmh:       stat.Mean(speeds, nil),
		MotorHealthScore:   last.Motor.HealthScore,
	}, true
}
