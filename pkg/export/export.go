// Package export persists telemetry logs for external consumers. A log
// round-trips through WriteJSON/ReadJSON unchanged and in order.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/tbrossard/evtwin/core/model"
)

// WriteJSON writes the telemetry log to w as an indented, ordered JSON
// array. A nil or empty log writes an empty array.
func WriteJSON(w io.Writer, snaps []model.TelemetrySnapshot) error {
	if snaps == nil {
		snaps = []model.TelemetrySnapshot{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snaps)
}

// ReadJSON reads a telemetry log previously written with WriteJSON.
func ReadJSON(r io.Reader) ([]model.TelemetrySnapshot, error) {
	var snaps []model.TelemetrySnapshot
	if err := json.NewDecoder(r).Decode(&snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

var csvHeader = []string{
	"timestamp", "simulation_time",
	"power_kw", "torque_nm", "rpm", "motor_temperature_c", "efficiency", "health_score",
	"soc_percent", "charge_kwh", "voltage", "current_a", "battery_temperature_c", "health_soh", "cycle_count",
	"speed_kmh", "acceleration_mps2", "position_km", "brake_force_n",
}

// WriteCSV writes the telemetry log to w with one flattened row per
// snapshot.
func WriteCSV(w io.Writer, snaps []model.TelemetrySnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range snaps {
		rec := []string{
			s.Timestamp,
			ftoa(s.SimulationTime),
			ftoa(s.Motor.PowerKW), ftoa(s.Motor.TorqueNm), ftoa(s.Motor.RPM),
			ftoa(s.Motor.TemperatureC), ftoa(s.Motor.Efficiency), ftoa(s.Motor.HealthScore),
			ftoa(s.Battery.SoCPercent), ftoa(s.Battery.ChargeKWh), ftoa(s.Battery.Voltage),
			ftoa(s.Battery.CurrentA), ftoa(s.Battery.TemperatureC), ftoa(s.Battery.HealthSoH),
			strconv.Itoa(s.Battery.CycleCount),
			ftoa(s.Vehicle.SpeedKmh), ftoa(s.Vehicle.AccelerationMPS2),
			ftoa(s.Vehicle.PositionKm), ftoa(s.Vehicle.BrakeForceN),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
