package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/tbrossard/evtwin/core/metrics"
	"github.com/tbrossard/evtwin/core/model"
	"github.com/tbrossard/evtwin/infra/logger"
)

// InfluxSink writes telemetry snapshots and run results to an InfluxDB
// instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg coremetrics.Config) *InfluxSink {
	base := strings.TrimSuffix(cfg.InfluxURL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails, so a missing database never blocks a
// simulation run.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.Sink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordSnapshot writes one telemetry point per snapshot.
func (s *InfluxSink) RecordSnapshot(snap model.TelemetrySnapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ts, err := time.Parse(time.RFC3339Nano, snap.Timestamp)
	if err != nil {
		ts = time.Now()
	}
	p := write.NewPointWithMeasurement("telemetry").
		AddField("simulation_time", snap.SimulationTime).
		AddField("power_kw", snap.Motor.PowerKW).
		AddField("torque_nm", snap.Motor.TorqueNm).
		AddField("rpm", snap.Motor.RPM).
		AddField("motor_temperature_c", snap.Motor.TemperatureC).
		AddField("health_score", snap.Motor.HealthScore).
		AddField("soc_percent", snap.Battery.SoCPercent).
		AddField("charge_kwh", snap.Battery.ChargeKWh).
		AddField("voltage", snap.Battery.Voltage).
		AddField("current_a", snap.Battery.CurrentA).
		AddField("battery_temperature_c", snap.Battery.TemperatureC).
		AddField("speed_kmh", snap.Vehicle.SpeedKmh).
		AddField("acceleration_mps2", snap.Vehicle.AccelerationMPS2).
		AddField("position_km", snap.Vehicle.PositionKm).
		SetTime(ts)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRun writes the run summary as a single point.
func (s *InfluxSink) RecordRun(res coremetrics.RunResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("simulation_run").
		AddTag("run_id", res.RunID).
		AddTag("scenario", res.Scenario).
		AddField("steps", res.Steps).
		AddField("snapshots", res.Snapshots).
		AddField("distance_km", res.DistanceKm).
		AddField("energy_kwh", res.EnergyKWh).
		AddField("efficiency_km_per_kwh", res.EfficiencyKmPerKWh).
		AddField("final_soc_percent", res.FinalSoCPercent).
		AddField("max_speed_kmh", res.MaxSpeedKmh).
		AddField("motor_health_score", res.MotorHealthScore).
		AddField("wall_time_seconds", res.WallTime.Seconds()).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}
