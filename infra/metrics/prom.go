package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/tbrossard/evtwin/core/metrics"
	"github.com/tbrossard/evtwin/core/model"
)

// PromSink exposes simulation telemetry as Prometheus metrics.
type PromSink struct {
	snapshots prometheus.Counter
	runs      *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	speed     prometheus.Gauge
	soc       prometheus.Gauge
	motorTemp prometheus.Gauge
}

// NewPromSink registers simulation metrics on the default Prometheus
// registerer. The metrics server is started separately via StartPromServer.
func NewPromSink() (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global one. Re-registration reuses the
// existing collectors so repeated sink construction is safe.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	snapshots := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_snapshots_total",
		Help: "Total telemetry snapshots logged",
	})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_runs_total",
		Help: "Total completed simulation runs",
	}, []string{"scenario"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sim_run_duration_seconds",
		Help:    "Wall-clock duration of simulation runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"scenario"})
	speed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_vehicle_speed_kmh",
		Help: "Vehicle speed from the latest logged snapshot",
	})
	soc := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_battery_soc_percent",
		Help: "Battery state of charge from the latest logged snapshot",
	})
	motorTemp := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_motor_temperature_celsius",
		Help: "Motor temperature from the latest logged snapshot",
	})

	if err := reg.Register(snapshots); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			snapshots = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(speed); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			speed = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(soc); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			soc = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(motorTemp); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			motorTemp = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		snapshots: snapshots,
		runs:      runs,
		duration:  duration,
		speed:     speed,
		soc:       soc,
		motorTemp: motorTemp,
	}, nil
}

// RecordSnapshot updates the live gauges and the snapshot counter.
func (s *PromSink) RecordSnapshot(snap model.TelemetrySnapshot) error {
	s.snapshots.Inc()
	s.speed.Set(snap.Vehicle.SpeedKmh)
	s.soc.Set(snap.Battery.SoCPercent)
	s.motorTemp.Set(snap.Motor.TemperatureC)
	return nil
}

// RecordRun counts the run and observes its wall-clock duration.
func (s *PromSink) RecordRun(res coremetrics.RunResult) error {
	s.runs.WithLabelValues(res.Scenario).Inc()
	s.duration.WithLabelValues(res.Scenario).Observe(res.WallTime.Seconds())
	return nil
}
