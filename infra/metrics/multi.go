package metrics

import (
	"errors"

	coremetrics "github.com/tbrossard/evtwin/core/metrics"
	"github.com/tbrossard/evtwin/core/model"
)

// MultiSink fans out every record to all child sinks.
type MultiSink struct {
	sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// RecordSnapshot forwards to every sink; all errors are joined.
func (m *MultiSink) RecordSnapshot(snap model.TelemetrySnapshot) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordSnapshot(snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordRun forwards to every sink; all errors are joined.
func (m *MultiSink) RecordRun(res coremetrics.RunResult) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordRun(res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
