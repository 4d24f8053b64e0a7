package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbrossard/evtwin/config"
	"github.com/tbrossard/evtwin/core/scenario"
	"github.com/tbrossard/evtwin/infra/logger"
	"github.com/tbrossard/evtwin/infra/metrics"
	"github.com/tbrossard/evtwin/infra/mqtt"
)

// Service serves live simulation sessions over MQTT: control messages start
// and stop runs, snapshots stream on the telemetry topic and a completion
// event carries the export location.
type Service struct {
	sess *Session
	pub  *mqtt.StreamPublisher
	log  logger.Logger
	cfg  *config.Config
}

// New wires a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")

	sink, err := metrics.BuildSinks(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	pub, err := mqtt.NewStreamPublisher(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt stream: %w", err)
	}

	sess := NewSession(cfg.TwinConfig(), scenario.DefaultRegistry(), SessionConfig{
		TimeStepS:   cfg.Sim.TimeStepS,
		LogInterval: cfg.Sim.LogInterval,
		OutputDir:   cfg.Sim.OutputDir,
		Seed:        cfg.Sim.Seed,
	}, logger.New("session"), sink)

	svc := &Service{sess: sess, pub: pub, log: log, cfg: cfg}
	sess.OnComplete(func(res RunResult) {
		ev := mqtt.CompleteEvent{
			RunID:      res.RunID,
			Scenario:   res.Scenario,
			ExportPath: res.ExportPath,
			Summary:    res.Summary,
		}
		if err := pub.PublishComplete(ev); err != nil {
			log.Errorf("publish completion: %v", err)
		}
	})
	return svc, nil
}

// Run serves control messages and streams snapshots until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	sub := s.sess.Subscribe()
	go func() {
		for snap := range sub {
			if err := s.pub.PublishSnapshot(snap); err != nil {
				s.log.Warnf("publish snapshot: %v", err)
			}
		}
	}()

	if err := s.pub.SubscribeControl(s.handleControl); err != nil {
		return fmt.Errorf("subscribe control: %w", err)
	}
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	s.log.Infof("live session ready, broker %s", s.cfg.MQTT.Broker)
	<-ctx.Done()
	return nil
}

func (s *Service) handleControl(cm mqtt.ControlMessage) {
	switch cm.Command {
	case mqtt.CommandStart:
		runID, err := s.sess.Start(cm.Scenario)
		switch {
		case errors.Is(err, ErrSimulationAlreadyRunning):
			s.log.Warnf("start %q rejected: %v", cm.Scenario, err)
		case err != nil:
			s.log.Errorf("start %q: %v", cm.Scenario, err)
		default:
			s.log.Infof("run %s started: %s", runID, cm.Scenario)
		}
	case mqtt.CommandStop:
		s.sess.Stop()
	case mqtt.CommandThrottle:
		s.sess.SetThrottle(cm.Value)
	default:
		s.log.Warnf("unknown control command %q", cm.Command)
	}
}

// Close stops the session and disconnects from the broker.
func (s *Service) Close() error {
	s.sess.Close()
	s.pub.Close()
	return nil
}
