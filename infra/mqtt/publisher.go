package mqtt

import (
	"encoding/json"
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/tbrossard/evtwin/core/model"
	"github.com/tbrossard/evtwin/core/sim"
	"github.com/tbrossard/evtwin/infra/logger"
)

// Command names accepted on the control topic.
const (
	CommandStart    = "start"
	CommandStop     = "stop"
	CommandThrottle = "throttle"
)

// ControlMessage is an out-of-band control request from a dashboard or
// viewer.
type ControlMessage struct {
	Command  string  `json:"command"`
	Scenario string  `json:"scenario,omitempty"`
	Value    float64 `json:"value,omitempty"`
}

// CompleteEvent announces a finished run and where its log was exported.
type CompleteEvent struct {
	RunID      string      `json:"run_id"`
	Scenario   string      `json:"scenario"`
	ExportPath string      `json:"export_path"`
	Summary    sim.Summary `json:"summary"`
}

// StreamPublisher publishes telemetry snapshots and run completions, and
// dispatches control messages to a handler.
type StreamPublisher struct {
	cli paho.Client
	cfg Config
	log logger.Logger
}

// NewStreamPublisher connects to the broker.
func NewStreamPublisher(cfg Config) (*StreamPublisher, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt-stream")
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Warnf("connection lost: %v", err)
	}
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &StreamPublisher{cli: cli, cfg: cfg, log: log}, nil
}

// PublishSnapshot sends one telemetry snapshot on the telemetry topic.
func (p *StreamPublisher) PublishSnapshot(snap model.TelemetrySnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	token := p.cli.Publish(p.cfg.TelemetryTopic, p.cfg.QoS, false, payload)
	token.Wait()
	return token.Error()
}

// PublishComplete announces the end of a run on the completion topic.
func (p *StreamPublisher) PublishComplete(ev CompleteEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	token := p.cli.Publish(p.cfg.CompleteTopic, p.cfg.QoS, false, payload)
	token.Wait()
	return token.Error()
}

// SubscribeControl registers a handler for control messages. Malformed
// payloads are logged and dropped.
func (p *StreamPublisher) SubscribeControl(handler func(ControlMessage)) error {
	token := p.cli.Subscribe(p.cfg.ControlTopic, p.cfg.QoS, func(_ paho.Client, msg paho.Message) {
		var cm ControlMessage
		if err := json.Unmarshal(msg.Payload(), &cm); err != nil {
			p.log.Errorf("decode control message: %v", err)
			return
		}
		handler(cm)
	})
	token.Wait()
	return token.Error()
}

// Close disconnects from the broker.
func (p *StreamPublisher) Close() {
	if p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
