package mqtt

import "fmt"

// Config defines the connection parameters and topics for the telemetry
// stream.
type Config struct {
	Broker         string `json:"broker"`
	ClientID       string `json:"client_id"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	TelemetryTopic string `json:"telemetry_topic"`
	ControlTopic   string `json:"control_topic"`
	CompleteTopic  string `json:"complete_topic"`
	QoS            byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "evtwin"
	}
	if c.TelemetryTopic == "" {
		c.TelemetryTopic = "evtwin/telemetry"
	}
	if c.ControlTopic == "" {
		c.ControlTopic = "evtwin/control"
	}
	if c.CompleteTopic == "" {
		c.CompleteTopic = "evtwin/run/complete"
	}
}

// Validate checks mandatory fields for serving the live stream.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt: broker is required")
	}
	return nil
}
