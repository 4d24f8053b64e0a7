// Package mqtt adapts the live telemetry stream to an MQTT broker: one
// snapshot per publish on the telemetry topic, out-of-band control messages
// on the control topic, and a completion event per run.
package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// NewClientOptions builds Paho options from the configuration. The client ID
// is suffixed with a random component so multiple processes can share a
// configuration.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(fmt.Sprintf("%s-%s", cfg.ClientID, uuid.NewString()[:8])).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	return opts, nil
}
