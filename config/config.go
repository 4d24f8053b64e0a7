// Package config loads and validates the service configuration. A missing
// or malformed required section is a fatal error raised before any
// simulation step executes.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tbrossard/evtwin/core/metrics"
	"github.com/tbrossard/evtwin/core/twin"
	"github.com/tbrossard/evtwin/infra/mqtt"
)

// Config is the full service configuration. The powertrain, battery and
// vehicle sections are required; the rest have defaults.
type Config struct {
	Powertrain twin.PowertrainConfig `json:"powertrain"`
	Battery    twin.BatteryConfig    `json:"battery"`
	Vehicle    twin.VehicleConfig    `json:"vehicle"`
	Sim        SimConfig             `json:"sim"`
	MQTT       mqtt.Config           `json:"mqtt"`
	Metrics    metrics.Config        `json:"metrics"`
}

// TwinConfig groups the subsystem sections for twin construction.
func (c *Config) TwinConfig() twin.Config {
	return twin.Config{
		Powertrain: c.Powertrain,
		Battery:    c.Battery,
		Vehicle:    c.Vehicle,
	}
}

var requiredSections = []string{"powertrain", "battery", "vehicle"}

// Load reads the configuration file (YAML or JSON by extension), applies
// EVTWIN_-prefixed environment overrides, fills defaults and validates.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides, e.g. EVTWIN_BATTERY__CAPACITY_KWH.
	// The callback rewrites __ to the koanf path delimiter, so the provider
	// must unflatten on "." for the override to land on the nested key.
	if err := k.Load(env.Provider("EVTWIN_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "evtwin_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	for _, section := range requiredSections {
		if !k.Exists(section) {
			return nil, fmt.Errorf("config: missing required section %q", section)
		}
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.Powertrain.SetDefaults()
	c.Battery.SetDefaults()
	c.Vehicle.SetDefaults()
	c.Sim.SetDefaults()
	c.MQTT.SetDefaults()
	c.Metrics.SetDefaults()
}

// Validate checks every section except MQTT, whose broker is only needed by
// the serve command and is validated there.
func (c Config) Validate() error {
	if err := c.TwinConfig().Validate(); err != nil {
		return err
	}
	if err := c.Sim.Validate(); err != nil {
		return err
	}
	return c.Metrics.Validate()
}
