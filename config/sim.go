package config

import "fmt"

// SimConfig defines stepping and logging parameters.
type SimConfig struct {
	// TimeStepS is the fixed simulation time step in seconds.
	TimeStepS float64 `json:"time_step_s"`
	// LogInterval is the number of steps between telemetry log entries.
	LogInterval int `json:"log_interval"`
	// Seed fixes the sensor-noise random source. Zero means time-seeded.
	Seed uint64 `json:"seed"`
	// OutputDir is where telemetry exports are written.
	OutputDir string `json:"output_dir"`
}

// SetDefaults applies sane defaults.
func (c *SimConfig) SetDefaults() {
	if c.TimeStepS == 0 {
		c.TimeStepS = 0.1
	}
	if c.LogInterval == 0 {
		c.LogInterval = 10
	}
	if c.OutputDir == "" {
		c.OutputDir = "data"
	}
}

// Validate checks mandatory fields.
func (c SimConfig) Validate() error {
	if c.TimeStepS <= 0 {
		return fmt.Errorf("sim: time_step_s must be positive")
	}
	if c.LogInterval <= 0 {
		return fmt.Errorf("sim: log_interval must be positive")
	}
	return nil
}
