package scenario

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ProfileDef is a custom scenario defined as sampled throttle and brake
// profiles at a fixed sampling interval.
type ProfileDef struct {
	Name      string    `yaml:"name"`
	StepS     float64   `yaml:"step_s"`
	Throttle  []float64 `yaml:"throttle"`
	Brake     []float64 `yaml:"brake"`
	DurationS float64   `yaml:"duration_s,omitempty"`
}

// Validate checks the profile definition.
func (d ProfileDef) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("profile: name is required")
	}
	if d.StepS <= 0 {
		return fmt.Errorf("profile %s: step_s must be positive", d.Name)
	}
	if len(d.Throttle) == 0 {
		return fmt.Errorf("profile %s: throttle samples are required", d.Name)
	}
	if len(d.Brake) != len(d.Throttle) {
		return fmt.Errorf("profile %s: brake and throttle must have the same length", d.Name)
	}
	return nil
}

// Scenario converts the definition into a step-function scenario: each
// sample holds for step_s seconds, the last one until the duration elapses.
func (d ProfileDef) Scenario() (Scenario, error) {
	if err := d.Validate(); err != nil {
		return Scenario{}, err
	}
	duration := d.DurationS
	if duration == 0 {
		duration = float64(len(d.Throttle)) * d.StepS
	}
	throttle := append([]float64(nil), d.Throttle...)
	brake := append([]float64(nil), d.Brake...)
	step := d.StepS
	return Scenario{
		Name:      d.Name,
		DurationS: duration,
		Inputs: func(t float64) ControlInput {
			i := int(t / step)
			if i < 0 {
				i = 0
			}
			if i >= len(throttle) {
				i = len(throttle) - 1
			}
			return ControlInput{ThrottlePct: throttle[i], BrakePct: brake[i]}
		},
	}, nil
}

// ParseProfile decodes a YAML profile definition into a scenario.
func ParseProfile(r io.Reader) (Scenario, error) {
	var def ProfileDef
	if err := yaml.NewDecoder(r).Decode(&def); err != nil {
		return Scenario{}, fmt.Errorf("decode profile: %w", err)
	}
	return def.Scenario()
}

// LoadProfile reads a YAML profile file and registers nothing; the caller
// decides which registry receives it.
func LoadProfile(path string) (Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return Scenario{}, err
	}
	defer func() { _ = f.Close() }()
	return ParseProfile(f)
}
