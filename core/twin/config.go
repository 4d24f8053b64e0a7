package twin

import "fmt"

// PowertrainConfig holds the motor parameters.
type PowertrainConfig struct {
	MaxPowerKW  float64 `json:"max_power_kw"`
	MaxTorqueNm float64 `json:"max_torque_nm"`
	Efficiency  float64 `json:"efficiency"`
}

// SetDefaults applies sane defaults.
func (c *PowertrainConfig) SetDefaults() {
	if c.Efficiency == 0 {
		c.Efficiency = 0.95
	}
}

// Validate checks mandatory fields.
func (c PowertrainConfig) Validate() error {
	if c.MaxPowerKW <= 0 {
		return fmt.Errorf("powertrain: max_power_kw must be positive")
	}
	if c.MaxTorqueNm <= 0 {
		return fmt.Errorf("powertrain: max_torque_nm must be positive")
	}
	if c.Efficiency <= 0 || c.Efficiency > 1 {
		return fmt.Errorf("powertrain: efficiency must be in (0,1]")
	}
	return nil
}

// BatteryConfig holds the pack parameters.
type BatteryConfig struct {
	CapacityKWh    float64 `json:"capacity_kwh"`
	NominalVoltage float64 `json:"voltage_nominal"`
	InitialSoC     float64 `json:"initial_soc"`
}

// SetDefaults applies sane defaults.
func (c *BatteryConfig) SetDefaults() {
	if c.InitialSoC == 0 {
		c.InitialSoC = 0.8
	}
}

// Validate checks mandatory fields.
func (c BatteryConfig) Validate() error {
	if c.CapacityKWh <= 0 {
		return fmt.Errorf("battery: capacity_kwh must be positive")
	}
	if c.NominalVoltage <= 0 {
		return fmt.Errorf("battery: voltage_nominal must be positive")
	}
	if c.InitialSoC < 0 || c.InitialSoC > 1 {
		return fmt.Errorf("battery: initial_soc must be in [0,1]")
	}
	return nil
}

// VehicleConfig holds the chassis parameters.
type VehicleConfig struct {
	MassKg            float64 `json:"weight_kg"`
	DragCoefficient   float64 `json:"drag_coefficient"`
	FrontalAreaM2     float64 `json:"frontal_area_m2"`
	RollingResistance float64 `json:"rolling_resistance"`
}

// SetDefaults applies sane defaults.
func (c *VehicleConfig) SetDefaults() {
	if c.DragCoefficient == 0 {
		c.DragCoefficient = 0.28
	}
	if c.FrontalAreaM2 == 0 {
		c.FrontalAreaM2 = 2.3
	}
	if c.RollingResistance == 0 {
		c.RollingResistance = 0.015
	}
}

// Validate checks mandatory fields.
func (c VehicleConfig) Validate() error {
	if c.MassKg <= 0 {
		return fmt.Errorf("vehicle: weight_kg must be positive")
	}
	if c.DragCoefficient <= 0 || c.FrontalAreaM2 <= 0 || c.RollingResistance <= 0 {
		return fmt.Errorf("vehicle: drag_coefficient, frontal_area_m2 and rolling_resistance must be positive")
	}
	return nil
}

// Config groups the three required subsystem sections.
type Config struct {
	Powertrain PowertrainConfig `json:"powertrain"`
	Battery    BatteryConfig    `json:"battery"`
	Vehicle    VehicleConfig    `json:"vehicle"`
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.Powertrain.SetDefaults()
	c.Battery.SetDefaults()
	c.Vehicle.SetDefaults()
}

// Validate checks every section. A missing or malformed section is fatal and
// must be reported before any simulation step executes.
func (c Config) Validate() error {
	if err := c.Powertrain.Validate(); err != nil {
		return err
	}
	if err := c.Battery.Validate(); err != nil {
		return err
	}
	return c.Vehicle.Validate()
}
