package twin

import (
	"math"
	"time"

	"golang.org/x/exp/rand"

	"github.com/tbrossard/evtwin/core/model"
)

// ElectricMotor models the traction motor with a lumped thermal model and an
// irreversible health score.
type ElectricMotor struct {
	MaxPowerKW  float64
	MaxTorqueNm float64
	Efficiency  float64

	RPM          float64
	TorqueNm     float64
	PowerKW      float64
	TemperatureC float64
	HealthScore  float64
	RuntimeHours float64

	TempSensor   *Sensor
	TorqueSensor *Sensor
	RPMSensor    *Sensor
}

// NewElectricMotor creates a motor at ambient temperature with full health.
func NewElectricMotor(cfg PowertrainConfig, src rand.Source, now func() time.Time) *ElectricMotor {
	return &ElectricMotor{
		MaxPowerKW:   cfg.MaxPowerKW,
		MaxTorqueNm:  cfg.MaxTorqueNm,
		Efficiency:   cfg.Efficiency,
		TemperatureC: ambientTempC,
		HealthScore:  100,
		TempSensor:   NewSensor("motor_temp", "temperature", "motor_housing", "°C", src, now),
		TorqueSensor: NewSensor("motor_torque", "torque", "motor_shaft", "Nm", src, now),
		RPMSensor:    NewSensor("motor_rpm", "speed", "motor_shaft", "RPM", src, now),
	}
}

// ApplyLoad clamps the requested torque to the motor's limit, derives the
// realized mechanical power and advances the thermal state. Heating from
// losses and Newtonian cooling toward ambient are applied in the same step,
// so the temperature approaches a load-dependent equilibrium. Above the
// overheat threshold the health score decreases and never recovers.
func (m *ElectricMotor) ApplyLoad(requestedTorqueNm, rpm float64) {
	m.TorqueNm = math.Min(math.Max(requestedTorqueNm, 0), m.MaxTorqueNm)
	m.RPM = rpm

	omega := rpm * 2 * math.Pi / 60
	m.PowerKW = math.Min(m.TorqueNm*omega/1000*m.Efficiency, m.MaxPowerKW)

	heat := m.PowerKW * (1 - m.Efficiency)
	m.TemperatureC += heat * 0.1
	m.TemperatureC -= (m.TemperatureC - ambientTempC) * 0.05

	if m.TemperatureC > overheatTempC {
		m.HealthScore -= 0.001
	}

	m.TempSensor.Update(m.TemperatureC)
	m.TorqueSensor.Update(m.TorqueNm)
	m.RPMSensor.Update(m.RPM)
}

// Status returns a rounded snapshot of the motor state. It has no side
// effects.
func (m *ElectricMotor) Status() model.MotorStatus {
	return model.MotorStatus{
		PowerKW:      model.Round2(m.PowerKW),
		TorqueNm:     model.Round2(m.TorqueNm),
		RPM:          model.Round2(m.RPM),
		TemperatureC: model.Round2(m.TemperatureC),
		Efficiency:   m.Efficiency,
		HealthScore:  model.Round2(m.HealthScore),
	}
}
