package twin

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tbrossard/evtwin/core/model"
)

const (
	cellVoltageSensorCount = 10
	packTempSensorCount    = 4
)

// BatteryPack models the traction battery with a simple SOC-linear voltage
// curve and a lumped thermal model. Per-cell sensors sample a subset of the
// pack with independent readout jitter.
type BatteryPack struct {
	CapacityKWh    float64
	NominalVoltage float64
	CellsSeries    int
	CellsParallel  int

	ChargeKWh    float64
	Voltage      float64
	Amperage     float64
	TemperatureC float64
	HealthSoH    float64
	CycleCount   int

	CellVoltageSensors []*Sensor
	PackTempSensors    []*Sensor

	dischargedKWh float64
	src           rand.Source
}

// NewBatteryPack creates a pack at ambient temperature, full health and the
// configured initial state of charge.
func NewBatteryPack(cfg BatteryConfig, src rand.Source, now func() time.Time) *BatteryPack {
	b := &BatteryPack{
		CapacityKWh:    cfg.CapacityKWh,
		NominalVoltage: cfg.NominalVoltage,
		CellsSeries:    96,
		CellsParallel:  4,
		ChargeKWh:      cfg.CapacityKWh * cfg.InitialSoC,
		Voltage:        cfg.NominalVoltage,
		TemperatureC:   ambientTempC,
		HealthSoH:      100,
		src:            src,
	}
	for i := 0; i < cellVoltageSensorCount; i++ {
		b.CellVoltageSensors = append(b.CellVoltageSensors,
			NewSensor(fmt.Sprintf("cell_%d_voltage", i), "voltage", fmt.Sprintf("cell_%d", i), "V", src, now))
	}
	for i := 0; i < packTempSensorCount; i++ {
		b.PackTempSensors = append(b.PackTempSensors,
			NewSensor(fmt.Sprintf("battery_temp_%d", i), "temperature", fmt.Sprintf("pack_%d", i), "°C", src, now))
	}
	return b
}

// SoC returns the state of charge as a fraction of capacity, always in [0,1].
func (b *BatteryPack) SoC() float64 {
	return b.ChargeKWh / b.CapacityKWh
}

// DischargeEfficiency is 0.95, derated by a further 0.95 when the pack
// temperature leaves the [20,40] °C window.
func (b *BatteryPack) DischargeEfficiency() float64 {
	if b.TemperatureC < 20 || b.TemperatureC > 40 {
		return 0.95 * 0.95
	}
	return 0.95
}

// ChargeEfficiency is a constant 0.92.
func (b *BatteryPack) ChargeEfficiency() float64 {
	return 0.92
}

// Discharge draws the given power for the given duration in hours. Charge is
// clamped at zero; the terminal voltage follows the state of charge and is
// floored before the current division so a depleted pack never divides by
// zero.
func (b *BatteryPack) Discharge(powerKW, hours float64) {
	energy := powerKW * hours
	b.ChargeKWh -= energy / b.DischargeEfficiency()
	if b.ChargeKWh < 0 {
		b.ChargeKWh = 0
	}
	b.dischargedKWh += energy
	b.CycleCount = int(b.dischargedKWh / b.CapacityKWh)

	b.Amperage = powerKW * 1000 / math.Max(b.Voltage, minVoltage)
	b.Voltage = b.NominalVoltage * b.SoC()

	heat := powerKW * (1 - b.DischargeEfficiency()) * 0.5
	b.TemperatureC += heat
	b.TemperatureC -= (b.TemperatureC - ambientTempC) * 0.1

	b.updateCellSensors()
}

// Charge adds energy scaled by the charge efficiency, clamped at capacity.
// By convention the recorded current is negative while charging.
func (b *BatteryPack) Charge(powerKW, hours float64) {
	b.ChargeKWh += powerKW * hours * b.ChargeEfficiency()
	if b.ChargeKWh > b.CapacityKWh {
		b.ChargeKWh = b.CapacityKWh
	}
	b.Amperage = -(powerKW * 1000) / math.Max(b.Voltage, minVoltage)
	b.Voltage = b.NominalVoltage * b.SoC()

	b.updateCellSensors()
}

func (b *BatteryPack) updateCellSensors() {
	cellV := b.Voltage / float64(b.CellsSeries)
	for _, s := range b.CellVoltageSensors {
		s.Update(distuv.Normal{Mu: cellV, Sigma: 0.01, Src: b.src}.Rand())
	}
	for _, s := range b.PackTempSensors {
		s.Update(distuv.Normal{Mu: b.TemperatureC, Sigma: 2, Src: b.src}.Rand())
	}
}

// Status returns a rounded snapshot of the pack state. It has no side
// effects.
func (b *BatteryPack) Status() model.BatteryStatus {
	return model.BatteryStatus{
		SoCPercent:   model.Round2(b.SoC() * 100),
		ChargeKWh:    model.Round2(b.ChargeKWh),
		Voltage:      model.Round2(b.Voltage),
		CurrentA:     model.Round2(b.Amperage),
		TemperatureC: model.Round2(b.TemperatureC),
		HealthSoH:    model.Round2(b.HealthSoH),
		CycleCount:   b.CycleCount,
	}
}
