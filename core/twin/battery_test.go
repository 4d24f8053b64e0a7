package twin

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
)

func testBattery() *BatteryPack {
	cfg := BatteryConfig{CapacityKWh: 75, NominalVoltage: 400, InitialSoC: 0.8}
	return NewBatteryPack(cfg, rand.NewSource(1), nil)
}

func TestBatteryInitialState(t *testing.T) {
	b := testBattery()
	if got := b.SoC(); math.Abs(got-0.8) > 1e-9 {
		t.Fatalf("expected initial SoC 0.8, got %v", got)
	}
	if b.CellsSeries != 96 || b.CellsParallel != 4 {
		t.Fatalf("expected 96s4p topology, got %ds%dp", b.CellsSeries, b.CellsParallel)
	}
	if len(b.CellVoltageSensors) != 10 || len(b.PackTempSensors) != 4 {
		t.Fatalf("expected 10 cell + 4 temp sensors, got %d + %d",
			len(b.CellVoltageSensors), len(b.PackTempSensors))
	}
}

func TestBatteryDischarge(t *testing.T) {
	b := testBattery()

	b.Discharge(10, 0.1) // 1 kWh at the terminals
	wantCharge := 60 - 1/0.95
	if math.Abs(b.ChargeKWh-wantCharge) > 1e-9 {
		t.Fatalf("expected charge %v got %v", wantCharge, b.ChargeKWh)
	}
	// Current is derived from the terminal voltage before it sags.
	if math.Abs(b.Amperage-25) > 1e-9 {
		t.Fatalf("expected 25 A got %v", b.Amperage)
	}
	wantV := 400 * wantCharge / 75
	if math.Abs(b.Voltage-wantV) > 1e-9 {
		t.Fatalf("expected voltage %v got %v", wantV, b.Voltage)
	}
}

func TestBatteryDischargeClampsAtEmpty(t *testing.T) {
	b := testBattery()

	b.Discharge(75, 2) // far more than the pack holds
	if b.ChargeKWh != 0 {
		t.Fatalf("expected empty pack, got %v kWh", b.ChargeKWh)
	}
	if b.SoC() != 0 {
		t.Fatalf("expected SoC 0, got %v", b.SoC())
	}
	if b.Voltage != 0 {
		t.Fatalf("expected collapsed voltage, got %v", b.Voltage)
	}

	// A depleted pack must not produce inf or NaN current.
	b.Discharge(10, 0.1)
	if math.IsInf(b.Amperage, 0) || math.IsNaN(b.Amperage) {
		t.Fatalf("non-finite current from empty pack: %v", b.Amperage)
	}
}

func TestBatteryDischargeEfficiencyDerating(t *testing.T) {
	b := testBattery()
	if got := b.DischargeEfficiency(); got != 0.95 {
		t.Fatalf("expected 0.95 at ambient, got %v", got)
	}
	b.TemperatureC = 45
	if got := b.DischargeEfficiency(); got != 0.95*0.95 {
		t.Fatalf("expected derated efficiency when hot, got %v", got)
	}
	b.TemperatureC = 10
	if got := b.DischargeEfficiency(); got != 0.95*0.95 {
		t.Fatalf("expected derated efficiency when cold, got %v", got)
	}
}

func TestBatteryCharge(t *testing.T) {
	b := testBattery()

	b.Charge(10, 0.5)
	wantCharge := 60 + 10*0.5*0.92
	if math.Abs(b.ChargeKWh-wantCharge) > 1e-9 {
		t.Fatalf("expected charge %v got %v", wantCharge, b.ChargeKWh)
	}
	if b.Amperage >= 0 {
		t.Fatalf("expected negative current while charging, got %v", b.Amperage)
	}

	b.Charge(1000, 1)
	if b.ChargeKWh != 75 {
		t.Fatalf("expected charge clamped at capacity, got %v", b.ChargeKWh)
	}
}

func TestBatteryCycleCount(t *testing.T) {
	cfg := BatteryConfig{CapacityKWh: 10, NominalVoltage: 400, InitialSoC: 1}
	b := NewBatteryPack(cfg, rand.NewSource(1), nil)

	b.Discharge(10, 1)
	if b.CycleCount != 1 {
		t.Fatalf("expected 1 cycle after one full capacity, got %d", b.CycleCount)
	}
	b.Discharge(5, 1)
	if b.CycleCount != 1 {
		t.Fatalf("expected cycle count to stay 1 at 1.5 capacities, got %d", b.CycleCount)
	}
	b.Discharge(5, 1)
	if b.CycleCount != 2 {
		t.Fatalf("expected 2 cycles after two full capacities, got %d", b.CycleCount)
	}
}

func TestBatteryCellSensorsTrackPack(t *testing.T) {
	b := testBattery()
	b.Discharge(10, 0.1)

	cellV := b.Voltage / float64(b.CellsSeries)
	for _, s := range b.CellVoltageSensors {
		if s.Timestamp.IsZero() {
			t.Fatalf("cell sensor %s never updated", s.ID)
		}
		if math.Abs(s.Value-cellV) > 0.1 {
			t.Fatalf("cell sensor %s too far from pack cell voltage %v: %v", s.ID, cellV, s.Value)
		}
	}
	for _, s := range b.PackTempSensors {
		if math.Abs(s.Value-b.TemperatureC) > 10 {
			t.Fatalf("temp sensor %s too far from pack temperature %v: %v", s.ID, b.TemperatureC, s.Value)
		}
	}
}
