package eventbus

import (
	"testing"

	"github.com/tbrossard/evtwin/core/model"
)

func TestTypedBusPublishSubscribe(t *testing.T) {
	bus := NewTyped[model.TelemetrySnapshot]()
	ch := bus.Subscribe()
	bus.Publish(model.TelemetrySnapshot{SimulationTime: 1.5})
	v := <-ch
	if v.SimulationTime != 1.5 {
		t.Fatalf("expected simulation time 1.5 got %v", v.SimulationTime)
	}
	bus.Unsubscribe(ch)
}

func TestTypedBusSlowSubscriberDropsEvents(t *testing.T) {
	bus := NewTyped[int]()
	ch := bus.Subscribe()
	// Fill the buffer and keep publishing; the publisher must not block.
	for i := 0; i < subCap*3; i++ {
		bus.Publish(i)
	}
	if got := len(ch); got != subCap {
		t.Fatalf("expected buffer of %d retained events, got %d", subCap, got)
	}
	bus.Close()
}

func TestTypedBusClose(t *testing.T) {
	bus := NewTyped[int]()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
}

func TestTypedBusSubscribeAfterClose(t *testing.T) {
	bus := NewTyped[int]()
	bus.Close()
	ch := bus.Subscribe()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel from closed bus")
	}
}

func TestTypedBusUnsubscribeAfterClose(t *testing.T) {
	bus := NewTyped[int]()
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}
