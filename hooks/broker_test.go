package hooks

import (
	"errors"
	"testing"

	"github.com/example/trojan_sim/core"
)

func TestBrokerEmitsInRegistrationOrder(t *testing.T) {
	broker := NewSignalBroker()
	var order []int
	broker.RegisterEdge(func(ev *core.EdgeEvent) error {
		order = append(order, 1)
		return nil
	})
	broker.RegisterEdge(func(ev *core.EdgeEvent) error {
		order = append(order, 2)
		return nil
	})

	if err := broker.EmitEdge(&core.EdgeEvent{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("hooks ran out of order: %v", order)
	}
}

func TestBrokerStopsAtFirstError(t *testing.T) {
	broker := NewSignalBroker()
	boom := errors.New("boom")
	called := false
	broker.RegisterTrigger(func(ev *core.TriggerEvent) error { return boom })
	broker.RegisterTrigger(func(ev *core.TriggerEvent) error {
		called = true
		return nil
	})

	if err := broker.EmitTrigger(&core.TriggerEvent{Cycle: 3}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if called {
		t.Fatal("second hook must not run after an error")
	}
}

func TestBrokerNilSafety(t *testing.T) {
	var broker *SignalBroker
	broker.RegisterStateChange(func(ev *core.StateChangeEvent) error { return nil })
	if err := broker.EmitStateChange(&core.StateChangeEvent{}); err != nil {
		t.Fatalf("nil broker must be a no-op, got %v", err)
	}

	live := NewSignalBroker()
	live.RegisterHandshake(nil)
	if err := live.EmitHandshake(&core.HandshakeEvent{}); err != nil {
		t.Fatalf("nil hook must be ignored, got %v", err)
	}
	if err := live.EmitHandshake(nil); err != nil {
		t.Fatalf("nil event must be a no-op, got %v", err)
	}
}

func TestBrokerPluginMetadata(t *testing.T) {
	broker := NewSignalBroker()
	desc := PluginDescriptor{
		Name:        "vcd-trace",
		Category:    PluginCategoryInstrumentation,
		Description: "waveform dump",
	}
	broker.RegisterPluginMetadata(desc)
	broker.RegisterPluginMetadata(desc) // duplicate is ignored

	got := broker.PluginsByCategory(PluginCategoryInstrumentation)
	if len(got) != 1 || got[0].Name != "vcd-trace" {
		t.Fatalf("unexpected catalog contents: %+v", got)
	}
	if _, ok := broker.Lookup("vcd-trace"); !ok {
		t.Fatal("descriptor not found by name")
	}
	if _, ok := broker.Lookup("missing"); ok {
		t.Fatal("unexpected descriptor for unknown name")
	}
}
