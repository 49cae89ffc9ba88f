package hooks

import (
	"errors"
	"testing"

	"github.com/example/trojan_sim/core"
)

func TestRegistryActivate(t *testing.T) {
	registry := NewRegistry(nil)
	installs := 0
	err := registry.Register("counter", PluginDescriptor{
		Category:    PluginCategoryInstrumentation,
		Description: "edge counter",
	}, func(broker *SignalBroker) error {
		installs++
		broker.RegisterEdge(func(ev *core.EdgeEvent) error { return nil })
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}

	if err := registry.Activate("counter"); err != nil {
		t.Fatalf("unexpected activate error: %v", err)
	}
	if err := registry.Activate("counter"); err != nil {
		t.Fatalf("second activation must be a no-op, got %v", err)
	}
	if installs != 1 {
		t.Fatalf("factory ran %d times, want 1", installs)
	}
	if _, ok := registry.Broker().Lookup("counter"); !ok {
		t.Fatal("descriptor not published to broker")
	}
}

func TestRegistryErrors(t *testing.T) {
	registry := NewRegistry(NewSignalBroker())

	if err := registry.Register("", PluginDescriptor{}, func(*SignalBroker) error { return nil }); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := registry.Register("p", PluginDescriptor{}, nil); err == nil {
		t.Fatal("expected error for nil factory")
	}
	if err := registry.Activate("missing"); err == nil {
		t.Fatal("expected error for unknown plugin")
	}

	boom := errors.New("boom")
	if err := registry.Register("failing", PluginDescriptor{}, func(*SignalBroker) error { return boom }); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}
	if err := registry.Activate("failing"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	// A failed activation may be retried.
	if err := registry.Activate("failing"); !errors.Is(err, boom) {
		t.Fatalf("expected retry to run the factory again, got %v", err)
	}

	if err := registry.Register("dup", PluginDescriptor{}, func(*SignalBroker) error { return nil }); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}
	if err := registry.Register("dup", PluginDescriptor{}, func(*SignalBroker) error { return nil }); err == nil {
		t.Fatal("expected error for duplicate name")
	}
}
