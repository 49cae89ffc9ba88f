package hooks

import (
	"fmt"
	"sync"
)

// PluginFactory installs a plugin's hooks into the broker.
type PluginFactory func(broker *SignalBroker) error

type registryEntry struct {
	desc    PluginDescriptor
	factory PluginFactory
}

// Registry keeps plugin factories that can be activated via configuration.
type Registry struct {
	mu     sync.RWMutex
	broker *SignalBroker

	entries map[string]registryEntry
	active  map[string]bool
}

// NewRegistry creates an empty plugin registry bound to a broker.
func NewRegistry(broker *SignalBroker) *Registry {
	if broker == nil {
		broker = NewSignalBroker()
	}
	return &Registry{
		broker:  broker,
		entries: make(map[string]registryEntry),
		active:  make(map[string]bool),
	}
}

// Broker returns the underlying broker associated with the registry.
func (r *Registry) Broker() *SignalBroker {
	if r == nil {
		return nil
	}
	return r.broker
}

// Register adds a plugin factory under a unique name.
func (r *Registry) Register(name string, desc PluginDescriptor, factory PluginFactory) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	if name == "" {
		return fmt.Errorf("plugin name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("plugin %q: factory cannot be nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("plugin %q already registered", name)
	}
	if desc.Name == "" {
		desc.Name = name
	}
	r.entries[name] = registryEntry{desc: desc, factory: factory}
	return nil
}

// Activate runs the named plugin's factory against the broker. Activating a
// plugin twice is a no-op.
func (r *Registry) Activate(name string) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	r.mu.Lock()
	entry, exists := r.entries[name]
	if !exists {
		r.mu.Unlock()
		return fmt.Errorf("plugin %q not registered", name)
	}
	if r.active[name] {
		r.mu.Unlock()
		return nil
	}
	r.active[name] = true
	r.mu.Unlock()

	if err := entry.factory(r.broker); err != nil {
		r.mu.Lock()
		r.active[name] = false
		r.mu.Unlock()
		return fmt.Errorf("activating plugin %q: %w", name, err)
	}
	r.broker.RegisterPluginMetadata(entry.desc)
	return nil
}

// Names returns the registered plugin names.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}
