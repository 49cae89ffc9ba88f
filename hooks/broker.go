package hooks

import (
	"sync"

	"github.com/example/trojan_sim/core"
)

// PluginCategory represents the high-level role of a plugin.
type PluginCategory string

const (
	// PluginCategoryInstrumentation covers metrics, tracing, and diagnostics.
	PluginCategoryInstrumentation PluginCategory = "instrumentation"
	// PluginCategoryVisualization covers waveform, timeline, or monitoring plugins.
	PluginCategoryVisualization PluginCategory = "visualization"
	// PluginCategoryConformance covers invariant and assertion checkers.
	PluginCategoryConformance PluginCategory = "conformance"
)

// PluginDescriptor describes a plugin registered with the broker.
type PluginDescriptor struct {
	Name        string
	Category    PluginCategory
	Description string
}

// EdgeHook executes for every derived clock edge the encoder emits.
type EdgeHook func(ev *core.EdgeEvent) error

// StateChangeHook executes for every transmitter state transition.
type StateChangeHook func(ev *core.StateChangeEvent) error

// TriggerHook executes when the sentinel pattern fires the trojan.
type TriggerHook func(ev *core.TriggerEvent) error

// HandshakeHook executes for every committed valid/ready transfer.
type HandshakeHook func(ev *core.HandshakeEvent) error

// SignalBroker coordinates hook registration and triggering for the signal
// events both components produce.
type SignalBroker struct {
	mu sync.RWMutex

	edgeHooks        []EdgeHook
	stateChangeHooks []StateChangeHook
	triggerHooks     []TriggerHook
	handshakeHooks   []HandshakeHook

	pluginCatalog map[PluginCategory][]PluginDescriptor
	pluginIndex   map[string]PluginDescriptor
}

// NewSignalBroker creates an empty broker instance.
func NewSignalBroker() *SignalBroker {
	return &SignalBroker{
		edgeHooks:        make([]EdgeHook, 0),
		stateChangeHooks: make([]StateChangeHook, 0),
		triggerHooks:     make([]TriggerHook, 0),
		handshakeHooks:   make([]HandshakeHook, 0),
		pluginCatalog:    make(map[PluginCategory][]PluginDescriptor),
		pluginIndex:      make(map[string]PluginDescriptor),
	}
}

// RegisterEdge adds a hook executed for every derived clock edge.
func (b *SignalBroker) RegisterEdge(h EdgeHook) {
	if b == nil || h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.edgeHooks = append(b.edgeHooks, h)
}

// RegisterStateChange adds a hook executed for every state transition.
func (b *SignalBroker) RegisterStateChange(h StateChangeHook) {
	if b == nil || h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stateChangeHooks = append(b.stateChangeHooks, h)
}

// RegisterTrigger adds a hook executed when the trojan fires.
func (b *SignalBroker) RegisterTrigger(h TriggerHook) {
	if b == nil || h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.triggerHooks = append(b.triggerHooks, h)
}

// RegisterHandshake adds a hook executed for every committed transfer.
func (b *SignalBroker) RegisterHandshake(h HandshakeHook) {
	if b == nil || h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handshakeHooks = append(b.handshakeHooks, h)
}

// EmitEdge triggers edge hooks in registration order, stopping at the first
// error.
func (b *SignalBroker) EmitEdge(ev *core.EdgeEvent) error {
	if b == nil || ev == nil {
		return nil
	}
	b.mu.RLock()
	handlers := make([]EdgeHook, len(b.edgeHooks))
	copy(handlers, b.edgeHooks)
	b.mu.RUnlock()
	for _, handler := range handlers {
		if err := handler(ev); err != nil {
			return err
		}
	}
	return nil
}

// EmitStateChange triggers state-change hooks.
func (b *SignalBroker) EmitStateChange(ev *core.StateChangeEvent) error {
	if b == nil || ev == nil {
		return nil
	}
	b.mu.RLock()
	handlers := make([]StateChangeHook, len(b.stateChangeHooks))
	copy(handlers, b.stateChangeHooks)
	b.mu.RUnlock()
	for _, handler := range handlers {
		if err := handler(ev); err != nil {
			return err
		}
	}
	return nil
}

// EmitTrigger triggers trojan-fired hooks.
func (b *SignalBroker) EmitTrigger(ev *core.TriggerEvent) error {
	if b == nil || ev == nil {
		return nil
	}
	b.mu.RLock()
	handlers := make([]TriggerHook, len(b.triggerHooks))
	copy(handlers, b.triggerHooks)
	b.mu.RUnlock()
	for _, handler := range handlers {
		if err := handler(ev); err != nil {
			return err
		}
	}
	return nil
}

// EmitHandshake triggers handshake hooks.
func (b *SignalBroker) EmitHandshake(ev *core.HandshakeEvent) error {
	if b == nil || ev == nil {
		return nil
	}
	b.mu.RLock()
	handlers := make([]HandshakeHook, len(b.handshakeHooks))
	copy(handlers, b.handshakeHooks)
	b.mu.RUnlock()
	for _, handler := range handlers {
		if err := handler(ev); err != nil {
			return err
		}
	}
	return nil
}

// RegisterPluginMetadata records a plugin descriptor for diagnostics.
func (b *SignalBroker) RegisterPluginMetadata(desc PluginDescriptor) {
	if b == nil || desc.Name == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.pluginIndex[desc.Name]; exists {
		return
	}
	b.pluginIndex[desc.Name] = desc
	b.pluginCatalog[desc.Category] = append(b.pluginCatalog[desc.Category], desc)
}

// PluginsByCategory returns a copy of the descriptors in a category.
func (b *SignalBroker) PluginsByCategory(category PluginCategory) []PluginDescriptor {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	descs := b.pluginCatalog[category]
	result := make([]PluginDescriptor, len(descs))
	copy(result, descs)
	return result
}

// Lookup returns the descriptor registered under name.
func (b *SignalBroker) Lookup(name string) (PluginDescriptor, bool) {
	if b == nil {
		return PluginDescriptor{}, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	desc, ok := b.pluginIndex[name]
	return desc, ok
}
