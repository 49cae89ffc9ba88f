package trojan

import (
	"fmt"
	"time"

	"github.com/example/trojan_sim/core"
)

// DefaultEdgeDelay is the default extra delay applied to edges encoding a 1
// bit. The magnitude is a covertness/detectability tuning parameter, not a
// protocol constant; pick it per target in EncoderConfig.
const DefaultEdgeDelay = 2 * time.Nanosecond

// EncoderConfig configures a TimingChannelEncoder.
type EncoderConfig struct {
	Key   *SecretKey
	Delay time.Duration // extra delay on edges that encode a 1 bit
}

// ModulationState is the per-instance mutable state of the encoder: the
// cycle counter, wrapping modulo the key width, and the derived clock level
// after the most recent edge.
type ModulationState struct {
	Counter int
	Level   bool
}

// TimingChannelEncoder leaks one secret-key bit per clock cycle through the
// phase of a derived clock. A 1 bit delays the derived edge by the
// configured amount; a 0 bit passes the edge through unchanged. The key is
// cycled through indefinitely, so any Width consecutive edges reproduce the
// key bits in index order.
type TimingChannelEncoder struct {
	key   *SecretKey
	delay time.Duration
	mod   ModulationState
}

// NewTimingChannelEncoder validates the configuration and builds an encoder.
// A nil or zero-width key and a non-positive delay are configuration errors:
// without a positive delay the two edge variants are indistinguishable and
// the channel carries nothing.
func NewTimingChannelEncoder(cfg EncoderConfig) (*TimingChannelEncoder, error) {
	if cfg.Key == nil || cfg.Key.Width() == 0 {
		return nil, fmt.Errorf("timing encoder: key must have positive width")
	}
	if cfg.Delay <= 0 {
		return nil, fmt.Errorf("timing encoder: edge delay must be positive, got %v", cfg.Delay)
	}
	return &TimingChannelEncoder{key: cfg.Key, delay: cfg.Delay}, nil
}

// Advance processes one rising edge of the reference clock and returns the
// derived edge. This is the only mutation point of ModulationState; a tick
// is processed to completion before the next is accepted.
func (e *TimingChannelEncoder) Advance(tick core.ClockTick) core.EdgeEvent {
	idx := e.mod.Counter
	if idx < 0 || idx >= e.key.Width() {
		// Cannot happen with the modulo wrap below; anything else is an
		// internal invariant violation, not an input error.
		panic(fmt.Sprintf("timing encoder: modulation counter %d out of range [0,%d)", idx, e.key.Width()))
	}

	ev := core.EdgeEvent{
		Tick:     tick,
		Phase:    core.PhaseAligned,
		KeyIndex: idx,
	}
	if e.key.Bit(idx) == 1 {
		ev.Phase = core.PhaseDelayed
		ev.Delay = e.delay
	}

	e.mod.Counter = (e.mod.Counter + 1) % e.key.Width()
	e.mod.Level = !e.mod.Level
	ev.Level = e.mod.Level
	return ev
}

// State returns a copy of the modulation state for observability.
func (e *TimingChannelEncoder) State() ModulationState {
	return e.mod
}

// KeyWidth returns the width of the key being leaked.
func (e *TimingChannelEncoder) KeyWidth() int {
	return e.key.Width()
}

// Delay returns the configured extra delay for 1-bit edges.
func (e *TimingChannelEncoder) Delay() time.Duration {
	return e.delay
}

// Reset rewinds the modulation state to the start of the key.
func (e *TimingChannelEncoder) Reset() {
	e.mod = ModulationState{}
}
