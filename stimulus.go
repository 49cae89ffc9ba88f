package main

import (
	"fmt"
	"math/rand"

	"github.com/example/trojan_sim/core"
)

// Stimulus is the per-cycle input vector applied to the transmitter's probe
// bus and transmit-data port.
type Stimulus struct {
	Probe uint32
	Data  uint32
	Valid bool
	Reset bool
}

// StimulusGenerator produces one input vector per cycle.
type StimulusGenerator interface {
	Next(cycle int) Stimulus
	// Reset rewinds the generator to its initial state.
	Reset()
}

// RandomStimulus drives random traffic. It never produces the sentinel on
// the probe bus by accident; the sentinel appears exactly on InjectCycle
// when one is configured.
type RandomStimulus struct {
	rate         float64
	sentinel     uint32
	sentinelMask uint32
	dataMask     uint32
	injectCycle  int
	seed         int64
	rng          *rand.Rand
}

// NewRandomStimulus builds a generator from the harness configuration.
func NewRandomStimulus(cfg *Config) *RandomStimulus {
	return &RandomStimulus{
		rate:         cfg.Stimulus.Rate,
		sentinel:     cfg.Sentinel,
		sentinelMask: core.WidthMask(cfg.SentinelBits),
		dataMask:     core.WidthMask(cfg.DataBits),
		injectCycle:  cfg.Stimulus.InjectCycle,
		seed:         cfg.Stimulus.Seed,
		rng:          rand.New(rand.NewSource(cfg.Stimulus.Seed)),
	}
}

func (g *RandomStimulus) Next(cycle int) Stimulus {
	probe := g.rng.Uint32() & g.sentinelMask
	if probe == g.sentinel {
		probe ^= 1
	}
	if cycle == g.injectCycle && g.injectCycle >= 0 {
		probe = g.sentinel
	}
	return Stimulus{
		Probe: probe,
		Data:  g.rng.Uint32() & g.dataMask,
		Valid: g.rng.Float64() < g.rate,
	}
}

func (g *RandomStimulus) Reset() {
	g.rng = rand.New(rand.NewSource(g.seed))
}

// ScriptedStimulus replays an explicit per-cycle input list; after the
// script runs out the bus idles.
type ScriptedStimulus struct {
	entries []Stimulus
	idx     int
}

// NewScriptedStimulus copies the script entries.
func NewScriptedStimulus(script []ScriptEntry) *ScriptedStimulus {
	entries := make([]Stimulus, len(script))
	for i, e := range script {
		entries[i] = Stimulus{Probe: e.Probe, Data: e.Data, Valid: e.Valid, Reset: e.Reset}
	}
	return &ScriptedStimulus{entries: entries}
}

func (g *ScriptedStimulus) Next(cycle int) Stimulus {
	if g.idx >= len(g.entries) {
		return Stimulus{}
	}
	s := g.entries[g.idx]
	g.idx++
	return s
}

func (g *ScriptedStimulus) Reset() {
	g.idx = 0
}

func buildStimulus(cfg *Config) (StimulusGenerator, error) {
	switch cfg.Stimulus.Mode {
	case "random":
		return NewRandomStimulus(cfg), nil
	case "scripted":
		return NewScriptedStimulus(cfg.Stimulus.Script), nil
	default:
		return nil, fmt.Errorf("unknown stimulus mode %q", cfg.Stimulus.Mode)
	}
}
