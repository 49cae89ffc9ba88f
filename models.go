package main

import "time"

// Simulation constants.
const (
	DefaultTotalCycles = 2000
	DefaultListenAddr  = ":8080"

	// DefaultVisualizationDelay is the delay between frames in web mode so
	// a browser can follow the waveform.
	DefaultVisualizationDelay = 50 * time.Millisecond

	// DefaultMetricsInterval rate-limits throughput reporting.
	DefaultMetricsInterval = 5 * time.Second
)

// WaveFrame is one cycle's observable signal snapshot, published to the web
// monitor and exposed on /api/frame.
type WaveFrame struct {
	Cycle int `json:"cycle"`

	// Timing channel observables.
	KeyIndex     int    `json:"keyIndex"`
	EdgePhase    string `json:"edgePhase"`
	EdgeDelayNs  int64  `json:"edgeDelayNs"`
	DerivedClock bool   `json:"derivedClock"`

	// Transmitter observables.
	State    string `json:"state"`
	Line     bool   `json:"line"`
	Ready    bool   `json:"ready"`
	Valid    bool   `json:"valid"`
	Probe    uint32 `json:"probe"`
	Accepted bool   `json:"accepted"`

	Triggered    bool `json:"triggered"`
	TriggerCycle int  `json:"triggerCycle"` // -1 until the trojan fires

	Stats *SimulationStats `json:"stats,omitempty"`
}

// ControlCommandType identifies monitor control actions.
type ControlCommandType string

const (
	CommandNone   ControlCommandType = "none"
	CommandPause  ControlCommandType = "pause"
	CommandResume ControlCommandType = "resume"
	CommandStep   ControlCommandType = "step"
	CommandReset  ControlCommandType = "reset"
)

// ControlCommand is a queued monitor action consumed by the simulator loop.
type ControlCommand struct {
	Type ControlCommandType
}

// controlRequest is the JSON body accepted by /api/control and the
// websocket control channel.
type controlRequest struct {
	Type string `json:"type"`
}
