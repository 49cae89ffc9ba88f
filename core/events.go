package core

import "time"

// EdgePhase classifies a derived clock edge relative to its reference edge.
type EdgePhase int

const (
	// PhaseAligned is a pass-through copy of the reference edge.
	PhaseAligned EdgePhase = iota
	// PhaseDelayed is a copy emitted after the configured extra delay.
	PhaseDelayed
)

func (p EdgePhase) String() string {
	switch p {
	case PhaseAligned:
		return "aligned"
	case PhaseDelayed:
		return "delayed"
	default:
		return "unknown"
	}
}

// EdgeEvent records one derived clock edge emitted by the timing encoder.
type EdgeEvent struct {
	Tick     ClockTick
	Phase    EdgePhase
	Delay    time.Duration // extra delay applied; zero for aligned edges
	KeyIndex int           // key bit index this edge encodes
	Level    bool          // derived clock level after the edge
}

// StateChangeEvent records a transmitter state transition.
type StateChangeEvent struct {
	Cycle int
	From  string
	To    string
}

// TriggerEvent records the cycle on which the sentinel pattern was observed
// on the probe bus.
type TriggerEvent struct {
	Cycle int
	Probe uint32
}

// HandshakeEvent records a committed valid/ready transfer.
type HandshakeEvent struct {
	Cycle int
	Word  uint32
}
