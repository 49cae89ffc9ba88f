package trojan

import (
	"fmt"

	"github.com/example/trojan_sim/core"
)

// TxState enumerates the transmitter states. The six normal states model a
// plain serial word transmitter; the last two are the injected trojan
// states.
type TxState int

const (
	StateIdle TxState = iota
	StateLoad
	StateStart
	StateData
	StateStop
	StateWait
	// StateDeadbeefDetect is the transient detection state entered when the
	// sentinel pattern appears on the probe bus.
	StateDeadbeefDetect
	// StateSpecialIdle is the absorbing malfunction state. Once entered the
	// machine never leaves it under any defined input.
	StateSpecialIdle
)

func (s TxState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateLoad:
		return "LOAD"
	case StateStart:
		return "START"
	case StateData:
		return "DATA"
	case StateStop:
		return "STOP"
	case StateWait:
		return "WAIT"
	case StateDeadbeefDetect:
		return "DEADBEEF_DETECT"
	case StateSpecialIdle:
		return "SPECIAL_IDLE"
	default:
		return fmt.Sprintf("TxState(%d)", int(s))
	}
}

// Normal reports whether s is one of the six ordinary transmitter states.
func (s TxState) Normal() bool {
	return s >= StateIdle && s <= StateWait
}

// Default trigger parameters. The reference design watches a 24-bit probe
// bus for 0xDEADBE.
const (
	DefaultSentinel     = 0xDEADBE
	DefaultSentinelBits = 24
	DefaultDataBits     = 8
)

// TransmitterConfig configures a TriggeredStateMachine.
type TransmitterConfig struct {
	DataBits     int    // transmit word width in bits, 1..32
	SentinelBits int    // probe bus width in bits, 1..32
	Sentinel     uint32 // pattern that fires the trojan; must fit SentinelBits

	// HardResetRecovers selects whether a hard reset clears StateSpecialIdle.
	// The reference trojan defeats reset, so the default (false) keeps the
	// state absorbing even across resets; set true to model a
	// reset-honoring variant.
	HardResetRecovers bool
}

// DefaultTransmitterConfig returns the reference-design parameters.
func DefaultTransmitterConfig() TransmitterConfig {
	return TransmitterConfig{
		DataBits:     DefaultDataBits,
		SentinelBits: DefaultSentinelBits,
		Sentinel:     DefaultSentinel,
	}
}

// TxInput carries the per-cycle inputs. Probe is a secondary bus,
// independent of the transmit data path, so the trigger can be asserted
// without going through the normal handshake.
type TxInput struct {
	Probe uint32 // trigger probe bus
	Data  uint32 // transmit data word
	Valid bool   // producer has data
	Reset bool   // hard reset request (active)
}

// TxOutput carries the per-cycle outputs after the tick's transition.
type TxOutput struct {
	Line     bool    // serial line level; idle and stop are high, start is low
	Ready    bool    // consumer can accept a word this cycle
	State    TxState // current state, exposed for harness observability
	Accepted bool    // a valid/ready handshake committed on this tick
}

// TriggeredStateMachine is a serial word transmitter with an injected
// pattern trigger. Under ordinary input it frames words as
// start bit (low), DataBits data bits LSB-first, stop bit (high). When the
// probe bus carries the sentinel pattern in any normal state it enters
// StateDeadbeefDetect and, one cycle later, the absorbing StateSpecialIdle,
// where the line is forced high and ready forced false forever.
type TriggeredStateMachine struct {
	cfg      TransmitterConfig
	state    TxState
	shift    uint32
	bitsLeft int
}

// NewTriggeredStateMachine validates the configuration and builds the
// machine in StateIdle. Width or sentinel mismatches fail fast: the design
// assumes fixed, matching widths.
func NewTriggeredStateMachine(cfg TransmitterConfig) (*TriggeredStateMachine, error) {
	if cfg.DataBits < 1 || cfg.DataBits > 32 {
		return nil, fmt.Errorf("transmitter: data width %d outside [1,32]", cfg.DataBits)
	}
	if cfg.SentinelBits < 1 || cfg.SentinelBits > 32 {
		return nil, fmt.Errorf("transmitter: sentinel width %d outside [1,32]", cfg.SentinelBits)
	}
	if cfg.Sentinel&^core.WidthMask(cfg.SentinelBits) != 0 {
		return nil, fmt.Errorf("transmitter: sentinel %#x does not fit %d bits", cfg.Sentinel, cfg.SentinelBits)
	}
	return &TriggeredStateMachine{cfg: cfg, state: StateIdle}, nil
}

// State returns the current state.
func (t *TriggeredStateMachine) State() TxState {
	return t.state
}

// Config returns the construction parameters.
func (t *TriggeredStateMachine) Config() TransmitterConfig {
	return t.cfg
}

// Triggered reports whether the trojan payload has fired.
func (t *TriggeredStateMachine) Triggered() bool {
	return t.state == StateDeadbeefDetect || t.state == StateSpecialIdle
}

// Advance processes one clock tick: it applies exactly one state
// transition and returns the outputs for the new state. The sentinel guard
// is evaluated before all normal-flow transitions; that priority is part of
// the contract, not an artifact of evaluation order.
func (t *TriggeredStateMachine) Advance(in TxInput) TxOutput {
	accepted := t.step(in)
	return TxOutput{
		Line:     t.line(),
		Ready:    t.state == StateIdle,
		State:    t.state,
		Accepted: accepted,
	}
}

func (t *TriggeredStateMachine) step(in TxInput) bool {
	if in.Reset {
		if t.state == StateSpecialIdle && !t.cfg.HardResetRecovers {
			// The trojan defeats hard reset.
			return false
		}
		t.state = StateIdle
		t.shift = 0
		t.bitsLeft = 0
		return false
	}

	// Sentinel guard: preempts every normal-flow transition.
	probe := core.DataWord{Value: in.Probe, Width: t.cfg.SentinelBits}
	if t.state.Normal() && probe.Masked() == t.cfg.Sentinel {
		t.state = StateDeadbeefDetect
		return false
	}

	switch t.state {
	case StateIdle:
		hs := core.HandshakeSignals{Valid: in.Valid, Ready: true}
		if hs.Committed() {
			word := core.DataWord{Value: in.Data, Width: t.cfg.DataBits}
			t.shift = word.Masked()
			t.state = StateLoad
			return true
		}
	case StateLoad:
		t.bitsLeft = t.cfg.DataBits
		t.state = StateStart
	case StateStart:
		t.state = StateData
	case StateData:
		t.bitsLeft--
		if t.bitsLeft == 0 {
			t.state = StateStop
		} else {
			t.shift >>= 1
		}
	case StateStop:
		t.state = StateWait
	case StateWait:
		t.state = StateIdle
	case StateDeadbeefDetect:
		// Unconditional: the detect state does not re-check the probe.
		t.state = StateSpecialIdle
	case StateSpecialIdle:
		// Absorbing.
	default:
		panic(fmt.Sprintf("transmitter: illegal state %d", int(t.state)))
	}
	return false
}

// line computes the serial line level for the current state.
func (t *TriggeredStateMachine) line() bool {
	switch t.state {
	case StateStart:
		return false
	case StateData:
		return t.shift&1 == 1
	default:
		// Idle, load, stop, wait and both trojan states hold the line high.
		// SPECIAL_IDLE in particular forces it high every cycle.
		return true
	}
}
