package core

// ClockTick represents one rising edge of a reference clock. It carries no
// data, only ordering: Index increases monotonically within one clock domain.
type ClockTick struct {
	Index int
}

// DataWord is a fixed-width unsigned value observed on a bus. Width is the
// declared bus width in bits; bits above it are ignored by Masked.
type DataWord struct {
	Value uint32
	Width int
}

// Masked returns the word value truncated to the declared bus width.
func (d DataWord) Masked() uint32 {
	return d.Value & WidthMask(d.Width)
}

// WidthMask returns a mask covering the low width bits. Widths outside 1..32
// yield a full 32-bit mask.
func WidthMask(width int) uint32 {
	if width <= 0 || width >= 32 {
		return ^uint32(0)
	}
	return (uint32(1) << uint(width)) - 1
}

// HandshakeSignals is a valid/ready pair exchanged each cycle. A data
// transfer is committed only on a cycle where both are true.
type HandshakeSignals struct {
	Valid bool
	Ready bool
}

// Committed reports whether this cycle commits a transfer.
func (h HandshakeSignals) Committed() bool {
	return h.Valid && h.Ready
}
