// Package trace writes value-change-dump (VCD) waveforms so external tools
// can run offline timing analysis on the simulated signals.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"time"
)

// VCDWriter emits a VCD file incrementally. Declare all signals first, write
// the header once, then record values in non-decreasing timestamp order.
// Unchanged values are deduplicated as real dumpers do.
type VCDWriter struct {
	w          *bufio.Writer
	headerDone bool
	now        int64
	nextID     byte

	ids    map[string]string
	widths map[string]int
	order  []string
	last   map[string]string
}

// NewVCDWriter wraps w. The caller owns closing the underlying writer.
func NewVCDWriter(w io.Writer) *VCDWriter {
	return &VCDWriter{
		w:      bufio.NewWriter(w),
		nextID: '!',
		ids:    make(map[string]string),
		widths: make(map[string]int),
		last:   make(map[string]string),
	}
}

// AddSignal declares a signal before the header is written. Width 1 declares
// a scalar wire, larger widths a vector.
func (v *VCDWriter) AddSignal(name string, width int) error {
	if v.headerDone {
		return fmt.Errorf("vcd: cannot declare %q after the header", name)
	}
	if name == "" {
		return fmt.Errorf("vcd: signal name cannot be empty")
	}
	if width < 1 || width > 32 {
		return fmt.Errorf("vcd: signal %q width %d outside [1,32]", name, width)
	}
	if _, exists := v.ids[name]; exists {
		return fmt.Errorf("vcd: signal %q already declared", name)
	}
	if v.nextID > '~' {
		return fmt.Errorf("vcd: too many signals")
	}
	v.ids[name] = string(v.nextID)
	v.nextID++
	v.widths[name] = width
	v.order = append(v.order, name)
	return nil
}

// WriteHeader emits the declaration section. timescale is the duration of
// one VCD time unit; module names the enclosing scope.
func (v *VCDWriter) WriteHeader(module string, timescale time.Duration) error {
	if v.headerDone {
		return fmt.Errorf("vcd: header already written")
	}
	if len(v.order) == 0 {
		return fmt.Errorf("vcd: no signals declared")
	}
	if timescale <= 0 {
		timescale = time.Nanosecond
	}
	fmt.Fprintf(v.w, "$timescale %dns $end\n", timescale.Nanoseconds())
	fmt.Fprintf(v.w, "$scope module %s $end\n", module)
	for _, name := range v.order {
		fmt.Fprintf(v.w, "$var wire %d %s %s $end\n", v.widths[name], v.ids[name], name)
	}
	fmt.Fprint(v.w, "$upscope $end\n$enddefinitions $end\n")
	v.headerDone = true
	v.now = -1
	return nil
}

// EmitBit records a scalar value at time t.
func (v *VCDWriter) EmitBit(t int64, name string, value bool) error {
	bit := "0"
	if value {
		bit = "1"
	}
	return v.emit(t, name, bit, false)
}

// EmitVector records a multi-bit value at time t.
func (v *VCDWriter) EmitVector(t int64, name string, value uint32) error {
	return v.emit(t, name, fmt.Sprintf("b%b", value), true)
}

func (v *VCDWriter) emit(t int64, name, value string, vector bool) error {
	if !v.headerDone {
		return fmt.Errorf("vcd: header not written")
	}
	id, ok := v.ids[name]
	if !ok {
		return fmt.Errorf("vcd: unknown signal %q", name)
	}
	if t < v.now {
		return fmt.Errorf("vcd: timestamp %d precedes current time %d", t, v.now)
	}
	if v.last[name] == value {
		return nil
	}
	if t > v.now {
		fmt.Fprintf(v.w, "#%d\n", t)
		v.now = t
	}
	if vector {
		fmt.Fprintf(v.w, "%s %s\n", value, id)
	} else {
		fmt.Fprintf(v.w, "%s%s\n", value, id)
	}
	v.last[name] = value
	return nil
}

// Flush writes buffered output to the underlying writer.
func (v *VCDWriter) Flush() error {
	return v.w.Flush()
}
