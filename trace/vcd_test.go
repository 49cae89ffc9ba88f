package trace

import (
	"strings"
	"testing"
	"time"
)

func newTestWriter(t *testing.T, b *strings.Builder) *VCDWriter {
	t.Helper()
	v := NewVCDWriter(b)
	if err := v.AddSignal("dclk", 1); err != nil {
		t.Fatalf("declaring dclk: %v", err)
	}
	if err := v.AddSignal("state", 4); err != nil {
		t.Fatalf("declaring state: %v", err)
	}
	if err := v.WriteHeader("trojan_sim", time.Nanosecond); err != nil {
		t.Fatalf("writing header: %v", err)
	}
	return v
}

func TestVCDHeader(t *testing.T) {
	var b strings.Builder
	v := newTestWriter(t, &b)
	if err := v.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	out := b.String()
	for _, want := range []string{
		"$timescale 1ns $end",
		"$scope module trojan_sim $end",
		"$var wire 1 ! dclk $end",
		"$var wire 4 \" state $end",
		"$enddefinitions $end",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("header missing %q in:\n%s", want, out)
		}
	}
}

func TestVCDValueChanges(t *testing.T) {
	var b strings.Builder
	v := newTestWriter(t, &b)

	if err := v.EmitBit(0, "dclk", true); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := v.EmitVector(0, "state", 6); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := v.EmitBit(5, "dclk", false); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := v.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	out := b.String()
	for _, want := range []string{"#0\n", "1!\n", "b110 \"\n", "#5\n", "0!\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q in:\n%s", want, out)
		}
	}
}

func TestVCDDeduplicatesUnchangedValues(t *testing.T) {
	var b strings.Builder
	v := newTestWriter(t, &b)

	for i := int64(0); i < 4; i++ {
		if err := v.EmitBit(i, "dclk", true); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}
	if err := v.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := strings.Count(b.String(), "1!"); got != 1 {
		t.Fatalf("expected one value change, found %d:\n%s", got, b.String())
	}
}

func TestVCDErrors(t *testing.T) {
	var b strings.Builder
	v := NewVCDWriter(&b)

	if err := v.EmitBit(0, "dclk", true); err == nil {
		t.Fatal("expected error before header")
	}
	if err := v.AddSignal("", 1); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := v.AddSignal("wide", 33); err == nil {
		t.Fatal("expected error for oversized width")
	}
	if err := v.AddSignal("dclk", 1); err != nil {
		t.Fatalf("declaring dclk: %v", err)
	}
	if err := v.AddSignal("dclk", 1); err == nil {
		t.Fatal("expected error for duplicate signal")
	}
	if err := v.WriteHeader("m", time.Nanosecond); err != nil {
		t.Fatalf("writing header: %v", err)
	}
	if err := v.AddSignal("late", 1); err == nil {
		t.Fatal("expected error declaring after header")
	}
	if err := v.EmitBit(0, "missing", true); err == nil {
		t.Fatal("expected error for unknown signal")
	}
	if err := v.EmitBit(3, "dclk", true); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := v.EmitBit(1, "dclk", false); err == nil {
		t.Fatal("expected error for rewinding time")
	}
}
