package main

import (
	"github.com/womat/debug"

	"github.com/example/trojan_sim/trojan"
)

// ConformanceChecker verifies the SPECIAL_IDLE output contract on every
// cycle: while the trojan payload holds the machine there, the transmit
// line must be logic-high and ready must be false, with no exception.
type ConformanceChecker struct {
	samples    int
	violations int
}

// Check inspects one cycle's outputs. It returns false and records a
// violation when the contract is broken.
func (c *ConformanceChecker) Check(cycle int, out trojan.TxOutput) bool {
	if out.State != trojan.StateSpecialIdle {
		return true
	}
	c.samples++
	if out.Line && !out.Ready && !out.Accepted {
		return true
	}
	c.violations++
	debug.WarningLog.Printf("conformance violation at cycle %d: line=%v ready=%v accepted=%v",
		cycle, out.Line, out.Ready, out.Accepted)
	return false
}

// Samples returns how many SPECIAL_IDLE cycles were inspected.
func (c *ConformanceChecker) Samples() int {
	return c.samples
}

// Violations returns how many inspected cycles broke the contract.
func (c *ConformanceChecker) Violations() int {
	return c.violations
}

// Reset clears the counters for a fresh run.
func (c *ConformanceChecker) Reset() {
	c.samples = 0
	c.violations = 0
}
