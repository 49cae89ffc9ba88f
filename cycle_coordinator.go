package main

import (
	"math"
	"sync"
)

// Clock domain identifiers. The encoder runs on the reference clock, the
// transmitter on its own data clock; the coordinator keeps both in lock-step
// per logical cycle.
const (
	DomainEncoder     = "encoder_clk"
	DomainTransmitter = "tx_clk"
)

// CycleCoordinator orchestrates target cycle progression across the clock
// domains. Each domain repeatedly calls WaitForCycle to obtain the cycle to
// execute, processes its tick to completion, and calls MarkDone. Once every
// domain reports completion the coordinator advances to the next cycle, up
// to the configured maximum target.
type CycleCoordinator struct {
	mu   sync.Mutex
	cond *sync.Cond

	targetCycle    int
	maxTargetCycle int
	domainDone     map[string]int
	stopped        bool
}

// NewCycleCoordinator creates a coordinator for the provided clock domains.
func NewCycleCoordinator(domains []string) *CycleCoordinator {
	cc := &CycleCoordinator{
		maxTargetCycle: math.MaxInt32,
		domainDone:     make(map[string]int, len(domains)),
	}
	for _, d := range domains {
		cc.domainDone[d] = -1 // no cycle completed yet
	}
	cc.cond = sync.NewCond(&cc.mu)
	return cc
}

// SetMaxTarget raises the maximum cycle the domains may advance to.
func (cc *CycleCoordinator) SetMaxTarget(maxCycle int) {
	cc.mu.Lock()
	cc.maxTargetCycle = maxCycle
	cc.cond.Broadcast()
	cc.mu.Unlock()
}

// Stop wakes all waiters and makes WaitForCycle return -1 from now on.
func (cc *CycleCoordinator) Stop() {
	cc.mu.Lock()
	cc.stopped = true
	cc.cond.Broadcast()
	cc.mu.Unlock()
}

// WaitForCycle blocks until the coordinator assigns a cycle for the domain
// to execute, or returns -1 after Stop.
func (cc *CycleCoordinator) WaitForCycle(domain string) int {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	for {
		if cc.stopped {
			return -1
		}
		if cc.targetCycle <= cc.maxTargetCycle {
			if done := cc.domainDone[domain]; done < cc.targetCycle {
				return cc.targetCycle
			}
		}
		cc.cond.Wait()
	}
}

// MarkDone records the domain's completed cycle and advances the global
// target once all domains reach it.
func (cc *CycleCoordinator) MarkDone(domain string, cycle int) {
	cc.mu.Lock()
	if cycle > cc.domainDone[domain] {
		cc.domainDone[domain] = cycle
		if !cc.stopped && cc.allDoneLocked() && cc.targetCycle <= cc.maxTargetCycle {
			cc.targetCycle++
		}
		cc.cond.Broadcast()
	}
	cc.mu.Unlock()
}

// TargetCycle returns the cycle currently being executed.
func (cc *CycleCoordinator) TargetCycle() int {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.targetCycle
}

func (cc *CycleCoordinator) allDoneLocked() bool {
	for _, done := range cc.domainDone {
		if done < cc.targetCycle {
			return false
		}
	}
	return true
}
