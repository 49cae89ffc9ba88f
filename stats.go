package main

import "fmt"

// SimulationStats summarizes one run.
type SimulationStats struct {
	TotalCycles int `json:"totalCycles"`

	// Timing channel.
	AlignedEdges int `json:"alignedEdges"`
	DelayedEdges int `json:"delayedEdges"`
	KeyPeriods   int `json:"keyPeriods"` // complete key repetitions leaked

	// Transmitter.
	WordsAccepted     int `json:"wordsAccepted"`
	WordsSent         int `json:"wordsSent"`
	TriggerCycle      int `json:"triggerCycle"` // -1 when the trojan never fired
	SpecialIdleCycles int `json:"specialIdleCycles"`

	ConformanceSamples    int `json:"conformanceSamples"`
	ConformanceViolations int `json:"conformanceViolations"`
}

// PrintStats writes a run summary to stdout.
func PrintStats(stats *SimulationStats) {
	if stats == nil {
		fmt.Println("No stats available")
		return
	}
	fmt.Println("=== Timing Channel ===")
	fmt.Printf("Cycles: %d\n", stats.TotalCycles)
	fmt.Printf("Aligned Edges: %d\n", stats.AlignedEdges)
	fmt.Printf("Delayed Edges: %d\n", stats.DelayedEdges)
	fmt.Printf("Key Periods Leaked: %d\n", stats.KeyPeriods)

	fmt.Println()
	fmt.Println("=== Transmitter ===")
	fmt.Printf("Words Accepted: %d\n", stats.WordsAccepted)
	fmt.Printf("Words Sent: %d\n", stats.WordsSent)
	if stats.TriggerCycle >= 0 {
		fmt.Printf("Trojan Triggered: cycle %d\n", stats.TriggerCycle)
		fmt.Printf("Cycles in SPECIAL_IDLE: %d\n", stats.SpecialIdleCycles)
	} else {
		fmt.Println("Trojan Triggered: never")
	}

	fmt.Println()
	fmt.Println("=== Conformance ===")
	fmt.Printf("SPECIAL_IDLE cycles checked: %d\n", stats.ConformanceSamples)
	fmt.Printf("Violations: %d\n", stats.ConformanceViolations)
}
