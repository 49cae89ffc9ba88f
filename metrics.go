package main

import (
	"sync"
	"time"

	"github.com/womat/debug"
)

type metricsCollector struct {
	mu             sync.Mutex
	interval       time.Duration
	cycleCount     int
	triggers       int
	lastReportTime time.Time
}

func newMetricsCollector(interval time.Duration) *metricsCollector {
	return &metricsCollector{
		interval:       interval,
		lastReportTime: time.Now(),
	}
}

func (m *metricsCollector) RecordCycles(count int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.cycleCount += count
	m.emitIfNeeded()
	m.mu.Unlock()
}

func (m *metricsCollector) RecordTrigger() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.triggers++
	m.emitIfNeeded()
	m.mu.Unlock()
}

func (m *metricsCollector) emitIfNeeded() {
	now := time.Now()
	if now.Sub(m.lastReportTime) < m.interval {
		return
	}
	duration := now.Sub(m.lastReportTime).Seconds()
	throughput := float64(m.cycleCount)
	if duration > 0 {
		throughput = throughput / duration
	}
	debug.InfoLog.Printf("throughput %.0f cycles/s, trojan triggers %d", throughput, m.triggers)
	m.cycleCount = 0
	m.triggers = 0
	m.lastReportTime = now
}

var metrics = newMetricsCollector(DefaultMetricsInterval)
