// Package metrics collects tool call statistics for observability.
package metrics

import (
	"sync"
	"time"
)

// Metrics records tool calls and per-file edit outcomes.
type Metrics interface {
	// RecordToolCall records one tool invocation with its duration and whether it succeeded.
	RecordToolCall(tool string, duration time.Duration, success bool)
	// RecordOutcome records the outcome kind of one file edited by a tool.
	RecordOutcome(tool, kind string)
	// Snapshot returns the current metrics snapshot.
	Snapshot() Snapshot
	// Reset clears all metrics (useful for testing).
	Reset()
}

// Snapshot contains a point-in-time view of collected metrics.
type Snapshot struct {
	Tools        map[string]ToolMetrics
	Outcomes     map[string]int64 // kind -> count
	LastCallTime time.Time
}

// ToolMetrics tracks call statistics for one tool.
type ToolMetrics struct {
	Total     int64
	Success   int64
	Failed    int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// NoOpMetrics is a metrics collector that discards all metrics.
type NoOpMetrics struct{}

func (n *NoOpMetrics) RecordToolCall(_ string, _ time.Duration, _ bool) {}
func (n *NoOpMetrics) RecordOutcome(_, _ string)                        {}
func (n *NoOpMetrics) Snapshot() Snapshot                               { return Snapshot{} }
func (n *NoOpMetrics) Reset()                                           {}

// InMemoryMetrics is a thread-safe in-memory metrics collector.
type InMemoryMetrics struct {
	mu       sync.RWMutex
	tools    map[string]ToolMetrics
	outcomes map[string]int64
	lastCall time.Time
}

// NewInMemoryMetrics creates a new in-memory metrics collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		tools:    make(map[string]ToolMetrics),
		outcomes: make(map[string]int64),
	}
}

func (m *InMemoryMetrics) RecordToolCall(tool string, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.tools[tool]
	stats.Total++
	if success {
		stats.Success++
	} else {
		stats.Failed++
	}
	stats.TotalTime += duration
	if stats.Total == 1 || duration < stats.MinTime {
		stats.MinTime = duration
	}
	if duration > stats.MaxTime {
		stats.MaxTime = duration
	}
	m.tools[tool] = stats
	m.lastCall = time.Now()
}

func (m *InMemoryMetrics) RecordOutcome(_ string, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[kind]++
}

func (m *InMemoryMetrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := Snapshot{
		Tools:        make(map[string]ToolMetrics, len(m.tools)),
		Outcomes:     make(map[string]int64, len(m.outcomes)),
		LastCallTime: m.lastCall,
	}
	for k, v := range m.tools {
		snapshot.Tools[k] = v
	}
	for k, v := range m.outcomes {
		snapshot.Outcomes[k] = v
	}
	return snapshot
}

func (m *InMemoryMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tools = make(map[string]ToolMetrics)
	m.outcomes = make(map[string]int64)
	m.lastCall = time.Time{}
}
