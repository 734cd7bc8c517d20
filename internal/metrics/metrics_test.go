package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInMemoryMetricsRecordsToolCalls(t *testing.T) {
	t.Parallel()

	m := NewInMemoryMetrics()
	m.RecordToolCall("patch", 30*time.Millisecond, true)
	m.RecordToolCall("patch", 10*time.Millisecond, false)
	m.RecordToolCall("patch", 20*time.Millisecond, true)
	m.RecordOutcome("patch", "ok")
	m.RecordOutcome("patch", "conflict")
	m.RecordOutcome("patch", "ok")

	snap := m.Snapshot()
	stats := snap.Tools["patch"]
	require.EqualValues(t, 3, stats.Total)
	require.EqualValues(t, 2, stats.Success)
	require.EqualValues(t, 1, stats.Failed)
	require.Equal(t, 60*time.Millisecond, stats.TotalTime)
	require.Equal(t, 10*time.Millisecond, stats.MinTime)
	require.Equal(t, 30*time.Millisecond, stats.MaxTime)
	require.EqualValues(t, 2, snap.Outcomes["ok"])
	require.EqualValues(t, 1, snap.Outcomes["conflict"])
	require.False(t, snap.LastCallTime.IsZero())

	m.Reset()
	require.Empty(t, m.Snapshot().Tools)
}

func TestInMemoryMetricsConcurrentUse(t *testing.T) {
	t.Parallel()

	m := NewInMemoryMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordToolCall("read", time.Millisecond, true)
			m.RecordOutcome("read", "ok")
		}()
	}
	wg.Wait()

	require.EqualValues(t, 50, m.Snapshot().Tools["read"].Total)
	require.EqualValues(t, 50, m.Snapshot().Outcomes["ok"])
}

func TestSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	m := NewInMemoryMetrics()
	m.RecordOutcome("x", "ok")
	snap := m.Snapshot()
	snap.Outcomes["ok"] = 99
	require.EqualValues(t, 1, m.Snapshot().Outcomes["ok"])
}
