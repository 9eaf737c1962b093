package trader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerPeakMonotonic(t *testing.T) {
	tracker := newPositionTracker()

	state, created, _, raised := tracker.observe("BTC", 2.0)
	assert.True(t, created)
	assert.False(t, raised)
	assert.Equal(t, 2.0, state.PeakPnlPercent)
	assert.Equal(t, 1, state.CheckCount)

	state, created, prev, raised := tracker.observe("BTC", 5.0)
	assert.False(t, created)
	assert.True(t, raised)
	assert.Equal(t, 2.0, prev)
	assert.Equal(t, 5.0, state.PeakPnlPercent)

	// 回落不拉低峰值
	state, _, _, raised = tracker.observe("BTC", 3.0)
	assert.False(t, raised)
	assert.Equal(t, 5.0, state.PeakPnlPercent)
	assert.Equal(t, 3, state.CheckCount)
}

func TestTrackerSeedOnlyWhenUntracked(t *testing.T) {
	tracker := newPositionTracker()

	tracker.seed("ETH", 8.0)
	state, ok := tracker.get("ETH")
	assert.True(t, ok)
	assert.Equal(t, 8.0, state.PeakPnlPercent)

	// 已跟踪时 seed 是 no-op
	tracker.seed("ETH", 20.0)
	state, _ = tracker.get("ETH")
	assert.Equal(t, 8.0, state.PeakPnlPercent)

	// 恢复的峰值高于当前观测时保持不变
	state, _, _, raised := tracker.observe("ETH", 5.0)
	assert.False(t, raised)
	assert.Equal(t, 8.0, state.PeakPnlPercent)
}

func TestTrackerPruneToActiveSet(t *testing.T) {
	tracker := newPositionTracker()
	tracker.observe("BTC", 1)
	tracker.observe("ETH", 2)
	tracker.observe("SOL", 3)

	removed := tracker.pruneToActiveSet(map[string]bool{"BTC": true})
	assert.ElementsMatch(t, []string{"ETH", "SOL"}, removed)

	_, ok := tracker.get("BTC")
	assert.True(t, ok)
	_, ok = tracker.get("ETH")
	assert.False(t, ok)

	assert.Len(t, tracker.snapshotAll(), 1)
}

func TestTrackerClear(t *testing.T) {
	tracker := newPositionTracker()
	tracker.observe("BTC", 1)
	tracker.observe("ETH", 2)

	assert.Equal(t, 2, tracker.clear())
	assert.Empty(t, tracker.snapshotAll())
	assert.Equal(t, 0, tracker.clear())
}
