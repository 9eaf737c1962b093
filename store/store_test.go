package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTradePairingAndPatch(t *testing.T) {
	s := openTestStore(t)

	open := &Trade{
		OrderID: "1001", Symbol: "BTC", Side: "long", Type: "open",
		Price: 100, Quantity: 2, Leverage: 10, Timestamp: "2025-01-01T10:00:00+08:00", Status: "filled",
	}
	require.NoError(t, s.InsertTrade(open))

	closeTrade := &Trade{
		OrderID: "1002", Symbol: "BTC", Side: "long", Type: "close",
		Price: 0, Quantity: 2, Leverage: 10, Timestamp: "2025-01-01T12:00:00+08:00", Status: "pending",
	}
	require.NoError(t, s.InsertTrade(closeTrade))
	assert.NotZero(t, closeTrade.ID)

	latest, err := s.LatestCloseTrade("BTC")
	require.NoError(t, err)
	assert.Equal(t, closeTrade.ID, latest.ID)

	matchedOpen, err := s.LatestOpenTradeBefore("BTC", latest.Timestamp)
	require.NoError(t, err)
	assert.Equal(t, open.OrderID, matchedOpen.OrderID)

	// 平仓之后的开仓不能被配对
	_, err = s.LatestOpenTradeBefore("BTC", open.Timestamp)
	assert.ErrorIs(t, err, ErrTradeNotFound)

	require.NoError(t, s.PatchTrade(closeTrade.ID, 94, -13.2, 0.194))
	patched, err := s.LatestCloseTrade("BTC")
	require.NoError(t, err)
	assert.InDelta(t, 94, patched.Price, 1e-9)
	assert.InDelta(t, -13.2, patched.Pnl, 1e-9)
	assert.InDelta(t, 0.194, patched.Fee, 1e-9)
}

func TestLatestCloseTradeNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LatestCloseTrade("ETH")
	assert.ErrorIs(t, err, ErrTradeNotFound)
}

func TestPositionPeakRoundTrip(t *testing.T) {
	s := openTestStore(t)

	_, found, err := s.PositionPeak("SOL")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.UpsertPosition(&PositionRow{
		Symbol: "SOL", Side: "long", Quantity: 10, EntryPrice: 150, Leverage: 8,
		OpenedAt: "2025-01-01T09:00:00+08:00",
	}))
	require.NoError(t, s.UpdatePositionPeak("SOL", 12.5))

	peak, found, err := s.PositionPeak("SOL")
	require.NoError(t, err)
	assert.True(t, found)
	assert.InDelta(t, 12.5, peak, 1e-9)

	require.NoError(t, s.DeletePosition("SOL"))
	_, found, err = s.PositionPeak("SOL")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDecisionsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.InsertDecision(&Decision{
		Timestamp:      "2025-01-01T12:00:00+08:00",
		Iteration:      0,
		MarketAnalysis: `{"trigger":"stop_loss","symbol":"BTC"}`,
		Decision:       "【止损触发】BTC 做多",
		ActionsTaken:   `[{"action":"close_position","symbol":"BTC"}]`,
	}))

	decisions, err := s.RecentDecisions(10)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, 0, decisions[0].Iteration)
	assert.Contains(t, decisions[0].Decision, "BTC")
}
