package trader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPositionSnapshot(t *testing.T) {
	snap, err := newPositionSnapshot(map[string]interface{}{
		"contract":   "BTC_USDT",
		"size":       -2.5,
		"entryPrice": "65000",
		"markPrice":  64000.0,
		"leverage":   "10",
	})
	require.NoError(t, err)

	assert.Equal(t, "BTC", snap.Symbol)
	assert.Equal(t, "short", snap.Side)
	assert.Equal(t, 2.5, snap.Quantity)
	assert.Equal(t, 65000.0, snap.EntryPrice)
	assert.Equal(t, 64000.0, snap.MarkPrice)
	assert.Equal(t, 10, snap.Leverage)
	assert.True(t, snap.valid())
}

func TestNewPositionSnapshotMissingContract(t *testing.T) {
	_, err := newPositionSnapshot(map[string]interface{}{"size": 1.0})
	assert.Error(t, err)
}

func TestSnapshotValidity(t *testing.T) {
	base := positionSnapshot{Symbol: "ETH", Side: "long", Quantity: 1, EntryPrice: 3000, MarkPrice: 2900, Leverage: 5}
	assert.True(t, base.valid())

	zeroEntry := base
	zeroEntry.EntryPrice = 0
	assert.False(t, zeroEntry.valid())

	zeroMark := base
	zeroMark.MarkPrice = 0
	assert.False(t, zeroMark.valid())

	zeroLev := base
	zeroLev.Leverage = 0
	assert.False(t, zeroLev.valid())
}

func TestPnlPercentWithLeverage(t *testing.T) {
	long := positionSnapshot{Side: "long", EntryPrice: 100, MarkPrice: 99.4, Leverage: 10}
	assert.InDelta(t, -6.0, long.pnlPercent(), 1e-9)

	short := positionSnapshot{Side: "short", EntryPrice: 100, MarkPrice: 106, Leverage: 10}
	assert.InDelta(t, -60.0, short.pnlPercent(), 1e-9)

	shortWin := positionSnapshot{Side: "short", EntryPrice: 100, MarkPrice: 94, Leverage: 5}
	assert.InDelta(t, 30.0, shortWin.pnlPercent(), 1e-9)
}

func TestFloatFromAny(t *testing.T) {
	v, err := floatFromAny("  123.5 ")
	assert.NoError(t, err)
	assert.Equal(t, 123.5, v)

	_, err = floatFromAny("")
	assert.Error(t, err)

	_, err = floatFromAny(nil)
	assert.Error(t, err)

	_, err = floatFromAny(map[string]interface{}{})
	assert.Error(t, err)

	v, err = floatFromAny(int64(7))
	assert.NoError(t, err)
	assert.Equal(t, 7.0, v)
}
