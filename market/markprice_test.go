package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyFrameUpdatesCache(t *testing.T) {
	m := NewMarkPriceMonitor()

	frame := `[
		{"e":"markPriceUpdate","s":"BTCUSDT","p":"65000.10"},
		{"e":"markPriceUpdate","s":"ETHUSDT","p":"3000.5"},
		{"e":"markPriceUpdate","s":"BTCUSDC","p":"64990"},
		{"e":"markPriceUpdate","s":"SOLUSDT","p":"not-a-number"},
		{"e":"other","s":"XRPUSDT","p":"1.23"}
	]`
	m.applyFrame([]byte(frame))

	price, ok := m.MarkPrice("BTC")
	assert.True(t, ok)
	assert.Equal(t, 65000.10, price)

	price, ok = m.MarkPrice("eth")
	assert.True(t, ok)
	assert.Equal(t, 3000.5, price)

	// 非 USDT 本位、坏数字、非价格事件都被忽略
	_, ok = m.MarkPrice("SOL")
	assert.False(t, ok)
	_, ok = m.MarkPrice("XRP")
	assert.False(t, ok)

	snapshot := m.Snapshot()
	assert.Len(t, snapshot, 2)
	assert.Equal(t, 65000.10, snapshot["BTC"])
}

func TestApplyFrameIgnoresGarbage(t *testing.T) {
	m := NewMarkPriceMonitor()
	m.applyFrame([]byte(`{"not":"an array"}`))
	assert.Empty(t, m.Snapshot())
}

func TestBaseSymbol(t *testing.T) {
	assert.Equal(t, "BTC", baseSymbol("BTCUSDT"))
	assert.Equal(t, "BTC", baseSymbol(" btcusdt "))
	assert.Equal(t, "", baseSymbol("BTCUSD_PERP"))
	assert.Equal(t, "", baseSymbol(""))
}
