package trader

import (
	"errors"
	"testing"
	"time"

	"github.com/agiledragon/gomonkey/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nof1/store"
)

func newTestExecutor(t *testing.T, client *fakeClient) (*CloseExecutor, *store.Store, *positionTracker) {
	t.Helper()
	st := openTestStore(t)
	tracker := newPositionTracker()
	e := newCloseExecutor(client, st, tracker, nil)
	speedUp(e)
	return e, st, tracker
}

func longCloseRequest() *CloseRequest {
	return &CloseRequest{
		Symbol:           "BTC",
		Side:             "long",
		Quantity:         2,
		EntryPrice:       100,
		MarkPrice:        99.4,
		Leverage:         10,
		Trigger:          TriggerStopLoss,
		PnlPercent:       -6,
		ThresholdPercent: -5,
		RiskLevel:        "中风险",
	}
}

func TestCloseExecutorPositionGone(t *testing.T) {
	client := &fakeClient{
		placeErr: errors.New(`{"code":-2022,"msg":"ReduceOnly Order is rejected."}`),
	}
	e, st, tracker := newTestExecutor(t, client)

	require.NoError(t, st.UpsertPosition(&store.PositionRow{
		Symbol: "BTC", Side: "long", Quantity: 2, EntryPrice: 100, Leverage: 10,
		OpenedAt: store.ChinaTimeISO(),
	}))
	tracker.observe("BTC", -6)

	// 仓位已被对侧监控或人工平掉，算成功
	require.NoError(t, e.Close(longCloseRequest()))

	positions, err := st.Positions()
	require.NoError(t, err)
	assert.Empty(t, positions)

	_, tracked := tracker.get("BTC")
	assert.False(t, tracked)

	_, err = st.LatestCloseTrade("BTC")
	assert.ErrorIs(t, err, store.ErrTradeNotFound)
}

func TestCloseExecutorHardFailure(t *testing.T) {
	client := &fakeClient{placeErr: errors.New("request timeout")}
	e, _, tracker := newTestExecutor(t, client)
	tracker.observe("BTC", -6)

	assert.Error(t, e.Close(longCloseRequest()))

	// 下单失败时状态保留，下个周期重试
	_, tracked := tracker.get("BTC")
	assert.True(t, tracked)
}

func TestCloseExecutorFillPriceFallbackToTicker(t *testing.T) {
	client := &fakeClient{
		orderPayload: map[string]interface{}{"status": "open"},
		ticker:       map[string]interface{}{"last": "99.35", "markPrice": "99.36"},
	}
	st := openTestStore(t)
	tracker := newPositionTracker()
	e := newCloseExecutor(client, st, tracker, nil)

	// 订单迟迟不终结时不真的等 500ms 轮询间隔
	var sleeps []time.Duration
	patches := gomonkey.ApplyFunc(time.Sleep, func(d time.Duration) {
		sleeps = append(sleeps, d)
	})
	defer patches.Reset()

	require.NoError(t, e.Close(longCloseRequest()))

	// 初始等待一次 + 第 2..5 次轮询前各一次
	assert.Len(t, sleeps, 5)

	trade, err := st.LatestCloseTrade("BTC")
	require.NoError(t, err)
	assert.Equal(t, 99.35, trade.Price)
	assert.Equal(t, "pending", trade.Status)
}

func TestCloseExecutorFallbackToMarkPrice(t *testing.T) {
	client := &fakeClient{
		orderErr:  errors.New("order not found"),
		tickerErr: errors.New("ticker unavailable"),
	}
	e, st, _ := newTestExecutor(t, client)

	require.NoError(t, e.Close(longCloseRequest()))

	trade, err := st.LatestCloseTrade("BTC")
	require.NoError(t, err)
	assert.Equal(t, 99.4, trade.Price)
	assert.Equal(t, "pending", trade.Status)
}

func TestCloseExecutorMultiplierFailureLeavesPnlZero(t *testing.T) {
	client := &fakeClient{
		orderPayload:  map[string]interface{}{"status": "finished", "fill_price": 99.38},
		multiplierErr: errors.New("contract meta unavailable"),
	}
	e, st, _ := newTestExecutor(t, client)

	require.NoError(t, e.Close(longCloseRequest()))

	trade, err := st.LatestCloseTrade("BTC")
	require.NoError(t, err)
	assert.Equal(t, 0.0, trade.Pnl)
	assert.Equal(t, 0.0, trade.Fee)
}

func TestComputeClosePnl(t *testing.T) {
	req := longCloseRequest()

	pnl, fee := computeClosePnl(req, 99.38, 2, 1)
	assert.InDelta(t, 0.19938, fee, 1e-9)
	assert.InDelta(t, -1.43938, pnl, 1e-9)

	short := &CloseRequest{Symbol: "ETH", Side: "short", Quantity: 3, EntryPrice: 100}
	pnl, fee = computeClosePnl(short, 94, 3, 1)
	assert.InDelta(t, 0.2910, fee, 1e-9)
	assert.InDelta(t, 18.0-0.2910, pnl, 1e-9)

	// 部分成交按实际数量算
	pnl, fee = computeClosePnl(req, 99.38, 1, 1)
	assert.InDelta(t, 0.09969, fee, 1e-9)
	assert.InDelta(t, -0.71969, pnl, 1e-9)

	pnl, fee = computeClosePnl(req, 0, 2, 1)
	assert.Zero(t, pnl)
	assert.Zero(t, fee)
}

func TestCloseExecutorUsesFilledQuantity(t *testing.T) {
	client := &fakeClient{
		// 请求平 2 张，仓位已缩到 1 张，只减仓单被截断
		orderPayload: map[string]interface{}{"status": "finished", "fill_price": 99.38, "size": -1.0},
	}
	e, st, _ := newTestExecutor(t, client)

	require.NoError(t, e.Close(longCloseRequest()))

	trade, err := st.LatestCloseTrade("BTC")
	require.NoError(t, err)
	assert.Equal(t, 1.0, trade.Quantity)
	assert.InDelta(t, 0.09969, trade.Fee, 1e-6)
	assert.InDelta(t, -0.71969, trade.Pnl, 1e-6)
}

func TestCloseSide(t *testing.T) {
	assert.Equal(t, "sell", closeSide("long"))
	assert.Equal(t, "buy", closeSide("short"))
}
