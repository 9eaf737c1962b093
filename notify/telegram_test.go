package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nof1/trader"
)

func TestFormatCloseEventStopLoss(t *testing.T) {
	text := formatCloseEvent(trader.CloseEvent{
		Symbol: "BTC", Side: "long", Quantity: 2, Trigger: trader.TriggerStopLoss,
		FillPrice: 99.38, Pnl: -1.44, PnlPercent: -6,
		RiskLevel: "中风险", ThresholdPercent: -5,
	})

	assert.Contains(t, text, "止损")
	assert.Contains(t, text, "BTC")
	assert.Contains(t, text, "多单")
	assert.Contains(t, text, "中风险")
}

func TestFormatCloseEventTrailingStop(t *testing.T) {
	text := formatCloseEvent(trader.CloseEvent{
		Symbol: "ETH", Side: "short", Quantity: 3, Trigger: trader.TriggerTrailingStop,
		FillPrice: 94, Pnl: 17.7, PnlPercent: 9,
		PeakPnlPercent: 12, DrawdownPercent: 3, Stage: "10-15区间", ThresholdPercent: 2.5,
	})

	assert.Contains(t, text, "移动止盈")
	assert.Contains(t, text, "空单")
	assert.Contains(t, text, "12.00%")
	assert.Contains(t, text, "2.50%")
}
