package trader

// TriggerKind 标识触发平仓的保护类型
type TriggerKind string

const (
	TriggerStopLoss     TriggerKind = "stop_loss"
	TriggerTrailingStop TriggerKind = "trailing_stop"
)

// CloseEvent 描述一次已完成的自动平仓，供通知渠道使用
type CloseEvent struct {
	Symbol           string
	Side             string
	Quantity         float64
	Trigger          TriggerKind
	FillPrice        float64
	Pnl              float64
	PnlPercent       float64
	ThresholdPercent float64
	RiskLevel        string
	PeakPnlPercent   float64
	DrawdownPercent  float64
	Stage            string
}

// Notifier 接收平仓事件通知。实现必须自行兜底错误，通知失败不影响交易流程。
type Notifier interface {
	NotifyClose(event CloseEvent)
}
