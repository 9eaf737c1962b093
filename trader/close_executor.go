package trader

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"nof1/exchange"
	"nof1/store"
)

// takerFeeRate 单边吃单手续费率
const takerFeeRate = 0.0005

// CloseRequest 描述一次待执行的代码级平仓
type CloseRequest struct {
	Symbol     string
	Side       string
	Quantity   float64
	EntryPrice float64
	MarkPrice  float64
	Leverage   int
	Trigger    TriggerKind
	PnlPercent float64

	// 止损触发字段
	ThresholdPercent float64
	RiskLevel        string

	// 移动止盈触发字段
	PeakPnlPercent  float64
	DrawdownPercent float64
	Stage           string
}

// CloseExecutor 执行市价平仓并完成落库、对账与通知。
// 每个监控器持有自己的执行器，执行器同时负责清理该监控器的跟踪状态。
type CloseExecutor struct {
	client   exchange.Client
	store    *store.Store
	tracker  *positionTracker
	notifier Notifier

	pollRetries  int
	pollInterval time.Duration
}

func newCloseExecutor(client exchange.Client, st *store.Store, tracker *positionTracker, notifier Notifier) *CloseExecutor {
	return &CloseExecutor{
		client:       client,
		store:        st,
		tracker:      tracker,
		notifier:     notifier,
		pollRetries:  5,
		pollInterval: 500 * time.Millisecond,
	}
}

// Close 以只减仓市价单平掉指定持仓。
// 持仓已不存在（对侧监控或人工已平）视为成功。
func (e *CloseExecutor) Close(req *CloseRequest) error {
	contract := exchange.Contract(req.Symbol)

	// 多头平仓下负数 size，空头平仓下正数 size
	size := req.Quantity
	if req.Side == "long" {
		size = -size
	}

	log.Printf("⚡ [%s] 执行%s平仓: %s %s 数量=%v 触发=%s",
		req.Symbol, triggerLabel(req.Trigger), req.Side, contract, req.Quantity, req.Trigger)

	result, err := e.client.PlaceOrder(&exchange.OrderParams{
		Contract:   contract,
		Size:       size,
		Price:      0,
		ReduceOnly: true,
	})
	if err != nil {
		if exchange.IsPositionGone(err) {
			log.Printf("ℹ️ [%s] 持仓已不存在，清理本地状态: %v", req.Symbol, err)
			if derr := e.store.DeletePosition(req.Symbol); derr != nil {
				log.Printf("⚠️ [%s] 清理持仓记录失败: %v", req.Symbol, derr)
			}
			e.tracker.delete(req.Symbol)
			return nil
		}
		return fmt.Errorf("平仓下单失败: %w", err)
	}

	orderID, _ := stringFromAny(result["id"])
	log.Printf("📋 [%s] 平仓订单已提交: orderID=%s", req.Symbol, orderID)

	// 给撮合留一点时间再查询成交
	time.Sleep(2 * e.pollInterval)

	fillPrice, fillQuantity, filled := e.resolveFillPrice(req, orderID)
	if fillQuantity != req.Quantity {
		log.Printf("ℹ️ [%s] 实际成交数量 %v 小于请求数量 %v（仓位在下单前已缩减）",
			req.Symbol, fillQuantity, req.Quantity)
	}

	pnl, fee := 0.0, 0.0
	multiplier, err := e.client.GetContractMultiplier(contract)
	if err != nil {
		log.Printf("⚠️ [%s] 获取合约乘数失败，盈亏留待对账修正: %v", req.Symbol, err)
	} else {
		pnl, fee = computeClosePnl(req, fillPrice, fillQuantity, multiplier)
	}

	status := "filled"
	if !filled {
		status = "pending"
	}

	trade := &store.Trade{
		OrderID:   orderID,
		Symbol:    req.Symbol,
		Side:      closeSide(req.Side),
		Type:      "close",
		Price:     fillPrice,
		Quantity:  fillQuantity,
		Leverage:  req.Leverage,
		Pnl:       pnl,
		Fee:       fee,
		Timestamp: store.ChinaTimeISO(),
		Status:    status,
	}
	if err := e.store.InsertTrade(trade); err != nil {
		// 落库失败不回滚平仓，但必须大声记录
		log.Printf("🚨 [%s] 平仓成交记录写入失败，需要人工核对: %v", req.Symbol, err)
	} else if err := e.reconciler().reconcileCloseTrade(req.Symbol); err != nil {
		log.Printf("⚠️ [%s] 平仓对账失败: %v", req.Symbol, err)
	}

	e.recordDecision(req, orderID, fillPrice, pnl)

	if err := e.store.DeletePosition(req.Symbol); err != nil {
		log.Printf("⚠️ [%s] 删除持仓记录失败: %v", req.Symbol, err)
	}
	e.tracker.delete(req.Symbol)

	log.Printf("✅ [%s] %s平仓完成: 成交价=%v 盈亏=%.4f USDT", req.Symbol, triggerLabel(req.Trigger), fillPrice, pnl)

	if e.notifier != nil {
		e.notifier.NotifyClose(CloseEvent{
			Symbol:           req.Symbol,
			Side:             req.Side,
			Quantity:         fillQuantity,
			Trigger:          req.Trigger,
			FillPrice:        fillPrice,
			Pnl:              pnl,
			PnlPercent:       req.PnlPercent,
			ThresholdPercent: req.ThresholdPercent,
			RiskLevel:        req.RiskLevel,
			PeakPnlPercent:   req.PeakPnlPercent,
			DrawdownPercent:  req.DrawdownPercent,
			Stage:            req.Stage,
		})
	}

	return nil
}

// resolveFillPrice 解析平仓成交价和实际成交数量，价格按可靠性降级：
// 轮询订单成交 -> 行情最新价/标记价 -> 触发时的标记价。
// 订单未终结时成交数量只能按请求数量估计，留待对账修正。
func (e *CloseExecutor) resolveFillPrice(req *CloseRequest, orderID string) (price, quantity float64, filled bool) {
	contract := exchange.Contract(req.Symbol)

	if orderID != "" {
		for i := 0; i < e.pollRetries; i++ {
			if i > 0 {
				time.Sleep(e.pollInterval)
			}
			order, err := e.client.GetOrder(orderID)
			if err != nil {
				log.Printf("⚠️ [%s] 查询平仓订单失败（第 %d 次）: %v", req.Symbol, i+1, err)
				continue
			}
			status, _ := stringFromAny(order["status"])
			if status != "finished" {
				continue
			}

			// 只减仓单可能被缩水的仓位截断，以订单回报的成交数量为准
			quantity = req.Quantity
			if size, err := floatFromAny(order["size"]); err == nil && size != 0 {
				quantity = math.Abs(size)
			}

			if fill, err := floatFromAny(order["fill_price"]); err == nil && fill > 0 {
				return fill, quantity, true
			}
			if p, err := floatFromAny(order["price"]); err == nil && p > 0 {
				return p, quantity, true
			}
		}
	}

	if ticker, err := e.client.GetFuturesTicker(contract); err == nil {
		if last, err := floatFromAny(ticker["last"]); err == nil && last > 0 {
			log.Printf("ℹ️ [%s] 订单成交价不可用，使用最新成交价 %v", req.Symbol, last)
			return last, req.Quantity, false
		}
		if mark, err := floatFromAny(ticker["markPrice"]); err == nil && mark > 0 {
			log.Printf("ℹ️ [%s] 订单成交价不可用，使用标记价格 %v", req.Symbol, mark)
			return mark, req.Quantity, false
		}
	}

	log.Printf("⚠️ [%s] 成交价全部降级失败，回退到触发时标记价 %v", req.Symbol, req.MarkPrice)
	return req.MarkPrice, req.Quantity, false
}

func (e *CloseExecutor) reconciler() *tradeReconciler {
	return &tradeReconciler{client: e.client, store: e.store}
}

// recordDecision 写入平仓审计记录。审计失败只记日志。
func (e *CloseExecutor) recordDecision(req *CloseRequest, orderID string, fillPrice, pnl float64) {
	analysis := map[string]interface{}{
		"trigger":      string(req.Trigger),
		"symbol":       req.Symbol,
		"side":         req.Side,
		"entry_price":  req.EntryPrice,
		"mark_price":   req.MarkPrice,
		"leverage":     req.Leverage,
		"pnl_percent":  req.PnlPercent,
		"fill_price":   fillPrice,
		"realized_pnl": pnl,
		"peak_pnl":     req.PeakPnlPercent,
		"drawdown":     req.DrawdownPercent,
		"stage":        req.Stage,
		"threshold":    req.ThresholdPercent,
		"risk_level":   req.RiskLevel,
	}
	analysisJSON, _ := json.Marshal(analysis)

	actions := []map[string]interface{}{
		{
			"id":       uuid.NewString(),
			"action":   "close_position",
			"symbol":   req.Symbol,
			"order_id": orderID,
			"reason":   string(req.Trigger),
		},
	}
	actionsJSON, _ := json.Marshal(actions)

	var text string
	switch req.Trigger {
	case TriggerStopLoss:
		text = fmt.Sprintf("代码级止损触发：%s %s 杠杆%dx 亏损%.2f%% 超过%s阈值%.2f%%，已市价平仓",
			req.Symbol, req.Side, req.Leverage, req.PnlPercent, req.RiskLevel, req.ThresholdPercent)
	case TriggerTrailingStop:
		text = fmt.Sprintf("代码级移动止盈触发：%s %s 峰值盈利%.2f%% 回撤%.2f%% 超过%s阈值%.2f%%，已市价平仓",
			req.Symbol, req.Side, req.PeakPnlPercent, req.DrawdownPercent, req.Stage, req.ThresholdPercent)
	default:
		text = fmt.Sprintf("代码级风控平仓：%s %s", req.Symbol, req.Side)
	}

	decision := &store.Decision{
		Timestamp:      store.ChinaTimeISO(),
		Iteration:      0,
		MarketAnalysis: string(analysisJSON),
		Decision:       text,
		ActionsTaken:   string(actionsJSON),
	}
	if err := e.store.InsertDecision(decision); err != nil {
		log.Printf("⚠️ [%s] 审计记录写入失败: %v", req.Symbol, err)
	}
}

// computeClosePnl 按实际成交数量计算平仓已实现盈亏与往返手续费
func computeClosePnl(req *CloseRequest, fillPrice, quantity, multiplier float64) (pnl, fee float64) {
	if fillPrice <= 0 || math.IsNaN(fillPrice) || math.IsInf(fillPrice, 0) {
		return 0, 0
	}

	priceChange := fillPrice - req.EntryPrice
	if req.Side == "short" {
		priceChange = -priceChange
	}

	notionalQty := quantity * multiplier
	openFee := req.EntryPrice * notionalQty * takerFeeRate
	closeFee := fillPrice * notionalQty * takerFeeRate
	fee = openFee + closeFee
	pnl = priceChange*notionalQty - fee
	return pnl, fee
}

// closeSide 返回平仓方向（多头平仓卖出，空头平仓买入）
func closeSide(positionSide string) string {
	if positionSide == "long" {
		return "sell"
	}
	return "buy"
}

func triggerLabel(trigger TriggerKind) string {
	switch trigger {
	case TriggerStopLoss:
		return "止损"
	case TriggerTrailingStop:
		return "移动止盈"
	default:
		return "风控"
	}
}
