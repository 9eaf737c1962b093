package trader

import (
	"errors"
	"log"
	"math"

	"nof1/exchange"
	"nof1/store"
)

// 对账容差：超过任一容差才回写修正
const (
	priceTolerance = 0.01
	pnlTolerance   = 0.5
	feeTolerance   = 0.1
)

// tradeReconciler 将最近一笔平仓记录与对应开仓记录配对，
// 重算盈亏和手续费后修正落库偏差。重复执行是幂等的。
type tradeReconciler struct {
	client exchange.Client
	store  *store.Store
}

// reconcileCloseTrade 对指定币种最近一次平仓做盈亏对账。
// 找不到可配对的开仓记录不算错误，只记日志后返回。
func (r *tradeReconciler) reconcileCloseTrade(symbol string) error {
	closeTrade, err := r.store.LatestCloseTrade(symbol)
	if err != nil {
		if errors.Is(err, store.ErrTradeNotFound) {
			log.Printf("ℹ️ [%s] 无平仓记录，跳过对账", symbol)
			return nil
		}
		return err
	}

	openTrade, err := r.store.LatestOpenTradeBefore(symbol, closeTrade.Timestamp)
	if err != nil {
		if errors.Is(err, store.ErrTradeNotFound) {
			log.Printf("ℹ️ [%s] 找不到配对的开仓记录，跳过对账", symbol)
			return nil
		}
		return err
	}

	closePrice := closeTrade.Price
	if closePrice <= 0 || math.IsNaN(closePrice) || math.IsInf(closePrice, 0) {
		ticker, terr := r.client.GetFuturesTicker(exchange.Contract(symbol))
		if terr != nil {
			log.Printf("⚠️ [%s] 平仓价无效且行情不可用，对账中止: %v", symbol, terr)
			return nil
		}
		if last, ferr := floatFromAny(ticker["last"]); ferr == nil && last > 0 {
			closePrice = last
		} else if mark, ferr := floatFromAny(ticker["markPrice"]); ferr == nil && mark > 0 {
			closePrice = mark
		} else {
			log.Printf("⚠️ [%s] 行情价格也不可用，对账中止", symbol)
			return nil
		}
	}

	multiplier, err := r.client.GetContractMultiplier(exchange.Contract(symbol))
	if err != nil {
		log.Printf("⚠️ [%s] 获取合约乘数失败，对账中止: %v", symbol, err)
		return nil
	}

	side := "long"
	if openTrade.Side == "sell" {
		side = "short"
	}
	priceChange := closePrice - openTrade.Price
	if side == "short" {
		priceChange = -priceChange
	}

	notionalQty := closeTrade.Quantity * multiplier
	expectedFee := openTrade.Price*notionalQty*takerFeeRate + closePrice*notionalQty*takerFeeRate
	expectedPnl := priceChange*notionalQty - expectedFee

	priceDiff := math.Abs(closeTrade.Price - closePrice)
	pnlDiff := math.Abs(closeTrade.Pnl - expectedPnl)
	feeDiff := math.Abs(closeTrade.Fee - expectedFee)

	if priceDiff <= priceTolerance && pnlDiff <= pnlTolerance && feeDiff <= feeTolerance {
		return nil
	}

	log.Printf("🔧 [%s] 对账修正平仓记录 #%d: 价格 %v->%v 盈亏 %.4f->%.4f 手续费 %.4f->%.4f",
		symbol, closeTrade.ID, closeTrade.Price, closePrice, closeTrade.Pnl, expectedPnl, closeTrade.Fee, expectedFee)

	return r.store.PatchTrade(closeTrade.ID, closePrice, expectedPnl, expectedFee)
}
