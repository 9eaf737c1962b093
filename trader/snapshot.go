// Package trader 实现代码级持仓风险监控：止损与移动止盈双循环
package trader

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"nof1/exchange"
)

// positionSnapshot captures the essential information about an individual position for one check cycle.
type positionSnapshot struct {
	Symbol     string // 币种符号（BTC）
	Contract   string // 合约名（BTC_USDT）
	Side       string // long / short，由 size 符号推导
	Quantity   float64
	EntryPrice float64
	MarkPrice  float64
	Leverage   int
}

// newPositionSnapshot converts a raw position map (as returned by the exchange adapters)
// into a strongly typed snapshot. 数值有效性（价格/杠杆 > 0）由监控循环判定，这里只要求字段存在。
func newPositionSnapshot(raw map[string]interface{}) (*positionSnapshot, error) {
	contract, err := stringFromAny(raw["contract"])
	if err != nil {
		return nil, fmt.Errorf("contract 字段缺失: %w", err)
	}
	symbol := exchange.SymbolFromContract(contract)

	size, err := floatFromAny(raw["size"])
	if err != nil {
		return nil, fmt.Errorf("%s size 解析失败: %w", symbol, err)
	}

	side := "long"
	if size < 0 {
		side = "short"
	}

	entryPrice, _ := floatFromAny(raw["entryPrice"])
	markPrice, _ := floatFromAny(raw["markPrice"])

	leverage := 0
	if lev, err := floatFromAny(raw["leverage"]); err == nil {
		leverage = int(math.Round(lev))
	}

	return &positionSnapshot{
		Symbol:     symbol,
		Contract:   contract,
		Side:       side,
		Quantity:   math.Abs(size),
		EntryPrice: entryPrice,
		MarkPrice:  markPrice,
		Leverage:   leverage,
	}, nil
}

// valid 报告快照数据是否可用于风控判定。
// 无效读数只能跳过，绝不能触发平仓。
func (s *positionSnapshot) valid() bool {
	return s.EntryPrice > 0 && s.MarkPrice > 0 && s.Leverage > 0 &&
		!math.IsNaN(s.EntryPrice) && !math.IsInf(s.EntryPrice, 0) &&
		!math.IsNaN(s.MarkPrice) && !math.IsInf(s.MarkPrice, 0)
}

// pnlPercent 计算含杠杆的盈亏百分比（ROI%）
func (s *positionSnapshot) pnlPercent() float64 {
	return priceChangePercent(s.EntryPrice, s.MarkPrice, s.Side) * float64(s.Leverage)
}

// priceChangePercent 计算带方向的价格变动百分比（多头为正向，空头取反）
func priceChangePercent(entryPrice, currentPrice float64, side string) float64 {
	if entryPrice <= 0 {
		return 0
	}
	change := (currentPrice - entryPrice) / entryPrice * 100
	if side == "short" {
		change = -change
	}
	return change
}

func stringFromAny(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return "", fmt.Errorf("字符串为空")
		}
		return trimmed, nil
	case fmt.Stringer:
		trimmed := strings.TrimSpace(v.String())
		if trimmed == "" {
			return "", fmt.Errorf("字符串为空")
		}
		return trimmed, nil
	case nil:
		return "", fmt.Errorf("值缺失")
	default:
		return "", fmt.Errorf("类型 %T 不能转换为字符串", value)
	}
}

func floatFromAny(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("字符串为空")
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, err
		}
		return parsed, nil
	case nil:
		return 0, fmt.Errorf("值缺失")
	default:
		return 0, fmt.Errorf("类型 %T 不能转换为浮点数", value)
	}
}
