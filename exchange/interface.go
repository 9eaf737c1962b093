// Package exchange 定义监控器消费的交易所能力接口及其适配器
package exchange

import (
	"strings"
)

// OrderParams 下单参数（合约张数带符号：负数平多/开空，正数平空/开多）
type OrderParams struct {
	Contract   string
	Size       float64
	Price      float64 // 0 表示市价单
	ReduceOnly bool
}

// Client 是风险监控核心消费的最小交易所能力面。
// 所有方法都可能因网络原因失败，调用方必须逐个捕获错误。
// 返回值沿用交易所适配层的原始 map 载荷，由调用方做严格解析。
type Client interface {
	// GetPositions 返回当前全部持仓（含 size=0 的空行，由调用方过滤）
	GetPositions() ([]map[string]interface{}, error)
	// PlaceOrder 下单，返回至少包含 "id" 的订单载荷
	PlaceOrder(params *OrderParams) (map[string]interface{}, error)
	// GetOrder 查询订单状态，载荷包含 "status" / "fill_price" / "price" / "size"
	GetOrder(orderID string) (map[string]interface{}, error)
	// GetFuturesTicker 查询合约行情，载荷包含 "last" / "markPrice"
	GetFuturesTicker(contract string) (map[string]interface{}, error)
	// GetContractMultiplier 返回合约乘数（张数 → 标的数量）
	GetContractMultiplier(contract string) (float64, error)
}

// Contract 由币种符号拼出 USDT 本位合约名（BTC → BTC_USDT）
func Contract(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol)) + "_USDT"
}

// SymbolFromContract 从合约名还原币种符号（BTC_USDT → BTC）
func SymbolFromContract(contract string) string {
	return strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(contract)), "_USDT")
}

// IsPositionGone 判断下单错误是否表示仓位已不存在。
// reduce-only 市价单打到零仓位时，交易所会拒单；对平仓器来说这等价于成功。
func IsPositionGone(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "reduceonly order is rejected") ||
		strings.Contains(msg, "position side does not match") ||
		strings.Contains(msg, "position_empty") ||
		strings.Contains(msg, "-2022")
}
