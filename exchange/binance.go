package exchange

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2/futures"
)

const requestTimeout = 10 * time.Second

// BinanceClient 将 Binance USDT 本位合约 SDK 适配到 Client 能力面。
// 合约名统一使用 BTC_USDT 形式，内部转换为 SDK 的 BTCUSDT。
type BinanceClient struct {
	client *futures.Client

	// orderID → symbol，GetOrder 只拿到订单号，而 SDK 查询需要 symbol
	orderSymbols sync.Map
}

// NewBinanceClient 创建 Binance 合约适配器
func NewBinanceClient(apiKey, secretKey string) *BinanceClient {
	return &BinanceClient{
		client: futures.NewClient(apiKey, secretKey),
	}
}

func sdkSymbol(contract string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(contract)), "_", "")
}

// GetPositions 拉取全部持仓快照
func (b *BinanceClient) GetPositions() ([]map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	risks, err := b.client.NewGetPositionRiskService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取持仓失败: %w", err)
	}

	positions := make([]map[string]interface{}, 0, len(risks))
	for _, r := range risks {
		symbol := strings.TrimSuffix(r.Symbol, "USDT")
		positions = append(positions, map[string]interface{}{
			"contract":   symbol + "_USDT",
			"size":       r.PositionAmt,
			"entryPrice": r.EntryPrice,
			"markPrice":  r.MarkPrice,
			"leverage":   r.Leverage,
		})
	}
	return positions, nil
}

// PlaceOrder 下市价单（size 带符号；reduceOnly 用于平仓）
func (b *BinanceClient) PlaceOrder(params *OrderParams) (map[string]interface{}, error) {
	if params == nil || params.Size == 0 {
		return nil, fmt.Errorf("下单参数无效")
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	symbol := sdkSymbol(params.Contract)
	side := futures.SideTypeBuy
	if params.Size < 0 {
		side = futures.SideTypeSell
	}
	quantity := strconv.FormatFloat(math.Abs(params.Size), 'f', -1, 64)

	svc := b.client.NewCreateOrderService().
		Symbol(symbol).
		Side(side).
		Type(futures.OrderTypeMarket).
		Quantity(quantity)
	if params.ReduceOnly {
		svc = svc.ReduceOnly(true)
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("下单失败 %s: %w", symbol, err)
	}

	orderID := strconv.FormatInt(res.OrderID, 10)
	b.orderSymbols.Store(orderID, symbol)
	log.Printf("📤 [交易所] 市价单已提交 %s size=%s, 订单ID: %s", symbol, quantity, orderID)

	return map[string]interface{}{
		"id":     orderID,
		"status": normalizeOrderStatus(res.Status),
	}, nil
}

// GetOrder 查询订单状态，载荷字段归一化为 gate 风格（status/fill_price/size）
func (b *BinanceClient) GetOrder(orderID string) (map[string]interface{}, error) {
	symbolAny, ok := b.orderSymbols.Load(orderID)
	if !ok {
		return nil, fmt.Errorf("未知订单 %s（非本进程提交）", orderID)
	}
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("订单号格式无效 %q: %w", orderID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	order, err := b.client.NewGetOrderService().
		Symbol(symbolAny.(string)).
		OrderID(id).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询订单失败 %s: %w", orderID, err)
	}

	return map[string]interface{}{
		"status":     normalizeOrderStatus(order.Status),
		"fill_price": order.AvgPrice,
		"price":      order.Price,
		"size":       order.ExecutedQuantity,
	}, nil
}

// GetFuturesTicker 查询合约最新价与标记价
func (b *BinanceClient) GetFuturesTicker(contract string) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	symbol := sdkSymbol(contract)
	ticker := map[string]interface{}{"last": "", "markPrice": ""}

	premium, err := b.client.NewPremiumIndexService().Symbol(symbol).Do(ctx)
	if err == nil && len(premium) > 0 {
		ticker["markPrice"] = premium[0].MarkPrice
	}

	prices, perr := b.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if perr == nil && len(prices) > 0 {
		ticker["last"] = prices[0].Price
	}

	if err != nil && perr != nil {
		return nil, fmt.Errorf("获取行情失败 %s: %w", symbol, err)
	}
	return ticker, nil
}

// GetContractMultiplier 返回合约乘数。
// USDT 本位合约的下单数量就是标的数量，乘数恒为 1。
func (b *BinanceClient) GetContractMultiplier(contract string) (float64, error) {
	return 1.0, nil
}

func normalizeOrderStatus(status futures.OrderStatusType) string {
	if status == futures.OrderStatusTypeFilled {
		return "finished"
	}
	return strings.ToLower(string(status))
}
