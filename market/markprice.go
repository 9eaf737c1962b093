// Package market 维护合约标记价格的实时缓存
package market

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// markPriceStreamURL 全市场标记价格推送（约 3 秒一帧）
const markPriceStreamURL = "wss://fstream.binance.com/ws/!markPrice@arr"

// reconnectDelay 断线重连间隔
const reconnectDelay = 5 * time.Second

// markPriceUpdate 推送帧中的单个合约条目
type markPriceUpdate struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	MarkPrice string `json:"p"`
}

// MarkPriceMonitor 订阅全市场标记价格推送并缓存最新值。
// 缓存按基础币种（BTC）索引，查询方无需关心合约命名。
type MarkPriceMonitor struct {
	url    string
	prices sync.Map // symbol -> float64

	mu        sync.Mutex
	stopCh    chan struct{}
	wg        sync.WaitGroup
	isRunning bool
}

func NewMarkPriceMonitor() *MarkPriceMonitor {
	return &MarkPriceMonitor{url: markPriceStreamURL}
}

// Start 启动行情订阅。重复启动是无害的 no-op。
func (m *MarkPriceMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		log.Printf("⚠️ [行情] 标记价格订阅已在运行，忽略重复启动")
		return
	}

	m.stopCh = make(chan struct{})
	m.isRunning = true
	m.wg.Add(1)

	go m.run()

	log.Printf("✅ [行情] 标记价格订阅已启动: %s", m.url)
}

// Stop 停止行情订阅并等待连接关闭
func (m *MarkPriceMonitor) Stop() {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return
	}
	close(m.stopCh)
	m.isRunning = false
	m.mu.Unlock()

	m.wg.Wait()
	log.Printf("🛑 [行情] 标记价格订阅已停止")
}

// Running 报告订阅是否在运行
func (m *MarkPriceMonitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isRunning
}

// MarkPrice 返回币种最新标记价格
func (m *MarkPriceMonitor) MarkPrice(symbol string) (float64, bool) {
	value, ok := m.prices.Load(strings.ToUpper(strings.TrimSpace(symbol)))
	if !ok {
		return 0, false
	}
	return value.(float64), true
}

// Snapshot 返回全部缓存价格的副本
func (m *MarkPriceMonitor) Snapshot() map[string]float64 {
	out := make(map[string]float64)
	m.prices.Range(func(key, value interface{}) bool {
		out[key.(string)] = value.(float64)
		return true
	})
	return out
}

// run 连接推送流并在断线后自动重连
func (m *MarkPriceMonitor) run() {
	defer m.wg.Done()

	for {
		select {
		case <-m.stopCh:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(m.url, nil)
		if err != nil {
			log.Printf("⚠️ [行情] 连接标记价格推送失败，%v 后重连: %v", reconnectDelay, err)
			if !m.sleepOrStop(reconnectDelay) {
				return
			}
			continue
		}

		m.readLoop(conn)
		conn.Close()

		select {
		case <-m.stopCh:
			return
		default:
			log.Printf("⚠️ [行情] 标记价格连接断开，%v 后重连", reconnectDelay)
			if !m.sleepOrStop(reconnectDelay) {
				return
			}
		}
	}
}

// sleepOrStop 等待 d 后返回 true；若期间收到停止信号则返回 false
func (m *MarkPriceMonitor) sleepOrStop(d time.Duration) bool {
	select {
	case <-m.stopCh:
		return false
	case <-time.After(d):
		return true
	}
}

// readLoop 消费推送帧直到连接出错或收到停止信号
func (m *MarkPriceMonitor) readLoop(conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-m.stopCh:
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		m.applyFrame(payload)
	}
}

// applyFrame 解析一帧推送并更新缓存
func (m *MarkPriceMonitor) applyFrame(payload []byte) {
	var updates []markPriceUpdate
	if err := json.Unmarshal(payload, &updates); err != nil {
		log.Printf("⚠️ [行情] 标记价格帧解析失败: %v", err)
		return
	}

	for _, u := range updates {
		if u.EventType != "markPriceUpdate" {
			continue
		}
		symbol := baseSymbol(u.Symbol)
		if symbol == "" {
			continue
		}
		price, err := strconv.ParseFloat(u.MarkPrice, 64)
		if err != nil || price <= 0 {
			continue
		}
		m.prices.Store(symbol, price)
	}
}

// baseSymbol 从交易对名还原基础币种（BTCUSDT → BTC）
func baseSymbol(pair string) string {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	if base, ok := strings.CutSuffix(pair, "USDT"); ok {
		return base
	}
	return ""
}
