package trader

import (
	"log"

	"nof1/exchange"
	"nof1/store"
	"nof1/strategy"
)

// StopLossMonitor 周期性扫描全部持仓，对亏损超过杠杆分级阈值的持仓执行市价平仓
type StopLossMonitor struct {
	loop     *monitorLoop
	profile  *strategy.Profile
	client   exchange.Client
	tracker  *positionTracker
	executor *CloseExecutor
}

func NewStopLossMonitor(profile *strategy.Profile, client exchange.Client, st *store.Store, notifier Notifier) *StopLossMonitor {
	tracker := newPositionTracker()
	return &StopLossMonitor{
		loop:     newMonitorLoop("止损监控", defaultCheckInterval),
		profile:  profile,
		client:   client,
		tracker:  tracker,
		executor: newCloseExecutor(client, st, tracker, notifier),
	}
}

// Start 启动止损监控。当前策略未启用代码级保护时拒绝启动。
func (m *StopLossMonitor) Start() {
	if !m.profile.EnableCodeLevelProtection || m.profile.CodeLevelStopLoss == nil {
		log.Printf("ℹ️ [止损监控] 策略 %s 未启用代码级止损，不启动监控", m.profile.Key)
		return
	}
	m.loop.start(m.tick)
}

// Stop 停止止损监控并等待当前检查结束。
// 跟踪状态无条件清空，重启后不会把旧仓位的状态套到新仓位上。
func (m *StopLossMonitor) Stop() {
	m.loop.stop()
	if n := m.tracker.clear(); n > 0 {
		log.Printf("🧹 [止损监控] 停止时清理 %d 个跟踪状态", n)
	}
}

// Running 报告监控是否在运行
func (m *StopLossMonitor) Running() bool {
	return m.loop.running()
}

// Status 返回监控状态快照（用于状态接口）
func (m *StopLossMonitor) Status() MonitorStatus {
	return MonitorStatus{
		Name:     "stop_loss",
		Running:  m.loop.running(),
		Interval: m.loop.interval.String(),
		Tracked:  m.tracker.snapshotAll(),
	}
}

func (m *StopLossMonitor) tick() {
	positions, err := m.client.GetPositions()
	if err != nil {
		log.Printf("⚠️ [止损监控] 获取持仓失败: %v", err)
		return
	}

	snapshots := parseActiveSnapshots(positions, "止损监控")
	if len(snapshots) == 0 {
		if n := m.tracker.clear(); n > 0 {
			log.Printf("🧹 [止损监控] 无活跃持仓，清理 %d 个跟踪状态", n)
		}
		return
	}

	active := make(map[string]bool, len(snapshots))
	for _, snap := range snapshots {
		active[snap.Symbol] = true

		if !snap.valid() {
			log.Printf("⚠️ [止损监控] %s 数据无效（entry=%v mark=%v lev=%d），跳过本轮",
				snap.Symbol, snap.EntryPrice, snap.MarkPrice, snap.Leverage)
			continue
		}

		pnlPercent := snap.pnlPercent()
		state, _, _, _ := m.tracker.observe(snap.Symbol, pnlPercent)

		threshold, err := m.profile.StopLossThreshold(snap.Leverage)
		if err != nil {
			log.Printf("⚠️ [止损监控] %s 阈值查询失败: %v", snap.Symbol, err)
			continue
		}

		if pnlPercent <= threshold.ThresholdPercent {
			log.Printf("🚨 [止损监控] %s %s 杠杆%dx 亏损 %.2f%% 触发%s止损（阈值 %.2f%%）",
				snap.Symbol, snap.Side, snap.Leverage, pnlPercent, threshold.Level, threshold.ThresholdPercent)

			if err := m.executor.Close(&CloseRequest{
				Symbol:           snap.Symbol,
				Side:             snap.Side,
				Quantity:         snap.Quantity,
				EntryPrice:       snap.EntryPrice,
				MarkPrice:        snap.MarkPrice,
				Leverage:         snap.Leverage,
				Trigger:          TriggerStopLoss,
				PnlPercent:       pnlPercent,
				ThresholdPercent: threshold.ThresholdPercent,
				RiskLevel:        threshold.Level,
			}); err != nil {
				log.Printf("🚨 [止损监控] %s 止损平仓失败: %v", snap.Symbol, err)
			}
			continue
		}

		if state.CheckCount%10 == 0 {
			log.Printf("🔍 [止损监控] %s %s 杠杆%dx 盈亏 %.2f%% 阈值 %.2f%%（第 %d 次检查）",
				snap.Symbol, snap.Side, snap.Leverage, pnlPercent, threshold.ThresholdPercent, state.CheckCount)
		}
	}

	if removed := m.tracker.pruneToActiveSet(active); len(removed) > 0 {
		log.Printf("🧹 [止损监控] 清理已平仓币种的跟踪状态: %v", removed)
	}
}

// parseActiveSnapshots 将交易所持仓列表解析为有效数量非零的快照
func parseActiveSnapshots(positions []map[string]interface{}, tag string) []*positionSnapshot {
	snapshots := make([]*positionSnapshot, 0, len(positions))
	for _, raw := range positions {
		snap, err := newPositionSnapshot(raw)
		if err != nil {
			log.Printf("⚠️ [%s] 持仓数据解析失败: %v", tag, err)
			continue
		}
		if snap.Quantity == 0 {
			continue
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots
}
