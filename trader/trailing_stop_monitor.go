package trader

import (
	"log"

	"nof1/exchange"
	"nof1/store"
	"nof1/strategy"
)

// TrailingStopMonitor 跟踪每个持仓的峰值盈利，回撤超过阶梯阈值时锁定利润平仓。
// 峰值持久化到 positions 表，进程重启后从数据库恢复。
type TrailingStopMonitor struct {
	loop     *monitorLoop
	profile  *strategy.Profile
	client   exchange.Client
	store    *store.Store
	tracker  *positionTracker
	executor *CloseExecutor
}

func NewTrailingStopMonitor(profile *strategy.Profile, client exchange.Client, st *store.Store, notifier Notifier) *TrailingStopMonitor {
	tracker := newPositionTracker()
	return &TrailingStopMonitor{
		loop:     newMonitorLoop("移动止盈监控", defaultCheckInterval),
		profile:  profile,
		client:   client,
		store:    st,
		tracker:  tracker,
		executor: newCloseExecutor(client, st, tracker, notifier),
	}
}

// Start 启动移动止盈监控。当前策略未启用代码级保护时拒绝启动。
func (m *TrailingStopMonitor) Start() {
	if !m.profile.EnableCodeLevelProtection || m.profile.CodeLevelTrailingStop == nil {
		log.Printf("ℹ️ [移动止盈监控] 策略 %s 未启用代码级移动止盈，不启动监控", m.profile.Key)
		return
	}
	m.loop.start(m.tick)
}

// Stop 停止移动止盈监控并等待当前检查结束。
// 跟踪状态无条件清空，内存中的峰值不跨越停启周期（持久化峰值仍在数据库里）。
func (m *TrailingStopMonitor) Stop() {
	m.loop.stop()
	if n := m.tracker.clear(); n > 0 {
		log.Printf("🧹 [移动止盈监控] 停止时清理 %d 个跟踪状态", n)
	}
}

// Running 报告监控是否在运行
func (m *TrailingStopMonitor) Running() bool {
	return m.loop.running()
}

// Status 返回监控状态快照（用于状态接口）
func (m *TrailingStopMonitor) Status() MonitorStatus {
	return MonitorStatus{
		Name:     "trailing_stop",
		Running:  m.loop.running(),
		Interval: m.loop.interval.String(),
		Tracked:  m.tracker.snapshotAll(),
	}
}

func (m *TrailingStopMonitor) tick() {
	positions, err := m.client.GetPositions()
	if err != nil {
		log.Printf("⚠️ [移动止盈监控] 获取持仓失败: %v", err)
		return
	}

	snapshots := parseActiveSnapshots(positions, "移动止盈监控")
	if len(snapshots) == 0 {
		if n := m.tracker.clear(); n > 0 {
			log.Printf("🧹 [移动止盈监控] 无活跃持仓，清理 %d 个跟踪状态", n)
		}
		return
	}

	active := make(map[string]bool, len(snapshots))
	for _, snap := range snapshots {
		active[snap.Symbol] = true

		if !snap.valid() {
			log.Printf("⚠️ [移动止盈监控] %s 数据无效（entry=%v mark=%v lev=%d），跳过本轮",
				snap.Symbol, snap.EntryPrice, snap.MarkPrice, snap.Leverage)
			continue
		}

		pnlPercent := snap.pnlPercent()

		// 首次观测时从数据库恢复历史峰值，防止重启丢失
		if _, tracked := m.tracker.get(snap.Symbol); !tracked {
			if peak, ok, err := m.store.PositionPeak(snap.Symbol); err != nil {
				log.Printf("⚠️ [移动止盈监控] %s 读取历史峰值失败: %v", snap.Symbol, err)
			} else if ok && peak > pnlPercent {
				m.tracker.seed(snap.Symbol, peak)
				log.Printf("♻️ [移动止盈监控] %s 从数据库恢复峰值盈利 %.2f%%", snap.Symbol, peak)
			}
		}

		state, _, prevPeak, raised := m.tracker.observe(snap.Symbol, pnlPercent)
		if raised {
			if err := m.store.UpdatePositionPeak(snap.Symbol, state.PeakPnlPercent); err != nil {
				log.Printf("⚠️ [移动止盈监控] %s 峰值持久化失败: %v", snap.Symbol, err)
			}
			log.Printf("📈 [移动止盈监控] %s 峰值盈利刷新: %.2f%% -> %.2f%%", snap.Symbol, prevPeak, state.PeakPnlPercent)
		}

		threshold, err := m.profile.DrawdownThreshold(state.PeakPnlPercent)
		if err != nil {
			log.Printf("⚠️ [移动止盈监控] %s 阈值查询失败: %v", snap.Symbol, err)
			continue
		}

		if !threshold.Armed {
			if state.CheckCount%10 == 0 {
				log.Printf("🔍 [移动止盈监控] %s %s 盈亏 %.2f%% 峰值 %.2f%% 未武装（第 %d 次检查）",
					snap.Symbol, snap.Side, pnlPercent, state.PeakPnlPercent, state.CheckCount)
			}
			continue
		}

		drawdown := state.PeakPnlPercent - pnlPercent
		if drawdown >= threshold.ThresholdPercent {
			log.Printf("🎯 [移动止盈监控] %s %s 峰值 %.2f%% 当前 %.2f%% 回撤 %.2f%% 触发%s平仓（阈值 %.2f%%）",
				snap.Symbol, snap.Side, state.PeakPnlPercent, pnlPercent, drawdown, threshold.Stage, threshold.ThresholdPercent)

			if err := m.executor.Close(&CloseRequest{
				Symbol:           snap.Symbol,
				Side:             snap.Side,
				Quantity:         snap.Quantity,
				EntryPrice:       snap.EntryPrice,
				MarkPrice:        snap.MarkPrice,
				Leverage:         snap.Leverage,
				Trigger:          TriggerTrailingStop,
				PnlPercent:       pnlPercent,
				ThresholdPercent: threshold.ThresholdPercent,
				PeakPnlPercent:   state.PeakPnlPercent,
				DrawdownPercent:  drawdown,
				Stage:            threshold.Stage,
			}); err != nil {
				log.Printf("🚨 [移动止盈监控] %s 移动止盈平仓失败: %v", snap.Symbol, err)
			}
			continue
		}

		if state.CheckCount%10 == 0 {
			log.Printf("🔍 [移动止盈监控] %s %s 盈亏 %.2f%% 峰值 %.2f%% 回撤 %.2f%%/%.2f%%（第 %d 次检查）",
				snap.Symbol, snap.Side, pnlPercent, state.PeakPnlPercent, drawdown, threshold.ThresholdPercent, state.CheckCount)
		}
	}

	if removed := m.tracker.pruneToActiveSet(active); len(removed) > 0 {
		log.Printf("🧹 [移动止盈监控] 清理已平仓币种的跟踪状态: %v", removed)
	}
}
