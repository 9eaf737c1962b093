package trader

import (
	"sync"
	"time"
)

// trackedState 记录单个持仓在监控周期间维持的状态
type trackedState struct {
	PeakPnlPercent float64   // 历史峰值盈利（只升不降）
	LastCheckTime  time.Time // 最后一次检查时间
	CheckCount     int       // 检查次数（用于节流 debug 日志）
}

// TrackedPosition 是对外暴露的跟踪状态快照（用于状态接口）
type TrackedPosition struct {
	Symbol         string    `json:"symbol"`
	PeakPnlPercent float64   `json:"peak_pnl_percent"`
	LastCheckTime  time.Time `json:"last_check_time"`
	CheckCount     int       `json:"check_count"`
}

// MonitorStatus 汇总一个监控器的运行状态（用于状态接口）
type MonitorStatus struct {
	Name     string            `json:"name"`
	Running  bool              `json:"running"`
	Interval string            `json:"interval"`
	Tracked  []TrackedPosition `json:"tracked"`
}

// positionTracker 维护每个币种的峰值盈利与检查计数。
// 并发安全：监控循环与状态接口可能同时访问。
type positionTracker struct {
	mu     sync.RWMutex
	states map[string]*trackedState
}

func newPositionTracker() *positionTracker {
	return &positionTracker{
		states: make(map[string]*trackedState),
	}
}

// seed 在币种尚未被跟踪时以给定峰值初始化（用于从数据库恢复峰值）。
// 已跟踪的币种不受影响。
func (t *positionTracker) seed(symbol string, peak float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.states[symbol]; ok {
		return
	}
	t.states[symbol] = &trackedState{
		PeakPnlPercent: peak,
		LastCheckTime:  time.Now(),
	}
}

// observe 记录一次盈亏观测，返回更新后的状态、是否新建、旧峰值以及峰值是否被抬升。
// 峰值单调不减：当前盈亏低于峰值时峰值保持不变。
func (t *positionTracker) observe(symbol string, pnlPercent float64) (state trackedState, created bool, prevPeak float64, raised bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.states[symbol]
	if !ok {
		s = &trackedState{PeakPnlPercent: pnlPercent}
		t.states[symbol] = s
		created = true
	}

	prevPeak = s.PeakPnlPercent
	if pnlPercent > s.PeakPnlPercent {
		s.PeakPnlPercent = pnlPercent
		raised = true
	}
	s.LastCheckTime = time.Now()
	s.CheckCount++

	return *s, created, prevPeak, raised
}

// get 返回币种当前状态的副本
func (t *positionTracker) get(symbol string) (trackedState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.states[symbol]
	if !ok {
		return trackedState{}, false
	}
	return *s, true
}

// delete 移除单个币种的跟踪状态（平仓后调用）
func (t *positionTracker) delete(symbol string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, symbol)
}

// pruneToActiveSet 移除不在活跃持仓集合中的币种，返回被移除的币种列表。
// 外部平仓（手动或对侧监控触发）后据此清理陈旧状态。
func (t *positionTracker) pruneToActiveSet(active map[string]bool) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var removed []string
	for symbol := range t.states {
		if !active[symbol] {
			delete(t.states, symbol)
			removed = append(removed, symbol)
		}
	}
	return removed
}

// clear 清空全部跟踪状态（交易所返回空持仓列表时调用）
func (t *positionTracker) clear() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.states)
	t.states = make(map[string]*trackedState)
	return n
}

// snapshotAll 返回全部跟踪状态的副本（用于状态接口）
func (t *positionTracker) snapshotAll() []TrackedPosition {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]TrackedPosition, 0, len(t.states))
	for symbol, s := range t.states {
		out = append(out, TrackedPosition{
			Symbol:         symbol,
			PeakPnlPercent: s.PeakPnlPercent,
			LastCheckTime:  s.LastCheckTime,
			CheckCount:     s.CheckCount,
		})
	}
	return out
}
