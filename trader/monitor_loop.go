package trader

import (
	"log"
	"sync"
	"time"
)

// defaultCheckInterval 监控检查周期
const defaultCheckInterval = 10 * time.Second

// monitorLoop 提供监控器共用的启动/停止骨架。
// tick 在循环 goroutine 内同步执行，天然避免同一监控器的并发检查。
type monitorLoop struct {
	name     string
	interval time.Duration

	mu        sync.Mutex
	stopCh    chan struct{}
	wg        sync.WaitGroup
	isRunning bool
}

func newMonitorLoop(name string, interval time.Duration) *monitorLoop {
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	return &monitorLoop{
		name:     name,
		interval: interval,
	}
}

// start 启动监控循环：先立即执行一次 tick，随后按周期触发。
// 重复启动是无害的 no-op。
func (m *monitorLoop) start(tick func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		log.Printf("⚠️ [%s] 监控已在运行，忽略重复启动", m.name)
		return
	}

	m.stopCh = make(chan struct{})
	m.isRunning = true
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()

		tick()

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				tick()
			case <-m.stopCh:
				return
			}
		}
	}()

	log.Printf("✅ [%s] 监控已启动（检查间隔 %v）", m.name, m.interval)
}

// stop 停止监控循环并等待当前 tick 结束
func (m *monitorLoop) stop() {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return
	}
	close(m.stopCh)
	m.isRunning = false
	m.mu.Unlock()

	m.wg.Wait()
	log.Printf("🛑 [%s] 监控已停止", m.name)
}

// running 报告监控循环是否在运行
func (m *monitorLoop) running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isRunning
}
