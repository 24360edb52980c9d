package session

import (
	"sync"
	"time"
)

// 定时器用途
const (
	purposeTurn       = "turn"       // 回合截止
	purposeCountdown  = "countdown"  // 回合倒计时广播
	purposeTrickHold  = "trick_hold" // 完整一墩的展示延迟
	purposeScoring    = "scoring"    // 结算阶段自动进入下一局
	purposeDisconnect = "disconnect" // 断线宽限
	purposeEmpty      = "empty"      // 空房间删除宽限
	purposePersist    = "persist"    // 持久化去抖
)

// timerKey 以（用途，座位名）为键。座位无关的定时器座位名为空串。
// 以座位名而非连接 ID 为键，定时器才能在重连后继续生效。
type timerKey struct {
	purpose string
	seat    string
}

// scheduler 一个对局的全部定时器。同键重复安排为取消并替换。
type scheduler struct {
	mu     sync.Mutex
	timers map[timerKey]*time.Timer
	stops  map[timerKey]chan struct{} // 周期任务的停止信号
}

func newScheduler() *scheduler {
	return &scheduler{
		timers: make(map[timerKey]*time.Timer),
		stops:  make(map[timerKey]chan struct{}),
	}
}

// After 安排一次性回调，替换同键的旧定时器
func (sc *scheduler) After(purpose, seat string, d time.Duration, fn func()) {
	key := timerKey{purpose: purpose, seat: seat}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.cancelLocked(key)
	sc.timers[key] = time.AfterFunc(d, func() {
		sc.mu.Lock()
		delete(sc.timers, key)
		sc.mu.Unlock()
		fn()
	})
}

// Every 安排周期回调，替换同键的旧任务
func (sc *scheduler) Every(purpose, seat string, interval time.Duration, fn func()) {
	key := timerKey{purpose: purpose, seat: seat}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.cancelLocked(key)
	stop := make(chan struct{})
	sc.stops[key] = stop

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-stop:
				return
			}
		}
	}()
}

// Cancel 取消指定定时器
func (sc *scheduler) Cancel(purpose, seat string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cancelLocked(timerKey{purpose: purpose, seat: seat})
}

// CancelSeat 取消一个座位的全部定时器
func (sc *scheduler) CancelSeat(seat string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for key := range sc.timers {
		if key.seat == seat {
			sc.cancelLocked(key)
		}
	}
	for key := range sc.stops {
		if key.seat == seat {
			sc.cancelLocked(key)
		}
	}
}

// CancelAll 取消全部定时器，对局结束时调用
func (sc *scheduler) CancelAll() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for key := range sc.timers {
		sc.cancelLocked(key)
	}
	for key := range sc.stops {
		sc.cancelLocked(key)
	}
}

// cancelLocked 持锁取消单键
func (sc *scheduler) cancelLocked(key timerKey) {
	if t, ok := sc.timers[key]; ok {
		t.Stop()
		delete(sc.timers, key)
	}
	if stop, ok := sc.stops[key]; ok {
		close(stop)
		delete(sc.stops, key)
	}
}
