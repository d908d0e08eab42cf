package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

// NewRealtime returns a scheduler backed by the runtime timers. Callbacks run
// on their own goroutine; callers are responsible for synchronisation.
func NewRealtime() interfaces.TaskScheduler {
	return realtime{}
}

type realtime struct{}

func (realtime) Now() time.Time { return time.Now() }

func (realtime) After(delay time.Duration, fn func()) interfaces.TaskHandle {
	if fn == nil {
		return cancelled{}
	}
	if delay < 0 {
		delay = 0
	}
	h := &timerHandle{fn: fn}
	h.timer = time.AfterFunc(delay, h.fire)
	return h
}

func (realtime) Every(interval time.Duration, fn func()) interfaces.TaskHandle {
	if fn == nil || interval <= 0 {
		return cancelled{}
	}
	h := &tickerHandle{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-h.done:
				return
			case <-h.ticker.C:
				select {
				case <-h.done:
					return
				default:
				}
				fn()
			}
		}
	}()
	return h
}

// timerHandle skips fn once cancelled, even when the runtime timer already
// fired and its goroutine has not reached fn yet.
type timerHandle struct {
	timer     *time.Timer
	fn        func()
	cancelled atomic.Bool
}

func (h *timerHandle) fire() {
	if h.cancelled.Load() {
		return
	}
	h.fn()
}

func (h *timerHandle) Cancel() bool {
	if h.cancelled.Swap(true) {
		return false
	}
	return h.timer.Stop()
}

type tickerHandle struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (h *tickerHandle) Cancel() bool {
	stopped := false
	h.once.Do(func() {
		h.ticker.Stop()
		close(h.done)
		stopped = true
	})
	return stopped
}

type cancelled struct{}

func (cancelled) Cancel() bool { return false }
