package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

// Manual is a deterministic scheduler driven by Advance. Tasks run on the
// goroutine calling Advance, in due-time order, which makes debounce and retry
// timing reproducible in tests.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	nextID uint64
	tasks  map[uint64]*manualTask
}

type manualTask struct {
	id       uint64
	due      time.Time
	interval time.Duration
	fn       func()
}

// Option customises a Manual scheduler.
type Option func(*Manual)

// WithStart sets the initial clock value.
func WithStart(start time.Time) Option {
	return func(m *Manual) {
		if !start.IsZero() {
			m.now = start
		}
	}
}

// NewManual builds a manual scheduler starting at 2024-01-01 UTC unless overridden.
func NewManual(opts ...Option) *Manual {
	m := &Manual{
		now:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		tasks: make(map[uint64]*manualTask),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ interfaces.TaskScheduler = (*Manual)(nil)

// Now reports the manual clock.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// After schedules fn once at Now()+delay.
func (m *Manual) After(delay time.Duration, fn func()) interfaces.TaskHandle {
	if delay < 0 {
		delay = 0
	}
	return m.add(delay, 0, fn)
}

// Every schedules fn at every multiple of interval from Now().
func (m *Manual) Every(interval time.Duration, fn func()) interfaces.TaskHandle {
	if interval <= 0 {
		return cancelled{}
	}
	return m.add(interval, interval, fn)
}

func (m *Manual) add(delay, interval time.Duration, fn func()) interfaces.TaskHandle {
	if fn == nil {
		return cancelled{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	task := &manualTask{id: m.nextID, due: m.now.Add(delay), interval: interval, fn: fn}
	m.tasks[task.id] = task
	return &manualHandle{owner: m, id: task.id}
}

// Pending reports how many tasks are still scheduled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Advance moves the clock forward by d, running every task that becomes due.
// Tasks scheduled by running callbacks are honoured if they fall within the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		task, ok := m.nextDue(target)
		if !ok {
			break
		}
		task.fn()
	}

	m.mu.Lock()
	if m.now.Before(target) {
		m.now = target
	}
	m.mu.Unlock()
}

func (m *Manual) nextDue(target time.Time) (*manualTask, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	due := make([]*manualTask, 0, len(m.tasks))
	for _, task := range m.tasks {
		if !task.due.After(target) {
			due = append(due, task)
		}
	}
	if len(due) == 0 {
		return nil, false
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due.Equal(due[j].due) {
			return due[i].id < due[j].id
		}
		return due[i].due.Before(due[j].due)
	})
	task := due[0]
	if task.due.After(m.now) {
		m.now = task.due
	}
	if task.interval > 0 {
		task.due = task.due.Add(task.interval)
	} else {
		delete(m.tasks, task.id)
	}
	return &manualTask{id: task.id, due: m.now, fn: task.fn}, true
}

func (m *Manual) cancel(id uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return false
	}
	delete(m.tasks, id)
	return true
}

type manualHandle struct {
	owner *Manual
	id    uint64
}

func (h *manualHandle) Cancel() bool {
	return h.owner.cancel(h.id)
}
