package interfaces

import "time"

// TaskHandle is the opaque cancellation handle returned for every scheduled task.
type TaskHandle interface {
	// Cancel stops the task. It reports false when the task already ran (one-shot)
	// or was cancelled before.
	Cancel() bool
}

// TaskScheduler runs callbacks after a delay or on a fixed interval. Editing
// sessions own every handle they create and cancel them on teardown.
type TaskScheduler interface {
	// After runs fn once when delay elapses.
	After(delay time.Duration, fn func()) TaskHandle
	// Every runs fn repeatedly, once per interval, until cancelled.
	Every(interval time.Duration, fn func()) TaskHandle
	// Now reports the scheduler clock.
	Now() time.Time
}
