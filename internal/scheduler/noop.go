package scheduler

import (
	"time"

	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

// NewNoOp returns a scheduler that never runs anything. It backs sessions where
// autosave is disabled so the manager code path stays identical.
func NewNoOp() interfaces.TaskScheduler {
	return noOpScheduler{}
}

type noOpScheduler struct{}

func (noOpScheduler) After(time.Duration, func()) interfaces.TaskHandle { return cancelled{} }
func (noOpScheduler) Every(time.Duration, func()) interfaces.TaskHandle { return cancelled{} }
func (noOpScheduler) Now() time.Time                                    { return time.Now() }
