package autosave

import "time"

// Intent says why a save was issued.
type Intent string

const (
	IntentAutosave Intent = "autosave"
	IntentDraft    Intent = "draft"
	IntentPublish  Intent = "publish"
)

// Recorder observes save activity, typically for metrics.
type Recorder interface {
	SaveStarted(intent Intent)
	SaveFinished(intent Intent, class Class, elapsed time.Duration)
	RetryScheduled(intent Intent, attempt int, delay time.Duration)
	RetriesExhausted(intent Intent)
	Superseded(intent Intent)
}

type noopRecorder struct{}

func (noopRecorder) SaveStarted(Intent)                        {}
func (noopRecorder) SaveFinished(Intent, Class, time.Duration) {}
func (noopRecorder) RetryScheduled(Intent, int, time.Duration) {}
func (noopRecorder) RetriesExhausted(Intent)                   {}
func (noopRecorder) Superseded(Intent)                         {}
