package autosave

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/internal/elements"
	"github.com/goliatone/go-cms-inline/internal/logging"
	"github.com/goliatone/go-cms-inline/internal/scheduler"
	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

var (
	ErrClosed          = errors.New("autosave: session closed")
	ErrSuperseded      = errors.New("autosave: superseded by a later save")
	ErrGatewayRequired = errors.New("autosave: gateway is required")
	ErrRefRequired     = errors.New("autosave: element reference is required")
)

const (
	timerDebounce = "debounce"
	timerInterval = "interval"
	timerRetry    = "retry"
)

// Origin says where an update came from.
type Origin int

const (
	OriginUser Origin = iota
	OriginExternal
)

// State is the save lifecycle of one session.
type State string

const (
	StateIdle   State = "idle"
	StateDirty  State = "dirty"
	StateSaving State = "saving"
	StateError  State = "error"
)

// Status is a point-in-time view of a session.
type Status struct {
	State       State
	Dirty       bool
	RetryCount  int
	LastError   error
	LastClass   Class
	LastSavedAt time.Time
	Revision    int
	Published   bool
}

// Gateway persists element payloads. Upsert must be idempotent.
type Gateway interface {
	Upsert(ctx context.Context, req elements.UpsertRequest) (*elements.Element, error)
}

// GatewayFunc adapts a function into a Gateway.
type GatewayFunc func(ctx context.Context, req elements.UpsertRequest) (*elements.Element, error)

func (fn GatewayFunc) Upsert(ctx context.Context, req elements.UpsertRequest) (*elements.Element, error) {
	return fn(ctx, req)
}

// Result is delivered to callers of explicit saves.
type Result struct {
	Element *elements.Element
	Err     error
}

type job struct {
	intent     Intent
	snapshot   Snapshot
	generation uint64
	attempt    int
	done       chan Result
}

func (j *job) explicit() bool { return j.intent != IntentAutosave }

func (j *job) finish(res Result) {
	if j.done == nil {
		return
	}
	select {
	case j.done <- res:
	default:
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithScheduler sets the scheduler used for debounce, interval and retry timers.
func WithScheduler(s interfaces.TaskScheduler) Option {
	return func(m *Manager) {
		if s != nil {
			m.sched = s
		}
	}
}

// WithNotifier sets the notification sink.
func WithNotifier(n interfaces.Notifier) Option {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(m *Manager) {
		m.logger = logging.Ensure(logger)
	}
}

// WithRecorder sets the telemetry recorder.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithDispatcher controls how save calls are started. The default runs each
// save on its own goroutine.
func WithDispatcher(dispatch func(func())) Option {
	return func(m *Manager) {
		if dispatch != nil {
			m.dispatch = dispatch
		}
	}
}

// Synchronous runs saves on the calling goroutine.
func Synchronous(fn func()) { fn() }

// WithContext sets the parent context of automatic saves.
func WithContext(ctx context.Context) Option {
	return func(m *Manager) {
		if ctx != nil {
			m.baseCtx = ctx
		}
	}
}

// WithSaveTimeout bounds every gateway call.
func WithSaveTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		m.saveTimeout = timeout
	}
}

// WithRevision enables optimistic concurrency starting from the stored
// revision of the element (0 when it does not exist yet).
func WithRevision(revision int) Option {
	return func(m *Manager) {
		m.revision = revision
		m.checkRevision = true
	}
}

// Manager owns the save pipeline of one editing session. At most one save is
// in flight; later requests wait in a single slot where autosaves coalesce and
// explicit saves replace whatever is waiting.
type Manager struct {
	ref         domain.ElementRef
	elementType domain.ElementType
	gateway     Gateway
	cfg         Config

	sched       interfaces.TaskScheduler
	timers      *scheduler.Group
	notifier    interfaces.Notifier
	logger      interfaces.Logger
	recorder    Recorder
	dispatch    func(func())
	baseCtx     context.Context
	saveTimeout time.Duration

	mu            sync.Mutex
	baseline      Snapshot
	current       Snapshot
	state         State
	userPending   bool
	failed        bool
	closed        bool
	retryCount    int
	lastErr       error
	lastClass     Class
	lastSavedAt   time.Time
	revision      int
	checkRevision bool
	published     bool
	generation    uint64
	debounceSeq   uint64

	inFlight *job
	retrying *job
	queued   *job
}

// New creates a session manager for ref seeded with the persisted snapshot.
func New(ref domain.ElementRef, elementType domain.ElementType, initial Snapshot, gateway Gateway, cfg Config, opts ...Option) (*Manager, error) {
	if gateway == nil {
		return nil, ErrGatewayRequired
	}
	if ref.PageKey == "" || ref.ElementKey == "" {
		return nil, ErrRefRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, goerrors.FromOzzoValidation(err, "autosave config invalid")
	}
	m := &Manager{
		ref:         ref,
		elementType: elementType,
		gateway:     gateway,
		cfg:         cfg,
		sched:       scheduler.NewRealtime(),
		timers:      scheduler.NewGroup(),
		notifier:    interfaces.NotifierFunc(nil),
		logger:      logging.NoOp(),
		recorder:    noopRecorder{},
		dispatch:    func(fn func()) { go fn() },
		baseCtx:     context.Background(),
		baseline:    initial.Clone(),
		current:     initial.Clone(),
		state:       StateIdle,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	m.logger = logging.WithElement(m.logger, ref.PageKey, ref.ElementKey, "")
	if cfg.Enabled && cfg.Interval > 0 {
		m.timers.Replace(timerInterval, m.sched.Every(cfg.Interval, m.onInterval))
	}
	return m, nil
}

// Ref returns the element the session edits.
func (m *Manager) Ref() domain.ElementRef { return m.ref }

// ElementType returns the type of the edited element.
func (m *Manager) ElementType() domain.ElementType { return m.elementType }

// Current returns the latest snapshot known to the session.
func (m *Manager) Current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone()
}

// Status reports the session state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		State:       m.state,
		Dirty:       m.dirtyLocked(),
		RetryCount:  m.retryCount,
		LastError:   m.lastErr,
		LastClass:   m.lastClass,
		LastSavedAt: m.lastSavedAt,
		Revision:    m.revision,
		Published:   m.published,
	}
}

// Reset replaces both the baseline and the current snapshot, for example
// after loading fresh content. No save is scheduled.
func (m *Manager) Reset(snapshot Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseline = snapshot.Clone()
	m.current = snapshot.Clone()
	m.userPending = false
	m.failed = false
	m.cancelDebounceLocked()
	m.refreshLocked()
}

// Rebase adopts element as the stored state the session builds on. The
// revision and baseline follow the store while the current snapshot keeps
// local edits, so a save after a conflict targets the latest revision. A
// failed session is cleared and becomes dirty when edits differ.
func (m *Manager) Rebase(element *elements.Element) {
	if element == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revision = element.Revision
	m.baseline = Snapshot{
		ContentAr: element.ContentAr,
		ContentEn: element.ContentEn,
		Metadata:  cloneMap(element.Metadata),
	}
	m.failed = false
	m.retryCount = 0
	m.lastErr = nil
	m.lastClass = ClassNone
	m.userPending = m.dirtyLocked()
	m.refreshLocked()
	m.logger.Debug("autosave.rebased", "revision", element.Revision)
}

// Update records the latest editor state. User updates restart the debounce
// timer; external updates do so only when OnlyOnUserAction is off.
func (m *Manager) Update(snapshot Snapshot, origin Origin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.current = snapshot.Clone()
	dirty := m.dirtyLocked()
	userDriven := origin == OriginUser || !m.cfg.OnlyOnUserAction

	switch {
	case !dirty:
		m.userPending = false
		m.failed = false
		m.cancelDebounceLocked()
	case userDriven:
		m.userPending = true
		if m.failed {
			m.failed = false
			m.retryCount = 0
		}
		if m.cfg.Enabled {
			m.armDebounceLocked()
		}
	}
	m.refreshLocked()
	return nil
}

// Flush saves the current snapshot as a draft and waits for the outcome. A
// clean session returns a nil element.
func (m *Manager) Flush(ctx context.Context) (*elements.Element, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if !m.dirtyLocked() && m.inFlight == nil && m.retrying == nil {
		m.mu.Unlock()
		return nil, nil
	}
	m.cancelDebounceLocked()
	j := &job{intent: IntentDraft, snapshot: m.current.Clone(), generation: m.generation, done: make(chan Result, 1)}
	next := m.submitLocked(j)
	m.refreshLocked()
	m.mu.Unlock()

	m.launch(next)
	return m.wait(ctx, j)
}

// Retry clears the error state and saves the current snapshot as a draft.
func (m *Manager) Retry(ctx context.Context) (*elements.Element, error) {
	m.mu.Lock()
	m.failed = false
	m.retryCount = 0
	m.mu.Unlock()
	return m.Flush(ctx)
}

// Publish persists snapshot with published status. Pending autosaves are
// dropped and the result of an autosave already in flight can no longer mark
// the session clean.
func (m *Manager) Publish(ctx context.Context, snapshot Snapshot) (*elements.Element, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.current = snapshot.Clone()
	m.generation++
	m.cancelDebounceLocked()
	j := &job{intent: IntentPublish, snapshot: m.current.Clone(), generation: m.generation, done: make(chan Result, 1)}
	next := m.submitLocked(j)
	m.refreshLocked()
	m.mu.Unlock()

	m.launch(next)
	return m.wait(ctx, j)
}

// Close cancels every timer and drops waiting autosaves. A save already in
// flight runs to completion and its outcome is still notified.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.timers.Close()
	if m.retrying != nil {
		m.retrying.finish(Result{Err: ErrClosed})
		m.retrying = nil
	}
	if m.queued != nil && !m.queued.explicit() {
		m.recorder.Superseded(m.queued.intent)
		m.queued = nil
	}
	m.refreshLocked()
	m.mu.Unlock()
	m.logger.Debug("autosave.closed")
}

// armDebounceLocked restarts the debounce timer. Each arm gets a sequence
// number so a callback whose timer was replaced after it fired does nothing.
func (m *Manager) armDebounceLocked() {
	m.debounceSeq++
	seq := m.debounceSeq
	m.timers.Replace(timerDebounce, m.sched.After(m.cfg.DebounceTime, func() { m.onDebounce(seq) }))
}

func (m *Manager) cancelDebounceLocked() {
	m.debounceSeq++
	m.timers.Cancel(timerDebounce)
}

func (m *Manager) onDebounce(seq uint64) {
	m.enqueueAutosave("debounce", seq)
}

func (m *Manager) onInterval() {
	m.enqueueAutosave("interval", 0)
}

// enqueueAutosave starts an autosave. A non-zero seq must match the latest
// debounce arm.
func (m *Manager) enqueueAutosave(trigger string, seq uint64) {
	m.mu.Lock()
	if seq != 0 && seq != m.debounceSeq {
		m.mu.Unlock()
		m.logger.Debug("autosave.debounce.stale", "trigger", trigger)
		return
	}
	if m.closed || !m.cfg.Enabled || m.failed || !m.userPending || !m.dirtyLocked() {
		m.mu.Unlock()
		return
	}
	if pending := m.pendingLocked(); pending != nil && pending.snapshot.Equal(m.current) {
		m.mu.Unlock()
		return
	}
	j := &job{intent: IntentAutosave, snapshot: m.current.Clone(), generation: m.generation}
	next := m.submitLocked(j)
	m.refreshLocked()
	m.mu.Unlock()

	m.logger.Debug("autosave.triggered", "trigger", trigger)
	m.launch(next)
}

// pendingLocked returns the newest save that will still reach the gateway.
func (m *Manager) pendingLocked() *job {
	switch {
	case m.queued != nil:
		return m.queued
	case m.retrying != nil:
		return m.retrying
	default:
		return m.inFlight
	}
}

// submitLocked places j in the pipeline and returns it when it should start
// right away.
func (m *Manager) submitLocked(j *job) *job {
	if m.retrying != nil && (j.explicit() || !m.retrying.explicit()) {
		m.timers.Cancel(timerRetry)
		m.supersedeLocked(m.retrying)
		m.retrying = nil
	}
	if j.intent == IntentPublish && m.queued != nil {
		m.supersedeLocked(m.queued)
		m.queued = nil
	}
	if m.inFlight == nil && m.retrying == nil {
		m.inFlight = j
		return j
	}
	if m.queued != nil {
		if !j.explicit() && m.queued.explicit() {
			m.supersedeLocked(j)
			return nil
		}
		m.supersedeLocked(m.queued)
	}
	m.queued = j
	return nil
}

func (m *Manager) supersedeLocked(j *job) {
	m.recorder.Superseded(j.intent)
	j.finish(Result{Err: ErrSuperseded})
}

func (m *Manager) launch(j *job) {
	if j == nil {
		return
	}
	m.recorder.SaveStarted(j.intent)
	m.dispatch(func() { m.execute(j) })
}

func (m *Manager) execute(j *job) {
	m.mu.Lock()
	req := m.requestLocked(j)
	m.mu.Unlock()

	ctx := m.baseCtx
	cancel := func() {}
	if m.saveTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, m.saveTimeout)
	}
	started := time.Now()
	element, err := m.gateway.Upsert(ctx, req)
	cancel()
	m.complete(j, element, err, time.Since(started))
}

func (m *Manager) requestLocked(j *job) elements.UpsertRequest {
	status := domain.StatusDraft
	if j.intent == IntentPublish {
		status = domain.StatusPublished
	}
	req := elements.UpsertRequest{
		PageKey:     m.ref.PageKey,
		ElementKey:  m.ref.ElementKey,
		ElementType: m.elementType,
		ContentAr:   j.snapshot.ContentAr,
		ContentEn:   j.snapshot.ContentEn,
		Metadata:    cloneMap(j.snapshot.Metadata),
		Status:      status,
	}
	if m.checkRevision {
		expected := m.revision
		req.ExpectedRevision = &expected
	}
	return req
}

func (m *Manager) complete(j *job, element *elements.Element, err error, elapsed time.Duration) {
	class := Classify(err)
	m.recorder.SaveFinished(j.intent, class, elapsed)

	var notes []interfaces.Notification
	m.mu.Lock()
	m.inFlight = nil
	stale := j.intent == IntentAutosave && j.generation < m.generation
	rearm := false

	switch {
	case err == nil:
		if element != nil {
			m.revision = element.Revision
		}
		if stale {
			m.logger.Debug("autosave.stale_result_ignored", "intent", j.intent)
		} else {
			m.baseline = j.snapshot.Clone()
			m.lastSavedAt = m.sched.Now()
			m.retryCount = 0
			m.lastErr = nil
			m.lastClass = ClassNone
			m.failed = false
			if j.intent == IntentPublish {
				m.published = true
			}
			if !m.dirtyLocked() {
				m.userPending = false
			}
			rearm = j.intent == IntentPublish && m.userPending && m.cfg.Enabled
			notes = append(notes, m.successNote(j))
		}
		j.finish(Result{Element: element})

	case stale:
		m.logger.Warn("autosave.stale_save_failed", "error", err, "class", class)
		notes = append(notes, m.failureNote(err, class, false))

	case class.Retryable() && j.attempt < m.cfg.MaxRetries && !m.closed:
		j.attempt++
		m.retryCount = j.attempt
		m.lastErr = err
		m.lastClass = class
		m.retrying = j
		delay := m.cfg.Backoff(j.attempt)
		m.recorder.RetryScheduled(j.intent, j.attempt, delay)
		m.logger.Warn("autosave.retry_scheduled", "attempt", j.attempt, "delay", delay.String(), "error", err)
		m.timers.Replace(timerRetry, m.sched.After(delay, func() { m.runRetry(j) }))

	default:
		m.lastErr = err
		m.lastClass = class
		m.failed = true
		if class.Retryable() {
			m.recorder.RetriesExhausted(j.intent)
		}
		m.logger.Error("autosave.save_failed", "intent", j.intent, "class", class, "attempts", j.attempt+1, "error", err)
		notes = append(notes, m.failureNote(err, class, class.Retryable()))
		j.finish(Result{Err: err})
	}

	var next *job
	if m.inFlight == nil && m.retrying == nil && m.queued != nil {
		next = m.queued
		m.queued = nil
		m.inFlight = next
	}
	if rearm && next == nil && !m.closed {
		m.armDebounceLocked()
	}
	m.refreshLocked()
	m.mu.Unlock()

	for _, n := range notes {
		m.notifier.Notify(m.baseCtx, n)
	}
	m.launch(next)
}

func (m *Manager) runRetry(j *job) {
	m.mu.Lock()
	if m.retrying != j || m.closed {
		m.mu.Unlock()
		return
	}
	m.retrying = nil
	m.inFlight = j
	m.refreshLocked()
	m.mu.Unlock()
	m.launch(j)
}

func (m *Manager) wait(ctx context.Context, j *job) (*elements.Element, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case res := <-j.done:
		return res.Element, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) dirtyLocked() bool {
	return !m.current.Equal(m.baseline)
}

func (m *Manager) refreshLocked() {
	switch {
	case m.inFlight != nil || m.retrying != nil || m.queued != nil:
		m.state = StateSaving
	case m.failed:
		m.state = StateError
	case m.dirtyLocked():
		m.state = StateDirty
	default:
		m.state = StateIdle
	}
}

func (m *Manager) successNote(j *job) interfaces.Notification {
	n := interfaces.Notification{
		Kind:       interfaces.NotificationSuccess,
		PageKey:    m.ref.PageKey,
		ElementKey: m.ref.ElementKey,
		OccurredAt: m.sched.Now(),
	}
	switch j.intent {
	case IntentPublish:
		n.Code, n.Message = "element.published", "Changes published"
	case IntentDraft:
		n.Code, n.Message = "draft.saved", "Draft saved"
	default:
		n.Code, n.Message = "autosave.saved", "Draft saved automatically"
	}
	return n
}

func (m *Manager) failureNote(err error, class Class, retryable bool) interfaces.Notification {
	n := interfaces.Notification{
		Kind:       interfaces.NotificationError,
		PageKey:    m.ref.PageKey,
		ElementKey: m.ref.ElementKey,
		Retryable:  retryable,
		OccurredAt: m.sched.Now(),
	}
	switch class {
	case ClassPermission:
		n.Code, n.Message = "save.permission_denied", "You do not have permission to edit this content"
	case ClassValidation:
		n.Kind = interfaces.NotificationValidation
		n.Code, n.Message = "save.invalid", "Some fields need attention before saving"
		n.Fields = fieldMessages(err)
	case ClassNetwork:
		n.Code, n.Message = "save.network", "Could not reach the server. Your changes are kept, retry when the connection is back"
	case ClassConflict:
		n.Code, n.Message = "save.conflict", "This content was changed elsewhere. Reload it before saving again"
	default:
		n.Code, n.Message = "save.failed", fmt.Sprintf("Saving failed: %v", err)
	}
	return n
}

func fieldMessages(err error) map[string]string {
	var typed *goerrors.Error
	if !goerrors.As(err, &typed) || len(typed.ValidationErrors) == 0 {
		return nil
	}
	out := make(map[string]string, len(typed.ValidationErrors))
	for _, fe := range typed.ValidationErrors {
		out[fe.Field] = fe.Message
	}
	return out
}
