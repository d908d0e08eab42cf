package session

import (
	"context"
	"fmt"
	"sync"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-inline/internal/autosave"
	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/internal/editors"
	"github.com/goliatone/go-cms-inline/internal/elements"
	"github.com/goliatone/go-cms-inline/internal/logging"
	"github.com/goliatone/go-cms-inline/internal/permissions"
	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

const (
	PromptSwitch  = "You have unsaved changes. Discard them and edit another element?"
	PromptDiscard = "Discard unsaved changes?"
)

// Loader reads the stored working copy of an element.
type Loader interface {
	Lookup(ctx context.Context, pageKey, elementKey string) (*elements.Element, error)
}

// Store is the element store used by a controller: reads for hydration and
// upserts for saving.
type Store interface {
	Loader
	autosave.Gateway
}

// View is what the editing surface renders for the active element.
type View struct {
	Ref         domain.ElementRef
	ElementType domain.ElementType
	State       editors.State
	Fields      []string
	Status      autosave.Status
}

// Option configures a Controller.
type Option func(*Controller)

// WithGate sets the capability gate consulted on Open.
func WithGate(gate interfaces.CapabilityGate) Option {
	return func(c *Controller) {
		if gate != nil {
			c.gate = gate
		}
	}
}

// WithPublishGate sets a separate gate for Publish. Defaults to the edit gate.
func WithPublishGate(gate interfaces.CapabilityGate) Option {
	return func(c *Controller) {
		c.publishGate = gate
	}
}

// WithConfirmer sets who answers discard prompts.
func WithConfirmer(confirmer interfaces.Confirmer) Option {
	return func(c *Controller) {
		if confirmer != nil {
			c.confirmer = confirmer
		}
	}
}

// WithNotifier sets the notification sink shared with autosave managers.
func WithNotifier(n interfaces.Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Controller) {
		c.logger = logging.Ensure(logger)
	}
}

// WithAutosave sets the autosave configuration and manager options applied
// to every session.
func WithAutosave(cfg autosave.Config, opts ...autosave.Option) Option {
	return func(c *Controller) {
		c.autosaveCfg = cfg
		c.autosaveOpts = append(c.autosaveOpts, opts...)
	}
}

// WithRevisionCheck sends the revision loaded on Open with every save so
// concurrent edits surface as conflicts.
func WithRevisionCheck(enabled bool) Option {
	return func(c *Controller) {
		c.revisionCheck = enabled
	}
}

// WithPreviewer sets the rich text renderer.
func WithPreviewer(p *editors.Previewer) Option {
	return func(c *Controller) {
		if p != nil {
			c.previewer = p
		}
	}
}

type active struct {
	ref         domain.ElementRef
	elementType domain.ElementType
	editor      editors.Editor
	state       editors.State
	manager     *autosave.Manager
}

// Controller holds at most one element in edit at a time.
type Controller struct {
	store         Store
	gate          interfaces.CapabilityGate
	publishGate   interfaces.CapabilityGate
	confirmer     interfaces.Confirmer
	notifier      interfaces.Notifier
	logger        interfaces.Logger
	autosaveCfg   autosave.Config
	autosaveOpts  []autosave.Option
	revisionCheck bool
	previewer     *editors.Previewer

	mu      sync.Mutex
	state   State
	current *active
}

// NewController builds a controller over store. Without WithGate every Open
// is denied.
func NewController(store Store, opts ...Option) *Controller {
	c := &Controller{
		store:       store,
		gate:        permissions.StaticGate(false),
		confirmer:   interfaces.ConfirmerFunc(nil),
		notifier:    interfaces.NotifierFunc(nil),
		logger:      logging.NoOp(),
		autosaveCfg: autosave.DefaultConfig(),
		previewer:   editors.NewPreviewer(editors.PreviewOptions{}),
		state:       Idle(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// State reports the controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Active returns the element being edited.
func (c *Controller) Active() (domain.ElementRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return domain.ElementRef{}, false
	}
	return c.current.ref, true
}

// View returns the active element as the editing surface shows it.
func (c *Controller) View() (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return View{}, ErrNoActiveSession
	}
	return c.viewLocked(), nil
}

// Open starts editing ref. An element with unsaved changes is only replaced
// after the confirmer agrees to discard them.
func (c *Controller) Open(ctx context.Context, ref domain.ElementRef, elementType domain.ElementType) (View, error) {
	ref = elements.NormalizeRef(ref)
	if ref.PageKey == "" || ref.ElementKey == "" {
		return View{}, goerrors.New("page and element keys are required", goerrors.CategoryBadInput).
			WithTextCode("SESSION_REF_REQUIRED")
	}
	ctx = permissions.WithPageKey(ctx, ref.PageKey)
	if !c.gate.CanEdit(ctx) {
		c.logger.Warn("session.open.denied", "page_key", ref.PageKey, "element_key", ref.ElementKey)
		c.notifyDenied(ctx, ref)
		return View{}, denied(permissions.ElementsUpdate)
	}

	c.mu.Lock()
	if c.current != nil && c.current.ref == ref {
		view := c.viewLocked()
		c.mu.Unlock()
		return view, nil
	}
	previous := c.current
	dirty := previous != nil && previous.manager.Status().Dirty
	c.mu.Unlock()

	discard := !dirty
	if dirty {
		discard = c.confirmer.Confirm(ctx, PromptSwitch)
	}

	c.mu.Lock()
	if c.current != previous {
		c.mu.Unlock()
		return View{}, fmt.Errorf("%w: active element changed during open", ErrInvalidTransition)
	}
	next, err := Transition(c.state, Event{Kind: EventOpen, Ref: ref, Discard: discard})
	if err != nil {
		c.mu.Unlock()
		return View{}, err
	}
	c.mu.Unlock()

	session, err := c.load(ctx, ref, elementType)
	if err != nil {
		return View{}, err
	}

	c.mu.Lock()
	if c.current != previous {
		c.mu.Unlock()
		session.manager.Close()
		return View{}, fmt.Errorf("%w: active element changed during open", ErrInvalidTransition)
	}
	if previous != nil {
		previous.manager.Close()
		c.logger.Info("session.discarded", "page_key", previous.ref.PageKey, "element_key", previous.ref.ElementKey)
	}
	c.current = session
	c.state = next
	view := c.viewLocked()
	c.mu.Unlock()

	c.logger.Debug("session.opened", "page_key", ref.PageKey, "element_key", ref.ElementKey, "element_type", session.elementType)
	return view, nil
}

// Edit applies one partial update and hands the result to autosave.
func (c *Controller) Edit(ctx context.Context, update editors.Update) (editors.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return editors.State{}, ErrNoActiveSession
	}
	next, err := Transition(c.state, Event{Kind: EventEdit, Ref: c.current.ref})
	if err != nil {
		return c.current.state.Clone(), err
	}
	updated, err := c.current.editor.Apply(c.current.state, update)
	if err != nil {
		return c.current.state.Clone(), err
	}
	if err := c.current.manager.Update(snapshotOf(updated), autosave.OriginUser); err != nil {
		return c.current.state.Clone(), err
	}
	c.current.state = updated
	c.state = next
	return updated.Clone(), nil
}

// SetLocale switches the locale content updates target by default.
func (c *Controller) SetLocale(locale domain.Locale) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ErrNoActiveSession
	}
	c.current.state.ActiveLocale = locale
	return nil
}

// Preview renders the active locale's rich text content.
func (c *Controller) Preview() (string, error) {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return "", ErrNoActiveSession
	}
	state := c.current.state.Clone()
	c.mu.Unlock()
	return c.previewer.PreviewState(state)
}

// Save persists the active element as a draft and ends the session on
// success. On failure the session stays open in the error phase.
func (c *Controller) Save(ctx context.Context) (*elements.Element, error) {
	return c.commit(ctx, false)
}

// Publish persists the active element as published and ends the session on
// success.
func (c *Controller) Publish(ctx context.Context) (*elements.Element, error) {
	return c.commit(ctx, true)
}

func (c *Controller) commit(ctx context.Context, publish bool) (*elements.Element, error) {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	session := c.current
	if publish {
		gate := c.publishGate
		if gate == nil {
			gate = c.gate
		}
		if !gate.CanEdit(permissions.WithPageKey(ctx, session.ref.PageKey)) {
			c.mu.Unlock()
			return nil, denied(permissions.ElementsPublish)
		}
	}
	next, err := Transition(c.state, Event{Kind: EventSaveStarted, Ref: session.ref})
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.state = next
	c.mu.Unlock()

	var element *elements.Element
	if publish {
		element, err = session.manager.Publish(ctx, session.manager.Current())
	} else {
		element, err = session.manager.Flush(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != session {
		return element, err
	}
	kind := EventSaveSucceeded
	if err != nil {
		kind = EventSaveFailed
	}
	if next, terr := Transition(c.state, Event{Kind: kind, Ref: session.ref}); terr == nil {
		c.state = next
	}
	if err != nil {
		c.logger.Warn("session.save.failed", "page_key", session.ref.PageKey, "element_key", session.ref.ElementKey, "publish", publish, "error", err)
		return nil, err
	}
	session.manager.Close()
	c.current = nil
	return element, nil
}

// Retry re-sends the active element after a failed save without ending the
// session.
func (c *Controller) Retry(ctx context.Context) (*elements.Element, error) {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	manager := c.current.manager
	c.mu.Unlock()
	return manager.Retry(ctx)
}

// Reload reads the stored element again and rebases the active session on
// it. Local edits are kept, so the next save targets the latest revision. A
// session in the error phase returns to editing.
func (c *Controller) Reload(ctx context.Context) (View, error) {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return View{}, ErrNoActiveSession
	}
	session := c.current
	c.mu.Unlock()

	record, err := c.store.Lookup(ctx, session.ref.PageKey, session.ref.ElementKey)
	if err != nil {
		return View{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != session {
		return View{}, fmt.Errorf("%w: active element changed during reload", ErrInvalidTransition)
	}
	if c.state.Phase == PhaseSaving {
		return c.viewLocked(), ErrSaveInProgress
	}
	session.manager.Rebase(record)
	if c.state.Phase == PhaseError {
		if next, terr := Transition(c.state, Event{Kind: EventEdit, Ref: session.ref}); terr == nil {
			c.state = next
		}
	}
	c.logger.Debug("session.reloaded", "page_key", session.ref.PageKey, "element_key", session.ref.ElementKey, "revision", record.Revision)
	return c.viewLocked(), nil
}

// Cancel ends the session. Unsaved changes need confirmation; a declined
// prompt returns ErrUnsavedChanges and keeps the session. A save already in
// flight is not interrupted.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return nil
	}
	session := c.current
	dirty := session.manager.Status().Dirty
	c.mu.Unlock()

	discard := !dirty
	if dirty {
		discard = c.confirmer.Confirm(ctx, PromptDiscard)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != session {
		return nil
	}
	next, err := Transition(c.state, Event{Kind: EventCancel, Ref: session.ref, Discard: discard})
	if err != nil {
		return err
	}
	session.manager.Close()
	c.current = nil
	c.state = next
	c.logger.Debug("session.cancelled", "page_key", session.ref.PageKey, "element_key", session.ref.ElementKey, "dirty", dirty)
	return nil
}

// Close tears the controller down without prompting, cancelling every timer.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.manager.Close()
		c.current = nil
	}
	c.state, _ = Transition(c.state, Event{Kind: EventClose})
}

func (c *Controller) load(ctx context.Context, ref domain.ElementRef, elementType domain.ElementType) (*active, error) {
	initial := editors.State{ActiveLocale: domain.LocaleEnglish}
	revision := 0
	record, err := c.store.Lookup(ctx, ref.PageKey, ref.ElementKey)
	switch {
	case err == nil && record != nil:
		initial.ContentAr = record.ContentAr
		initial.ContentEn = record.ContentEn
		initial.Metadata = record.Metadata
		revision = record.Revision
		if elementType == "" {
			elementType = record.ElementType
		}
	case err != nil && !elements.IsNotFound(err):
		return nil, err
	}
	if elementType == "" {
		elementType = domain.ElementText
	}
	editor := editors.Dispatch(elementType)

	opts := []autosave.Option{
		autosave.WithNotifier(c.notifier),
		autosave.WithLogger(c.logger),
	}
	opts = append(opts, c.autosaveOpts...)
	if c.revisionCheck {
		opts = append(opts, autosave.WithRevision(revision))
	}
	manager, err := autosave.New(ref, editor.Type(), snapshotOf(initial), c.store, c.autosaveCfg, opts...)
	if err != nil {
		return nil, err
	}
	return &active{
		ref:         ref,
		elementType: editor.Type(),
		editor:      editor,
		state:       initial.Clone(),
		manager:     manager,
	}, nil
}

func (c *Controller) viewLocked() View {
	return View{
		Ref:         c.current.ref,
		ElementType: c.current.elementType,
		State:       c.current.state.Clone(),
		Fields:      c.current.editor.Fields(),
		Status:      c.current.manager.Status(),
	}
}

func (c *Controller) notifyDenied(ctx context.Context, ref domain.ElementRef) {
	c.notifier.Notify(ctx, interfaces.Notification{
		Kind:       interfaces.NotificationError,
		Code:       "session.permission_denied",
		Message:    "You do not have permission to edit this content",
		PageKey:    ref.PageKey,
		ElementKey: ref.ElementKey,
	})
}

func denied(permission string) error {
	return goerrors.Wrap(permissions.Error{Permission: permission}, goerrors.CategoryAuthz, "editing not allowed").
		WithTextCode("SESSION_PERMISSION_DENIED")
}

func snapshotOf(state editors.State) autosave.Snapshot {
	return autosave.Snapshot{
		ContentAr: state.ContentAr,
		ContentEn: state.ContentEn,
		Metadata:  state.Metadata,
	}
}
