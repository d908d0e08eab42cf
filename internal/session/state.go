package session

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-cms-inline/internal/domain"
)

var (
	ErrInvalidTransition = errors.New("session: invalid transition")
	ErrUnsavedChanges    = errors.New("session: unsaved changes")
	ErrSaveInProgress    = errors.New("session: save in progress")
	ErrNoActiveSession   = errors.New("session: no active element")
)

// Phase is the lifecycle position of the controller.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseEditing Phase = "editing"
	PhaseSaving  Phase = "saving"
	PhaseError   Phase = "error"
)

// State is the controller state. Ref is zero only while idle.
type State struct {
	Phase Phase
	Ref   domain.ElementRef
}

func Idle() State                         { return State{Phase: PhaseIdle} }
func Editing(ref domain.ElementRef) State { return State{Phase: PhaseEditing, Ref: ref} }
func Saving(ref domain.ElementRef) State  { return State{Phase: PhaseSaving, Ref: ref} }
func Failed(ref domain.ElementRef) State  { return State{Phase: PhaseError, Ref: ref} }

// Active reports whether an element is held by the controller.
func (s State) Active() bool { return s.Phase != PhaseIdle && s.Phase != "" }

func (s State) String() string {
	if !s.Active() {
		return string(PhaseIdle)
	}
	return fmt.Sprintf("%s(%s)", s.Phase, s.Ref)
}

// EventKind names a controller input.
type EventKind string

const (
	EventOpen          EventKind = "open"
	EventEdit          EventKind = "edit"
	EventSaveStarted   EventKind = "save_started"
	EventSaveSucceeded EventKind = "save_succeeded"
	EventSaveFailed    EventKind = "save_failed"
	EventCancel        EventKind = "cancel"
	EventClose         EventKind = "close"
)

// Event is one input to Transition. Discard says the caller either has no
// unsaved changes or the editor confirmed dropping them.
type Event struct {
	Kind    EventKind
	Ref     domain.ElementRef
	Discard bool
}

// Transition computes the next state. It never switches the active element or
// cancels an edit unless the event carries Discard.
func Transition(current State, event Event) (State, error) {
	if event.Kind == EventClose {
		return Idle(), nil
	}
	if !current.Active() {
		if event.Kind == EventOpen && !event.Ref.IsZero() {
			return Editing(event.Ref), nil
		}
		if event.Kind == EventCancel {
			return Idle(), nil
		}
		return current, invalid(current, event)
	}

	switch event.Kind {
	case EventOpen:
		if event.Ref.IsZero() {
			return current, invalid(current, event)
		}
		if event.Ref == current.Ref {
			return current, nil
		}
		if current.Phase == PhaseSaving {
			return current, ErrSaveInProgress
		}
		if !event.Discard {
			return current, ErrUnsavedChanges
		}
		return Editing(event.Ref), nil

	case EventCancel:
		if !event.Discard {
			return current, ErrUnsavedChanges
		}
		return Idle(), nil
	}

	if !event.Ref.IsZero() && event.Ref != current.Ref {
		return current, invalid(current, event)
	}

	switch {
	case event.Kind == EventEdit && current.Phase == PhaseSaving:
		return current, ErrSaveInProgress
	case event.Kind == EventEdit:
		return Editing(current.Ref), nil
	case event.Kind == EventSaveStarted && current.Phase != PhaseSaving:
		return Saving(current.Ref), nil
	case event.Kind == EventSaveSucceeded && current.Phase == PhaseSaving:
		return Idle(), nil
	case event.Kind == EventSaveFailed && current.Phase == PhaseSaving:
		return Failed(current.Ref), nil
	}
	return current, invalid(current, event)
}

func invalid(current State, event Event) error {
	return fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event.Kind, current)
}
