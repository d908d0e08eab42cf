package interfaces

import (
	"context"
	"time"
)

// NotificationKind groups notifications the way host toast systems display them.
type NotificationKind string

const (
	NotificationSuccess    NotificationKind = "success"
	NotificationError      NotificationKind = "error"
	NotificationValidation NotificationKind = "validation"
	NotificationInfo       NotificationKind = "info"
)

// Notification is emitted by the editing runtime for the host notification surface.
type Notification struct {
	Kind       NotificationKind
	Code       string
	Message    string
	PageKey    string
	ElementKey string
	// Fields carries field level validation messages keyed by field path.
	Fields map[string]string
	// Retryable marks errors the user can retry manually.
	Retryable  bool
	OccurredAt time.Time
}

// Notifier receives notifications. Implementations must not block the caller for long.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (fn NotifierFunc) Notify(ctx context.Context, n Notification) {
	if fn != nil {
		fn(ctx, n)
	}
}
