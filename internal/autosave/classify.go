package autosave

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-inline/internal/permissions"
)

// Class is the failure taxonomy used to decide retries and user messages.
type Class string

const (
	ClassNone       Class = ""
	ClassPermission Class = "permission"
	ClassNetwork    Class = "network"
	ClassValidation Class = "validation"
	ClassConflict   Class = "conflict"
	ClassUnknown    Class = "unknown"
)

// Retryable reports whether the class is retried automatically.
func (c Class) Retryable() bool {
	return c == ClassNetwork
}

// ErrUnavailable marks a gateway failure as transient connectivity loss.
var ErrUnavailable = errors.New("autosave: persistence unavailable")

type retryable interface {
	IsRetryable() bool
}

// Classify maps a gateway error onto the failure taxonomy.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, permissions.ErrPermissionDenied) ||
		goerrors.IsCategory(err, goerrors.CategoryAuthz) ||
		goerrors.IsCategory(err, goerrors.CategoryAuth) {
		return ClassPermission
	}
	if goerrors.IsCategory(err, goerrors.CategoryValidation) ||
		goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		return ClassValidation
	}
	if goerrors.IsCategory(err, goerrors.CategoryConflict) {
		return ClassConflict
	}
	if isNetwork(err) {
		return ClassNetwork
	}
	return ClassUnknown
}

func isNetwork(err error) bool {
	if errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var r retryable
	if errors.As(err, &r) && r.IsRetryable() {
		return true
	}
	if goerrors.IsCategory(err, goerrors.CategoryExternal) ||
		goerrors.IsCategory(err, goerrors.CategoryRateLimit) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
