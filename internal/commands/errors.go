package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to errors the handler categorises itself. Errors that
// arrive already categorised keep their own code.
const (
	TextCodeInvalid   = "CMS_INLINE_COMMAND_INVALID"
	TextCodeCancelled = "CMS_INLINE_COMMAND_CANCELLED"
	TextCodeTimeout   = "CMS_INLINE_COMMAND_TIMEOUT"
	TextCodeFailed    = "CMS_INLINE_COMMAND_FAILED"
)

func tag(err error, category goerrors.Category, message, code string) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, category, message).WithTextCode(code)
}

func rejected(err error) error {
	return tag(err, goerrors.CategoryValidation, "command payload rejected", TextCodeInvalid)
}

func interrupted(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return tag(err, goerrors.CategoryCommand, "command ran past its deadline", TextCodeTimeout)
	}
	return tag(err, goerrors.CategoryCommand, "command interrupted", TextCodeCancelled)
}

func failed(err error) error {
	return tag(err, goerrors.CategoryCommand, "command failed", TextCodeFailed)
}
