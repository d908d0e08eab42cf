package elements

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrElementRequired    = errors.New("elements: element is required")
	ErrElementExists      = errors.New("elements: element already exists")
	ErrRepositoryRequired = errors.New("elements: repository is required")
	ErrRevisionConflict   = errors.New("elements: revision mismatch")
)

const (
	TextCodeInvalid  = "CONTENT_ELEMENT_INVALID"
	TextCodeConflict = "CONTENT_ELEMENT_REVISION_CONFLICT"
	TextCodeNotFound = "CONTENT_ELEMENT_NOT_FOUND"
)

func validationError(errs validation.Errors) error {
	if len(errs) == 0 {
		return nil
	}
	return goerrors.FromOzzoValidation(errs, "content element invalid").WithTextCode(TextCodeInvalid)
}

func conflictError(key string, expected, actual int) error {
	return goerrors.Wrap(
		fmt.Errorf("%w: %s expected %d, found %d", ErrRevisionConflict, key, expected, actual),
		goerrors.CategoryConflict,
		"content element was changed by another save",
	).WithTextCode(TextCodeConflict)
}

// IsNotFound reports whether err signals a missing element.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}
