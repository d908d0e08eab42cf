package editors

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-inline/internal/domain"
	schemas "github.com/goliatone/go-cms-inline/internal/validation"
)

// Validator checks metadata records against the schema registry and the
// per-type rules of the typed metadata.
type Validator struct {
	registry *schemas.Registry
}

// NewValidator returns a validator. A nil registry skips schema checks.
func NewValidator(registry *schemas.Registry) *Validator {
	return &Validator{registry: registry}
}

// ValidateMetadata returns a validation category error with field errors
// prefixed by "metadata".
func (v *Validator) ValidateMetadata(elementType domain.ElementType, status domain.Status, metadata map[string]any) error {
	if v != nil && v.registry != nil {
		if err := v.registry.Validate(elementType, metadata); err != nil {
			issues := schemas.Issues(err)
			wrapped := goerrors.Wrap(err, goerrors.CategoryValidation, "metadata does not match schema").
				WithTextCode(TextCodeInvalidMetadata)
			wrapped.ValidationErrors = schemas.AsFieldErrors("metadata", issues)
			return wrapped
		}
	}

	meta, err := Decode(elementType, metadata)
	if err != nil {
		wrapped := goerrors.Wrap(err, goerrors.CategoryValidation, "metadata could not be decoded").
			WithTextCode(TextCodeInvalidMetadata)
		wrapped.ValidationErrors = goerrors.ValidationErrors{{Field: "metadata", Message: err.Error()}}
		return wrapped
	}
	if err := meta.Validate(status); err != nil {
		if errs, ok := err.(validation.Errors); ok {
			return goerrors.FromOzzoValidation(validation.Errors{"metadata": errs}, "metadata invalid").
				WithTextCode(TextCodeInvalidMetadata)
		}
		return goerrors.Wrap(err, goerrors.CategoryValidation, "metadata invalid").WithTextCode(TextCodeInvalidMetadata)
	}
	return nil
}
