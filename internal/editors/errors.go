package editors

import "errors"

var (
	ErrUnknownField    = errors.New("editors: unknown metadata field")
	ErrInvalidValue    = errors.New("editors: invalid field value")
	ErrInvalidMetadata = errors.New("editors: invalid metadata")
	ErrEmptyUpdate     = errors.New("editors: update carries no change")
)

const (
	TextCodeUnknownField    = "EDITOR_UNKNOWN_FIELD"
	TextCodeInvalidValue    = "EDITOR_INVALID_VALUE"
	TextCodeInvalidMetadata = "EDITOR_INVALID_METADATA"
)
