package domain

import "strings"

// Status represents the visibility tier of a content element.
type Status string

const (
	// StatusDraft marks editor-only content that visitors never see.
	StatusDraft Status = "draft"
	// StatusPublished marks content served to ordinary visitors.
	StatusPublished Status = "published"
)

// ParseStatus normalizes the input, defaulting to draft when empty.
func ParseStatus(input string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(input))) {
	case "", StatusDraft:
		return StatusDraft, true
	case StatusPublished:
		return StatusPublished, true
	default:
		return "", false
	}
}

// Valid reports whether the status is one of the known tiers.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}
