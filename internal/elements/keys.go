package elements

import (
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-cms-inline/internal/domain"
)

// NormalizePageKey canonicalises a page key through the slug normalizer.
func NormalizePageKey(value string) string {
	candidate := strings.ToLower(strings.TrimSpace(value))
	if candidate == "" {
		return ""
	}
	normalized, err := slug.Default().Normalize(candidate)
	if err != nil || normalized == "" {
		return candidate
	}
	return normalized
}

// NormalizeElementKey trims and lowercases an element key. Underscores are
// significant and kept.
func NormalizeElementKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// NormalizeRef canonicalises both parts of an element address.
func NormalizeRef(ref domain.ElementRef) domain.ElementRef {
	return domain.ElementRef{
		PageKey:    NormalizePageKey(ref.PageKey),
		ElementKey: NormalizeElementKey(ref.ElementKey),
	}
}
