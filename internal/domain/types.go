package domain

import (
	"fmt"
	"strings"
)

// ElementType discriminates the editor and metadata shape of a content element.
type ElementType string

const (
	ElementText       ElementType = "text"
	ElementRichText   ElementType = "rich_text"
	ElementImage      ElementType = "image"
	ElementButton     ElementType = "button"
	ElementIcon       ElementType = "icon"
	ElementStat       ElementType = "stat"
	ElementLayout     ElementType = "layout"
	ElementBackground ElementType = "background"
	ElementAnimation  ElementType = "animation"
)

// ElementTypes lists every supported element type in declaration order.
func ElementTypes() []ElementType {
	return []ElementType{
		ElementText,
		ElementRichText,
		ElementImage,
		ElementButton,
		ElementIcon,
		ElementStat,
		ElementLayout,
		ElementBackground,
		ElementAnimation,
	}
}

// ParseElementType normalizes input. Unknown values report false.
func ParseElementType(input string) (ElementType, bool) {
	candidate := ElementType(strings.ToLower(strings.TrimSpace(input)))
	for _, known := range ElementTypes() {
		if candidate == known {
			return known, true
		}
	}
	return candidate, false
}

// Locale is one of the two content locales.
type Locale string

const (
	LocaleArabic  Locale = "ar"
	LocaleEnglish Locale = "en"
)

// ParseLocale normalizes a locale code such as "en-US" or "AR".
func ParseLocale(input string) (Locale, bool) {
	code := strings.ToLower(strings.TrimSpace(input))
	if idx := strings.IndexAny(code, "-_"); idx > 0 {
		code = code[:idx]
	}
	switch Locale(code) {
	case LocaleArabic:
		return LocaleArabic, true
	case LocaleEnglish:
		return LocaleEnglish, true
	default:
		return "", false
	}
}

// ElementRef addresses one editable fragment on one logical page.
type ElementRef struct {
	PageKey    string
	ElementKey string
}

// IsZero reports whether the reference is unset.
func (r ElementRef) IsZero() bool {
	return strings.TrimSpace(r.PageKey) == "" && strings.TrimSpace(r.ElementKey) == ""
}

func (r ElementRef) String() string {
	return fmt.Sprintf("%s/%s", r.PageKey, r.ElementKey)
}
