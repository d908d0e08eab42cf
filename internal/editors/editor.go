package editors

import (
	"fmt"
	"maps"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-inline/internal/domain"
)

// State is what an editor works on: both locale contents plus the metadata
// record of the element.
type State struct {
	ContentAr    string
	ContentEn    string
	Metadata     map[string]any
	ActiveLocale domain.Locale
}

// Content returns the content for locale.
func (s State) Content(locale domain.Locale) string {
	if locale == domain.LocaleArabic {
		return s.ContentAr
	}
	return s.ContentEn
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	s.Metadata = cloneRecord(s.Metadata)
	return s
}

// Update is a partial edit: content for one locale, one metadata field, or
// both.
type Update struct {
	Locale  domain.Locale
	Content *string
	Field   string
	Value   any
}

// ContentUpdate sets the content of one locale.
func ContentUpdate(locale domain.Locale, text string) Update {
	return Update{Locale: locale, Content: &text}
}

// FieldUpdate sets one metadata field addressed by a dotted path.
func FieldUpdate(path string, value any) Update {
	return Update{Field: path, Value: value}
}

// Editor applies partial updates for one element type.
type Editor interface {
	Type() domain.ElementType
	Fields() []string
	Apply(state State, update Update) (State, error)
}

type editor struct {
	elementType domain.ElementType
	fields      map[string]fieldSpec
}

var registry = func() map[domain.ElementType]*editor {
	out := make(map[domain.ElementType]*editor, len(domain.ElementTypes()))
	for _, elementType := range domain.ElementTypes() {
		out[elementType] = &editor{elementType: elementType, fields: fieldTable(elementType)}
	}
	return out
}()

// Dispatch returns the editor for elementType. Unknown types get the plain
// text editor.
func Dispatch(elementType domain.ElementType) Editor {
	switch elementType {
	case domain.ElementText,
		domain.ElementRichText,
		domain.ElementImage,
		domain.ElementButton,
		domain.ElementIcon,
		domain.ElementStat,
		domain.ElementLayout,
		domain.ElementBackground,
		domain.ElementAnimation:
		return registry[elementType]
	default:
		return registry[domain.ElementText]
	}
}

func (e *editor) Type() domain.ElementType { return e.elementType }

func (e *editor) Fields() []string { return Fields(e.elementType) }

func (e *editor) Apply(state State, update Update) (State, error) {
	if update.Content == nil && update.Field == "" {
		return state, ErrEmptyUpdate
	}
	next := state.Clone()

	if update.Content != nil {
		locale := update.Locale
		if locale == "" {
			locale = state.ActiveLocale
		}
		switch locale {
		case domain.LocaleArabic:
			next.ContentAr = *update.Content
		case domain.LocaleEnglish, "":
			next.ContentEn = *update.Content
		default:
			return state, invalidValue("locale", fmt.Errorf("%w: unsupported locale %q", ErrInvalidValue, locale))
		}
	}

	if update.Field != "" {
		spec, ok := e.fields[update.Field]
		if !ok {
			err := fmt.Errorf("%w: %s has no field %q", ErrUnknownField, e.elementType, update.Field)
			return state, fieldError(TextCodeUnknownField, "unknown metadata field", update.Field, err)
		}
		value, err := spec.coerce(update.Value)
		if err != nil {
			return state, invalidValue(update.Field, err)
		}
		next.Metadata = setPath(next.Metadata, update.Field, value)
		if _, err := Decode(e.elementType, next.Metadata); err != nil {
			return state, invalidValue(update.Field, err)
		}
	}
	return next, nil
}

func invalidValue(field string, err error) error {
	return fieldError(TextCodeInvalidValue, "invalid field value", field, err)
}

func fieldError(code, message, field string, err error) error {
	wrapped := goerrors.Wrap(err, goerrors.CategoryValidation, message).WithTextCode(code)
	wrapped.ValidationErrors = goerrors.ValidationErrors{{Field: field, Message: err.Error()}}
	return wrapped
}

func cloneRecord(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := maps.Clone(src)
	for key, value := range out {
		if nested, ok := value.(map[string]any); ok {
			out[key] = cloneRecord(nested)
		}
	}
	return out
}
