package editors

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-cms-inline/internal/domain"
)

// Metadata is the closed set of per-type metadata records. Each element type
// owns exactly one concrete implementation.
type Metadata interface {
	ElementType() domain.ElementType
	Validate(status domain.Status) error
	sealed()
}

// Localized holds a value per content locale.
type Localized struct {
	Ar string `json:"ar,omitempty"`
	En string `json:"en,omitempty"`
}

// Get returns the value for locale, English for anything else.
func (l Localized) Get(locale domain.Locale) string {
	if locale == domain.LocaleArabic {
		return l.Ar
	}
	return l.En
}

type TextStyling struct {
	FontSize   float64 `json:"fontSize,omitempty"`
	FontWeight string  `json:"fontWeight,omitempty"`
	Color      string  `json:"color,omitempty"`
	Align      string  `json:"align,omitempty"`
}

type TextMeta struct {
	Tag     string      `json:"tag,omitempty"`
	Styling TextStyling `json:"styling"`
}

type RichTextMeta struct {
	Format  string      `json:"format,omitempty"`
	Styling TextStyling `json:"styling"`
}

type ImageMeta struct {
	Src       string    `json:"src,omitempty"`
	Alt       Localized `json:"alt"`
	Width     float64   `json:"width,omitempty"`
	Height    float64   `json:"height,omitempty"`
	ObjectFit string    `json:"objectFit,omitempty"`
}

type ButtonMeta struct {
	URL     string `json:"url,omitempty"`
	Variant string `json:"variant,omitempty"`
	Target  string `json:"target,omitempty"`
	Icon    string `json:"icon,omitempty"`
}

type IconMeta struct {
	Name  string  `json:"name,omitempty"`
	Size  float64 `json:"size,omitempty"`
	Color string  `json:"color,omitempty"`
}

type StatStyling struct {
	ValueSize float64 `json:"valueSize,omitempty"`
	LabelSize float64 `json:"labelSize,omitempty"`
	Color     string  `json:"color,omitempty"`
}

type StatMeta struct {
	Value   string      `json:"value,omitempty"`
	Suffix  string      `json:"suffix,omitempty"`
	Icon    string      `json:"icon,omitempty"`
	Styling StatStyling `json:"styling"`
}

type LayoutMeta struct {
	Direction string           `json:"direction,omitempty"`
	Gap       float64          `json:"gap,omitempty"`
	Columns   int              `json:"columns,omitempty"`
	Align     string           `json:"align,omitempty"`
	Justify   string           `json:"justify,omitempty"`
	Elements  []map[string]any `json:"elements,omitempty"`
}

type BackgroundMeta struct {
	Kind           string  `json:"kind,omitempty"`
	Color          string  `json:"color,omitempty"`
	Gradient       string  `json:"gradient,omitempty"`
	ImageSrc       string  `json:"imageSrc,omitempty"`
	OverlayOpacity float64 `json:"overlayOpacity,omitempty"`
}

type AnimationMeta struct {
	Name     string  `json:"name,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Delay    float64 `json:"delay,omitempty"`
	Easing   string  `json:"easing,omitempty"`
}

func (TextMeta) ElementType() domain.ElementType       { return domain.ElementText }
func (RichTextMeta) ElementType() domain.ElementType   { return domain.ElementRichText }
func (ImageMeta) ElementType() domain.ElementType      { return domain.ElementImage }
func (ButtonMeta) ElementType() domain.ElementType     { return domain.ElementButton }
func (IconMeta) ElementType() domain.ElementType       { return domain.ElementIcon }
func (StatMeta) ElementType() domain.ElementType       { return domain.ElementStat }
func (LayoutMeta) ElementType() domain.ElementType     { return domain.ElementLayout }
func (BackgroundMeta) ElementType() domain.ElementType { return domain.ElementBackground }
func (AnimationMeta) ElementType() domain.ElementType  { return domain.ElementAnimation }

func (TextMeta) sealed()       {}
func (RichTextMeta) sealed()   {}
func (ImageMeta) sealed()      {}
func (ButtonMeta) sealed()     {}
func (IconMeta) sealed()       {}
func (StatMeta) sealed()       {}
func (LayoutMeta) sealed()     {}
func (BackgroundMeta) sealed() {}
func (AnimationMeta) sealed()  {}

// Decode maps a raw metadata record onto the concrete type for elementType.
// Unknown element types decode as text metadata.
func Decode(elementType domain.ElementType, raw map[string]any) (Metadata, error) {
	switch elementType {
	case domain.ElementRichText:
		return decodeInto[RichTextMeta](raw)
	case domain.ElementImage:
		return decodeInto[ImageMeta](raw)
	case domain.ElementButton:
		return decodeInto[ButtonMeta](raw)
	case domain.ElementIcon:
		return decodeInto[IconMeta](raw)
	case domain.ElementStat:
		return decodeInto[StatMeta](raw)
	case domain.ElementLayout:
		return decodeInto[LayoutMeta](raw)
	case domain.ElementBackground:
		return decodeInto[BackgroundMeta](raw)
	case domain.ElementAnimation:
		return decodeInto[AnimationMeta](raw)
	default:
		return decodeInto[TextMeta](raw)
	}
}

// Encode returns the raw record for meta. Zero-valued leaves are omitted.
func Encode(meta Metadata) (map[string]any, error) {
	if meta == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("editors: encode %s metadata: %w", meta.ElementType(), err)
	}
	var out map[string]any
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, fmt.Errorf("editors: encode %s metadata: %w", meta.ElementType(), err)
	}
	pruneEmpty(out)
	return out, nil
}

func decodeInto[T Metadata](raw map[string]any) (Metadata, error) {
	var target T
	if len(raw) == 0 {
		return target, nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("editors: decode %s metadata: %w", target.ElementType(), err)
	}
	if err := json.Unmarshal(encoded, &target); err != nil {
		return nil, fmt.Errorf("%w: %s metadata: %v", ErrInvalidMetadata, target.ElementType(), err)
	}
	return target, nil
}

func pruneEmpty(record map[string]any) {
	for key, value := range record {
		nested, ok := value.(map[string]any)
		if !ok {
			continue
		}
		pruneEmpty(nested)
		if len(nested) == 0 {
			delete(record, key)
		}
	}
}
