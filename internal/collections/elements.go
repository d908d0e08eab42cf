package collections

import (
	"maps"

	"github.com/goliatone/go-cms-inline/internal/editors"
)

// Kind discriminates hero element variants in stored records.
type Kind string

const (
	KindText       Kind = "text"
	KindImage      Kind = "image"
	KindButton     Kind = "button"
	KindIcon       Kind = "icon"
	KindStat       Kind = "stat"
	KindLayout     Kind = "layout"
	KindBackground Kind = "background"
)

// Kinds lists the supported variants.
func Kinds() []Kind {
	return []Kind{KindText, KindImage, KindButton, KindIcon, KindStat, KindLayout, KindBackground}
}

// Base holds the fields every hero element carries.
type Base struct {
	ID         string `json:"id"`
	ElementKey string `json:"elementKey"`
	Visible    bool   `json:"visible"`
	ClassName  string `json:"className,omitempty"`
}

// HeroElement is one typed building block of a composite section. The set of
// variants is closed.
type HeroElement interface {
	Kind() Kind
	Common() Base
	withBase(Base) HeroElement
	clone() HeroElement
}

type Text struct {
	Base
	Content editors.Localized `json:"content"`
	Meta    editors.TextMeta  `json:"meta"`
}

type Image struct {
	Base
	Meta editors.ImageMeta `json:"meta"`
}

type Button struct {
	Base
	Label editors.Localized  `json:"label"`
	Meta  editors.ButtonMeta `json:"meta"`
}

type Icon struct {
	Base
	Meta editors.IconMeta `json:"meta"`
}

type Stat struct {
	Base
	Label editors.Localized `json:"label"`
	Meta  editors.StatMeta  `json:"meta"`
}

type Layout struct {
	Base
	Meta editors.LayoutMeta `json:"meta"`
}

type Background struct {
	Base
	Meta editors.BackgroundMeta `json:"meta"`
}

func (Text) Kind() Kind       { return KindText }
func (Image) Kind() Kind      { return KindImage }
func (Button) Kind() Kind     { return KindButton }
func (Icon) Kind() Kind       { return KindIcon }
func (Stat) Kind() Kind       { return KindStat }
func (Layout) Kind() Kind     { return KindLayout }
func (Background) Kind() Kind { return KindBackground }

func (e Text) Common() Base       { return e.Base }
func (e Image) Common() Base      { return e.Base }
func (e Button) Common() Base     { return e.Base }
func (e Icon) Common() Base       { return e.Base }
func (e Stat) Common() Base       { return e.Base }
func (e Layout) Common() Base     { return e.Base }
func (e Background) Common() Base { return e.Base }

func (e Text) withBase(b Base) HeroElement       { e.Base = b; return e }
func (e Image) withBase(b Base) HeroElement      { e.Base = b; return e }
func (e Button) withBase(b Base) HeroElement     { e.Base = b; return e }
func (e Icon) withBase(b Base) HeroElement       { e.Base = b; return e }
func (e Stat) withBase(b Base) HeroElement       { e.Base = b; return e }
func (e Layout) withBase(b Base) HeroElement     { e.Base = b; return e }
func (e Background) withBase(b Base) HeroElement { e.Base = b; return e }

func (e Text) clone() HeroElement       { return e }
func (e Image) clone() HeroElement      { return e }
func (e Button) clone() HeroElement     { return e }
func (e Icon) clone() HeroElement       { return e }
func (e Stat) clone() HeroElement       { return e }
func (e Background) clone() HeroElement { return e }

func (e Layout) clone() HeroElement {
	if e.Meta.Elements != nil {
		children := make([]map[string]any, len(e.Meta.Elements))
		for i, child := range e.Meta.Elements {
			children[i] = maps.Clone(child)
		}
		e.Meta.Elements = children
	}
	return e
}
