package editors

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-cms-inline/internal/domain"
)

var (
	colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]+|(rgb|rgba|hsl|hsla)\([^)]*\)|var\(--[\w-]+\))$`)
	linkPattern  = regexp.MustCompile(`^(https?://\S+|/\S*|#\S*|mailto:\S+|tel:\S+)$`)
)

const maxAnimationSeconds = 10.0

func colorRule() validation.Rule {
	return validation.Match(colorPattern).ErrorObject(
		validation.NewError("cms.editors.color_invalid", "must be a hex, rgb, hsl, named or variable colour"),
	)
}

func publishedRequired(status domain.Status) validation.Rule {
	return validation.When(status == domain.StatusPublished, validation.Required.ErrorObject(
		validation.NewError("cms.editors.required_for_publish", "is required before publishing"),
	))
}

func validateTextStyling(styling *TextStyling) error {
	return validation.ValidateStruct(styling,
		validation.Field(&styling.FontSize, validation.Min(0.0)),
		validation.Field(&styling.Color, colorRule()),
	)
}

func nested(field string, err error, errs validation.Errors) validation.Errors {
	if err == nil {
		return errs
	}
	if errs == nil {
		errs = validation.Errors{}
	}
	errs[field] = err
	return errs
}

func merge(base error, extra validation.Errors) error {
	if len(extra) == 0 {
		return base
	}
	out := validation.Errors{}
	if typed, ok := base.(validation.Errors); ok {
		for key, value := range typed {
			out[key] = value
		}
	} else if base != nil {
		return base
	}
	for key, value := range extra {
		out[key] = value
	}
	return out
}

func (m TextMeta) Validate(domain.Status) error {
	return merge(nil, nested("styling", validateTextStyling(&m.Styling), nil))
}

func (m RichTextMeta) Validate(domain.Status) error {
	base := validation.ValidateStruct(&m,
		validation.Field(&m.Format, validation.In("markdown", "html")),
	)
	return merge(base, nested("styling", validateTextStyling(&m.Styling), nil))
}

func (m ImageMeta) Validate(status domain.Status) error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Src, publishedRequired(status)),
		validation.Field(&m.Width, validation.Min(0.0)),
		validation.Field(&m.Height, validation.Min(0.0)),
	)
}

func (m ButtonMeta) Validate(status domain.Status) error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.URL, publishedRequired(status), validation.Match(linkPattern).ErrorObject(
			validation.NewError("cms.editors.link_invalid", "must be an absolute URL, a path, an anchor, mailto or tel link"),
		)),
		validation.Field(&m.Target, validation.In("_self", "_blank")),
	)
}

func (m IconMeta) Validate(status domain.Status) error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, publishedRequired(status)),
		validation.Field(&m.Size, validation.Min(0.0)),
		validation.Field(&m.Color, colorRule()),
	)
}

func (m StatMeta) Validate(status domain.Status) error {
	base := validation.ValidateStruct(&m,
		validation.Field(&m.Value, publishedRequired(status)),
	)
	styling := validation.ValidateStruct(&m.Styling,
		validation.Field(&m.Styling.ValueSize, validation.Min(0.0)),
		validation.Field(&m.Styling.LabelSize, validation.Min(0.0)),
		validation.Field(&m.Styling.Color, colorRule()),
	)
	return merge(base, nested("styling", styling, nil))
}

func (m LayoutMeta) Validate(domain.Status) error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Direction, validation.In("row", "column")),
		validation.Field(&m.Gap, validation.Min(0.0)),
		validation.Field(&m.Columns, validation.Min(0), validation.Max(12)),
	)
}

func (m BackgroundMeta) Validate(domain.Status) error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Kind, validation.In("color", "gradient", "image")),
		validation.Field(&m.Color, validation.When(m.Kind == "color", validation.Required), colorRule()),
		validation.Field(&m.Gradient, validation.When(m.Kind == "gradient", validation.Required)),
		validation.Field(&m.ImageSrc, validation.When(m.Kind == "image", validation.Required)),
		validation.Field(&m.OverlayOpacity, validation.Min(0.0), validation.Max(1.0)),
	)
}

func (m AnimationMeta) Validate(domain.Status) error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Duration, validation.Min(0.0), validation.Max(maxAnimationSeconds)),
		validation.Field(&m.Delay, validation.Min(0.0), validation.Max(maxAnimationSeconds)),
	)
}
