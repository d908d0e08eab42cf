package validation

import "github.com/goliatone/go-cms-inline/internal/domain"

func object(properties map[string]any) map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": true,
	}
}

func str() map[string]any { return map[string]any{"type": "string"} }

func enum(values ...string) map[string]any {
	items := make([]any, len(values))
	for i, v := range values {
		items[i] = v
	}
	return map[string]any{"type": "string", "enum": items}
}

func nonNegative() map[string]any {
	return map[string]any{"type": "number", "minimum": 0}
}

func unitInterval() map[string]any {
	return map[string]any{"type": "number", "minimum": 0, "maximum": 1}
}

func localized() map[string]any {
	return object(map[string]any{"ar": str(), "en": str()})
}

func textStyling() map[string]any {
	return object(map[string]any{
		"fontSize":   nonNegative(),
		"fontWeight": enum("normal", "medium", "semibold", "bold"),
		"color":      str(),
		"align":      enum("start", "center", "end", "justify"),
	})
}

// MetadataSchema returns the JSON schema for the metadata of elementType.
// Unknown types get the text schema.
func MetadataSchema(elementType domain.ElementType) map[string]any {
	var schema map[string]any
	switch elementType {
	case domain.ElementRichText:
		schema = object(map[string]any{
			"format":  enum("markdown", "html"),
			"styling": textStyling(),
		})
	case domain.ElementImage:
		schema = object(map[string]any{
			"src":       str(),
			"alt":       localized(),
			"width":     nonNegative(),
			"height":    nonNegative(),
			"objectFit": enum("cover", "contain", "fill", "none"),
		})
	case domain.ElementButton:
		schema = object(map[string]any{
			"url":     str(),
			"variant": enum("primary", "secondary", "outline", "link"),
			"target":  enum("_self", "_blank"),
			"icon":    str(),
		})
	case domain.ElementIcon:
		schema = object(map[string]any{
			"name":  str(),
			"size":  nonNegative(),
			"color": str(),
		})
	case domain.ElementStat:
		schema = object(map[string]any{
			"value":  str(),
			"suffix": str(),
			"icon":   str(),
			"styling": object(map[string]any{
				"valueSize": nonNegative(),
				"labelSize": nonNegative(),
				"color":     str(),
			}),
		})
	case domain.ElementLayout:
		schema = object(map[string]any{
			"direction": enum("row", "column"),
			"gap":       nonNegative(),
			"columns":   map[string]any{"type": "integer", "minimum": 0, "maximum": 12},
			"align":     enum("start", "center", "end", "stretch"),
			"justify":   enum("start", "center", "end", "between", "around"),
			"elements":  map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
		})
	case domain.ElementBackground:
		schema = object(map[string]any{
			"kind":           enum("color", "gradient", "image"),
			"color":          str(),
			"gradient":       str(),
			"imageSrc":       str(),
			"overlayOpacity": unitInterval(),
		})
	case domain.ElementAnimation:
		schema = object(map[string]any{
			"name":     enum("none", "fade", "slide-up", "slide-left", "zoom"),
			"duration": nonNegative(),
			"delay":    nonNegative(),
			"easing":   enum("linear", "ease", "ease-in", "ease-out", "ease-in-out"),
		})
	default:
		schema = object(map[string]any{
			"tag":     enum("h1", "h2", "h3", "h4", "h5", "h6", "p", "span"),
			"styling": textStyling(),
		})
	}
	schema["$schema"] = "https://json-schema.org/draft/2020-12/schema"
	return schema
}
