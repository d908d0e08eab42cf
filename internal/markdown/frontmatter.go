package markdown

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"
)

// FrontMatter is the header of a seeded element file.
type FrontMatter struct {
	Type     string
	Status   string
	Page     string
	Key      string
	Draft    bool
	Metadata map[string]any
}

// ParseFrontMatter extracts the header and the Markdown body without
// delimiters. Files without a header yield an empty FrontMatter.
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return envelopeToFrontMatter(meta), body, nil
}

type frontMatterEnvelope struct {
	Type     string         `yaml:"type" toml:"type"`
	Status   string         `yaml:"status" toml:"status"`
	Page     string         `yaml:"page" toml:"page"`
	Key      string         `yaml:"key" toml:"key"`
	Draft    bool           `yaml:"draft" toml:"draft"`
	Metadata map[string]any `yaml:"metadata" toml:"metadata"`
}

func envelopeToFrontMatter(env frontMatterEnvelope) FrontMatter {
	return FrontMatter{
		Type:     env.Type,
		Status:   env.Status,
		Page:     env.Page,
		Key:      env.Key,
		Draft:    env.Draft,
		Metadata: cloneMap(env.Metadata),
	}
}

// cloneMap copies input and turns nested YAML maps into map[string]any so
// metadata survives JSON encoding.
func cloneMap(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, nested := range typed {
			out[fmt.Sprint(key)] = normalizeValue(nested)
		}
		return out
	case map[string]any:
		return cloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, nested := range typed {
			out[i] = normalizeValue(nested)
		}
		return out
	default:
		return value
	}
}
