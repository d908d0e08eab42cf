package editors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-cms-inline/internal/domain"
	schemas "github.com/goliatone/go-cms-inline/internal/validation"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindInteger
	kindBool
)

type fieldSpec struct {
	kind   fieldKind
	values []string
}

// fieldTable lists the editable leaf paths of an element type, derived from
// its metadata schema. Array properties are managed elsewhere and skipped.
func fieldTable(elementType domain.ElementType) map[string]fieldSpec {
	out := map[string]fieldSpec{}
	collectFields(schemas.MetadataSchema(elementType), "", out)
	return out
}

func collectFields(schema map[string]any, prefix string, out map[string]fieldSpec) {
	properties, _ := schema["properties"].(map[string]any)
	for name, raw := range properties {
		property, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		switch property["type"] {
		case "object":
			collectFields(property, path, out)
		case "string":
			spec := fieldSpec{kind: kindString}
			if values, ok := property["enum"].([]any); ok {
				for _, v := range values {
					spec.values = append(spec.values, fmt.Sprint(v))
				}
			}
			out[path] = spec
		case "number":
			out[path] = fieldSpec{kind: kindNumber}
		case "integer":
			out[path] = fieldSpec{kind: kindInteger}
		case "boolean":
			out[path] = fieldSpec{kind: kindBool}
		}
	}
}

// Fields returns the sorted editable metadata paths for elementType.
func Fields(elementType domain.ElementType) []string {
	table := fieldTable(elementType)
	out := make([]string, 0, len(table))
	for path := range table {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

func (s fieldSpec) coerce(value any) (any, error) {
	switch s.kind {
	case kindNumber:
		return ParseNumber(value), nil
	case kindInteger:
		return ParseInteger(value), nil
	case kindBool:
		switch typed := value.(type) {
		case bool:
			return typed, nil
		case string:
			return strings.EqualFold(strings.TrimSpace(typed), "true"), nil
		default:
			return false, nil
		}
	}
	text, ok := value.(string)
	if !ok {
		if value == nil {
			text = ""
		} else {
			text = fmt.Sprint(value)
		}
	}
	text = strings.TrimSpace(text)
	if len(s.values) > 0 && text != "" {
		for _, allowed := range s.values {
			if allowed == text {
				return text, nil
			}
		}
		return nil, fmt.Errorf("%w: %q not one of %s", ErrInvalidValue, text, strings.Join(s.values, ", "))
	}
	return text, nil
}

// setPath writes value at a dotted path, copying every map on the way so the
// input record is never mutated and siblings are kept.
func setPath(record map[string]any, path string, value any) map[string]any {
	out := make(map[string]any, len(record)+1)
	for key, v := range record {
		out[key] = v
	}
	head, rest, nestedPath := strings.Cut(path, ".")
	if !nestedPath {
		if isZeroLeaf(value) {
			delete(out, head)
		} else {
			out[head] = value
		}
		return out
	}
	child, _ := out[head].(map[string]any)
	updated := setPath(child, rest, value)
	if len(updated) == 0 {
		delete(out, head)
	} else {
		out[head] = updated
	}
	return out
}

func isZeroLeaf(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	}
	return false
}
