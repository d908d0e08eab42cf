package collections

import (
	"encoding/json"
	"errors"
	"fmt"
)

const typeField = "type"

var (
	ErrUnknownKind   = errors.New("collections: unknown element type")
	ErrInvalidRecord = errors.New("collections: invalid element record")
)

// Encode turns an element into its stored record: the variant fields plus a
// "type" discriminator.
func Encode(element HeroElement) (map[string]any, error) {
	if element == nil {
		return nil, fmt.Errorf("%w: nil element", ErrInvalidRecord)
	}
	raw, err := json.Marshal(element)
	if err != nil {
		return nil, fmt.Errorf("collections: encode %s: %w", element.Kind(), err)
	}
	record := map[string]any{}
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("collections: encode %s: %w", element.Kind(), err)
	}
	record[typeField] = string(element.Kind())
	return record, nil
}

// Decode builds the variant named by the record's "type" field.
func Decode(record map[string]any) (HeroElement, error) {
	kind, _ := record[typeField].(string)
	switch Kind(kind) {
	case KindText:
		return decodeAs[Text](record)
	case KindImage:
		return decodeAs[Image](record)
	case KindButton:
		return decodeAs[Button](record)
	case KindIcon:
		return decodeAs[Icon](record)
	case KindStat:
		return decodeAs[Stat](record)
	case KindLayout:
		return decodeAs[Layout](record)
	case KindBackground:
		return decodeAs[Background](record)
	case "":
		return nil, fmt.Errorf("%w: missing %q", ErrInvalidRecord, typeField)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// EncodeAll encodes elements in order.
func EncodeAll(elements []HeroElement) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(elements))
	for _, element := range elements {
		record, err := Encode(element)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

// DecodeAll decodes records in order.
func DecodeAll(records []map[string]any) ([]HeroElement, error) {
	out := make([]HeroElement, 0, len(records))
	for i, record := range records {
		element, err := Decode(record)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, element)
	}
	return out, nil
}

func decodeAs[T HeroElement](record map[string]any) (HeroElement, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	var element T
	if err := json.Unmarshal(raw, &element); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return element, nil
}
