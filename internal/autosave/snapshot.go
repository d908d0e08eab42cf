package autosave

import (
	"encoding/json"
	"reflect"
)

// Snapshot is the editable payload of one element.
type Snapshot struct {
	ContentAr string
	ContentEn string
	Metadata  map[string]any
}

// Equal compares content and metadata. Metadata is compared in its JSON form
// so 1 and 1.0 are the same value.
func (s Snapshot) Equal(other Snapshot) bool {
	if s.ContentAr != other.ContentAr || s.ContentEn != other.ContentEn {
		return false
	}
	if len(s.Metadata) == 0 && len(other.Metadata) == 0 {
		return true
	}
	return reflect.DeepEqual(canonical(s.Metadata), canonical(other.Metadata))
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	s.Metadata = cloneMap(s.Metadata)
	return s
}

func canonical(metadata map[string]any) any {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return metadata
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return metadata
	}
	return out
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for key, value := range src {
		switch typed := value.(type) {
		case map[string]any:
			out[key] = cloneMap(typed)
		case []any:
			items := make([]any, len(typed))
			for i, item := range typed {
				if nested, ok := item.(map[string]any); ok {
					items[i] = cloneMap(nested)
				} else {
					items[i] = item
				}
			}
			out[key] = items
		default:
			out[key] = value
		}
	}
	return out
}
