package collections

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	goerrors "github.com/goliatone/go-errors"
)

var (
	ErrElementNotFound  = errors.New("collections: element not found")
	ErrIndexOutOfRange  = errors.New("collections: index out of range")
	ErrDuplicateID      = errors.New("collections: duplicate element id")
	ErrDuplicateKey     = errors.New("collections: duplicate element key")
	ErrKindChange       = errors.New("collections: element type cannot change")
	ErrImmutableField   = errors.New("collections: field cannot be patched")
	ErrElementRequired  = errors.New("collections: element is required")
	ErrElementKeyFormat = errors.New("collections: element key is required")
)

const (
	TextCodeKindChange  = "COLLECTION_KIND_CHANGE"
	TextCodeDuplicate   = "COLLECTION_DUPLICATE_KEY"
	TextCodeOutOfRange  = "COLLECTION_INDEX_OUT_OF_RANGE"
	TextCodeInvalidPath = "COLLECTION_IMMUTABLE_FIELD"
)

// Patch is a partial update in stored record form. Nested objects merge key
// by key; a nil value removes the key.
type Patch map[string]any

// Option configures a Collection.
type Option func(*Collection)

// WithIDGenerator overrides how new element ids are produced.
func WithIDGenerator(fn func() string) Option {
	return func(c *Collection) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// Collection is an ordered list of hero elements with unique ids and element
// keys. It is not safe for concurrent use.
type Collection struct {
	items []HeroElement
	newID func() string
}

// New builds a collection from elements, keeping their ids. Elements without
// an id get a fresh one.
func New(elements []HeroElement, opts ...Option) (*Collection, error) {
	c := &Collection{newID: uuid.NewString}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	ids := make(map[string]struct{}, len(elements))
	keys := make(map[string]struct{}, len(elements))
	for _, element := range elements {
		if element == nil {
			return nil, ErrElementRequired
		}
		base := element.Common()
		if base.ID == "" {
			base.ID = c.freshID(ids)
			element = element.withBase(base)
		}
		if _, ok := ids[base.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, base.ID)
		}
		if _, ok := keys[base.ElementKey]; ok && base.ElementKey != "" {
			return nil, duplicateKey(base.ElementKey)
		}
		ids[base.ID] = struct{}{}
		keys[base.ElementKey] = struct{}{}
		c.items = append(c.items, element.clone())
	}
	return c, nil
}

// Len reports the number of elements.
func (c *Collection) Len() int { return len(c.items) }

// IDs returns element ids in order.
func (c *Collection) IDs() []string {
	out := make([]string, len(c.items))
	for i, element := range c.items {
		out[i] = element.Common().ID
	}
	return out
}

// Elements returns copies of the elements in order.
func (c *Collection) Elements() []HeroElement {
	out := make([]HeroElement, len(c.items))
	for i, element := range c.items {
		out[i] = element.clone()
	}
	return out
}

// Get returns a copy of the element with id.
func (c *Collection) Get(id string) (HeroElement, bool) {
	idx := c.indexOf(id)
	if idx < 0 {
		return nil, false
	}
	return c.items[idx].clone(), true
}

// Index returns the position of id or -1.
func (c *Collection) Index(id string) int { return c.indexOf(id) }

// Add appends element under a freshly generated id. An empty element key is
// derived from the variant; a key already in use is rejected.
func (c *Collection) Add(element HeroElement) (HeroElement, error) {
	if element == nil {
		return nil, ErrElementRequired
	}
	base := element.Common()
	base.ElementKey = strings.TrimSpace(base.ElementKey)
	if base.ElementKey == "" {
		base.ElementKey = c.uniqueKey(string(element.Kind()))
	} else if c.hasKey(base.ElementKey, "") {
		return nil, duplicateKey(base.ElementKey)
	}
	base.ID = c.freshID(c.idSet())
	added := element.withBase(base).clone()
	c.items = append(c.items, added)
	return added.clone(), nil
}

// Update merges patch into the element with id. The id cannot change, the
// type must stay the same and a new element key must stay unique.
func (c *Collection) Update(id string, patch Patch) (HeroElement, error) {
	idx := c.indexOf(id)
	if idx < 0 {
		return nil, notFound(id)
	}
	current := c.items[idx]
	record, err := Encode(current)
	if err != nil {
		return nil, err
	}
	for key, value := range patch {
		switch key {
		case typeField:
			if kind, _ := value.(string); Kind(kind) != current.Kind() {
				return nil, goerrors.Wrap(
					fmt.Errorf("%w: %s to %v", ErrKindChange, current.Kind(), value),
					goerrors.CategoryValidation, "element type cannot change",
				).WithTextCode(TextCodeKindChange)
			}
		case "id":
			if value != id {
				return nil, goerrors.Wrap(
					fmt.Errorf("%w: id", ErrImmutableField),
					goerrors.CategoryValidation, "element id cannot change",
				).WithTextCode(TextCodeInvalidPath)
			}
		}
	}
	merged := mergeRecord(record, patch)
	updated, err := Decode(merged)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid element patch")
	}
	base := updated.Common()
	base.ElementKey = strings.TrimSpace(base.ElementKey)
	if base.ElementKey == "" {
		return nil, ErrElementKeyFormat
	}
	if c.hasKey(base.ElementKey, id) {
		return nil, duplicateKey(base.ElementKey)
	}
	updated = updated.withBase(base)
	c.items[idx] = updated
	return updated.clone(), nil
}

// Delete removes the element with id, keeping the order of the rest.
func (c *Collection) Delete(id string) error {
	idx := c.indexOf(id)
	if idx < 0 {
		return notFound(id)
	}
	c.items = append(c.items[:idx:idx], c.items[idx+1:]...)
	return nil
}

// Duplicate inserts a copy of the element with id right after it. The copy
// gets a new id and a derived element key: "<key>_copy", then "<key>_copy_2"
// and so on.
func (c *Collection) Duplicate(id string) (HeroElement, error) {
	idx := c.indexOf(id)
	if idx < 0 {
		return nil, notFound(id)
	}
	source := c.items[idx]
	base := source.Common()
	base.ID = c.freshID(c.idSet())
	base.ElementKey = c.uniqueKey(base.ElementKey + "_copy")
	copied := source.clone().withBase(base)

	items := make([]HeroElement, 0, len(c.items)+1)
	items = append(items, c.items[:idx+1]...)
	items = append(items, copied)
	items = append(items, c.items[idx+1:]...)
	c.items = items
	return copied.clone(), nil
}

// Reorder moves the element at from to position to. Only positions change.
func (c *Collection) Reorder(from, to int) error {
	n := len(c.items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return goerrors.Wrap(
			fmt.Errorf("%w: move %d to %d in %d elements", ErrIndexOutOfRange, from, to, n),
			goerrors.CategoryBadInput, "reorder index out of range",
		).WithTextCode(TextCodeOutOfRange)
	}
	if from == to {
		return nil
	}
	moved := c.items[from]
	if from < to {
		copy(c.items[from:to], c.items[from+1:to+1])
	} else {
		copy(c.items[to+1:from+1], c.items[to:from])
	}
	c.items[to] = moved
	return nil
}

// ToggleVisibility flips the visible flag of the element with id and returns
// the new value.
func (c *Collection) ToggleVisibility(id string) (bool, error) {
	idx := c.indexOf(id)
	if idx < 0 {
		return false, notFound(id)
	}
	base := c.items[idx].Common()
	base.Visible = !base.Visible
	c.items[idx] = c.items[idx].withBase(base)
	return base.Visible, nil
}

func (c *Collection) indexOf(id string) int {
	for i, element := range c.items {
		if element.Common().ID == id {
			return i
		}
	}
	return -1
}

func (c *Collection) idSet() map[string]struct{} {
	out := make(map[string]struct{}, len(c.items))
	for _, element := range c.items {
		out[element.Common().ID] = struct{}{}
	}
	return out
}

func (c *Collection) freshID(taken map[string]struct{}) string {
	for {
		id := c.newID()
		if _, ok := taken[id]; !ok && id != "" {
			return id
		}
	}
}

func (c *Collection) hasKey(key, exceptID string) bool {
	for _, element := range c.items {
		base := element.Common()
		if base.ElementKey == key && base.ID != exceptID {
			return true
		}
	}
	return false
}

// uniqueKey returns candidate when free, otherwise candidate_n for the
// smallest free n >= 2.
func (c *Collection) uniqueKey(candidate string) string {
	if !c.hasKey(candidate, "") {
		return candidate
	}
	for n := 2; ; n++ {
		key := candidate + "_" + strconv.Itoa(n)
		if !c.hasKey(key, "") {
			return key
		}
	}
}

func mergeRecord(base map[string]any, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		nested, isMap := v.(map[string]any)
		if patchMap, ok := v.(Patch); ok {
			nested, isMap = patchMap, true
		}
		if existing, ok := out[k].(map[string]any); ok && isMap {
			out[k] = mergeRecord(existing, nested)
			continue
		}
		out[k] = v
	}
	return out
}

func notFound(id string) error {
	return goerrors.Wrap(fmt.Errorf("%w: %s", ErrElementNotFound, id), goerrors.CategoryNotFound, "collection element not found")
}

func duplicateKey(key string) error {
	return goerrors.Wrap(fmt.Errorf("%w: %s", ErrDuplicateKey, key), goerrors.CategoryConflict, "element key already used").
		WithTextCode(TextCodeDuplicate)
}
