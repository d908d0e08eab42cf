package elements

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-cms-inline/internal/domain"
)

// Element is the persisted record of one editable fragment. The row carries
// the working copy written by the last save, whatever its status, plus the
// published snapshot that ordinary visitors read.
type Element struct {
	bun.BaseModel `bun:"table:content_elements,alias:ce"`

	ID          uuid.UUID          `bun:",pk,type:uuid" json:"id"`
	PageKey     string             `bun:"page_key,notnull" json:"page_key"`
	ElementKey  string             `bun:"element_key,notnull" json:"element_key"`
	ElementType domain.ElementType `bun:"element_type,notnull" json:"element_type"`
	ContentAr   string             `bun:"content_ar,notnull,default:''" json:"content_ar"`
	ContentEn   string             `bun:"content_en,notnull,default:''" json:"content_en"`
	Metadata    map[string]any     `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	Status      domain.Status      `bun:"status,notnull,default:'draft'" json:"status"`
	Revision    int                `bun:"revision,notnull,default:0" json:"revision"`

	PublishedAr       string         `bun:"published_ar,notnull,default:''" json:"published_ar"`
	PublishedEn       string         `bun:"published_en,notnull,default:''" json:"published_en"`
	PublishedMetadata map[string]any `bun:"published_metadata,type:jsonb" json:"published_metadata,omitempty"`
	PublishedAt       *time.Time     `bun:"published_at,nullzero" json:"published_at,omitempty"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull" json:"updated_at"`
}

// IsPublished reports whether a published snapshot exists.
func (e *Element) IsPublished() bool {
	return e != nil && e.PublishedAt != nil
}

// Ref returns the element address.
func (e *Element) Ref() domain.ElementRef {
	if e == nil {
		return domain.ElementRef{}
	}
	return domain.ElementRef{PageKey: e.PageKey, ElementKey: e.ElementKey}
}

// UpsertRequest is the persistence gateway payload. Identical requests are
// safe to repeat.
type UpsertRequest struct {
	PageKey     string
	ElementKey  string
	ElementType domain.ElementType
	ContentAr   string
	ContentEn   string
	Metadata    map[string]any
	Status      domain.Status
	// ExpectedRevision enables an optimistic concurrency check when set. Zero
	// means the caller expects the element not to exist yet.
	ExpectedRevision *int
}

// Ref returns the address targeted by the request.
func (r UpsertRequest) Ref() domain.ElementRef {
	return domain.ElementRef{PageKey: r.PageKey, ElementKey: r.ElementKey}
}

// Content is the locale-specific view returned by reads.
type Content struct {
	ElementType domain.ElementType
	Content     string
	Metadata    map[string]any
	Status      domain.Status
	Revision    int
	UpdatedAt   time.Time
}

// ChangeType enumerates store mutations.
type ChangeType string

const (
	ChangeCreated   ChangeType = "created"
	ChangeUpdated   ChangeType = "updated"
	ChangePublished ChangeType = "published"
)

// ChangeEvent reports a persisted mutation to subscribers.
type ChangeEvent struct {
	Type    ChangeType
	Element Element
}

// NotFoundError is returned when an element cannot be located.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func cloneElement(src *Element) *Element {
	if src == nil {
		return nil
	}
	cloned := *src
	cloned.Metadata = cloneMap(src.Metadata)
	cloned.PublishedMetadata = cloneMap(src.PublishedMetadata)
	if src.PublishedAt != nil {
		ts := *src.PublishedAt
		cloned.PublishedAt = &ts
	}
	return &cloned
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
			out[key] = cloneSlice(typed)
		default:
			out[key] = value
		}
	}
	return out
}

func cloneSlice(src []any) []any {
	out := make([]any, len(src))
	for i, value := range src {
		switch typed := value.(type) {
		case map[string]any:
			out[i] = cloneMap(typed)
		case []any:
			out[i] = cloneSlice(typed)
		default:
			out[i] = value
		}
	}
	return out
}
