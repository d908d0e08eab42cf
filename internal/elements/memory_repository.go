package elements

import (
	"context"
	"sort"
	"sync"

	"github.com/goliatone/go-cms-inline/internal/domain"
)

// MemoryRepository keeps element rows in process memory.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[domain.ElementRef]*Element
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rows: make(map[domain.ElementRef]*Element),
	}
}

func (r *MemoryRepository) Get(_ context.Context, ref domain.ElementRef) (*Element, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[ref]
	if !ok {
		return nil, &NotFoundError{Resource: "content_element", Key: ref.String()}
	}
	return cloneElement(row), nil
}

func (r *MemoryRepository) Create(_ context.Context, element *Element) (*Element, error) {
	if element == nil {
		return nil, ErrElementRequired
	}
	ref := element.Ref()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rows[ref]; exists {
		return nil, ErrElementExists
	}
	r.rows[ref] = cloneElement(element)
	return cloneElement(element), nil
}

func (r *MemoryRepository) Update(_ context.Context, element *Element) (*Element, error) {
	if element == nil {
		return nil, ErrElementRequired
	}
	ref := element.Ref()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rows[ref]; !exists {
		return nil, &NotFoundError{Resource: "content_element", Key: ref.String()}
	}
	r.rows[ref] = cloneElement(element)
	return cloneElement(element), nil
}

func (r *MemoryRepository) ListByPage(_ context.Context, pageKey string) ([]*Element, error) {
	r.mu.RLock()
	out := make([]*Element, 0)
	for ref, row := range r.rows {
		if ref.PageKey == pageKey {
			out = append(out, cloneElement(row))
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ElementKey < out[j].ElementKey })
	return out, nil
}
