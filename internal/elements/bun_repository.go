package elements

import (
	"context"
	"fmt"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/internal/identity"
)

// NewElementRepository creates the generic bun repository for Element rows.
func NewElementRepository(db *bun.DB) repository.Repository[*Element] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Element]{
		NewRecord:          func() *Element { return &Element{} },
		GetID:              func(e *Element) uuid.UUID { return e.ID },
		SetID:              func(e *Element, id uuid.UUID) { e.ID = id },
		GetIdentifier:      func() string { return "element_key" },
		GetIdentifierValue: func(e *Element) string { return e.ElementKey },
	})
}

// BunRepository implements Repository with optional caching.
type BunRepository struct {
	repo repository.Repository[*Element]
}

// NewBunRepository creates an element repository without caching.
func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache creates an element repository with caching services.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	base := NewElementRepository(db)
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
	}
	return &BunRepository{repo: base}
}

// CreateSchema creates the content_elements table and its unique address index.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*Element)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("elements: create table: %w", err)
	}
	if _, err := db.NewCreateIndex().
		Model((*Element)(nil)).
		Index("content_elements_page_element_key").
		Unique().
		Column("page_key", "element_key").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("elements: create index: %w", err)
	}
	return nil
}

func (r *BunRepository) Get(ctx context.Context, ref domain.ElementRef) (*Element, error) {
	id := identity.ElementUUID(ref.PageKey, ref.ElementKey)
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "content_element", ref.String())
	}
	return record, nil
}

func (r *BunRepository) Create(ctx context.Context, element *Element) (*Element, error) {
	if element == nil {
		return nil, ErrElementRequired
	}
	record, err := r.repo.Create(ctx, element)
	if err != nil {
		return nil, mapRepositoryError(err, "content_element", element.Ref().String())
	}
	return record, nil
}

func (r *BunRepository) Update(ctx context.Context, element *Element) (*Element, error) {
	if element == nil {
		return nil, ErrElementRequired
	}
	updated, err := r.repo.Update(ctx, element,
		repository.UpdateByID(element.ID.String()),
		repository.UpdateColumns(
			"element_type",
			"content_ar",
			"content_en",
			"metadata",
			"status",
			"revision",
			"published_ar",
			"published_en",
			"published_metadata",
			"published_at",
			"updated_at",
		),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "content_element", element.Ref().String())
	}
	return updated, nil
}

func (r *BunRepository) ListByPage(ctx context.Context, pageKey string) ([]*Element, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.page_key = ?", pageKey)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.element_key ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "content_element", pageKey)
	}
	return records, nil
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if errors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
