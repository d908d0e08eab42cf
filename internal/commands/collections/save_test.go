package collectionscmd

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-inline/internal/collections"
	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/internal/elements"
)

func TestSaveCollectionHandlerPersistsLayout(t *testing.T) {
	ctx := context.Background()
	store := elements.NewService(elements.NewMemoryRepository())
	service := collections.NewService(store)
	handler := NewSaveCollectionHandler(service, nil)

	msg := SaveCollectionCommand{
		PageKey:    "home",
		SectionKey: "hero",
		Status:     domain.StatusPublished,
		Elements: []map[string]any{
			{"type": "text", "id": "a", "elementKey": "hero_badge", "visible": true, "content": map[string]any{"ar": "مرحباً", "en": "Welcome"}},
			{"type": "button", "id": "b", "elementKey": "hero_cta", "visible": false, "label": map[string]any{"ar": "ابدأ", "en": "Start"}},
		},
	}
	if err := handler.Execute(ctx, msg); err != nil {
		t.Fatalf("save collection: %v", err)
	}

	coll, err := service.Load(ctx, "home", "hero")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ids := coll.IDs(); len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("unexpected ids %v", ids)
	}
	visible, err := service.Published(ctx, "home", "hero")
	if err != nil {
		t.Fatalf("published: %v", err)
	}
	if len(visible) != 1 || visible[0].Common().ElementKey != "hero_badge" {
		t.Fatalf("expected only the visible element, got %v", visible)
	}
}

func TestSaveCollectionValidation(t *testing.T) {
	cases := map[string]SaveCollectionCommand{
		"missing section": {PageKey: "home"},
		"bad status":      {PageKey: "home", SectionKey: "hero", Status: "archived"},
		"unknown element": {PageKey: "home", SectionKey: "hero", Elements: []map[string]any{{"type": "carousel"}}},
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			service := collections.NewService(elements.NewService(elements.NewMemoryRepository()))
			err := NewSaveCollectionHandler(service, nil).Execute(context.Background(), msg)
			if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
				t.Fatalf("expected validation category, got %v", err)
			}
		})
	}
}

func TestSaveCollectionRejectsDuplicateKeys(t *testing.T) {
	service := collections.NewService(elements.NewService(elements.NewMemoryRepository()))
	msg := SaveCollectionCommand{
		PageKey:    "home",
		SectionKey: "hero",
		Elements: []map[string]any{
			{"type": "text", "id": "a", "elementKey": "hero_badge", "visible": true},
			{"type": "text", "id": "b", "elementKey": "hero_badge", "visible": true},
		},
	}
	if err := NewSaveCollectionHandler(service, nil).Execute(context.Background(), msg); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}
