package collections

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/internal/editors"
	"github.com/goliatone/go-cms-inline/internal/elements"
	"github.com/goliatone/go-cms-inline/internal/validation"
	"github.com/goliatone/go-cms-inline/pkg/testsupport"
)

func newStore(t *testing.T) elements.Service {
	t.Helper()
	registry, err := validation.NewDefaultRegistry()
	if err != nil {
		t.Fatalf("NewDefaultRegistry() error = %v", err)
	}
	validator := editors.NewValidator(registry)
	return elements.NewService(elements.NewMemoryRepository(), elements.WithMetadataValidator(validator))
}

func TestLoadMissingSectionIsEmpty(t *testing.T) {
	svc := NewService(newStore(t))
	c, err := svc.Load(context.Background(), "home", "hero")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty collection, got %d", c.Len())
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	svc := NewService(store)

	var records []map[string]any
	testsupport.Golden(t, "testdata/hero_section.json", &records)
	items, err := DecodeAll(records)
	if err != nil {
		t.Fatalf("DecodeAll() error = %v", err)
	}
	c, err := New(items)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.Reorder(0, 3); err != nil {
		t.Fatalf("Reorder() error = %v", err)
	}

	saved, err := svc.Save(ctx, "home", "hero", c, domain.StatusDraft)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.ElementType != domain.ElementLayout || saved.Status != domain.StatusDraft {
		t.Fatalf("unexpected saved element %+v", saved)
	}

	loaded, err := svc.Load(ctx, "home", "hero")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(loaded.IDs(), c.IDs()) {
		t.Fatalf("order not preserved: %v vs %v", loaded.IDs(), c.IDs())
	}
	if !reflect.DeepEqual(loaded.Elements(), c.Elements()) {
		t.Fatalf("elements changed across save and load")
	}

	published, err := svc.Published(ctx, "home", "hero")
	if err != nil {
		t.Fatalf("Published() error = %v", err)
	}
	if len(published) != 0 {
		t.Fatalf("draft collection must not be visible, got %d", len(published))
	}
}

func TestPublishedReturnsVisibleElements(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newStore(t))
	c, _ := New(nil, sequentialIDs())
	c.Add(text("title"))
	hidden, _ := c.Add(text("subtitle"))
	c.ToggleVisibility(hidden.Common().ID)

	if _, err := svc.Save(ctx, "home", "hero", c, domain.StatusPublished); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	c.Add(text("draft_only"))
	if _, err := svc.Save(ctx, "home", "hero", c, domain.StatusDraft); err != nil {
		t.Fatalf("draft Save() error = %v", err)
	}

	published, err := svc.Published(ctx, "home", "hero")
	if err != nil {
		t.Fatalf("Published() error = %v", err)
	}
	if len(published) != 1 || published[0].Common().ElementKey != "title" {
		t.Fatalf("unexpected published elements %+v", published)
	}
}

func TestSaveKeepsOtherLayoutMetadata(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	if _, err := store.Upsert(ctx, elements.UpsertRequest{
		PageKey: "home", ElementKey: "hero", ElementType: domain.ElementLayout,
		ContentEn: "Hero", Metadata: map[string]any{"direction": "column", "gap": 16},
	}); err != nil {
		t.Fatalf("seed error = %v", err)
	}
	svc := NewService(store)
	c, _ := svc.Load(ctx, "home", "hero")
	c.Add(text("title"))
	saved, err := svc.Save(ctx, "home", "hero", c, domain.StatusDraft)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.Metadata["direction"] != "column" || saved.ContentEn != "Hero" {
		t.Fatalf("layout fields lost: %+v", saved)
	}
}

func TestLoadAssignsStableIDsToLegacyRecords(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	if _, err := store.Upsert(ctx, elements.UpsertRequest{
		PageKey: "home", ElementKey: "hero", ElementType: domain.ElementLayout,
		Metadata: map[string]any{"elements": []any{
			map[string]any{"type": "text", "elementKey": "title", "visible": true},
		}},
	}); err != nil {
		t.Fatalf("seed error = %v", err)
	}
	svc := NewService(store)
	first, err := svc.Load(ctx, "home", "hero")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	second, _ := svc.Load(ctx, "home", "hero")
	if first.IDs()[0] == "" || first.IDs()[0] != second.IDs()[0] {
		t.Fatalf("expected stable legacy ids, got %v and %v", first.IDs(), second.IDs())
	}
}

func TestLoadRejectsNonLayoutSection(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	if _, err := store.Upsert(ctx, elements.UpsertRequest{
		PageKey: "home", ElementKey: "hero", ElementType: domain.ElementText, ContentEn: "x",
	}); err != nil {
		t.Fatalf("seed error = %v", err)
	}
	svc := NewService(store)
	if _, err := svc.Load(ctx, "home", "hero"); !errors.Is(err, ErrNotCollection) {
		t.Fatalf("expected ErrNotCollection, got %v", err)
	}
	c, _ := New(nil)
	if _, err := svc.Save(ctx, "home", "hero", c, domain.StatusDraft); !errors.Is(err, ErrNotCollection) {
		t.Fatalf("expected ErrNotCollection on save, got %v", err)
	}
}

func TestSaveOverBunStore(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewBunDB(t)
	if err := elements.CreateSchema(ctx, db); err != nil {
		t.Fatalf("CreateSchema() error = %v", err)
	}
	svc := NewService(elements.NewService(elements.NewBunRepository(db)))
	c, _ := New(nil, sequentialIDs())
	c.Add(text("title"))
	c.Add(Button{Base: Base{ElementKey: "cta", Visible: true}, Meta: editors.ButtonMeta{URL: "/go"}})
	if _, err := svc.Save(ctx, "home", "hero", c, domain.StatusPublished); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := svc.Load(ctx, "home", "hero")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(loaded.Elements(), c.Elements()) {
		t.Fatalf("bun round trip changed elements: %+v", loaded.Elements())
	}
}
