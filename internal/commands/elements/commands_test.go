package elementscmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-inline/internal/commands"
	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/internal/elements"
	"github.com/goliatone/go-cms-inline/internal/logging"
)

func newStore() elements.Service {
	return elements.NewService(elements.NewMemoryRepository())
}

func TestSaveDraftHandlerKeepsPublishedSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	logger := commands.Logger(nil, "elements")

	draft := NewSaveDraftHandler(store, logger)
	if err := draft.Execute(ctx, SaveDraftCommand{
		PageKey:     "home",
		ElementKey:  "hero_badge",
		ElementType: domain.ElementText,
		ContentAr:   "مرحباً",
		ContentEn:   "Welcome",
	}); err != nil {
		t.Fatalf("save draft: %v", err)
	}

	if _, ok, err := store.Get(ctx, "home", "hero_badge", "en"); err != nil || ok {
		t.Fatalf("expected no published content, ok=%v err=%v", ok, err)
	}
	working, ok, err := store.GetWorking(ctx, "home", "hero_badge", "en")
	if err != nil || !ok {
		t.Fatalf("expected working copy, ok=%v err=%v", ok, err)
	}
	if working.Content != "Welcome" {
		t.Fatalf("expected working content Welcome, got %q", working.Content)
	}
}

func TestPublishHandlerPromotesWorkingCopy(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	logger := logging.NoOp()

	if err := NewSaveDraftHandler(store, logger).Execute(ctx, SaveDraftCommand{
		PageKey:     "home",
		ElementKey:  "hero_badge",
		ElementType: domain.ElementText,
		ContentEn:   "Welcome",
	}); err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if err := NewPublishHandler(store, logger).Execute(ctx, PublishCommand{PageKey: "home", ElementKey: "hero_badge"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	published, ok, err := store.Get(ctx, "home", "hero_badge", "en")
	if err != nil || !ok {
		t.Fatalf("expected published content, ok=%v err=%v", ok, err)
	}
	if published.Content != "Welcome" {
		t.Fatalf("expected Welcome, got %q", published.Content)
	}
}

func TestPublishHandlerWithContent(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	err := NewPublishHandler(store, nil).Execute(ctx, PublishCommand{
		PageKey:    "home",
		ElementKey: "hero_cta",
		Content: &SaveDraftCommand{
			PageKey:     "home",
			ElementKey:  "hero_cta",
			ElementType: domain.ElementButton,
			ContentAr:   "ابدأ",
			ContentEn:   "Start",
			Metadata:    map[string]any{"url": "/start"},
		},
	})
	if err != nil {
		t.Fatalf("publish with content: %v", err)
	}
	published, ok, err := store.Get(ctx, "home", "hero_cta", "ar")
	if err != nil || !ok || published.Content != "ابدأ" {
		t.Fatalf("expected published arabic content, got %+v ok=%v err=%v", published, ok, err)
	}
}

func TestSaveDraftValidation(t *testing.T) {
	revision := -1
	cases := map[string]SaveDraftCommand{
		"missing page":      {ElementKey: "hero_badge", ElementType: domain.ElementText},
		"blank element":     {PageKey: "home", ElementKey: "   ", ElementType: domain.ElementText},
		"missing type":      {PageKey: "home", ElementKey: "hero_badge"},
		"unknown type":      {PageKey: "home", ElementKey: "hero_badge", ElementType: "carousel"},
		"negative revision": {PageKey: "home", ElementKey: "hero_badge", ElementType: domain.ElementText, ExpectedRevision: &revision},
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			store := newStore()
			err := NewSaveDraftHandler(store, nil).Execute(context.Background(), msg)
			if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
				t.Fatalf("expected validation category, got %v", err)
			}
		})
	}
}

func TestPublishValidationRejectsMismatchedContent(t *testing.T) {
	msg := PublishCommand{
		PageKey:    "home",
		ElementKey: "hero_badge",
		Content:    &SaveDraftCommand{PageKey: "home", ElementKey: "hero_cta", ElementType: domain.ElementButton},
	}
	if err := msg.Validate(); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

type failingStore struct {
	elements.Service
	err error
}

func (f failingStore) Publish(context.Context, string, string) (*elements.Element, error) {
	return nil, f.err
}

func TestPublishHandlerKeepsStoreErrorCategory(t *testing.T) {
	storeErr := goerrors.New("element missing", goerrors.CategoryNotFound)
	handler := NewPublishHandler(failingStore{Service: newStore(), err: storeErr}, nil)

	err := handler.Execute(context.Background(), PublishCommand{PageKey: "home", ElementKey: "ghost"})
	if !goerrors.IsCategory(err, goerrors.CategoryNotFound) {
		t.Fatalf("expected not found category to survive, got %v", err)
	}
}

func TestPublishHandlerWrapsPlainErrors(t *testing.T) {
	handler := NewPublishHandler(failingStore{Service: newStore(), err: errors.New("disk full")}, nil)

	err := handler.Execute(context.Background(), PublishCommand{PageKey: "home", ElementKey: "hero_badge"})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}
