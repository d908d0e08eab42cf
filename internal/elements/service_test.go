package elements

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-inline/internal/domain"
)

func fixedClock() func() time.Time {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	return func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
}

func newTestService(opts ...ServiceOption) Service {
	opts = append([]ServiceOption{WithClock(fixedClock())}, opts...)
	return NewService(NewMemoryRepository(), opts...)
}

func badgeRequest(status domain.Status) UpsertRequest {
	return UpsertRequest{
		PageKey:     "home",
		ElementKey:  "hero_badge",
		ElementType: domain.ElementText,
		ContentAr:   "مرحباً",
		ContentEn:   "Welcome",
		Status:      status,
	}
}

func TestGetAbsentElementIsNotAnError(t *testing.T) {
	svc := newTestService()
	content, found, err := svc.Get(context.Background(), "home", "missing", "en")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found || content != nil {
		t.Fatalf("expected absent element, got %+v", content)
	}
}

func TestUpsertCreatesThenIsIdempotent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, err := svc.Upsert(ctx, badgeRequest(domain.StatusPublished))
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if first.Revision != 1 {
		t.Fatalf("expected revision 1, got %d", first.Revision)
	}

	second, err := svc.Upsert(ctx, badgeRequest(domain.StatusPublished))
	if err != nil {
		t.Fatalf("repeat Upsert() error = %v", err)
	}
	if second.Revision != 1 || second.ID != first.ID {
		t.Fatalf("expected identical record, got revision %d id %s", second.Revision, second.ID)
	}

	list, err := svc.List(ctx, "home")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one logical record, got %d", len(list))
	}
}

func TestPublishedReadReturnsLocaleContent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, err := svc.Upsert(ctx, badgeRequest(domain.StatusPublished)); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	ar, found, err := svc.Get(ctx, "home", "hero_badge", "ar")
	if err != nil || !found {
		t.Fatalf("Get(ar) found=%v err=%v", found, err)
	}
	if ar.Content != "مرحباً" {
		t.Fatalf("expected arabic content, got %q", ar.Content)
	}
	en, _, _ := svc.Get(ctx, "home", "hero_badge", "en-US")
	if en.Content != "Welcome" {
		t.Fatalf("expected english content, got %q", en.Content)
	}
	fallback, _, _ := svc.Get(ctx, "home", "hero_badge", "fr")
	if fallback.Content != "Welcome" {
		t.Fatalf("expected default locale content, got %q", fallback.Content)
	}
}

func TestDraftSaveLeavesPublishedSnapshotUntouched(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, err := svc.Upsert(ctx, badgeRequest(domain.StatusPublished)); err != nil {
		t.Fatalf("Upsert(published) error = %v", err)
	}

	draft := badgeRequest(domain.StatusDraft)
	draft.ContentEn = "Hello there"
	updated, err := svc.Upsert(ctx, draft)
	if err != nil {
		t.Fatalf("Upsert(draft) error = %v", err)
	}
	if updated.Revision != 2 || updated.Status != domain.StatusDraft {
		t.Fatalf("unexpected working copy %+v", updated)
	}

	public, _, _ := svc.Get(ctx, "home", "hero_badge", "en")
	if public.Content != "Welcome" {
		t.Fatalf("draft leaked to visitors: %q", public.Content)
	}
	working, _, _ := svc.GetWorking(ctx, "home", "hero_badge", "en")
	if working.Content != "Hello there" || working.Status != domain.StatusDraft {
		t.Fatalf("unexpected working copy %+v", working)
	}

	if _, err := svc.Publish(ctx, "home", "hero_badge"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	public, _, _ = svc.Get(ctx, "home", "hero_badge", "en")
	if public.Content != "Hello there" {
		t.Fatalf("expected promoted draft, got %q", public.Content)
	}
}

func TestDraftOnlyElementIsInvisibleToVisitors(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, err := svc.Upsert(ctx, badgeRequest(domain.StatusDraft)); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if _, found, _ := svc.Get(ctx, "home", "hero_badge", "en"); found {
		t.Fatalf("draft-only element should not be visible")
	}
	if got := svc.Resolve(ctx, "home", "hero_badge", "en", "Default"); got != "Default" {
		t.Fatalf("Resolve() = %q, want fallback", got)
	}
}

func TestUpsertRevisionConflict(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	zero := 0
	req := badgeRequest(domain.StatusDraft)
	req.ExpectedRevision = &zero
	if _, err := svc.Upsert(ctx, req); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	req.ContentEn = "Changed"
	_, err := svc.Upsert(ctx, req)
	if err == nil {
		t.Fatalf("expected conflict error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryConflict) {
		t.Fatalf("expected conflict category, got %v", err)
	}
	if !errors.Is(err, ErrRevisionConflict) {
		t.Fatalf("expected ErrRevisionConflict in chain, got %v", err)
	}
}

func TestUpsertRepeatWithStaleRevisionIsIdempotent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	zero := 0
	req := badgeRequest(domain.StatusDraft)
	req.ExpectedRevision = &zero

	first, err := svc.Upsert(ctx, req)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	// The caller never saw the first response and resends the same payload.
	second, err := svc.Upsert(ctx, req)
	if err != nil {
		t.Fatalf("repeated Upsert() error = %v", err)
	}
	if second.Revision != first.Revision || second.ID != first.ID {
		t.Fatalf("expected the stored record back, got revision %d id %s", second.Revision, second.ID)
	}
}

func TestUpsertValidation(t *testing.T) {
	svc := newTestService()
	_, err := svc.Upsert(context.Background(), UpsertRequest{ElementType: "carousel", Status: "archived"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !goerrors.IsValidation(err) {
		t.Fatalf("expected validation category, got %v", err)
	}
	var typed *goerrors.Error
	if !goerrors.As(err, &typed) {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	fields := map[string]bool{}
	for _, fe := range typed.ValidationErrors {
		fields[fe.Field] = true
	}
	for _, field := range []string{"page_key", "element_key", "element_type", "status"} {
		if !fields[field] {
			t.Fatalf("expected field error for %s, got %+v", field, typed.ValidationErrors)
		}
	}
}

func TestMetadataValidatorRuns(t *testing.T) {
	called := false
	svc := newTestService(WithMetadataValidator(MetadataValidatorFunc(func(elementType domain.ElementType, status domain.Status, metadata map[string]any) error {
		called = true
		if metadata["src"] == nil && status == domain.StatusPublished {
			return errors.New("src required")
		}
		return nil
	})))
	req := UpsertRequest{PageKey: "home", ElementKey: "hero_image", ElementType: domain.ElementImage, Status: domain.StatusPublished}
	if _, err := svc.Upsert(context.Background(), req); err == nil {
		t.Fatalf("expected validator error")
	}
	if !called {
		t.Fatalf("validator not called")
	}
}

func TestMetadataComparedCanonically(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	req := badgeRequest(domain.StatusDraft)
	req.Metadata = map[string]any{"styling": map[string]any{"fontSize": 18}}
	if _, err := svc.Upsert(ctx, req); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	req.Metadata = map[string]any{"styling": map[string]any{"fontSize": 18.0}}
	record, err := svc.Upsert(ctx, req)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if record.Revision != 1 {
		t.Fatalf("numeric representation should not bump revision, got %d", record.Revision)
	}
}

func TestKeysAreNormalized(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	req := badgeRequest(domain.StatusPublished)
	req.PageKey = "  Home "
	req.ElementKey = " Hero_Badge"
	if _, err := svc.Upsert(ctx, req); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if got := svc.Resolve(ctx, "home", "hero_badge", "ar", ""); got != "مرحباً" {
		t.Fatalf("Resolve() = %q", got)
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	svc := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := svc.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if _, err := svc.Upsert(ctx, badgeRequest(domain.StatusDraft)); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if _, err := svc.Publish(ctx, "home", "hero_badge"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	for _, want := range []ChangeType{ChangeCreated, ChangePublished} {
		select {
		case evt := <-events:
			if evt.Type != want {
				t.Fatalf("expected %s, got %s", want, evt.Type)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestPublishMissingElement(t *testing.T) {
	svc := newTestService()
	_, err := svc.Publish(context.Background(), "home", "nope")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type failingRepository struct{ MemoryRepository }

func (*failingRepository) Get(context.Context, domain.ElementRef) (*Element, error) {
	return nil, errors.New("connection refused")
}

func TestResolveFallsBackOnStorageError(t *testing.T) {
	svc := NewService(&failingRepository{})
	if got := svc.Resolve(context.Background(), "home", "hero_badge", "en", "fallback"); got != "fallback" {
		t.Fatalf("Resolve() = %q", got)
	}
}
