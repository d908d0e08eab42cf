package elements

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/internal/identity"
	"github.com/goliatone/go-cms-inline/internal/logging"
	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

// Service is the content element store consumed by render helpers, the
// auto-save manager and the collection manager.
type Service interface {
	Get(ctx context.Context, pageKey, elementKey string, locale string) (*Content, bool, error)
	GetWorking(ctx context.Context, pageKey, elementKey string, locale string) (*Content, bool, error)
	Resolve(ctx context.Context, pageKey, elementKey string, locale string, fallback string) string
	Lookup(ctx context.Context, pageKey, elementKey string) (*Element, error)
	Upsert(ctx context.Context, req UpsertRequest) (*Element, error)
	Publish(ctx context.Context, pageKey, elementKey string) (*Element, error)
	List(ctx context.Context, pageKey string) ([]*Element, error)
	Subscribe(ctx context.Context) (<-chan ChangeEvent, error)
}

// MetadataValidator checks metadata for an element type before it is stored.
type MetadataValidator interface {
	ValidateMetadata(elementType domain.ElementType, status domain.Status, metadata map[string]any) error
}

// MetadataValidatorFunc adapts a function to MetadataValidator.
type MetadataValidatorFunc func(elementType domain.ElementType, status domain.Status, metadata map[string]any) error

func (f MetadataValidatorFunc) ValidateMetadata(elementType domain.ElementType, status domain.Status, metadata map[string]any) error {
	if f == nil {
		return nil
	}
	return f(elementType, status, metadata)
}

// ServiceOption configures the element service.
type ServiceOption func(*service)

// WithClock overrides the clock used for timestamps.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		s.logger = logging.Ensure(logger)
	}
}

// WithMetadataValidator registers a metadata validator run on every upsert.
func WithMetadataValidator(validator MetadataValidator) ServiceOption {
	return func(s *service) {
		s.validator = validator
	}
}

// WithDefaultLocale sets the locale used when a read names an unknown locale.
func WithDefaultLocale(locale string) ServiceOption {
	return func(s *service) {
		if parsed, ok := domain.ParseLocale(locale); ok {
			s.defaultLocale = parsed
		}
	}
}

// WithSubscriberBuffer sets the per-subscriber event buffer.
func WithSubscriberBuffer(size int) ServiceOption {
	return func(s *service) {
		if size > 0 {
			s.buffer = size
		}
	}
}

type service struct {
	repo          Repository
	broadcaster   *changeBroadcaster
	validator     MetadataValidator
	logger        interfaces.Logger
	now           func() time.Time
	defaultLocale domain.Locale
	buffer        int

	writeMu sync.Mutex
}

// NewService constructs the element store over the provided repository.
func NewService(repo Repository, opts ...ServiceOption) Service {
	svc := &service{
		repo:          repo,
		broadcaster:   newChangeBroadcaster(),
		logger:        logging.NoOp(),
		now:           func() time.Time { return time.Now().UTC() },
		defaultLocale: domain.LocaleEnglish,
		buffer:        16,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

func (s *service) Get(ctx context.Context, pageKey, elementKey string, locale string) (*Content, bool, error) {
	record, found, err := s.lookup(ctx, pageKey, elementKey)
	if err != nil || !found || !record.IsPublished() {
		return nil, false, err
	}
	content := &Content{
		ElementType: record.ElementType,
		Content:     pickLocale(s.resolveLocale(locale), record.PublishedAr, record.PublishedEn),
		Metadata:    cloneMap(record.PublishedMetadata),
		Status:      domain.StatusPublished,
		Revision:    record.Revision,
		UpdatedAt:   *record.PublishedAt,
	}
	return content, true, nil
}

func (s *service) GetWorking(ctx context.Context, pageKey, elementKey string, locale string) (*Content, bool, error) {
	record, found, err := s.lookup(ctx, pageKey, elementKey)
	if err != nil || !found {
		return nil, false, err
	}
	content := &Content{
		ElementType: record.ElementType,
		Content:     pickLocale(s.resolveLocale(locale), record.ContentAr, record.ContentEn),
		Metadata:    cloneMap(record.Metadata),
		Status:      record.Status,
		Revision:    record.Revision,
		UpdatedAt:   record.UpdatedAt,
	}
	return content, true, nil
}

func (s *service) Resolve(ctx context.Context, pageKey, elementKey string, locale string, fallback string) string {
	content, found, err := s.Get(ctx, pageKey, elementKey, locale)
	if err != nil {
		logging.WithElement(s.logger, pageKey, elementKey, locale).
			Warn("elements.resolve.fallback", "error", err)
		return fallback
	}
	if !found || content.Content == "" {
		return fallback
	}
	return content.Content
}

func (s *service) Lookup(ctx context.Context, pageKey, elementKey string) (*Element, error) {
	record, found, err := s.lookup(ctx, pageKey, elementKey)
	if err != nil {
		return nil, err
	}
	if !found {
		ref := NormalizeRef(domain.ElementRef{PageKey: pageKey, ElementKey: elementKey})
		return nil, &NotFoundError{Resource: "content_element", Key: ref.String()}
	}
	return record, nil
}

func (s *service) Upsert(ctx context.Context, req UpsertRequest) (*Element, error) {
	if s.repo == nil {
		return nil, ErrRepositoryRequired
	}
	prepared, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	ref := prepared.Ref()
	logger := logging.WithElement(s.logger, ref.PageKey, ref.ElementKey, "")

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, found, err := s.lookupRef(ctx, ref)
	if err != nil {
		return nil, err
	}

	if found && unchanged(existing, prepared) {
		return existing, nil
	}

	if prepared.ExpectedRevision != nil {
		actual := 0
		if found {
			actual = existing.Revision
		}
		if *prepared.ExpectedRevision != actual {
			logger.Warn("elements.upsert.conflict", "expected", *prepared.ExpectedRevision, "actual", actual)
			return nil, conflictError(ref.String(), *prepared.ExpectedRevision, actual)
		}
	}

	now := s.now()
	if !found {
		record := &Element{
			ID:          identity.ElementUUID(ref.PageKey, ref.ElementKey),
			PageKey:     ref.PageKey,
			ElementKey:  ref.ElementKey,
			ElementType: prepared.ElementType,
			Revision:    1,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		applyRequest(record, prepared, now)
		created, err := s.repo.Create(ctx, record)
		if err != nil {
			logger.Error("elements.upsert.create_failed", "error", err)
			return nil, err
		}
		logger.Debug("elements.upsert.created", "status", created.Status, "revision", created.Revision)
		s.broadcaster.Broadcast(ChangeEvent{Type: ChangeCreated, Element: *cloneElement(created)})
		return created, nil
	}

	next := cloneElement(existing)
	next.ElementType = prepared.ElementType
	applyRequest(next, prepared, now)
	next.Revision = existing.Revision + 1
	next.UpdatedAt = now

	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		logger.Error("elements.upsert.update_failed", "error", err)
		return nil, err
	}
	changeType := ChangeUpdated
	if prepared.Status == domain.StatusPublished {
		changeType = ChangePublished
	}
	logger.Debug("elements.upsert.updated", "status", updated.Status, "revision", updated.Revision)
	s.broadcaster.Broadcast(ChangeEvent{Type: changeType, Element: *cloneElement(updated)})
	return updated, nil
}

func (s *service) Publish(ctx context.Context, pageKey, elementKey string) (*Element, error) {
	if s.repo == nil {
		return nil, ErrRepositoryRequired
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := s.Lookup(ctx, pageKey, elementKey)
	if err != nil {
		return nil, err
	}
	if s.validator != nil {
		if err := s.validator.ValidateMetadata(existing.ElementType, domain.StatusPublished, existing.Metadata); err != nil {
			return nil, err
		}
	}

	req := UpsertRequest{
		PageKey:     existing.PageKey,
		ElementKey:  existing.ElementKey,
		ElementType: existing.ElementType,
		ContentAr:   existing.ContentAr,
		ContentEn:   existing.ContentEn,
		Metadata:    existing.Metadata,
		Status:      domain.StatusPublished,
	}
	if unchanged(existing, req) {
		return existing, nil
	}

	now := s.now()
	next := cloneElement(existing)
	applyRequest(next, req, now)
	next.Revision = existing.Revision + 1
	next.UpdatedAt = now

	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		return nil, err
	}
	s.broadcaster.Broadcast(ChangeEvent{Type: ChangePublished, Element: *cloneElement(updated)})
	return updated, nil
}

func (s *service) List(ctx context.Context, pageKey string) ([]*Element, error) {
	if s.repo == nil {
		return nil, ErrRepositoryRequired
	}
	return s.repo.ListByPage(ctx, NormalizePageKey(pageKey))
}

func (s *service) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	return s.broadcaster.Subscribe(ctx, s.buffer), nil
}

func (s *service) lookup(ctx context.Context, pageKey, elementKey string) (*Element, bool, error) {
	if s.repo == nil {
		return nil, false, ErrRepositoryRequired
	}
	ref := NormalizeRef(domain.ElementRef{PageKey: pageKey, ElementKey: elementKey})
	if ref.PageKey == "" || ref.ElementKey == "" {
		return nil, false, nil
	}
	return s.lookupRef(ctx, ref)
}

func (s *service) lookupRef(ctx context.Context, ref domain.ElementRef) (*Element, bool, error) {
	record, err := s.repo.Get(ctx, ref)
	if err != nil {
		if IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return record, true, nil
}

func (s *service) resolveLocale(input string) domain.Locale {
	if locale, ok := domain.ParseLocale(input); ok {
		return locale
	}
	return s.defaultLocale
}

func (s *service) prepare(req UpsertRequest) (UpsertRequest, error) {
	req.PageKey = NormalizePageKey(req.PageKey)
	req.ElementKey = NormalizeElementKey(req.ElementKey)

	errs := validation.Errors{}
	if req.PageKey == "" {
		errs["page_key"] = validation.NewError("cms.elements.page_key_required", "page key is required")
	}
	if req.ElementKey == "" {
		errs["element_key"] = validation.NewError("cms.elements.element_key_required", "element key is required")
	}
	elementType, ok := domain.ParseElementType(string(req.ElementType))
	switch {
	case strings.TrimSpace(string(req.ElementType)) == "":
		errs["element_type"] = validation.NewError("cms.elements.element_type_required", "element type is required")
	case !ok:
		errs["element_type"] = validation.NewError("cms.elements.element_type_invalid", fmt.Sprintf("unknown element type %q", req.ElementType))
	}
	req.ElementType = elementType

	status, ok := domain.ParseStatus(string(req.Status))
	if !ok {
		errs["status"] = validation.NewError("cms.elements.status_invalid", fmt.Sprintf("unknown status %q", req.Status))
	}
	req.Status = status

	if req.ExpectedRevision != nil && *req.ExpectedRevision < 0 {
		errs["expected_revision"] = validation.NewError("cms.elements.revision_invalid", "expected revision must not be negative")
	}

	metadata, err := canonicalMetadata(req.Metadata)
	if err != nil {
		errs["metadata"] = validation.NewError("cms.elements.metadata_invalid", err.Error())
	}
	req.Metadata = metadata

	if err := validationError(errs); err != nil {
		return req, err
	}
	if s.validator != nil {
		if err := s.validator.ValidateMetadata(req.ElementType, req.Status, req.Metadata); err != nil {
			return req, err
		}
	}
	return req, nil
}

func applyRequest(record *Element, req UpsertRequest, now time.Time) {
	record.ElementType = req.ElementType
	record.ContentAr = req.ContentAr
	record.ContentEn = req.ContentEn
	record.Metadata = cloneMap(req.Metadata)
	record.Status = req.Status
	if req.Status == domain.StatusPublished {
		record.PublishedAr = req.ContentAr
		record.PublishedEn = req.ContentEn
		record.PublishedMetadata = cloneMap(req.Metadata)
		ts := now
		record.PublishedAt = &ts
	}
}

func unchanged(existing *Element, req UpsertRequest) bool {
	if existing.ElementType != req.ElementType ||
		existing.ContentAr != req.ContentAr ||
		existing.ContentEn != req.ContentEn ||
		existing.Status != req.Status ||
		!metadataEqual(existing.Metadata, req.Metadata) {
		return false
	}
	if req.Status != domain.StatusPublished {
		return true
	}
	return existing.IsPublished() &&
		existing.PublishedAr == req.ContentAr &&
		existing.PublishedEn == req.ContentEn &&
		metadataEqual(existing.PublishedMetadata, req.Metadata)
}

func metadataEqual(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	ca, errA := canonicalMetadata(a)
	cb, errB := canonicalMetadata(b)
	if errA != nil || errB != nil {
		return false
	}
	return reflect.DeepEqual(ca, cb)
}

// canonicalMetadata round-trips metadata through JSON so values compare the
// same way they are stored.
func canonicalMetadata(metadata map[string]any) (map[string]any, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func pickLocale(locale domain.Locale, ar, en string) string {
	if locale == domain.LocaleArabic {
		return ar
	}
	return en
}
