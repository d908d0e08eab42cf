package collections

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/internal/elements"
	"github.com/goliatone/go-cms-inline/internal/identity"
	"github.com/goliatone/go-cms-inline/internal/logging"
	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

// ElementsField is the layout metadata key holding the encoded collection.
const ElementsField = "elements"

var (
	ErrStoreRequired = errors.New("collections: element store is required")
	ErrNotCollection = errors.New("collections: section is not a layout element")
)

// Store is the slice of the element store collections persist through.
type Store interface {
	Get(ctx context.Context, pageKey, elementKey string, locale string) (*elements.Content, bool, error)
	Lookup(ctx context.Context, pageKey, elementKey string) (*elements.Element, error)
	Upsert(ctx context.Context, req elements.UpsertRequest) (*elements.Element, error)
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logging.Ensure(logger)
	}
}

// WithCollectionOptions applies opts to every loaded collection.
func WithCollectionOptions(opts ...Option) ServiceOption {
	return func(s *Service) {
		s.collectionOpts = append(s.collectionOpts, opts...)
	}
}

// Service loads and saves collections stored as layout elements: the
// section key is the element key and the ordered records live under the
// "elements" metadata field.
type Service struct {
	store          Store
	logger         interfaces.Logger
	collectionOpts []Option
}

func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{store: store, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Load returns the working copy of a section. A missing section is an empty
// collection.
func (s *Service) Load(ctx context.Context, pageKey, sectionKey string) (*Collection, error) {
	if s.store == nil {
		return nil, ErrStoreRequired
	}
	record, err := s.store.Lookup(ctx, pageKey, sectionKey)
	if err != nil {
		if elements.IsNotFound(err) {
			return New(nil, s.collectionOpts...)
		}
		return nil, err
	}
	if record.ElementType != domain.ElementLayout {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotCollection, record.Ref(), record.ElementType)
	}
	items, err := s.decode(record.PageKey, record.ElementKey, record.Metadata)
	if err != nil {
		return nil, err
	}
	return New(items, s.collectionOpts...)
}

// Published returns the visible elements of the published section, in order.
func (s *Service) Published(ctx context.Context, pageKey, sectionKey string) ([]HeroElement, error) {
	if s.store == nil {
		return nil, ErrStoreRequired
	}
	content, found, err := s.store.Get(ctx, pageKey, sectionKey, string(domain.LocaleEnglish))
	if err != nil || !found {
		return nil, err
	}
	ref := elements.NormalizeRef(domain.ElementRef{PageKey: pageKey, ElementKey: sectionKey})
	items, err := s.decode(ref.PageKey, ref.ElementKey, content.Metadata)
	if err != nil {
		return nil, err
	}
	visible := items[:0]
	for _, item := range items {
		if item.Common().Visible {
			visible = append(visible, item)
		}
	}
	return visible, nil
}

// Save persists coll under the section with status. Other layout metadata and
// the section's content are kept.
func (s *Service) Save(ctx context.Context, pageKey, sectionKey string, coll *Collection, status domain.Status) (*elements.Element, error) {
	if s.store == nil {
		return nil, ErrStoreRequired
	}
	if coll == nil {
		return nil, ErrElementRequired
	}
	records, err := EncodeAll(coll.items)
	if err != nil {
		return nil, err
	}
	encoded := make([]any, len(records))
	for i, record := range records {
		encoded[i] = record
	}

	req := elements.UpsertRequest{
		PageKey:     pageKey,
		ElementKey:  sectionKey,
		ElementType: domain.ElementLayout,
		Status:      status,
		Metadata:    map[string]any{},
	}
	existing, err := s.store.Lookup(ctx, pageKey, sectionKey)
	switch {
	case err == nil:
		if existing.ElementType != domain.ElementLayout {
			return nil, fmt.Errorf("%w: %s is %s", ErrNotCollection, existing.Ref(), existing.ElementType)
		}
		req.ContentAr = existing.ContentAr
		req.ContentEn = existing.ContentEn
		for k, v := range existing.Metadata {
			req.Metadata[k] = v
		}
	case !elements.IsNotFound(err):
		return nil, err
	}
	req.Metadata[ElementsField] = encoded

	saved, err := s.store.Upsert(ctx, req)
	if err != nil {
		s.logger.Warn("collections.save.failed", "page_key", pageKey, "section_key", sectionKey, "error", err)
		return nil, err
	}
	s.logger.Debug("collections.saved", "page_key", saved.PageKey, "section_key", saved.ElementKey, "elements", len(records), "status", saved.Status)
	return saved, nil
}

func (s *Service) decode(pageKey, sectionKey string, metadata map[string]any) ([]HeroElement, error) {
	raw, ok := metadata[ElementsField]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		if typed, isTyped := raw.([]map[string]any); isTyped {
			list = make([]any, len(typed))
			for i, record := range typed {
				list[i] = record
			}
		} else {
			return nil, goerrors.New(fmt.Sprintf("%s must be a list", ElementsField), goerrors.CategoryValidation)
		}
	}
	namespace := identity.CollectionUUID(pageKey, sectionKey)
	records := make([]map[string]any, 0, len(list))
	for i, entry := range list {
		record, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrInvalidRecord, i)
		}
		if id, _ := record["id"].(string); id == "" {
			record = mergeRecord(record, map[string]any{"id": legacyID(namespace, record, i)})
		}
		records = append(records, record)
	}
	return DecodeAll(records)
}

// legacyID gives records stored without an id a stable one so repeated loads
// agree.
func legacyID(namespace uuid.UUID, record map[string]any, index int) string {
	name, _ := record["elementKey"].(string)
	if name == "" {
		name = fmt.Sprintf("#%d", index)
	}
	return uuid.NewSHA1(namespace, []byte(name)).String()
}
