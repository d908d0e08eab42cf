package markdown

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/internal/elements"
	"github.com/goliatone/go-cms-inline/internal/logging"
	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

var (
	ErrStoreRequired    = errors.New("markdown importer: element store is required")
	ErrAddressMissing   = errors.New("markdown importer: page and element keys are required")
	ErrTypeMismatch     = errors.New("markdown importer: locales disagree on element type")
	ErrDuplicateLocale  = errors.New("markdown importer: locale seeded twice for the same element")
	ErrStatusInvalid    = errors.New("markdown importer: status is invalid")
	ErrElementTypeEmpty = errors.New("markdown importer: element type is required")
)

// Store is the slice of the element store the importer writes through.
type Store interface {
	Lookup(ctx context.Context, pageKey, elementKey string) (*elements.Element, error)
	Upsert(ctx context.Context, req elements.UpsertRequest) (*elements.Element, error)
}

// ImporterConfig encapsulates dependencies required to persist documents.
type ImporterConfig struct {
	Store  Store
	Logger interfaces.Logger
}

// ImportOptions tune a run.
type ImportOptions struct {
	DryRun bool
	// Status overrides the status of every element when set.
	Status domain.Status
}

// ImportResult lists element ids by outcome.
type ImportResult struct {
	Created   []uuid.UUID
	Updated   []uuid.UUID
	Unchanged []uuid.UUID
	Errors    []error
}

// Importer merges per-locale documents into elements.
type Importer struct {
	store  Store
	logger interfaces.Logger
}

// NewImporter builds an Importer from the supplied configuration.
func NewImporter(cfg ImporterConfig) *Importer {
	return &Importer{
		store:  cfg.Store,
		logger: logging.Ensure(cfg.Logger),
	}
}

// Import groups docs by element address and upserts one element per group.
// A failing group does not stop the others; the first error is returned.
func (i *Importer) Import(ctx context.Context, docs []*Document, opts ImportOptions) (*ImportResult, error) {
	if i.store == nil {
		return nil, ErrStoreRequired
	}

	result := &ImportResult{}
	groups, order := groupByAddress(docs)
	for _, key := range order {
		if err := i.applyGroup(ctx, groups[key], opts, result); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", key, err))
		}
	}
	if len(result.Errors) > 0 {
		return result, result.Errors[0]
	}
	return result, nil
}

func (i *Importer) applyGroup(ctx context.Context, docs []*Document, opts ImportOptions, result *ImportResult) error {
	req, err := buildRequest(docs, opts)
	if err != nil {
		return err
	}

	existing, err := i.store.Lookup(ctx, req.PageKey, req.ElementKey)
	if err != nil && !elements.IsNotFound(err) {
		return err
	}

	if opts.DryRun {
		i.logger.Info("markdown.import.dry_run", "page_key", req.PageKey, "element_key", req.ElementKey, "status", req.Status)
		return nil
	}

	saved, err := i.store.Upsert(ctx, req)
	if err != nil {
		return err
	}
	switch {
	case existing == nil:
		result.Created = append(result.Created, saved.ID)
	case saved.Revision != existing.Revision || saved.PublishedAt != nil && existing.PublishedAt == nil:
		result.Updated = append(result.Updated, saved.ID)
	default:
		result.Unchanged = append(result.Unchanged, saved.ID)
	}
	i.logger.Debug("markdown.import.element", "page_key", saved.PageKey, "element_key", saved.ElementKey, "revision", saved.Revision)
	return nil
}

func buildRequest(docs []*Document, opts ImportOptions) (elements.UpsertRequest, error) {
	first := docs[0]
	req := elements.UpsertRequest{
		PageKey:    first.PageKey,
		ElementKey: first.ElementKey,
		Status:     selectStatus(docs),
	}
	if strings.TrimSpace(req.PageKey) == "" || strings.TrimSpace(req.ElementKey) == "" {
		return req, ErrAddressMissing
	}
	if opts.Status != "" {
		req.Status = opts.Status
	}
	if !req.Status.Valid() {
		return req, fmt.Errorf("%w: %q", ErrStatusInvalid, req.Status)
	}

	seen := map[domain.Locale]bool{}
	for _, doc := range docs {
		if seen[doc.Locale] {
			return req, fmt.Errorf("%w: %s", ErrDuplicateLocale, doc.Locale)
		}
		seen[doc.Locale] = true

		if docType := domain.ElementType(strings.TrimSpace(doc.FrontMatter.Type)); docType != "" {
			if req.ElementType != "" && req.ElementType != docType {
				return req, fmt.Errorf("%w: %s vs %s", ErrTypeMismatch, req.ElementType, docType)
			}
			req.ElementType = docType
		}

		switch doc.Locale {
		case domain.LocaleArabic:
			req.ContentAr = doc.Body
		default:
			req.ContentEn = doc.Body
		}

		// Metadata is shared across locales; later files add keys.
		for key, value := range doc.FrontMatter.Metadata {
			if req.Metadata == nil {
				req.Metadata = map[string]any{}
			}
			req.Metadata[key] = value
		}
	}
	if req.ElementType == "" {
		return req, ErrElementTypeEmpty
	}
	return req, nil
}

// selectStatus publishes a group only when no file asks for a draft.
func selectStatus(docs []*Document) domain.Status {
	status := domain.StatusDraft
	for _, doc := range docs {
		if doc.FrontMatter.Draft {
			return domain.StatusDraft
		}
		raw := strings.TrimSpace(doc.FrontMatter.Status)
		if raw == "" {
			continue
		}
		parsed, ok := domain.ParseStatus(raw)
		if !ok {
			return domain.Status(raw)
		}
		if parsed == domain.StatusDraft {
			return domain.StatusDraft
		}
		status = parsed
	}
	return status
}

func groupByAddress(docs []*Document) (map[string][]*Document, []string) {
	groups := map[string][]*Document{}
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		key := elements.NormalizePageKey(doc.PageKey) + "/" + elements.NormalizeElementKey(doc.ElementKey)
		groups[key] = append(groups[key], doc)
	}
	order := make([]string, 0, len(groups))
	for key := range groups {
		order = append(order, key)
	}
	sort.Strings(order)
	return groups, order
}
