package cmsinline

import (
	"context"
	"net/http"

	"github.com/goliatone/go-cms-inline/internal/autosave"
	"github.com/goliatone/go-cms-inline/internal/collections"
	"github.com/goliatone/go-cms-inline/internal/di"
	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/internal/editors"
	"github.com/goliatone/go-cms-inline/internal/elements"
	"github.com/goliatone/go-cms-inline/internal/session"
	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

// ElementService exports the content element store contract.
type ElementService = elements.Service

// Element exports the stored element record.
type Element = elements.Element

// ElementContent exports the localized read model.
type ElementContent = elements.Content

// UpsertRequest exports the element save request.
type UpsertRequest = elements.UpsertRequest

// ElementRef exports the (page key, element key) address.
type ElementRef = domain.ElementRef

// ElementType exports the element kind.
type ElementType = domain.ElementType

// Status exports the draft/published status.
type Status = domain.Status

// Locale exports the supported content locales.
type Locale = domain.Locale

// CollectionService exports the element collection persistence service.
type CollectionService = *collections.Service

// SessionController exports the editing session controller.
type SessionController = *session.Controller

// EditorUpdate exports the partial update applied by field editors.
type EditorUpdate = editors.Update

// AutosaveConfig exports the autosave manager settings.
type AutosaveConfig = autosave.Config

// Notification exports the user-facing outcome of an editing action.
type Notification = interfaces.Notification

const (
	StatusDraft     = domain.StatusDraft
	StatusPublished = domain.StatusPublished

	LocaleArabic  = domain.LocaleArabic
	LocaleEnglish = domain.LocaleEnglish
)

// Module represents the top level inline editing runtime.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Elements returns the content element store.
func (m *Module) Elements() ElementService {
	return m.container.ElementService()
}

// Collections returns the element collection service.
func (m *Module) Collections() CollectionService {
	return m.container.CollectionService()
}

// NewSession returns an editing session controller bound to the module.
func (m *Module) NewSession(opts ...session.Option) SessionController {
	return m.container.NewSessionController(opts...)
}

// Resolve returns the published content of an element or fallback.
func (m *Module) Resolve(ctx context.Context, pageKey, elementKey string, locale Locale, fallback string) string {
	return m.container.ElementService().Resolve(ctx, pageKey, elementKey, string(locale), fallback)
}

// Notifications streams editing outcomes until ctx is done.
func (m *Module) Notifications(ctx context.Context) <-chan Notification {
	return m.container.Subscribe(ctx)
}

// RegisterHTTP mounts the admin and public JSON APIs on mux.
func (m *Module) RegisterHTTP(mux *http.ServeMux) error {
	return m.container.RegisterHTTP(mux)
}

// Close releases resources opened by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}
