package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-cms-inline/internal/collections"
	"github.com/goliatone/go-cms-inline/internal/commands"
	collectionscmd "github.com/goliatone/go-cms-inline/internal/commands/collections"
	elementscmd "github.com/goliatone/go-cms-inline/internal/commands/elements"
	"github.com/goliatone/go-cms-inline/internal/editors"
	"github.com/goliatone/go-cms-inline/internal/elements"
	"github.com/goliatone/go-cms-inline/internal/logging"
	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

// ElementStore is the element store surface the adapters need.
type ElementStore interface {
	Get(ctx context.Context, pageKey, elementKey string, locale string) (*elements.Content, bool, error)
	Lookup(ctx context.Context, pageKey, elementKey string) (*elements.Element, error)
	List(ctx context.Context, pageKey string) ([]*elements.Element, error)
	Upsert(ctx context.Context, req elements.UpsertRequest) (*elements.Element, error)
	Publish(ctx context.Context, pageKey, elementKey string) (*elements.Element, error)
}

// AdminAPI registers the editing endpoints.
type AdminAPI struct {
	basePath    string
	store       ElementStore
	collections *collections.Service
	previewer   *editors.Previewer
	logger      interfaces.Logger
	observer    commands.Observer

	saveDraft      *elementscmd.SaveDraftHandler
	publish        *elementscmd.PublishHandler
	saveCollection *collectionscmd.SaveCollectionHandler
}

// AdminOption mutates the AdminAPI configuration.
type AdminOption func(*AdminAPI)

// NewAdminAPI constructs an AdminAPI instance.
func NewAdminAPI(opts ...AdminOption) *AdminAPI {
	api := &AdminAPI{
		basePath: "/admin/api",
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	if api.store != nil {
		api.saveDraft = elementscmd.NewSaveDraftHandler(api.store, api.logger,
			commands.WithObserver[elementscmd.SaveDraftCommand](api.observer))
		api.publish = elementscmd.NewPublishHandler(api.store, api.logger,
			commands.WithObserver[elementscmd.PublishCommand](api.observer))
	}
	if api.collections != nil {
		api.saveCollection = collectionscmd.NewSaveCollectionHandler(api.collections, api.logger,
			commands.WithObserver[collectionscmd.SaveCollectionCommand](api.observer))
	}
	return api
}

// WithBasePath overrides the base API path (defaults to "/admin/api").
func WithBasePath(path string) AdminOption {
	return func(api *AdminAPI) {
		if api == nil {
			return
		}
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = trimmed
		}
	}
}

// WithElementStore wires the content element store.
func WithElementStore(store ElementStore) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.store = store
		}
	}
}

// WithCollectionService wires the collection service.
func WithCollectionService(service *collections.Service) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.collections = service
		}
	}
}

// WithPreviewer enables the rich text preview endpoint.
func WithPreviewer(previewer *editors.Previewer) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.previewer = previewer
		}
	}
}

// WithLogger sets the logger handed to command handlers.
func WithLogger(logger interfaces.Logger) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.logger = logging.Ensure(logger)
		}
	}
}

// WithObserver receives the outcome of every admin command.
func WithObserver(observer commands.Observer) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.observer = commands.Observers(api.observer, observer)
		}
	}
}

// Register attaches the admin endpoints to the provided mux.
func (api *AdminAPI) Register(mux *http.ServeMux) error {
	if mux == nil {
		return fmt.Errorf("http: mux is required")
	}
	if api == nil {
		return fmt.Errorf("http: admin api is nil")
	}

	base := joinPath(api.basePath, "")

	api.registerElementRoutes(mux, base)
	api.registerCollectionRoutes(mux, base)
	api.registerPreviewRoutes(mux, base)

	return nil
}
