package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-cms-inline/internal/collections"
	"github.com/goliatone/go-cms-inline/internal/domain"
)

// PublicAPI serves published content to visitors. Drafts are never exposed.
type PublicAPI struct {
	basePath    string
	store       ElementStore
	collections *collections.Service
}

type publicElement struct {
	PageKey     string             `json:"page_key"`
	ElementKey  string             `json:"element_key"`
	ElementType domain.ElementType `json:"element_type"`
	Content     string             `json:"content"`
	Metadata    map[string]any     `json:"metadata,omitempty"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// NewPublicAPI constructs a PublicAPI mounted at basePath (defaults to "/api").
func NewPublicAPI(basePath string, store ElementStore, service *collections.Service) *PublicAPI {
	if strings.TrimSpace(basePath) == "" {
		basePath = "/api"
	}
	return &PublicAPI{basePath: basePath, store: store, collections: service}
}

// Register attaches the read endpoints to the provided mux.
func (api *PublicAPI) Register(mux *http.ServeMux) error {
	if mux == nil {
		return fmt.Errorf("http: mux is required")
	}
	if api == nil {
		return fmt.Errorf("http: public api is nil")
	}
	base := joinPath(api.basePath, "")
	mux.HandleFunc("GET "+joinPath(base, "elements")+"/{page}/{element}", api.handleElement)
	mux.HandleFunc("GET "+joinPath(base, "collections")+"/{page}/{section}", api.handleCollection)
	return nil
}

func (api *PublicAPI) handleElement(w http.ResponseWriter, r *http.Request) {
	if api.store == nil {
		unavailable(w)
		return
	}
	pageKey, elementKey := r.PathValue("page"), r.PathValue("element")
	content, ok, err := api.store.Get(r.Context(), pageKey, elementKey, requestLocale(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found"})
		return
	}
	writeJSON(w, http.StatusOK, publicElement{
		PageKey:     pageKey,
		ElementKey:  elementKey,
		ElementType: content.ElementType,
		Content:     content.Content,
		Metadata:    content.Metadata,
		UpdatedAt:   content.UpdatedAt,
	})
}

func (api *PublicAPI) handleCollection(w http.ResponseWriter, r *http.Request) {
	if api.collections == nil {
		unavailable(w)
		return
	}
	pageKey, sectionKey := r.PathValue("page"), r.PathValue("section")
	list, err := api.collections.Published(r.Context(), pageKey, sectionKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCollection(w, pageKey, sectionKey, list)
}
