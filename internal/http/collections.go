package http

import (
	"net/http"

	"github.com/goliatone/go-cms-inline/internal/collections"
	collectionscmd "github.com/goliatone/go-cms-inline/internal/commands/collections"
	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/internal/permissions"
)

type collectionPayload struct {
	Status   domain.Status    `json:"status,omitempty"`
	Elements []map[string]any `json:"elements"`
}

type collectionResponse struct {
	PageKey    string           `json:"page_key"`
	SectionKey string           `json:"section_key"`
	Elements   []map[string]any `json:"elements"`
}

func (api *AdminAPI) registerCollectionRoutes(mux *http.ServeMux, base string) {
	if mux == nil {
		return
	}
	root := joinPath(base, "collections")
	mux.HandleFunc("GET "+root+"/{page}/{section}", api.handleCollectionGet)
	mux.HandleFunc("PUT "+root+"/{page}/{section}", api.handleCollectionSave)
}

func (api *AdminAPI) handleCollectionGet(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.collections == nil {
		unavailable(w)
		return
	}
	pageKey, sectionKey := r.PathValue("page"), r.PathValue("section")
	if !requirePermission(w, r, permissions.CollectionsRead, pageKey) {
		return
	}
	coll, err := api.collections.Load(r.Context(), pageKey, sectionKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCollection(w, pageKey, sectionKey, coll.Elements())
}

func (api *AdminAPI) handleCollectionSave(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.saveCollection == nil {
		unavailable(w)
		return
	}
	pageKey, sectionKey := r.PathValue("page"), r.PathValue("section")
	var payload collectionPayload
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	permission := permissions.CollectionsUpdate
	if payload.Status == domain.StatusPublished {
		permission = permissions.CollectionsPublish
	}
	if !requirePermission(w, r, permission, pageKey) {
		return
	}
	msg := collectionscmd.SaveCollectionCommand{
		PageKey:    pageKey,
		SectionKey: sectionKey,
		Elements:   payload.Elements,
		Status:     payload.Status,
	}
	if err := api.saveCollection.Execute(commandContext(r), msg); err != nil {
		writeError(w, err)
		return
	}
	coll, err := api.collections.Load(r.Context(), pageKey, sectionKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCollection(w, pageKey, sectionKey, coll.Elements())
}

func writeCollection(w http.ResponseWriter, pageKey, sectionKey string, list []collections.HeroElement) {
	records, err := collections.EncodeAll(list)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, collectionResponse{PageKey: pageKey, SectionKey: sectionKey, Elements: records})
}
