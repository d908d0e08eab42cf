package http

import (
	"errors"
	"io"
	"net/http"

	elementscmd "github.com/goliatone/go-cms-inline/internal/commands/elements"
	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/internal/elements"
	"github.com/goliatone/go-cms-inline/internal/permissions"
)

type elementPayload struct {
	ElementType      domain.ElementType `json:"element_type"`
	ContentAr        string             `json:"content_ar"`
	ContentEn        string             `json:"content_en"`
	Metadata         map[string]any     `json:"metadata,omitempty"`
	ExpectedRevision *int               `json:"expected_revision,omitempty"`
}

func (p elementPayload) command(pageKey, elementKey string) elementscmd.SaveDraftCommand {
	return elementscmd.SaveDraftCommand{
		PageKey:          pageKey,
		ElementKey:       elementKey,
		ElementType:      p.ElementType,
		ContentAr:        p.ContentAr,
		ContentEn:        p.ContentEn,
		Metadata:         p.Metadata,
		ExpectedRevision: p.ExpectedRevision,
	}
}

func (api *AdminAPI) registerElementRoutes(mux *http.ServeMux, base string) {
	if mux == nil {
		return
	}
	root := joinPath(base, "elements")
	mux.HandleFunc("GET "+root+"/{page}", api.handleElementList)
	mux.HandleFunc("GET "+root+"/{page}/{element}", api.handleElementGet)
	mux.HandleFunc("PUT "+root+"/{page}/{element}", api.handleElementSave)
	mux.HandleFunc("POST "+root+"/{page}/{element}/publish", api.handleElementPublish)
}

func (api *AdminAPI) handleElementList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.store == nil {
		unavailable(w)
		return
	}
	pageKey := r.PathValue("page")
	if !requirePermission(w, r, permissions.ElementsRead, pageKey) {
		return
	}
	list, err := api.store.List(r.Context(), pageKey)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []*elements.Element{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *AdminAPI) handleElementGet(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.store == nil {
		unavailable(w)
		return
	}
	pageKey, elementKey := r.PathValue("page"), r.PathValue("element")
	if !requirePermission(w, r, permissions.ElementsRead, pageKey) {
		return
	}
	record, err := api.store.Lookup(r.Context(), pageKey, elementKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (api *AdminAPI) handleElementSave(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.saveDraft == nil {
		unavailable(w)
		return
	}
	pageKey, elementKey := r.PathValue("page"), r.PathValue("element")
	if !requirePermission(w, r, permissions.ElementsUpdate, pageKey) {
		return
	}
	var payload elementPayload
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	if err := api.saveDraft.Execute(commandContext(r), payload.command(pageKey, elementKey)); err != nil {
		writeError(w, err)
		return
	}
	api.respondElement(w, r, pageKey, elementKey)
}

func (api *AdminAPI) handleElementPublish(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.publish == nil {
		unavailable(w)
		return
	}
	pageKey, elementKey := r.PathValue("page"), r.PathValue("element")
	if !requirePermission(w, r, permissions.ElementsPublish, pageKey) {
		return
	}
	msg := elementscmd.PublishCommand{PageKey: pageKey, ElementKey: elementKey}
	var payload elementPayload
	switch err := decodeJSON(r, &payload); {
	case err == nil:
		content := payload.command(pageKey, elementKey)
		msg.Content = &content
	case errors.Is(err, io.EOF):
	default:
		badRequest(w, "invalid json body")
		return
	}
	if err := api.publish.Execute(commandContext(r), msg); err != nil {
		writeError(w, err)
		return
	}
	api.respondElement(w, r, pageKey, elementKey)
}

func (api *AdminAPI) respondElement(w http.ResponseWriter, r *http.Request, pageKey, elementKey string) {
	record, err := api.store.Lookup(r.Context(), pageKey, elementKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
