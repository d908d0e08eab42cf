package http

import (
	"net/http"

	"github.com/goliatone/go-cms-inline/internal/permissions"
)

type previewPayload struct {
	Markdown string `json:"markdown"`
}

type previewResponse struct {
	HTML string `json:"html"`
}

func (api *AdminAPI) registerPreviewRoutes(mux *http.ServeMux, base string) {
	if mux == nil {
		return
	}
	mux.HandleFunc("POST "+joinPath(base, "preview"), api.handlePreview)
}

func (api *AdminAPI) handlePreview(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.previewer == nil {
		unavailable(w)
		return
	}
	if !requirePermission(w, r, permissions.ElementsRead, "") {
		return
	}
	var payload previewPayload
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	html, err := api.previewer.Preview(payload.Markdown)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{HTML: html})
}
