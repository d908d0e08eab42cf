package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-inline/internal/collections"
	"github.com/goliatone/go-cms-inline/internal/elements"
	"github.com/goliatone/go-cms-inline/internal/logging"
	"github.com/goliatone/go-cms-inline/internal/permissions"
	"github.com/goliatone/go-cms-inline/internal/validation"
)

type errorResponse struct {
	Error    string                       `json:"error"`
	Message  string                       `json:"message,omitempty"`
	TextCode string                       `json:"text_code,omitempty"`
	Fields   map[string]string            `json:"fields,omitempty"`
	Issues   []validation.ValidationIssue `json:"issues,omitempty"`
}

func joinPath(base, suffix string) string {
	trimmedBase := strings.TrimSpace(base)
	trimmedSuffix := strings.TrimSpace(suffix)
	if trimmedBase == "" {
		if trimmedSuffix == "" {
			return "/"
		}
		return "/" + strings.Trim(trimmedSuffix, "/")
	}
	baseClean := "/" + strings.Trim(trimmedBase, "/")
	if trimmedSuffix == "" {
		return baseClean
	}
	return baseClean + "/" + strings.Trim(trimmedSuffix, "/")
}

func decodeJSON(r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(target); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: message})
}

func unavailable(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	if errors.Is(err, permissions.ErrPermissionDenied) {
		return http.StatusForbidden, errorResponse{
			Error:   "forbidden",
			Message: err.Error(),
		}
	}

	var notFound *elements.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: notFound.Error(),
		}
	}

	if errors.Is(err, collections.ErrDuplicateID) || errors.Is(err, collections.ErrNotCollection) {
		return http.StatusConflict, errorResponse{
			Error:   "conflict",
			Message: err.Error(),
		}
	}

	if errors.Is(err, collections.ErrUnknownKind) || errors.Is(err, collections.ErrInvalidRecord) {
		return http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		}
	}

	if errors.Is(err, validation.ErrSchemaValidation) {
		return http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
			Issues:  validation.Issues(err),
		}
	}

	var typed *goerrors.Error
	if errors.As(err, &typed) {
		resp := errorResponse{Message: typed.Message, TextCode: typed.TextCode}
		switch typed.Category {
		case goerrors.CategoryValidation:
			resp.Error = "validation_failed"
			resp.Fields = typed.ValidationMap()
			return http.StatusUnprocessableEntity, resp
		case goerrors.CategoryBadInput:
			resp.Error = "bad_request"
			return http.StatusBadRequest, resp
		case goerrors.CategoryNotFound:
			resp.Error = "not_found"
			return http.StatusNotFound, resp
		case goerrors.CategoryConflict:
			resp.Error = "conflict"
			return http.StatusConflict, resp
		case goerrors.CategoryAuthz:
			resp.Error = "forbidden"
			return http.StatusForbidden, resp
		}
	}

	return http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	}
}

func requirePermission(w http.ResponseWriter, r *http.Request, permission, pageKey string) bool {
	if strings.TrimSpace(permission) == "" {
		return true
	}
	if r == nil {
		badRequest(w, "request missing")
		return false
	}
	ctx := permissions.WithPageKey(r.Context(), pageKey)
	if err := permissions.Require(ctx, permission); err != nil {
		writeError(w, err)
		return false
	}
	return true
}

// commandContext tags the request context so command logs carry the route.
func commandContext(r *http.Request) context.Context {
	return logging.ContextWithFields(r.Context(), map[string]any{
		"http_method": r.Method,
		"http_path":   r.URL.Path,
	})
}

func requestLocale(r *http.Request) string {
	if locale := strings.TrimSpace(r.URL.Query().Get("locale")); locale != "" {
		return locale
	}
	header := r.Header.Get("Accept-Language")
	if idx := strings.IndexAny(header, ",;"); idx >= 0 {
		header = header[:idx]
	}
	return strings.TrimSpace(header)
}
