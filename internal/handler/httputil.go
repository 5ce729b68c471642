package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/matthewbaird/waypoint/internal/apperr"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writeJSON encode error", "error", err)
	}
}

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: message, Code: code})
}

// WriteUnauthorized writes a 401 in the standard error shape.
func WriteUnauthorized(w http.ResponseWriter, _ *http.Request, message string) {
	writeError(w, http.StatusUnauthorized, string(apperr.KindUnauthorized), message)
}

// writeServiceError maps a service error to its HTTP response. Internal
// details are logged and never returned.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.From(err)
	status := ae.Status()
	msg := ae.Message
	if ae.Kind == apperr.KindInternal {
		slog.ErrorContext(r.Context(), "internal error", "path", r.URL.Path, "error", err)
		msg = "internal server error"
	} else if !ae.Expected() {
		slog.WarnContext(r.Context(), "request failed", "path", r.URL.Path, "kind", ae.Kind, "error", err)
	}
	writeJSON(w, status, errorBody{Error: msg, Code: ae.Code, Retryable: ae.Retryable()})
}

// decodeJSON reads the request body, validates it against schema and decodes
// it into v.
func decodeJSON(r *http.Request, schema *jsonschema.Schema, v any) error {
	defer r.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperr.Validation(apperr.CodeInvalidBody, "reading body: %v", err)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return apperr.Validation(apperr.CodeInvalidBody, "invalid JSON: %v", err)
	}
	if schema != nil {
		if err := schema.Validate(doc); err != nil {
			var ve *jsonschema.ValidationError
			if errors.As(err, &ve) {
				return apperr.Validation(apperr.CodeInvalidBody, "%s", leafMessage(ve))
			}
			return apperr.Validation(apperr.CodeInvalidBody, "%v", err)
		}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperr.Validation(apperr.CodeInvalidBody, "invalid JSON: %v", err)
	}
	return nil
}

// leafMessage returns the most specific cause of a schema failure.
func leafMessage(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation == "" {
		return ve.Message
	}
	return ve.InstanceLocation + ": " + ve.Message
}

// parseUUID extracts and validates a UUID path parameter.
func parseUUID(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, paramName)
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid UUID: "+raw)
		return uuid.Nil, false
	}
	return id, true
}

// Pagination holds parsed pagination parameters.
type Pagination struct {
	Limit  int
	Cursor string
}

// parsePagination extracts page_size (or limit) and cursor from query params.
func parsePagination(r *http.Request) Pagination {
	p := Pagination{Limit: 20}
	q := r.URL.Query()
	size := q.Get("page_size")
	if size == "" {
		size = q.Get("limit")
	}
	if size != "" {
		if n, err := strconv.Atoi(size); err == nil && n > 0 {
			p.Limit = n
		}
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	p.Cursor = q.Get("cursor")
	return p
}
