package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stacgate/stacgate/core/schema"
	"github.com/stacgate/stacgate/ports"
)

// ErrorKind classifies a request failure. The kind doubles as the
// "code" value of the JSON error body.
type ErrorKind string

const (
	KindValidation ErrorKind = "ValidationError"
	KindNotFound   ErrorKind = "NotFoundError"
	KindConflict   ErrorKind = "ConflictError"
	KindInternal   ErrorKind = "InternalServerError"
)

// StatusTable maps error kinds to HTTP status codes. Deployments merge
// entries over the defaults at assembly; unmapped kinds fall back to
// 500.
type StatusTable map[ErrorKind]int

// DefaultStatusCodes returns the standard mapping.
func DefaultStatusCodes() StatusTable {
	return StatusTable{
		KindValidation: http.StatusBadRequest,
		KindNotFound:   http.StatusNotFound,
		KindConflict:   http.StatusConflict,
	}
}

// merge returns a copy of the defaults with overrides applied.
func (t StatusTable) merge(overrides StatusTable) StatusTable {
	merged := make(StatusTable, len(t)+len(overrides))
	for kind, status := range t {
		merged[kind] = status
	}
	for kind, status := range overrides {
		merged[kind] = status
	}
	return merged
}

// Translate classifies an error and resolves its status code.
func (t StatusTable) Translate(err error) (int, ErrorKind) {
	kind := classify(err)
	if status, ok := t[kind]; ok {
		return status, kind
	}
	return http.StatusInternalServerError, kind
}

func classify(err error) ErrorKind {
	var verr *schema.ValidationError
	switch {
	case errors.As(err, &verr):
		return KindValidation
	case errors.Is(err, ports.ErrNotFound):
		return KindNotFound
	case errors.Is(err, ports.ErrConflict):
		return KindConflict
	default:
		return KindInternal
	}
}

// errorBody is the single JSON error shape every failed request gets.
type errorBody struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// writeError translates err and writes exactly one error response.
// Internal errors are logged with detail but answered with a generic
// description; the detail never reaches the client.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := a.status.Translate(err)

	body := errorBody{Code: string(kind), Description: err.Error()}
	if status >= http.StatusInternalServerError {
		a.log.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		body.Description = "internal server error"
	} else {
		a.log.Debug().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Msg("request rejected")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.log.Error().Err(err).Msg("failed to write error response")
	}
}
