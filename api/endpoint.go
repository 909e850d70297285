package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacgate/stacgate/core/dispatch"
	"github.com/stacgate/stacgate/core/schema"
	"github.com/stacgate/stacgate/pkg/stac"
)

// Endpoint builds the handler for one route: decode against the model,
// call the bound client method, encode the result. Request failures go
// through the status table; success writes the given status and content
// type. Extensions registering routes through the hook reuse this glue
// so their routes behave like core ones.
func Endpoint[Resp any](a *API, call dispatch.Method[*schema.Request, Resp], model *schema.Model, status int, contentType string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := model.Decode(r, pathParams(r))
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		resp, err := call.Call(r.Context(), req)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		a.writeResponse(w, status, contentType, resp)
	})
}

// pathParams resolves {param} path variables from the router context.
func pathParams(r *http.Request) func(string) string {
	return func(name string) string {
		return chi.URLParam(r, name)
	}
}

func (a *API) writeResponse(w http.ResponseWriter, status int, contentType string, body any) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	if contentType == "" {
		contentType = stac.MediaTypeJSON
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.log.Error().Err(err).Msg("failed to write response body")
	}
}
