package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ritzau/map-api/pkg/auth"
	"github.com/ritzau/map-api/pkg/logging"
	"github.com/ritzau/map-api/pkg/query"
	"github.com/ritzau/map-api/pkg/store"
)

// Kinds reported by the HTTP layer in addition to query.Kind.
const (
	KindInvalidGraph    = "InvalidGraph"
	KindNotFound        = "NotFound"
	KindUnauthorized    = "Unauthorized"
	KindRequestTooLarge = "RequestTooLarge"
	KindInternal        = "Internal"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// apiError is an error that already knows its HTTP representation.
type apiError struct {
	status int
	kind   string
	msg    string
}

func (e *apiError) Error() string {
	return e.msg
}

// classify maps an error onto its status code and kind.
func classify(err error) *apiError {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae
	}
	if kind := query.KindOf(err); kind != "" {
		return &apiError{status: http.StatusBadRequest, kind: string(kind), msg: err.Error()}
	}

	switch {
	case errors.Is(err, store.ErrInvalidGraph):
		return &apiError{status: http.StatusBadRequest, kind: KindInvalidGraph, msg: err.Error()}
	case errors.Is(err, store.ErrNotFound):
		return &apiError{status: http.StatusNotFound, kind: KindNotFound, msg: "graph not found"}
	case errors.Is(err, auth.ErrUnauthorized):
		return &apiError{status: http.StatusUnauthorized, kind: KindUnauthorized, msg: err.Error()}
	}
	return &apiError{status: http.StatusInternalServerError, kind: KindInternal, msg: "internal server error"}
}

// writeError writes err as a JSON ErrorResponse. Unexpected errors are
// logged with their original message, which is not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae := classify(err)
	if ae.status >= http.StatusInternalServerError {
		logging.ErrorContext(r.Context(), "request error", "path", r.URL.Path, "error", err)
	} else {
		logging.DebugContext(r.Context(), "request error", "path", r.URL.Path, "kind", ae.kind, "error", ae.msg)
	}
	writeJSON(w, r, ae.status, ErrorResponse{Error: ae.msg, Kind: ae.kind})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.WarnContext(r.Context(), "failed to write response", "path", r.URL.Path, "error", err)
	}
}
