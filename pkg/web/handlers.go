package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ritzau/map-api/pkg/logging"
	"github.com/ritzau/map-api/pkg/metrics"
	"github.com/ritzau/map-api/pkg/model"
	"github.com/ritzau/map-api/pkg/pubsub"
	"github.com/ritzau/map-api/pkg/query"
)

// MessageResponse acknowledges a stored graph.
type MessageResponse struct {
	Message string `json:"message"`
}

// RouteResponse is returned by ShortestRoute. Path is the node names
// concatenated without separator, Route the same names as a list.
type RouteResponse struct {
	Path     string   `json:"path"`
	Route    []string `json:"route"`
	Distance int64    `json:"distance"`
}

// DistanceResponse is returned by ShortestDistance.
type DistanceResponse struct {
	Distance int64 `json:"distance"`
}

// setMapRequest is the SetMap body. Field names match case-insensitively,
// so {"Nodes": ...} is accepted as well.
type setMapRequest struct {
	Nodes map[string][]model.Edge `json:"nodes" validate:"required"`
}

// routeParams are the query parameters of ShortestRoute and ShortestDistance.
type routeParams struct {
	From string `validate:"required"`
	To   string `validate:"required"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, "ok"); err != nil {
		logging.WarnContext(r.Context(), "failed to write response", "path", r.URL.Path, "error", err)
	}
}

func (s *Server) handleSetMap(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)

	var req setMapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.GraphReplacesTotal.WithLabelValues("api", "invalid").Inc()
		writeError(w, r, decodeError(err))
		return
	}
	if err := model.Validator().Struct(req); err != nil {
		metrics.GraphReplacesTotal.WithLabelValues("api", "invalid").Inc()
		writeError(w, r, &apiError{
			status: http.StatusBadRequest,
			kind:   KindInvalidGraph,
			msg:    "graph data is required: " + model.FormatValidationError(err).Error(),
		})
		return
	}

	if err := s.store.Replace(&model.Graph{Nodes: req.Nodes}); err != nil {
		metrics.GraphReplacesTotal.WithLabelValues("api", "invalid").Inc()
		writeError(w, r, err)
		return
	}
	metrics.GraphReplacesTotal.WithLabelValues("api", "ok").Inc()

	writeJSON(w, r, http.StatusOK, MessageResponse{Message: "Graph stored successfully."})
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return &apiError{
			status: http.StatusRequestEntityTooLarge,
			kind:   KindRequestTooLarge,
			msg:    fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
		}
	case errors.Is(err, io.EOF):
		return &apiError{status: http.StatusBadRequest, kind: KindInvalidGraph, msg: "graph data is required"}
	}
	return &apiError{status: http.StatusBadRequest, kind: KindInvalidGraph, msg: "malformed graph JSON: " + err.Error()}
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.Get()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, g)
}

// bindRouteParams reads from and to from the query string.
func bindRouteParams(r *http.Request) (routeParams, error) {
	q := r.URL.Query()
	params := routeParams{From: q.Get("from"), To: q.Get("to")}
	if err := model.Validator().Struct(params); err != nil {
		return params, &query.Error{
			Kind: query.KindMissingParameter,
			From: params.From,
			To:   params.To,
			Err:  query.ErrMissingParameter,
		}
	}
	return params, nil
}

func (s *Server) handleShortestRoute(w http.ResponseWriter, r *http.Request) {
	params, err := bindRouteParams(r)
	if err == nil {
		var route query.Route
		route, err = s.queries.ShortestRoute(params.From, params.To)
		if err == nil {
			recordQuery("route", nil)
			logging.DebugContext(r.Context(), "shortest route", "from", params.From, "to", params.To,
				"route", route.Nodes, "distance", route.Distance)
			writeJSON(w, r, http.StatusOK, RouteResponse{
				Path:     route.String(),
				Route:    route.Nodes,
				Distance: route.Distance,
			})
			return
		}
	}
	recordQuery("route", err)
	writeError(w, r, err)
}

func (s *Server) handleShortestDistance(w http.ResponseWriter, r *http.Request) {
	params, err := bindRouteParams(r)
	if err == nil {
		var distance int64
		distance, err = s.queries.ShortestDistance(params.From, params.To)
		if err == nil {
			recordQuery("distance", nil)
			writeJSON(w, r, http.StatusOK, DistanceResponse{Distance: distance})
			return
		}
	}
	recordQuery("distance", err)
	writeError(w, r, err)
}

func recordQuery(queryType string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(query.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	metrics.QueriesTotal.WithLabelValues(queryType, outcome).Inc()
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	sub, err := s.publisher.Subscribe(r.Context(), pubsub.TopicGraph)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer sub.Close()

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Send initial comment to establish connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.DebugContext(r.Context(), "subscriber went away", "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
