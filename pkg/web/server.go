package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ritzau/map-api/pkg/auth"
	"github.com/ritzau/map-api/pkg/logging"
	"github.com/ritzau/map-api/pkg/pubsub"
	"github.com/ritzau/map-api/pkg/query"
	"github.com/ritzau/map-api/pkg/store"
)

// DefaultMaxBodyBytes limits SetMap request bodies when Options leaves it unset.
const DefaultMaxBodyBytes = 1 << 20

// Options tunes the HTTP surface.
type Options struct {
	MaxBodyBytes int64 // Request body limit for SetMap
	Metrics      bool  // Serve /metrics
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	handler   http.Handler
	store     *store.Store
	queries   *query.Service
	auth      *auth.APIKeyAuth
	publisher pubsub.Publisher
	opts      Options
}

// NewServer creates a web server answering queries against st. Graph
// events are streamed from publisher.
func NewServer(st *store.Store, authn *auth.APIKeyAuth, publisher pubsub.Publisher, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		router:    mux.NewRouter(),
		store:     st,
		queries:   query.NewService(st),
		auth:      authn,
		publisher: publisher,
		opts:      opts,
	}
	s.setupRoutes()

	// Recovery and request logging wrap the router so that unmatched
	// routes are logged too.
	s.handler = recoveryMiddleware(logging.RequestIDMiddleware(s.router))
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(metricsMiddleware)
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, &apiError{status: http.StatusNotFound, kind: "NotFound", msg: "no such endpoint"})
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, &apiError{status: http.StatusMethodNotAllowed, kind: "MethodNotAllowed", msg: "method not allowed"})
	})

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	if s.opts.Metrics {
		s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	// API routes sit on the main router so a method mismatch reaches
	// MethodNotAllowedHandler; a subrouter would answer 404 instead.
	s.api("/SetMap", "POST", s.handleSetMap)
	s.api("/GetMap", "GET", s.handleGetMap)
	s.api("/ShortestRoute", "GET", s.handleShortestRoute)
	s.api("/ShortestDistance", "GET", s.handleShortestDistance)
	s.api("/subscribe", "GET", s.handleSubscribe)
}

// api registers an authenticated handler under /api/map.
func (s *Server) api(path, method string, h http.HandlerFunc) {
	s.router.Handle("/api/map"+path, s.auth.Middleware(h)).Methods(method)
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("starting web server", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.Info("shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
