// Package api exposes a graph and its query engine over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
	"github.com/dxnn/dagoba/internal/dagoba/query"
	"github.com/dxnn/dagoba/internal/server/snapshot"
	"github.com/dxnn/dagoba/internal/server/subscriptions"
)

var tracer = otel.Tracer("dagoba.api")

// Server holds the HTTP server dependencies. The graph is guarded by mu:
// queries and reads share it, mutations and imports take it exclusively.
type Server struct {
	mu     sync.RWMutex
	graph  *graph.Graph
	engine *query.Engine

	repo     snapshot.Repository
	subMgr   *subscriptions.Manager
	cursors  *cursorStore
	pageSize int
	logger   *slog.Logger
}

// Option configures a Server
type Option func(*Server)

// WithRepository enables the snapshot endpoints
func WithRepository(repo snapshot.Repository) Option {
	return func(s *Server) { s.repo = repo }
}

// WithSubscriptions enables the subscription endpoints and feeds the
// manager with the graph's mutation events
func WithSubscriptions(m *subscriptions.Manager) Option {
	return func(s *Server) { s.subMgr = m }
}

// WithLogger sets the request logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithPageSize sets the default page size for cursors
func WithPageSize(n int) Option {
	return func(s *Server) { s.pageSize = n }
}

// WithMaxCursors bounds the number of open cursors; the oldest is
// evicted when a new one would exceed it
func WithMaxCursors(n int) Option {
	return func(s *Server) { s.cursors = newCursorStore(n) }
}

// New creates a new API server
func New(g *graph.Graph, engine *query.Engine, opts ...Option) *Server {
	s := &Server{
		engine:   engine,
		cursors:  newCursorStore(1024),
		pageSize: 100,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setGraph(g)
	return s
}

// setGraph installs g as the served graph. Callers hold mu or own s.
func (s *Server) setGraph(g *graph.Graph) {
	if s.subMgr != nil {
		g.SetEventEmitter(s.subMgr.Emit)
	}
	s.graph = g
}

// Graph returns the served graph
func (s *Server) Graph() *graph.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.Stats)

		r.Post("/vertices", s.CreateVertex)
		r.Get("/vertices", s.ListVertices)
		r.Get("/vertices/{id}", s.GetVertex)
		r.Get("/vertices/{id}/edges", s.GetEdges)
		r.Post("/edges", s.CreateEdge)

		r.Post("/query", s.Query)
		r.Post("/cursors", s.CreateCursor)
		r.Post("/cursors/{id}/next", s.NextPage)
		r.Delete("/cursors/{id}", s.DeleteCursor)

		r.Get("/export", s.Export)
		r.Post("/import", s.Import)
		r.Post("/snapshot", s.SaveSnapshot)
		r.Post("/snapshot/restore", s.RestoreSnapshot)

		r.Post("/subscriptions", s.CreateSubscription)
		r.Get("/subscriptions", s.ListSubscriptions)
		r.Get("/subscriptions/{id}", s.GetSubscription)
		r.Patch("/subscriptions/{id}", s.UpdateSubscription)
		r.Delete("/subscriptions/{id}", s.DeleteSubscription)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
