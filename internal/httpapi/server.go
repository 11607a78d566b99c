// Package httpapi serves the label pipeline over HTTP for server mode:
// multipart uploads in, status JSON and PDF attachments out.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/a3tai/mcp-shiplabel/internal/app"
)

const shutdownTimeout = 5 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithMCP mounts an MCP streamable HTTP handler at /mcp.
func WithMCP(h http.Handler) Option {
	return func(s *Server) { s.mcp = h }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithAllowedOrigins sets the CORS origins. The default allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// Server is the HTTP front end of an App.
type Server struct {
	app     *app.App
	hub     *Hub
	mcp     http.Handler
	log     *slog.Logger
	origins []string
	router  chi.Router
}

// NewServer builds the router. hub receives export notifications and may
// be nil, in which case the events endpoint is not registered.
func NewServer(a *app.App, hub *Hub, opts ...Option) *Server {
	s := &Server{
		app:     a,
		hub:     hub,
		log:     slog.Default(),
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "http")
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/inputs", s.handleInputs)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Post("/upload", s.handleUpload)
			r.Get("/status", s.handleStatus)
			r.Post("/export", s.handleExport)
			r.Get("/preview.png", s.handlePreview)
			r.Delete("/", s.handleDelete)
			if s.hub != nil {
				r.Get("/events", s.handleEvents)
			}
		})
	})

	if s.mcp != nil {
		r.Handle("/mcp", s.mcp)
	}
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
