// Package server exposes the generate pipeline and the ad gallery over HTTP.
//
// Routes:
//
//	GET    /api/health         build info
//	GET    /api/templates      template catalog
//	GET    /api/platforms      platform catalog
//	POST   /api/preview        render and download the raster
//	POST   /api/generate       render, upload and record an ad
//	GET    /api/ads            gallery listing (?q=&platform=&limit=)
//	GET    /api/ads/{id}       one gallery record
//	DELETE /api/ads/{id}       remove a record and its object
//	GET    /files/*            objects stored on the local filesystem
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/adstudio/pkg/pipeline"
)

const (
	// DefaultMaxBodyBytes caps request bodies. Compositions may carry the
	// background image inline as a data URL.
	DefaultMaxBodyBytes = 16 << 20

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFiles serves dir under prefix (for example "/files"). Use it with the
// filesystem object store so its public URLs resolve.
func WithFiles(prefix, dir string) Option {
	return func(s *Server) { s.filesPrefix, s.filesDir = prefix, dir }
}

// WithAllowedOrigins sets the CORS origins. The default allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBody = n }
}

// Server serves the HTTP API.
type Server struct {
	runner      *pipeline.Runner
	logger      *log.Logger
	filesPrefix string
	filesDir    string
	origins     []string
	maxBody     int64
}

// New creates a server backed by runner. The runner's Objects and Records
// back the gallery routes; without Records the gallery is empty.
func New(runner *pipeline.Runner, opts ...Option) *Server {
	s := &Server{
		runner:  runner,
		logger:  runner.Logger,
		origins: []string{"*"},
		maxBody: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/templates", s.handleTemplates)
		r.Get("/platforms", s.handlePlatforms)
		r.Post("/preview", s.handlePreview)
		r.Post("/generate", s.handleGenerate)
		r.Route("/ads", func(r chi.Router) {
			r.Get("/", s.handleListAds)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetAd)
				r.Delete("/", s.handleDeleteAd)
			})
		})
	})

	if s.filesDir != "" && s.filesPrefix != "" {
		prefix := s.filesPrefix
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(s.filesDir))))
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start).Round(time.Millisecond),
			"id", middleware.GetReqID(r.Context()))
	})
}
