// Package server provides the HTTP API of the glossary backend.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/glossary/internal/auth"
	"github.com/hyperjump/glossary/internal/config"
	"github.com/hyperjump/glossary/internal/indexer"
	"github.com/hyperjump/glossary/internal/search"
	"github.com/hyperjump/glossary/internal/storage"
	"github.com/hyperjump/glossary/pkg/utils"
)

// maxUploadBytes bounds multipart uploads.
const maxUploadBytes = 32 << 20

// DirectoryLister reports the directories being watched for glossary files.
type DirectoryLister interface {
	Directories() []string
}

// Server is the HTTP server for the glossary API.
type Server struct {
	engine  *search.Engine
	indexer *indexer.Indexer
	storage storage.Storage
	auth    *auth.Service
	config  *config.Config
	logger  *zap.Logger
	watch   DirectoryLister
	metrics *metrics
	router  http.Handler
	server  *http.Server
}

// NewServer creates a server with the given dependencies. watch may be nil.
func NewServer(
	engine *search.Engine,
	idx *indexer.Indexer,
	store storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
	watch DirectoryLister,
) *Server {
	s := &Server{
		engine:  engine,
		indexer: idx,
		storage: store,
		config:  cfg,
		logger:  utils.OrNop(logger),
		watch:   watch,
		metrics: newMetrics(),
	}
	s.auth = auth.NewService(store,
		auth.WithHashCost(cfg.Auth.HashCost),
		auth.WithSessionTTL(cfg.Auth.SessionTTL()),
		auth.WithLogger(s.logger),
	)
	s.router = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.metrics.middleware)
	r.Use(middleware.Compress(5))

	r.Get("/search", s.handleSearch)
	r.Get("/frequency", s.handleFrequency)
	r.Get("/pairs", s.handlePairs)
	r.Post("/add", s.handleAdd)
	r.With(s.requireLogin("Please login to upload.")).Post("/upload", s.handleUpload)
	r.Post("/signup", s.handleSignup)
	r.Post("/login", s.handleLogin)
	r.Get("/logout", s.handleLogout)
	r.Post("/logout", s.handleLogout)
	r.Get("/view", s.handleView)
	r.Get("/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())
	r.Get("/uploads/*", s.handleUploads)
	return r
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
