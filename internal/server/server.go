// Package server exposes the chat pipeline over HTTP.
package server

import (
	"log/slog"
	"net/http"

	"github.com/aisha-chat/aisha-go/internal/chat"
	"github.com/aisha-chat/aisha-go/internal/config"
	"github.com/aisha-chat/aisha-go/internal/imaging"
	"github.com/aisha-chat/aisha-go/internal/memory"
	"github.com/aisha-chat/aisha-go/internal/metrics"
	"github.com/aisha-chat/aisha-go/internal/persona"
)

// Server wires the HTTP façade to the chat engine and its stores.
type Server struct {
	engine   *chat.Engine
	registry *persona.Registry
	store    memory.Store
	uploads  *imaging.UploadStore
	metrics  *metrics.Collector
	cfg      config.Config
	logger   *slog.Logger
}

// New creates the façade. All collaborators are injected.
func New(engine *chat.Engine, registry *persona.Registry, store memory.Store, uploads *imaging.UploadStore, collector *metrics.Collector, cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Server{
		engine:   engine,
		registry: registry,
		store:    store,
		uploads:  uploads,
		metrics:  collector,
		cfg:      cfg,
		logger:   logger,
	}
}

// Handler returns the full route table wrapped in CORS and request
// logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /modes/list", s.handleModes)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /chat/image", s.handleChatImage)
	mux.HandleFunc("GET /memory", s.handleMemoryGet)
	mux.HandleFunc("POST /memory/update", s.handleMemoryUpdate)

	if s.uploads != nil {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/",
			http.FileServer(http.Dir(s.uploads.Dir()))))
	}

	return corsMiddleware(s.cfg.CORSOrigins, loggingMiddleware(s.logger, mux))
}
