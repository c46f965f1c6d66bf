// Package server exposes the gateway's HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/arttech/assistant-gateway/internal/domain"
	"github.com/arttech/assistant-gateway/internal/router"
	"github.com/arttech/assistant-gateway/internal/storage"
)

// ChatEngine is the router surface the server depends on.
type ChatEngine interface {
	Chat(ctx context.Context, in router.TurnInput) (*domain.TurnResult, error)
	ChatStream(ctx context.Context, in router.TurnInput) (<-chan domain.StreamEvent, error)
	Ready() bool
}

type Server struct {
	Router *chi.Mux
	Port   int

	engine    ChatEngine
	store     storage.SessionStore
	retriever domain.Retriever
	logger    *slog.Logger
	httpSrv   *http.Server
}

// New builds the server and mounts all routes.
func New(port int, logger *slog.Logger, engine ChatEngine, store storage.SessionStore, retriever domain.Retriever) *Server {
	s := &Server{
		Port:      port,
		engine:    engine,
		store:     store,
		retriever: retriever,
		logger:    logger,
	}

	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "assistant-gateway")
	})

	r.Group(func(g chi.Router) {
		g.Use(TimeoutMiddleware(30 * time.Second))

		g.Post("/api/sessions", s.handleCreateSession)
		g.Get("/api/sessions/{id}", s.handleGetSession)
		g.Post("/api/chat", s.handleChat)
		g.Get("/api/health", s.handleHealth)
	})

	// The streaming route sits outside the timeout middleware so replies
	// can run as long as the client stays connected.
	r.Post("/api/chat/stream", s.handleChatStream)

	s.Router = r
	return s
}

func (s *Server) Start() error {
	s.logger.Info("starting server", slog.Int("port", s.Port))
	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.Port),
		Handler: s.Router,
	}
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
