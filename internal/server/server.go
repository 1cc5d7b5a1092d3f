package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"cuegrid/internal/api"
	"cuegrid/internal/config"
)

type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	httpServer *http.Server
	router     *chi.Mux
	handler    *api.Handler
}

func New(cfg *config.Config, logger zerolog.Logger, handler *api.Handler) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		handler: handler,
	}

	s.router = chi.NewRouter()
	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(CORSMiddleware)
	s.router.Use(LoggingMiddleware(s.logger))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handler.Health)

		r.Get("/state", s.handler.GetState)
		r.Get("/events", s.handler.Events)

		r.Get("/grid", s.handler.GetGrid)
		r.Put("/slots/{col}/{row}", s.handler.AssignSlot)
		r.Delete("/slots/{col}/{row}", s.handler.ClearSlot)
		r.Post("/slots/{col}/{row}/click", s.handler.ClickSlot)
		r.Get("/slots/{col}/{row}/media", s.handler.StreamSlotMedia)
		r.Get("/slots/{col}/{row}/preview", s.handler.GetSlotPreview)

		r.Post("/triggers/{col}/click", s.handler.ClickTrigger)
		r.Post("/triggers/{col}/stop", s.handler.StopTrigger)

		r.Post("/playback/stop", s.handler.StopAll)
	})
}

func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.httpServer.Addr).
		Msg("starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}
