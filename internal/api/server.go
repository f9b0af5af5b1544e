package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"NewsreelAgent/internal/config"
	"NewsreelAgent/internal/domain"
	"NewsreelAgent/internal/ports"
)

// PipelineRunner executes one full news-video generation run, streaming
// progress events into sink.
type PipelineRunner interface {
	Run(ctx context.Context, sink ports.ProgressSink) (*domain.PipelineRun, error)
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port       int
	Pipeline   PipelineRunner
	Repository ports.RunRepository
	AppConfig  config.Config
	Logger     *slog.Logger
	StartTime  time.Time
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:        fmt.Sprintf(":%d", cfg.Port),
			Handler:     router,
			ReadTimeout: 15 * time.Second,
			// Streaming responses stay open for the whole pipeline run.
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
