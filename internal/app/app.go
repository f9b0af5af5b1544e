package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"NewsreelAgent/internal/api"
	"NewsreelAgent/internal/config"
	"NewsreelAgent/internal/infrastructure/avatar"
	"NewsreelAgent/internal/infrastructure/llm"
	"NewsreelAgent/internal/infrastructure/parser"
	"NewsreelAgent/internal/infrastructure/storage"
	"NewsreelAgent/internal/logging"
	"NewsreelAgent/internal/ports"
	"NewsreelAgent/internal/scanner"
	"NewsreelAgent/internal/usecase"
)

// Application wires configuration to adapters, pipeline, and HTTP server.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	server *api.Server
	db     *sql.DB
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	baseLogger.Debug("configuration loaded",
		"openai_key", logging.MaskSecret(cfg.OpenAI.APIKey),
		"did_key", logging.MaskSecret(cfg.DID.APIKey),
		"sources", len(cfg.Scraper.Sources),
	)

	registry := scanner.NewRegistry()
	scrapeClient := &http.Client{Timeout: cfg.Scraper.RequestTimeout()}
	registry.Register(parser.NewHomepageScanner(scrapeClient, cfg.Scraper.UserAgent))

	source := parser.NewStrategySource(registry, cfg.Scraper, baseLogger.With("component", "source"))
	summarizer := llm.NewOpenAIClient(cfg.OpenAI)
	video := avatar.NewDIDClient(cfg.DID, cfg.Video, baseLogger.With("component", "avatar"))

	var (
		repository ports.RunRepository
		db         *sql.DB
	)
	if cfg.Storage.Path != "" {
		var err error
		db, err = storage.Open(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open run storage: %w", err)
		}
		repository = storage.NewSQLiteRepository(db)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:         source,
		Summarizer:     summarizer,
		Video:          video,
		Repository:     repository,
		TargetArticles: cfg.Scraper.TargetArticles,
		VideoTimeout:   cfg.Video.Timeout(),
		Logger:         baseLogger.With("component", "pipeline"),
	})

	server := api.NewServer(api.ServerConfig{
		Port:       cfg.Server.Port,
		Pipeline:   pipeline,
		Repository: repository,
		AppConfig:  cfg,
		Logger:     baseLogger.With("component", "api"),
		StartTime:  time.Now().UTC(),
	})

	return &Application{cfg: cfg, logger: baseLogger, server: server, db: db}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	select {
	case err := <-errCh:
		a.closeDB()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	a.closeDB()
	return err
}

func (a *Application) closeDB() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("closing run storage", "error", err)
	}
}
