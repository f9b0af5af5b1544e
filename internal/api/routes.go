package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"NewsreelAgent/internal/domain"
	"NewsreelAgent/internal/ports"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/", indexHandler(cfg))
	r.Get("/health", healthHandler(cfg))
	r.Get("/test-components", testComponentsHandler(cfg))
	r.Get("/generate-news-video-stream", streamHandler(cfg))
	r.Post("/generate-news-video", generateHandler(cfg))
	r.Get("/runs", listRunsHandler(cfg))

	return r
}

func indexHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, IndexResponse{
			Name:      "Newsreel Agent",
			Status:    "running",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Endpoints: map[string]string{
				"generate": "/generate-news-video",
				"stream":   "/generate-news-video-stream",
				"health":   "/health",
				"runs":     "/runs",
			},
		})
	}
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	start := cfg.StartTime
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:        "healthy",
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
			UptimeSeconds: time.Since(start).Seconds(),
		})
	}
}

func testComponentsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := ComponentChecks{
			OpenAIConfigured: cfg.AppConfig.OpenAI.APIKey != "",
			DIDConfigured:    cfg.AppConfig.DID.APIKey != "",
			ScraperReady:     len(cfg.AppConfig.Scraper.Sources) > 0,
			StorageReady:     cfg.Repository != nil,
		}

		WriteJSON(w, http.StatusOK, ComponentsResponse{
			Status:   "component_check",
			Results:  checks,
			AllReady: checks.OpenAIConfigured && checks.DIDConfigured && checks.ScraperReady,
		})
	}
}

// sseSink serializes progress events as server-sent-event frames, flushing
// after each one. Single producer, single consumer: one pipeline run feeds
// one open connection.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

var _ ports.ProgressSink = (*sseSink)(nil)

func (s *sseSink) Emit(event domain.ProgressEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.flusher.Flush()
}

func streamHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteError(w, http.StatusInternalServerError, "streaming unsupported", "INTERNAL_ERROR")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		// The request context cancels the run when the client disconnects,
		// which also stops the render poll loop.
		sink := &sseSink{w: w, flusher: flusher}
		if _, err := cfg.Pipeline.Run(r.Context(), sink); err != nil {
			cfg.Logger.Error("streamed pipeline run failed", "error", err)
		}
	}
}

func generateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := cfg.Pipeline.Run(r.Context(), nil)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "PIPELINE_FAILED")
			return
		}

		WriteJSON(w, http.StatusOK, NewsVideoResponse{
			Status:      "success",
			Script:      run.Result.Script,
			VideoURL:    run.Result.VideoURL,
			Articles:    run.Result.Articles,
			GeneratedAt: run.Result.GeneratedAt.Format(time.RFC3339),
		})
	}
}

func listRunsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Repository == nil {
			WriteJSON(w, http.StatusOK, RunsResponse{Runs: []RunResponse{}})
			return
		}

		limit := 10
		if v := r.URL.Query().Get("limit"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed <= 0 {
				WriteError(w, http.StatusBadRequest, "limit must be a positive integer", "BAD_REQUEST")
				return
			}
			limit = parsed
		}

		runs, err := cfg.Repository.RecentRuns(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list runs", "INTERNAL_ERROR")
			return
		}

		resp := RunsResponse{Runs: make([]RunResponse, len(runs))}
		for i, run := range runs {
			resp.Runs[i] = RunToResponse(run)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
