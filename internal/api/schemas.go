package api

import (
	"time"

	"NewsreelAgent/internal/domain"
)

type IndexResponse struct {
	Name      string            `json:"name"`
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Endpoints map[string]string `json:"endpoints"`
}

type HealthResponse struct {
	Status        string  `json:"status"`
	Timestamp     string  `json:"timestamp"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

type NewsVideoResponse struct {
	Status      string                 `json:"status"`
	Script      string                 `json:"script"`
	VideoURL    string                 `json:"video_url"`
	Articles    []domain.ArticleDigest `json:"articles"`
	GeneratedAt string                 `json:"generated_at"`
}

type ComponentsResponse struct {
	Status   string          `json:"status"`
	Results  ComponentChecks `json:"results"`
	AllReady bool            `json:"all_ready"`
}

// ComponentChecks reports configuration presence only, never values.
type ComponentChecks struct {
	OpenAIConfigured bool `json:"openai_configured"`
	DIDConfigured    bool `json:"did_configured"`
	ScraperReady     bool `json:"scraper_ready"`
	StorageReady     bool `json:"storage_ready"`
}

type RunResponse struct {
	ID               string                 `json:"id"`
	Script           string                 `json:"script"`
	WordCount        int                    `json:"word_count"`
	EstimatedSeconds float64                `json:"estimated_seconds"`
	VideoURL         string                 `json:"video_url"`
	Articles         []domain.ArticleDigest `json:"articles"`
	CreatedAt        string                 `json:"created_at"`
}

type RunsResponse struct {
	Runs []RunResponse `json:"runs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func RunToResponse(run domain.PipelineRun) RunResponse {
	return RunResponse{
		ID:               run.ID,
		Script:           run.Result.Script,
		WordCount:        run.Result.WordCount,
		EstimatedSeconds: run.Result.EstimatedSeconds,
		VideoURL:         run.Result.VideoURL,
		Articles:         run.Result.Articles,
		CreatedAt:        run.CreatedAt.Format(time.RFC3339),
	}
}
