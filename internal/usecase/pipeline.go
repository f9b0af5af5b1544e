package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"NewsreelAgent/internal/domain"
	"NewsreelAgent/internal/ports"
	"NewsreelAgent/internal/script"
)

// Stage failure sentinels surfaced as terminal pipeline errors.
var (
	ErrNoArticles  = errors.New("no articles could be scraped from any source")
	ErrVideoFailed = errors.New("avatar video generation failed")
)

// Fallback summaries are bounded to roughly the same spoken length as a
// service-produced summary.
const fallbackSummaryWords = 60

// Progress checkpoints: one per completed stage, with the render stage
// interpolating between its checkpoint and completion.
const (
	progressStart      = 0
	progressScraped    = 25
	progressSummarized = 50
	progressScripted   = 75
	progressComplete   = 100
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source         ports.ArticleSource
	Summarizer     ports.Summarizer
	Video          ports.VideoGenerator
	Repository     ports.RunRepository
	TargetArticles int
	VideoTimeout   time.Duration
	Logger         *slog.Logger
	Now            func() time.Time
}

// Pipeline implements the news-video generation workflow: scrape, summarize,
// assemble, render. Stages run strictly in order; a stage failure aborts the
// remainder and surfaces exactly one terminal error event.
type Pipeline struct {
	source         ports.ArticleSource
	summarizer     ports.Summarizer
	video          ports.VideoGenerator
	repository     ports.RunRepository
	targetArticles int
	videoTimeout   time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	target := deps.TargetArticles
	if target <= 0 {
		target = 5
	}
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	timeout := deps.VideoTimeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Pipeline{
		source:         deps.Source,
		summarizer:     deps.Summarizer,
		video:          deps.Video,
		repository:     deps.Repository,
		targetArticles: target,
		videoTimeout:   timeout,
		logger:         deps.Logger,
		now:            now,
	}
}

// emitter serializes events to the sink while enforcing a monotonically
// non-decreasing progress value and a single terminal event per run.
type emitter struct {
	sink     ports.ProgressSink
	last     int
	finished bool
}

func (e *emitter) emit(evt domain.ProgressEvent) {
	if e.sink == nil || e.finished {
		return
	}
	if evt.Progress < e.last {
		evt.Progress = e.last
	}
	e.last = evt.Progress
	if evt.Type == domain.EventComplete || evt.Type == domain.EventError {
		e.finished = true
	}
	e.sink.Emit(evt)
}

// Run executes the full pipeline, streaming progress to sink. The returned
// run is nil on failure; every run ends with exactly one terminal complete
// or error event on the sink.
func (p *Pipeline) Run(ctx context.Context, sink ports.ProgressSink) (*domain.PipelineRun, error) {
	events := &emitter{sink: sink}

	p.info("pipeline starting")
	events.emit(domain.ProgressEvent{Type: domain.EventLog, Message: "Starting news video generation pipeline", Progress: progressStart})

	// Stage 1: scrape.
	events.emit(domain.ProgressEvent{Type: domain.EventLog, Message: "Scraping news articles...", Progress: progressStart})
	articles, err := p.source.Fetch(ctx, p.targetArticles)
	if err != nil {
		return nil, p.fail(ctx, events, fmt.Errorf("scrape articles: %w", err))
	}
	if len(articles) == 0 {
		return nil, p.fail(ctx, events, ErrNoArticles)
	}
	p.info("articles scraped", "count", len(articles))
	events.emit(domain.ProgressEvent{
		Type:     domain.EventProgress,
		Message:  fmt.Sprintf("Scraped %d articles", len(articles)),
		Progress: progressScraped,
	})

	// Stage 2: summarize. Per-article failures fall back to truncation and
	// never abort the batch.
	events.emit(domain.ProgressEvent{Type: domain.EventLog, Message: "Summarizing articles...", Progress: progressScraped})
	summaries := p.summarizeAll(ctx, articles, events)
	events.emit(domain.ProgressEvent{
		Type:     domain.EventProgress,
		Message:  fmt.Sprintf("Summarized %d articles", len(summaries)),
		Progress: progressSummarized,
	})

	// Stage 3: assemble script.
	anchorScript := script.Assemble(summaries, p.now())
	p.info("script assembled", "words", anchorScript.WordCount, "estimated_s", anchorScript.EstimatedSeconds)
	events.emit(domain.ProgressEvent{
		Type:     domain.EventProgress,
		Message:  fmt.Sprintf("Script ready: %d words, ~%.0fs", anchorScript.WordCount, anchorScript.EstimatedSeconds),
		Progress: progressScripted,
	})

	// Stage 4: render.
	events.emit(domain.ProgressEvent{Type: domain.EventLog, Message: "Generating avatar video...", Progress: progressScripted})
	talkID, err := p.video.CreateTalk(ctx, anchorScript.Text)
	if err != nil {
		return nil, p.fail(ctx, events, fmt.Errorf("%w: %v", ErrVideoFailed, err))
	}
	p.info("video job submitted", "talk_id", talkID)

	job, err := p.video.WaitForVideo(ctx, talkID, func(j domain.VideoJob) {
		events.emit(domain.ProgressEvent{
			Type:     domain.EventProgress,
			Message:  fmt.Sprintf("Video rendering: %s (%.0fs elapsed)", j.Status, j.ElapsedSeconds),
			Progress: renderProgress(j.ElapsedSeconds, p.videoTimeout),
		})
	})
	if err != nil {
		return nil, p.fail(ctx, events, fmt.Errorf("%w: %v", ErrVideoFailed, err))
	}

	result := domain.RunResult{
		Script:           anchorScript.Text,
		WordCount:        anchorScript.WordCount,
		EstimatedSeconds: anchorScript.EstimatedSeconds,
		VideoURL:         job.ResultURL,
		Articles:         digests(summaries),
		GeneratedAt:      p.now(),
	}
	run := &domain.PipelineRun{
		ID:        uuid.NewString(),
		Result:    result,
		CreatedAt: p.now(),
	}

	// Persistence is best effort; history must never fail a finished run.
	if p.repository != nil {
		if err := p.repository.SaveRun(ctx, *run); err != nil {
			p.warn("failed to persist run", "run_id", run.ID, "error", err)
		}
	}

	p.info("pipeline complete", "run_id", run.ID, "video_url", job.ResultURL)
	events.emit(domain.ProgressEvent{
		Type:     domain.EventComplete,
		Message:  "News video generated",
		Progress: progressComplete,
		Payload:  &result,
	})

	return run, nil
}

func (p *Pipeline) summarizeAll(ctx context.Context, articles []domain.Article, events *emitter) []domain.SummarizedArticle {
	summaries := make([]domain.SummarizedArticle, 0, len(articles))

	for i, article := range articles {
		item := domain.SummarizedArticle{Article: article}

		summary, err := p.summarizer.Summarize(ctx, article)
		if err != nil {
			p.warn("summarization failed, using fallback", "title", article.Title, "error", err)
			item.Summary = domain.FallbackSummary(article.Content, fallbackSummaryWords)
			item.Fallback = true
		} else {
			item.Summary = summary
		}

		summaries = append(summaries, item)
		events.emit(domain.ProgressEvent{
			Type:     domain.EventLog,
			Message:  fmt.Sprintf("Summarized article %d/%d", i+1, len(articles)),
			Progress: progressScraped,
		})
	}

	return summaries
}

// fail emits the single terminal error event and returns the stage error.
// Emission is skipped when the client already went away.
func (p *Pipeline) fail(ctx context.Context, events *emitter, err error) error {
	p.error("pipeline failed", "error", err)
	if ctx.Err() == nil {
		events.emit(domain.ProgressEvent{
			Type:    domain.EventError,
			Message: err.Error(),
		})
	}
	return err
}

// renderProgress maps render elapsed time onto the 75-99 band. 100 is
// reserved for the terminal complete event.
func renderProgress(elapsedSeconds float64, timeout time.Duration) int {
	if timeout <= 0 {
		return progressScripted
	}
	band := float64(progressComplete-progressScripted-1) * elapsedSeconds / timeout.Seconds()
	progress := progressScripted + int(band)
	if progress > progressComplete-1 {
		progress = progressComplete - 1
	}
	return progress
}

func digests(summaries []domain.SummarizedArticle) []domain.ArticleDigest {
	out := make([]domain.ArticleDigest, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, domain.ArticleDigest{
			Title:    s.Article.Title,
			URL:      s.Article.URL,
			Summary:  s.Summary,
			Fallback: s.Fallback,
		})
	}
	return out
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) error(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}
