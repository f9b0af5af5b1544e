package ports

import (
	"context"

	"NewsreelAgent/internal/domain"
)

// ArticleSource pulls candidate articles from configured news sites until
// target articles are collected or every source is exhausted.
type ArticleSource interface {
	Fetch(ctx context.Context, target int) ([]domain.Article, error)
}

// Summarizer condenses one article into a short broadcast summary.
type Summarizer interface {
	Summarize(ctx context.Context, article domain.Article) (string, error)
}

// VideoGenerator submits a script to the avatar-render service and drives
// the remote job to a terminal state. onPoll receives each observed job
// snapshot so callers can surface elapsed-time progress.
type VideoGenerator interface {
	CreateTalk(ctx context.Context, script string) (string, error)
	WaitForVideo(ctx context.Context, talkID string, onPoll func(domain.VideoJob)) (domain.VideoJob, error)
}

// RunRepository persists completed pipeline runs for history/audit.
type RunRepository interface {
	SaveRun(ctx context.Context, run domain.PipelineRun) error
	RecentRuns(ctx context.Context, limit int) ([]domain.PipelineRun, error)
}

// ProgressSink receives live pipeline events in emission order.
type ProgressSink interface {
	Emit(event domain.ProgressEvent)
}
