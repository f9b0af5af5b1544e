package domain

import (
	"strings"
	"time"
)

// Article is a core entity describing a single scraped news story.
type Article struct {
	Title     string
	URL       string
	Content   string
	Source    string
	ScrapedAt time.Time
}

// SummarizedArticle pairs an article with its broadcast-ready summary.
// Fallback marks records whose summary was produced locally after the
// summarization service failed for that article.
type SummarizedArticle struct {
	Article  Article
	Summary  string
	Fallback bool
}

// Script is the assembled anchor script derived from ordered summaries.
type Script struct {
	Text             string
	WordCount        int
	EstimatedSeconds float64
}

// VideoStatus enumerates remote render-job states plus the locally
// synthesized timeout state.
type VideoStatus string

const (
	VideoCreated VideoStatus = "created"
	VideoStarted VideoStatus = "started"
	VideoDone    VideoStatus = "done"
	VideoError   VideoStatus = "error"
	VideoTimeout VideoStatus = "timeout"
)

// Terminal reports whether no further polling can change the status.
func (s VideoStatus) Terminal() bool {
	return s == VideoDone || s == VideoError || s == VideoTimeout
}

// VideoJob tracks one submitted avatar render job.
type VideoJob struct {
	TalkID         string
	Status         VideoStatus
	ResultURL      string
	ElapsedSeconds float64
}

// EventType tags the progress-event variants emitted over the stream.
type EventType string

const (
	EventLog      EventType = "log"
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// ProgressEvent is a single frame of the live pipeline stream. Events are
// emitted once and never mutated; a complete or error event is terminal.
type ProgressEvent struct {
	Type     EventType  `json:"type"`
	Message  string     `json:"message,omitempty"`
	Progress int        `json:"progress"`
	Payload  *RunResult `json:"payload,omitempty"`
}

// ArticleDigest is the display form of one article inside a run result.
type ArticleDigest struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Summary  string `json:"summary"`
	Fallback bool   `json:"fallback,omitempty"`
}

// RunResult is the payload of a terminal complete event.
type RunResult struct {
	Script           string          `json:"script"`
	WordCount        int             `json:"word_count"`
	EstimatedSeconds float64         `json:"estimated_seconds"`
	VideoURL         string          `json:"video_url"`
	Articles         []ArticleDigest `json:"articles"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

// PipelineRun is the persisted record of one completed pipeline execution.
type PipelineRun struct {
	ID        string
	Result    RunResult
	CreatedAt time.Time
}

// FallbackSummary produces a deterministic local stand-in summary by
// truncating the article content to at most maxWords words.
func FallbackSummary(content string, maxWords int) string {
	words := strings.Fields(content)
	if len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
