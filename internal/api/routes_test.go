package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"NewsreelAgent/internal/config"
	"NewsreelAgent/internal/domain"
	"NewsreelAgent/internal/ports"
)

type stubRunner struct {
	events []domain.ProgressEvent
	run    *domain.PipelineRun
	err    error
}

func (s *stubRunner) Run(ctx context.Context, sink ports.ProgressSink) (*domain.PipelineRun, error) {
	for _, evt := range s.events {
		if sink != nil {
			sink.Emit(evt)
		}
	}
	return s.run, s.err
}

type memoryRepo struct {
	runs []domain.PipelineRun
	err  error
}

func (m *memoryRepo) SaveRun(ctx context.Context, run domain.PipelineRun) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *memoryRepo) RecentRuns(ctx context.Context, limit int) ([]domain.PipelineRun, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.runs) > limit {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func configuredApp() config.Config {
	cfg := config.Config{}
	cfg.OpenAI.APIKey = "sk-test"
	cfg.DID.APIKey = "did-test"
	cfg.Scraper.Sources = []config.SourceConfig{{Name: "bbc", URL: "https://www.bbc.com/news"}}
	return cfg
}

func sampleResult() domain.RunResult {
	return domain.RunResult{
		Script:           "Good day. In our lead story, things happened.",
		WordCount:        8,
		EstimatedSeconds: 3.2,
		VideoURL:         "https://cdn.example.org/v.mp4",
		Articles: []domain.ArticleDigest{
			{Title: "Things happened", URL: "https://example.org/1", Summary: "things happened."},
		},
		GeneratedAt: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func newTestServer(t *testing.T, cfg ServerConfig) *httptest.Server {
	t.Helper()

	if cfg.Logger == nil {
		cfg.Logger = testLogger()
	}
	server := httptest.NewServer(NewRouter(cfg))
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s response: %v", url, err)
		}
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, ServerConfig{Pipeline: &stubRunner{}})

	var health HealthResponse
	resp := getJSON(t, server.URL+"/health", &health)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if health.Status != "healthy" || health.Timestamp == "" {
		t.Fatalf("unexpected health payload: %+v", health)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}
}

func TestIndexEndpoint(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, ServerConfig{Pipeline: &stubRunner{}})

	var index IndexResponse
	getJSON(t, server.URL+"/", &index)
	if index.Status != "running" {
		t.Fatalf("unexpected index status: %s", index.Status)
	}
	if index.Endpoints["stream"] != "/generate-news-video-stream" {
		t.Fatalf("stream endpoint missing from index: %v", index.Endpoints)
	}
}

func TestTestComponentsNeverExposesSecrets(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, ServerConfig{Pipeline: &stubRunner{}, AppConfig: configuredApp()})

	resp, err := http.Get(server.URL + "/test-components")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(raw), "sk-test") || strings.Contains(string(raw), "did-test") {
		t.Fatalf("component check leaked a secret: %s", raw)
	}

	var components ComponentsResponse
	if err := json.Unmarshal(raw, &components); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !components.AllReady || !components.Results.OpenAIConfigured || !components.Results.DIDConfigured {
		t.Fatalf("expected all components ready: %+v", components)
	}
}

func TestGenerateSync(t *testing.T) {
	t.Parallel()

	result := sampleResult()
	runner := &stubRunner{run: &domain.PipelineRun{ID: "run-1", Result: result}}
	server := newTestServer(t, ServerConfig{Pipeline: runner})

	resp, err := http.Post(server.URL+"/generate-news-video", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var body NewsVideoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "success" || body.VideoURL != result.VideoURL {
		t.Fatalf("unexpected response: %+v", body)
	}
	if len(body.Articles) != 1 {
		t.Fatalf("expected article list in response, got %d", len(body.Articles))
	}
}

func TestGenerateSyncFailure(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{err: fmt.Errorf("no articles could be scraped from any source")}
	server := newTestServer(t, ServerConfig{Pipeline: runner})

	resp, err := http.Post(server.URL+"/generate-news-video", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(body.Error, "no articles") {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestStreamEndpointEmitsEventFrames(t *testing.T) {
	t.Parallel()

	result := sampleResult()
	runner := &stubRunner{
		events: []domain.ProgressEvent{
			{Type: domain.EventLog, Message: "Scraping news articles...", Progress: 0},
			{Type: domain.EventProgress, Message: "Scraped 5 articles", Progress: 25},
			{Type: domain.EventComplete, Message: "News video generated", Progress: 100, Payload: &result},
		},
		run: &domain.PipelineRun{ID: "run-1", Result: result},
	}
	server := newTestServer(t, ServerConfig{Pipeline: runner})

	resp, err := http.Get(server.URL + "/generate-news-video-stream")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("unexpected content type: %s", got)
	}

	var events []domain.ProgressEvent
	reader := bufio.NewScanner(resp.Body)
	for reader.Scan() {
		line := reader.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var evt domain.ProgressEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt); err != nil {
			t.Fatalf("bad frame %q: %v", line, err)
		}
		events = append(events, evt)
	}
	if err := reader.Err(); err != nil {
		t.Fatalf("read stream: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 frames, got %d: %v", len(events), events)
	}
	last := events[len(events)-1]
	if last.Type != domain.EventComplete || last.Progress != 100 {
		t.Fatalf("stream must end with terminal complete frame: %+v", last)
	}
	if last.Payload == nil || last.Payload.VideoURL != result.VideoURL {
		t.Fatalf("terminal frame missing payload: %+v", last)
	}
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	repo := &memoryRepo{runs: []domain.PipelineRun{
		{ID: "run-1", Result: sampleResult(), CreatedAt: time.Now().UTC()},
		{ID: "run-2", Result: sampleResult(), CreatedAt: time.Now().UTC()},
	}}
	server := newTestServer(t, ServerConfig{Pipeline: &stubRunner{}, Repository: repo})

	var runs RunsResponse
	getJSON(t, server.URL+"/runs?limit=1", &runs)
	if len(runs.Runs) != 1 {
		t.Fatalf("expected limit applied, got %d runs", len(runs.Runs))
	}
	if runs.Runs[0].ID != "run-1" {
		t.Fatalf("unexpected run: %+v", runs.Runs[0])
	}
}

func TestListRunsBadLimit(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, ServerConfig{Pipeline: &stubRunner{}, Repository: &memoryRepo{}})

	resp, err := http.Get(server.URL + "/runs?limit=zero")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", resp.StatusCode)
	}
}

func TestListRunsWithoutRepository(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, ServerConfig{Pipeline: &stubRunner{}})

	var runs RunsResponse
	resp := getJSON(t, server.URL+"/runs", &runs)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if len(runs.Runs) != 0 {
		t.Fatalf("expected empty run list, got %d", len(runs.Runs))
	}
}
