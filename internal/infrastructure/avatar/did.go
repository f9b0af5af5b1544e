package avatar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"NewsreelAgent/internal/config"
	"NewsreelAgent/internal/domain"
	"NewsreelAgent/internal/ports"
)

// Terminal failure modes of the render stage. Submission is never retried
// here: a fresh talk costs quota on the remote service, so retrying is a
// caller decision.
var (
	ErrRenderFailed  = errors.New("video render failed")
	ErrRenderTimeout = errors.New("video render timed out")
)

// DIDClient implements ports.VideoGenerator against the D-ID talks API.
type DIDClient struct {
	baseURL      string
	apiKey       string
	presenterID  string
	voiceID      string
	pollInterval time.Duration
	timeout      time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

var _ ports.VideoGenerator = (*DIDClient)(nil)

// NewDIDClient builds a client from configuration.
func NewDIDClient(cfg config.DIDConfig, video config.VideoConfig, log *slog.Logger) *DIDClient {
	return &DIDClient{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		presenterID:  cfg.PresenterID,
		voiceID:      cfg.VoiceID,
		pollInterval: video.PollInterval(),
		timeout:      video.Timeout(),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       log,
	}
}

// Talk mirrors the remote talk resource as returned by the API.
type Talk struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	ResultURL string `json:"result_url"`
	Error     struct {
		Description string `json:"description"`
	} `json:"error"`
}

// CreateTalk submits the script for rendering and returns the talk ID.
func (c *DIDClient) CreateTalk(ctx context.Context, script string) (string, error) {
	if c.apiKey == "" || c.baseURL == "" {
		return "", fmt.Errorf("d-id client misconfigured")
	}

	payload := map[string]any{
		"script": map[string]any{
			"type":  "text",
			"input": script,
			"provider": map[string]string{
				"type":     "microsoft",
				"voice_id": c.voiceID,
			},
		},
		"config": map[string]any{
			"fluent":    true,
			"pad_audio": 0.0,
			"stitch":    true,
		},
		"source_url": fmt.Sprintf("https://create-images-results.d-id.com/DefaultPresenters/%s/image.jpeg", c.presenterID),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal talk payload: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/talks", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create talk: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", fmt.Errorf("d-id authentication failed: check API key")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("d-id error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var talk Talk
	if err := json.NewDecoder(resp.Body).Decode(&talk); err != nil {
		return "", fmt.Errorf("decode talk response: %w", err)
	}
	if talk.ID == "" {
		return "", fmt.Errorf("no talk ID returned from d-id")
	}

	return talk.ID, nil
}

// GetTalk polls the current remote state of one talk.
func (c *DIDClient) GetTalk(ctx context.Context, talkID string) (Talk, error) {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/talks/"+talkID, nil)
	if err != nil {
		return Talk{}, fmt.Errorf("get talk: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return Talk{}, fmt.Errorf("d-id status error: %s", resp.Status)
	}

	var talk Talk
	if err := json.NewDecoder(resp.Body).Decode(&talk); err != nil {
		return Talk{}, fmt.Errorf("decode talk status: %w", err)
	}
	return talk, nil
}

// WaitForVideo drives the created/started/done/error state machine with a
// fixed poll cadence and a hard ceiling. Transient poll errors are retried
// on the next tick; the ceiling guarantees termination regardless of remote
// behavior.
func (c *DIDClient) WaitForVideo(ctx context.Context, talkID string, onPoll func(domain.VideoJob)) (domain.VideoJob, error) {
	start := time.Now()
	job := domain.VideoJob{TalkID: talkID, Status: domain.VideoCreated}

	for {
		elapsed := time.Since(start)
		job.ElapsedSeconds = elapsed.Seconds()

		if elapsed >= c.timeout {
			job.Status = domain.VideoTimeout
			return job, fmt.Errorf("%w after %.0fs", ErrRenderTimeout, c.timeout.Seconds())
		}

		talk, err := c.GetTalk(ctx, talkID)
		if err != nil {
			if ctx.Err() != nil {
				return job, ctx.Err()
			}
			c.warn("poll failed, will retry", "talk_id", talkID, "error", err)
		} else {
			job.Status = domain.VideoStatus(talk.Status)
			job.ResultURL = talk.ResultURL
			if onPoll != nil {
				onPoll(job)
			}

			switch job.Status {
			case domain.VideoDone:
				if job.ResultURL == "" {
					return job, fmt.Errorf("%w: no video URL in completed response", ErrRenderFailed)
				}
				return job, nil
			case domain.VideoError:
				desc := talk.Error.Description
				if desc == "" {
					desc = "unknown error"
				}
				return job, fmt.Errorf("%w: %s", ErrRenderFailed, desc)
			default:
				c.debug("video still rendering", "talk_id", talkID, "status", talk.Status, "elapsed_s", int(elapsed.Seconds()))
			}
		}

		if err := c.wait(ctx); err != nil {
			return job, err
		}
	}
}

// DeleteTalk removes a generated video from the remote service.
func (c *DIDClient) DeleteTalk(ctx context.Context, talkID string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.baseURL+"/talks/"+talkID, nil)
	if err != nil {
		return fmt.Errorf("delete talk: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("d-id delete error: %s", resp.Status)
	}
	return nil
}

func (c *DIDClient) do(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

func (c *DIDClient) wait(ctx context.Context) error {
	timer := time.NewTimer(c.pollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *DIDClient) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *DIDClient) warn(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
