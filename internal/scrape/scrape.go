// Package scrape fetches YouTube video transcripts from a caption-extraction
// service.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"regexp"
	"strings"
	"time"

	"storyforge/internal/logging"
)

const defaultRetries = 5

// Client fetches transcripts, retrying when the service rate-limits.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *logging.Logger

	// sleep is swapped in tests to avoid real backoff waits
	sleep func(time.Duration)
}

func NewClient(endpoint string, logger *logging.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
		sleep:  time.Sleep,
	}
}

type transcriptRequest struct {
	VideoURL string `json:"videoUrl"`
	LangCode string `json:"langCode"`
}

type caption struct {
	Text string `json:"text"`
}

type transcriptResponse struct {
	Captions []caption `json:"captions"`
}

// FetchTranscript retrieves a video's captions joined into one text. Rate
// limits back off min(60, 5*attempt) seconds plus up to 3s of jitter; any
// other non-2xx status fails immediately.
func (c *Client) FetchTranscript(ctx context.Context, videoURL, langCode string) (string, error) {
	if langCode == "" {
		langCode = "en"
	}

	body, err := json.Marshal(transcriptRequest{VideoURL: videoURL, LangCode: langCode})
	if err != nil {
		return "", fmt.Errorf("encode transcript request: %w", err)
	}

	for attempt := 1; attempt <= defaultRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, retryable, err := c.fetchOnce(ctx, body)
		if err == nil {
			return text, nil
		}
		if !retryable || attempt == defaultRetries {
			return "", err
		}

		wait := time.Duration(min(60, 5*attempt))*time.Second +
			time.Duration(rand.Float64()*3*float64(time.Second))
		c.logger.Infow("transcript service rate limited, backing off",
			"attempt", attempt, "wait", wait)
		c.sleep(wait)
	}
	return "", fmt.Errorf("transcript fetch failed after %d attempts", defaultRetries)
}

func (c *Client) fetchOnce(ctx context.Context, body []byte) (text string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("build transcript request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("transcript request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", true, fmt.Errorf("transcript service rate limited")
	default:
		return "", false, fmt.Errorf("transcript service returned %s", resp.Status)
	}

	var parsed transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", false, fmt.Errorf("parse transcript response: %w", err)
	}
	if len(parsed.Captions) == 0 {
		return "", false, fmt.Errorf("no captions in transcript response")
	}

	parts := make([]string, 0, len(parsed.Captions))
	for _, line := range parsed.Captions {
		parts = append(parts, line.Text)
	}
	joined := strings.TrimSpace(strings.Join(parts, " "))
	if joined == "" {
		return "", false, fmt.Errorf("transcript is empty")
	}
	return joined, false, nil
}

var (
	forbiddenChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	repeatedSpace  = regexp.MustCompile(`\s+`)
)

// SanitizeFilename strips characters that are invalid in file names,
// collapses whitespace, and caps the length.
func SanitizeFilename(name string) string {
	name = forbiddenChars.ReplaceAllString(name, "")
	name = repeatedSpace.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	if len(name) > 200 {
		name = name[:200]
	}
	return name
}
