// Package tts synthesizes narration audio through a Kokoro-compatible
// speech endpoint.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"storyforge/internal/audio"
)

// DefaultVoice is used when no voice is configured.
const DefaultVoice = "af_sky"

// synthesis of a long story can take minutes
const requestTimeout = 300 * time.Second

// Client talks to a Kokoro TTS server.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// Synthesize renders text as an mp3 at outputPath.
func (c *Client) Synthesize(ctx context.Context, text, voice, outputPath string) error {
	if voice == "" {
		voice = DefaultVoice
	}

	body, err := json.Marshal(speechRequest{
		Model:          "kokoro",
		Input:          text,
		Voice:          voice,
		ResponseFormat: "mp3",
		Speed:          1.0,
	})
	if err != nil {
		return fmt.Errorf("encode tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tts server returned %s: %s", resp.Status, detail)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(outputPath)
		return fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close audio file: %w", err)
	}
	return nil
}

// SynthesizeNormalized synthesizes and then re-encodes the result to the
// standard narration format so downstream probing and muxing see consistent
// input.
func (c *Client) SynthesizeNormalized(ctx context.Context, text, voice, outputPath string) error {
	raw := outputPath + ".raw.mp3"
	if err := c.Synthesize(ctx, text, voice, raw); err != nil {
		return err
	}
	defer os.Remove(raw)

	opts := audio.DownsampleOptions{
		SampleRate: 44100,
		Channels:   2,
		Bitrate:    "192k",
	}
	if err := audio.Downsample(ctx, raw, outputPath, opts); err != nil {
		return fmt.Errorf("normalize narration: %w", err)
	}
	return nil
}
