package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"storyforge/internal/audio"
	"storyforge/internal/caption"
)

// WhisperTranscriber implements Transcriber against the OpenAI Audio API.
type WhisperTranscriber struct {
	client  openai.Client
	model   string
	options Options
}

// segment from the verbose_json response
type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type whisperVerboseResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
}

func NewWhisperTranscriber(apiKey string, opts Options) (*WhisperTranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	model := opts.Model
	if model == "" {
		model = "whisper-1"
	}
	return &WhisperTranscriber{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		options: opts,
	}, nil
}

// Transcribe sends one audio file and parses the timestamped response.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	duration, _ := audio.GetDuration(audioPath)

	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(t.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	}
	if t.options.Language != "" {
		params.Language = openai.String(t.options.Language)
	}
	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	segments, language, err := parseVerboseJSON(resp.RawJSON(), duration)
	if err != nil {
		// fall back to one untimed segment spanning the whole track
		segments = []caption.Segment{{
			Start: 0,
			End:   duration.Seconds(),
			Text:  strings.TrimSpace(resp.Text),
		}}
		language = t.options.Language
	}

	return &Result{
		Segments: segments,
		Language: language,
		Duration: duration,
	}, nil
}

func parseVerboseJSON(rawJSON string, fallbackDuration time.Duration) ([]caption.Segment, string, error) {
	if rawJSON == "" {
		return nil, "", fmt.Errorf("empty response")
	}

	var resp whisperVerboseResponse
	if err := json.Unmarshal([]byte(rawJSON), &resp); err != nil {
		return nil, "", fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	if len(resp.Segments) == 0 {
		if resp.Text == "" {
			return nil, "", fmt.Errorf("no segments or text in response")
		}
		dur := fallbackDuration.Seconds()
		if resp.Duration > 0 {
			dur = resp.Duration
		}
		return []caption.Segment{{Start: 0, End: dur, Text: strings.TrimSpace(resp.Text)}}, resp.Language, nil
	}

	segments := make([]caption.Segment, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		segments = append(segments, caption.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  text,
		})
	}
	return segments, resp.Language, nil
}
