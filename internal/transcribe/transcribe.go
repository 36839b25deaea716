// Package transcribe turns narration audio into timestamped transcript
// segments via an external speech-to-text service.
package transcribe

import (
	"context"
	"fmt"
	"time"

	"storyforge/internal/caption"
)

// Result is one transcription pass over a narration track.
type Result struct {
	Segments []caption.Segment
	Language string
	Duration time.Duration
}

// Transcriber produces timestamped transcript segments for an audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}

// Options tune the transcription request.
type Options struct {
	Language string // source language hint, empty for auto-detect
	Model    string
	Prompt   string
}

// Provider names a transcription backend.
type Provider string

const ProviderWhisper Provider = "whisper"

// Factory builds a transcriber for the given provider.
func Factory(provider Provider, apiKey string, opts Options) (Transcriber, error) {
	switch provider {
	case ProviderWhisper:
		return NewWhisperTranscriber(apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
