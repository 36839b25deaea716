package transcribe

import (
	"testing"
	"time"
)

func TestParseVerboseJSON(t *testing.T) {
	tests := []struct {
		name             string
		rawJSON          string
		fallbackDuration time.Duration
		wantCount        int
		wantErr          bool
	}{
		{
			name: "valid verbose_json with segments",
			rawJSON: `{
				"text": "Hello world. How are you today?",
				"segments": [
					{"start": 0.0, "end": 1.5, "text": "Hello world."},
					{"start": 1.5, "end": 3.0, "text": "How are you today?"}
				],
				"language": "en",
				"duration": 3.0
			}`,
			fallbackDuration: 5 * time.Second,
			wantCount:        2,
		},
		{
			name: "no segments but has text",
			rawJSON: `{
				"text": "This is a transcription without segments.",
				"segments": [],
				"language": "en",
				"duration": 2.5
			}`,
			fallbackDuration: 5 * time.Second,
			wantCount:        1,
		},
		{
			name: "null segments",
			rawJSON: `{
				"text": "Transcription text only.",
				"segments": null,
				"language": "en",
				"duration": 1.0
			}`,
			fallbackDuration: 5 * time.Second,
			wantCount:        1,
		},
		{
			name: "empty text segments filtered out",
			rawJSON: `{
				"text": "Hello world",
				"segments": [
					{"start": 0.0, "end": 0.5, "text": ""},
					{"start": 0.5, "end": 1.5, "text": "Hello world"},
					{"start": 1.5, "end": 2.0, "text": "   "}
				],
				"language": "en",
				"duration": 2.0
			}`,
			fallbackDuration: 5 * time.Second,
			wantCount:        1,
		},
		{
			name:             "empty response",
			rawJSON:          "",
			fallbackDuration: 5 * time.Second,
			wantErr:          true,
		},
		{
			name:             "invalid JSON",
			rawJSON:          `{"text": "incomplete`,
			fallbackDuration: 5 * time.Second,
			wantErr:          true,
		},
		{
			name: "no segments and no text",
			rawJSON: `{
				"text": "",
				"segments": [],
				"language": "en",
				"duration": 0
			}`,
			fallbackDuration: 5 * time.Second,
			wantErr:          true,
		},
		{
			name: "real whisper response format",
			rawJSON: `{
				"task": "transcribe",
				"language": "english",
				"duration": 8.470000267028809,
				"text": "The stale smell of old beer lingers. It takes heat to bring out the odor.",
				"segments": [
					{
						"id": 0,
						"seek": 0,
						"start": 0.0,
						"end": 3.319999933242798,
						"text": "The stale smell of old beer lingers.",
						"temperature": 0.0,
						"avg_logprob": -0.2860786020755768,
						"compression_ratio": 1.2363636493682861,
						"no_speech_prob": 0.009231
					},
					{
						"id": 1,
						"seek": 0,
						"start": 3.319999933242798,
						"end": 6.190000057220459,
						"text": "It takes heat to bring out the odor.",
						"temperature": 0.0,
						"avg_logprob": -0.2860786020755768,
						"compression_ratio": 1.2363636493682861,
						"no_speech_prob": 0.009231
					}
				]
			}`,
			fallbackDuration: 10 * time.Second,
			wantCount:        2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments, _, err := parseVerboseJSON(tt.rawJSON, tt.fallbackDuration)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(segments) != tt.wantCount {
				t.Errorf("got %d segments, want %d", len(segments), tt.wantCount)
			}
			for i, seg := range segments {
				if seg.Text == "" {
					t.Errorf("segment %d has empty text", i)
				}
			}
		})
	}
}

func TestParseVerboseJSONTimestamps(t *testing.T) {
	rawJSON := `{
		"text": "Hello world. Goodbye.",
		"segments": [
			{"start": 1.5, "end": 3.0, "text": "Hello world."},
			{"start": 3.0, "end": 5.5, "text": "Goodbye."}
		],
		"language": "en",
		"duration": 5.5
	}`

	segments, language, err := parseVerboseJSON(rawJSON, 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if language != "en" {
		t.Errorf("language = %q, want en", language)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}

	if segments[0].Start != 1.5 || segments[0].End != 3.0 {
		t.Errorf("segment 0 timed [%v,%v], want [1.5,3]", segments[0].Start, segments[0].End)
	}
	if segments[0].Text != "Hello world." {
		t.Errorf("segment 0 text: got %q", segments[0].Text)
	}
	if segments[1].Start != 3.0 || segments[1].End != 5.5 {
		t.Errorf("segment 1 timed [%v,%v], want [3,5.5]", segments[1].Start, segments[1].End)
	}
}

func TestParseVerboseJSONFallbackSegment(t *testing.T) {
	rawJSON := `{
		"text": "This is a transcription without segments.",
		"duration": 10.5
	}`

	segments, _, err := parseVerboseJSON(rawJSON, 15*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("expected 1 fallback segment, got %d", len(segments))
	}
	if segments[0].Start != 0 {
		t.Errorf("fallback segment start should be 0, got %v", segments[0].Start)
	}
	// duration from the response wins over the probed fallback
	if segments[0].End != 10.5 {
		t.Errorf("fallback segment end: got %v, want 10.5", segments[0].End)
	}
	if segments[0].Text != "This is a transcription without segments." {
		t.Errorf("fallback segment text incorrect: %q", segments[0].Text)
	}
}
