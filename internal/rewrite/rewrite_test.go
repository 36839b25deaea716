package rewrite

import (
	"math"
	"path/filepath"
	"strings"
	"testing"
)

const sampleResponse = `===REWRITTEN_STORY===

Elena nunca imaginó que aquella carta cambiaría su vida.

Durante años guardó el secreto en silencio.

===METADATA===

TITLE: El Secreto Que Cambió Todo

THUMBNAIL: Ella guardó un secreto durante 20 años...
hasta que llegó esta carta

HOOK: SE QUEDÓ EN SHOCK.

DESCRIPTION: Una historia de secretos y redención.
Mírala hasta el final.

TAGS: historia, secreto, familia, drama, emociones

===END===`

func TestParseResponse(t *testing.T) {
	story, meta, err := ParseResponse(sampleResponse)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(story, "Elena nunca imaginó") {
		t.Errorf("story start wrong: %q", story[:40])
	}
	if !strings.HasSuffix(story, "en silencio.") {
		t.Errorf("story end wrong: %q", story)
	}
	if meta.Title != "El Secreto Que Cambió Todo" {
		t.Errorf("title = %q", meta.Title)
	}
	// multi-line values join with a space
	if meta.Thumbnail != "Ella guardó un secreto durante 20 años... hasta que llegó esta carta" {
		t.Errorf("thumbnail = %q", meta.Thumbnail)
	}
	if meta.Hook != "SE QUEDÓ EN SHOCK." {
		t.Errorf("hook = %q", meta.Hook)
	}
	if meta.Description != "Una historia de secretos y redención. Mírala hasta el final." {
		t.Errorf("description = %q", meta.Description)
	}
	if meta.Tags != "historia, secreto, familia, drama, emociones" {
		t.Errorf("tags = %q", meta.Tags)
	}
}

func TestParseResponseMissingMarkers(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no story marker", "just some text"},
		{"no metadata marker", "===REWRITTEN_STORY===\n\nstory text without metadata"},
		{"empty story", "===REWRITTEN_STORY===\n\n===METADATA===\nTITLE: x\n===END==="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseResponse(tt.text); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseResponseWithoutEndMarker(t *testing.T) {
	text := "===REWRITTEN_STORY===\nstory\n===METADATA===\nTITLE: Sin Cierre\nTAGS: a, b"
	story, meta, err := ParseResponse(text)
	if err != nil {
		t.Fatal(err)
	}
	if story != "story" || meta.Title != "Sin Cierre" || meta.Tags != "a, b" {
		t.Errorf("story=%q meta=%+v", story, meta)
	}
}

func TestBuildPromptEnvelope(t *testing.T) {
	prompt := BuildPrompt(Options{}, "once upon a time")
	for _, want := range []string{
		markerStory, markerMetadata, markerEnd,
		"TITLE:", "THUMBNAIL:", "HOOK:", "DESCRIPTION:", "TAGS:",
		"Spanish",
		"once upon a time",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	prompt = BuildPrompt(Options{TargetLanguage: "French"}, "x")
	if !strings.Contains(prompt, "French") || strings.Contains(prompt, "Spanish") {
		t.Error("target language not substituted")
	}
}

func TestCalculateCost(t *testing.T) {
	tests := []struct {
		name  string
		usage Usage
		want  float64
	}{
		{"below boundary", Usage{InputTokens: 100_000, OutputTokens: 50_000}, 0.1*1.50 + 0.05*7.50},
		{"at boundary stays base rate", Usage{InputTokens: 200_000, OutputTokens: 200_000}, 0.2*1.50 + 0.2*7.50},
		{"above boundary", Usage{InputTokens: 300_000, OutputTokens: 250_000}, 0.3*3.00 + 0.25*11.25},
		{"zero", Usage{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateCost(tt.usage)
			if math.Abs(got.Total-tt.want) > 1e-9 {
				t.Errorf("total = %v, want %v", got.Total, tt.want)
			}
			if math.Abs(got.Total-(got.Input+got.Output)) > 1e-12 {
				t.Errorf("total %v != input %v + output %v", got.Total, got.Input, got.Output)
			}
		})
	}
}

func TestBatchStateRoundTrip(t *testing.T) {
	stories := []Story{
		{Index: 0, Channel: "relatos", FolderName: "1", FolderPath: "/p/1", VideoTitle: "Story 1"},
		{Index: 1, Channel: "relatos", FolderName: "2", FolderPath: "/p/2", VideoTitle: "Story 2"},
	}
	state := NewBatchState("batch-abc", stories)
	state.Complete([]*Result{
		{Index: 0, Usage: Usage{InputTokens: 1000, OutputTokens: 2000}},
		{Index: 1, Usage: Usage{InputTokens: 3000, OutputTokens: 4000}},
	})

	path := filepath.Join(t.TempDir(), "batch_state.json")
	if err := state.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadBatchState(path)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.BatchID != "batch-abc" || loaded.ProcessingStatus != "completed" {
		t.Errorf("loaded state = %+v", loaded)
	}
	if len(loaded.Stories) != 2 || loaded.Stories[1].CustomID != "story_1_combined" {
		t.Errorf("stories = %+v", loaded.Stories)
	}
	rec := loaded.TokenTracking["story_0_combined"]
	if rec.InputTokens != 1000 || rec.OutputTokens != 2000 {
		t.Errorf("token record = %+v", rec)
	}

	report := loaded.CostReport()
	for _, want := range []string{
		"Batch ID: batch-abc",
		"Total Input Tokens: 4000",
		"Total Output Tokens: 6000",
		"TOTAL COST:",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}
}
