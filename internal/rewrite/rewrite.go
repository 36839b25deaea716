// Package rewrite turns scraped transcripts into narrator-ready stories plus
// YouTube metadata via an LLM, tracking token usage for cost reporting.
package rewrite

import (
	"context"
	"fmt"
	"strings"
)

// Story is one transcript queued for rewriting.
type Story struct {
	Index      int
	Channel    string
	FolderName string
	FolderPath string
	VideoTitle string
	Transcript string
}

// Metadata is the YouTube packaging the model produces alongside the story.
type Metadata struct {
	Title       string
	Thumbnail   string
	Hook        string
	Description string
	Tags        string
}

// Usage is the token consumption of one request.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Result is one completed rewrite.
type Result struct {
	Index    int
	Story    string
	Metadata Metadata
	Usage    Usage
}

// Rewriter produces a rewritten story with metadata from a transcript.
type Rewriter interface {
	Rewrite(ctx context.Context, story Story) (*Result, error)
}

// Provider names a rewrite backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// Options tune the rewrite request.
type Options struct {
	Model          string
	TargetLanguage string // language for the rewritten story, default Spanish
	MaxTokens      int64
	Prompt         string // extra instructions appended to the stock prompt
}

// Factory builds a rewriter for the given provider.
func Factory(ctx context.Context, provider Provider, apiKey string, opts Options) (Rewriter, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicRewriter(apiKey, opts)
	case ProviderGemini:
		return NewGeminiRewriter(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported rewrite provider: %s", provider)
	}
}

// response envelope markers
const (
	markerStory    = "===REWRITTEN_STORY==="
	markerMetadata = "===METADATA==="
	markerEnd      = "===END==="
)

// BuildPrompt assembles the two-task instruction: rewrite the story in the
// target language, then produce YouTube metadata, structured inside a fixed
// marker envelope so the response parses deterministically.
func BuildPrompt(opts Options, transcript string) string {
	lang := opts.TargetLanguage
	if lang == "" {
		lang = "Spanish"
	}

	var sb strings.Builder
	sb.WriteString("You have TWO tasks to complete for this story:\n\n")
	sb.WriteString("TASK 1 - REWRITE THE STORY:\n\n")
	sb.WriteString("Create a narrator-ready version of this story with approximately the same length as the original.\n\n")
	sb.WriteString("PROCESS:\n")
	sb.WriteString("1. Read and understand the full story arc first.\n")
	sb.WriteString("2. If the story is vague, unclear, or lacks a proper ending, expand it based on its core theme: add context, character development, emotional depth, and a satisfying conclusion while keeping the original theme.\n")
	sb.WriteString("3. Rewrite using different words while preserving the number of major scenes, the paragraph structure, and the emotional pacing.\n")
	sb.WriteString(fmt.Sprintf("4. Replace all character names with new %s names, rephrase all dialogue naturally, and reword descriptions at similar length.\n", lang))
	sb.WriteString("5. Style: third-person storyteller voice, paragraph format, no headings or breaks.\n\n")
	sb.WriteString("TARGET: match the original length within 5%.\n\n")
	sb.WriteString(fmt.Sprintf("LANGUAGE: %s\n\n", lang))

	sb.WriteString("TASK 2 - CREATE YOUTUBE METADATA:\n")
	sb.WriteString("You are an expert YouTube content strategist. Based on this story, create:\n")
	sb.WriteString("1. A viral YouTube title (max 100 characters) that grabs attention and fits the story's main theme.\n")
	sb.WriteString("2. A short thumbnail text (max 400 characters), bold and emotional, aligned with the story's twist.\n")
	sb.WriteString("3. A short hook (3 to 4 words) that sounds like a shocking moment or emotional twist from the story.\n")
	sb.WriteString("4. A 2-3 line YouTube description summarizing the story in an emotional tone.\n")
	sb.WriteString("5. A list of 10 relevant comma-separated tags fitting the story's themes.\n")
	sb.WriteString(fmt.Sprintf("Keep all metadata in the same language as the story (%s). Use emotional triggers, avoid clickbait.\n\n", lang))

	if opts.Prompt != "" {
		sb.WriteString(fmt.Sprintf("Additional instructions: %s\n\n", opts.Prompt))
	}

	sb.WriteString("OUTPUT FORMAT:\n\nStructure your response EXACTLY like this:\n\n")
	sb.WriteString(markerStory + "\n\n[Your complete rewritten story here in paragraphs]\n\n")
	sb.WriteString(markerMetadata + "\n\n")
	sb.WriteString("TITLE: [your title]\n\n")
	sb.WriteString("THUMBNAIL: [your thumbnail text]\n\n")
	sb.WriteString("HOOK: [your hook text]\n\n")
	sb.WriteString("DESCRIPTION: [your description]\n\n")
	sb.WriteString("TAGS: [comma-separated list of relevant tags, max 10]\n\n")
	sb.WriteString(markerEnd)

	sb.WriteString("\n\nHere is the story:\n\n")
	sb.WriteString(transcript)
	return sb.String()
}

// ParseResponse splits the marker envelope into the story body and metadata.
// Metadata values may span multiple lines; a value runs until the next field
// label or the end marker.
func ParseResponse(responseText string) (string, Metadata, error) {
	var meta Metadata

	_, after, found := strings.Cut(responseText, markerStory)
	if !found {
		return "", meta, fmt.Errorf("response missing %s marker", markerStory)
	}
	story, metaPart, found := strings.Cut(after, markerMetadata)
	if !found {
		return "", meta, fmt.Errorf("response missing %s marker", markerMetadata)
	}
	story = strings.TrimSpace(story)
	if story == "" {
		return "", meta, fmt.Errorf("response contains no story text")
	}

	metaPart, _, _ = strings.Cut(metaPart, markerEnd)

	fields := map[string]*string{
		"TITLE:":       &meta.Title,
		"THUMBNAIL:":   &meta.Thumbnail,
		"HOOK:":        &meta.Hook,
		"DESCRIPTION:": &meta.Description,
		"TAGS:":        &meta.Tags,
	}

	var current *string
	var value []string
	flush := func() {
		if current != nil && len(value) > 0 {
			*current = strings.TrimSpace(strings.Join(value, " "))
		}
	}

	for _, line := range strings.Split(metaPart, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		matched := false
		for label, dest := range fields {
			if strings.HasPrefix(line, label) {
				flush()
				current = dest
				value = []string{strings.TrimSpace(strings.TrimPrefix(line, label))}
				matched = true
				break
			}
		}
		if !matched && current != nil {
			value = append(value, line)
		}
	}
	flush()

	return story, meta, nil
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
