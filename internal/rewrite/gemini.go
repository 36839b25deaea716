package rewrite

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiRewriter implements Rewriter using Google Gemini.
type GeminiRewriter struct {
	client  *genai.Client
	model   string
	options Options
}

func NewGeminiRewriter(ctx context.Context, apiKey string, opts Options) (*GeminiRewriter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiRewriter{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (r *GeminiRewriter) Rewrite(ctx context.Context, story Story) (*Result, error) {
	prompt := BuildPrompt(r.options, story.Transcript)

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := r.client.Models.GenerateContent(ctx, r.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("rewrite failed: %w", err)
	}
	if result == nil || len(result.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	var responseText string
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				responseText += part.Text
			}
		}
		if responseText != "" {
			break
		}
	}
	if responseText == "" {
		return nil, fmt.Errorf("no text in Gemini response")
	}

	text, meta, err := ParseResponse(responseText)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to parse response: %w (response: %s)",
			err, truncateString(responseText, 200),
		)
	}

	res := &Result{
		Index:    story.Index,
		Story:    text,
		Metadata: meta,
	}
	if result.UsageMetadata != nil {
		res.Usage = Usage{
			InputTokens:  int64(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(result.UsageMetadata.CandidatesTokenCount),
		}
	}
	return res, nil
}
