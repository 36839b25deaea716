package rewrite

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens = 64000

// AnthropicRewriter implements Rewriter using Anthropic Claude.
type AnthropicRewriter struct {
	client  anthropic.Client
	model   anthropic.Model
	options Options
}

func NewAnthropicRewriter(apiKey string, opts Options) (*AnthropicRewriter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	model := anthropic.Model(opts.Model)
	if opts.Model == "" {
		model = anthropic.ModelClaudeSonnet4_0
	}

	return &AnthropicRewriter{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		options: opts,
	}, nil
}

func (r *AnthropicRewriter) maxTokens() int64 {
	if r.options.MaxTokens > 0 {
		return r.options.MaxTokens
	}
	return defaultMaxTokens
}

// Rewrite sends one transcript and parses the marker envelope out of the
// response.
func (r *AnthropicRewriter) Rewrite(ctx context.Context, story Story) (*Result, error) {
	prompt := BuildPrompt(r.options, story.Transcript)

	message, err := r.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     r.model,
		MaxTokens: r.maxTokens(),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("rewrite failed: %w", err)
	}
	if message == nil || len(message.Content) == 0 {
		return nil, fmt.Errorf("empty response from Anthropic")
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}
	if responseText == "" {
		return nil, fmt.Errorf("no text in Anthropic response")
	}

	text, meta, err := ParseResponse(responseText)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to parse response: %w (response: %s)",
			err, truncateString(responseText, 200),
		)
	}

	return &Result{
		Index:    story.Index,
		Story:    text,
		Metadata: meta,
		Usage: Usage{
			InputTokens:  message.Usage.InputTokens,
			OutputTokens: message.Usage.OutputTokens,
		},
	}, nil
}

// RewriteAll processes stories with a bounded worker pool, preserving input
// order in the returned slice. The first failure cancels remaining work.
func RewriteAll(ctx context.Context, r Rewriter, stories []Story, concurrency int) ([]*Result, error) {
	if len(stories) == 0 {
		return nil, nil
	}
	if concurrency <= 0 {
		concurrency = 3
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type storyResult struct {
		Index  int
		Result *Result
		Error  error
	}

	workChan := make(chan int)
	resultChan := make(chan storyResult, len(stories))

	var wg sync.WaitGroup
	for i := 0; i < concurrency && i < len(stories); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case idx, ok := <-workChan:
					if !ok {
						return
					}
					res, err := r.Rewrite(ctx, stories[idx])
					if err != nil {
						cancel()
					}
					resultChan <- storyResult{Index: idx, Result: res, Error: err}
				}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for i := range stories {
			select {
			case <-ctx.Done():
				return
			case workChan <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	collected := make([]storyResult, 0, len(stories))
	var firstErr error
	for res := range resultChan {
		if res.Error != nil && firstErr == nil {
			firstErr = fmt.Errorf("story %d failed: %w", res.Index, res.Error)
			cancel()
		}
		if res.Error == nil {
			collected = append(collected, res)
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].Index < collected[j].Index
	})

	results := make([]*Result, 0, len(collected))
	for _, c := range collected {
		results = append(results, c.Result)
	}
	return results, nil
}
