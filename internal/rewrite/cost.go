package rewrite

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// per-million-token pricing with the 200k long-context boundary
const (
	tierBoundaryTokens = 200_000

	inputPriceBelow  = 1.50
	inputPriceAbove  = 3.00
	outputPriceBelow = 7.50
	outputPriceAbove = 11.25
)

// Cost is the dollar breakdown of one usage figure.
type Cost struct {
	Input  float64
	Output float64
	Total  float64
}

// CalculateCost prices token usage. Requests at or below the 200k boundary
// bill at the base rate; above it the long-context rate applies to the whole
// count.
func CalculateCost(usage Usage) Cost {
	inputPrice := inputPriceBelow
	if usage.InputTokens > tierBoundaryTokens {
		inputPrice = inputPriceAbove
	}
	outputPrice := outputPriceBelow
	if usage.OutputTokens > tierBoundaryTokens {
		outputPrice = outputPriceAbove
	}

	c := Cost{
		Input:  float64(usage.InputTokens) / 1_000_000 * inputPrice,
		Output: float64(usage.OutputTokens) / 1_000_000 * outputPrice,
	}
	c.Total = c.Input + c.Output
	return c
}

// StoryRecord ties one story's identity to its token usage in a saved batch.
type StoryRecord struct {
	CustomID   string `json:"custom_id"`
	Channel    string `json:"channel_name"`
	FolderName string `json:"folder_name"`
	FolderPath string `json:"folder_path"`
	VideoTitle string `json:"video_title"`
}

// TokenRecord is the persisted usage for one story.
type TokenRecord struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// BatchState is the on-disk record of a rewrite batch, written after
// submission and updated on completion so a crashed run can be resumed and
// costed later.
type BatchState struct {
	BatchID             string                 `json:"batch_id"`
	SubmissionTimestamp string                 `json:"submission_timestamp"`
	ProcessingStatus    string                 `json:"processing_status"`
	CompletionTimestamp string                 `json:"completion_timestamp,omitempty"`
	Stories             []StoryRecord          `json:"stories_metadata"`
	TokenTracking       map[string]TokenRecord `json:"token_tracking"`
}

// NewBatchState records a freshly submitted batch.
func NewBatchState(batchID string, stories []Story) *BatchState {
	state := &BatchState{
		BatchID:             batchID,
		SubmissionTimestamp: time.Now().Format(time.RFC3339),
		ProcessingStatus:    "processing",
		TokenTracking:       map[string]TokenRecord{},
	}
	for _, s := range stories {
		state.Stories = append(state.Stories, StoryRecord{
			CustomID:   fmt.Sprintf("story_%d_combined", s.Index),
			Channel:    s.Channel,
			FolderName: s.FolderName,
			FolderPath: s.FolderPath,
			VideoTitle: s.VideoTitle,
		})
	}
	return state
}

// Complete records per-story usage and marks the batch finished.
func (s *BatchState) Complete(results []*Result) {
	s.ProcessingStatus = "completed"
	s.CompletionTimestamp = time.Now().Format(time.RFC3339)
	for _, r := range results {
		s.TokenTracking[fmt.Sprintf("story_%d_combined", r.Index)] = TokenRecord{
			InputTokens:  r.Usage.InputTokens,
			OutputTokens: r.Usage.OutputTokens,
		}
	}
}

// Save writes the state as indented JSON.
func (s *BatchState) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal batch state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save batch state: %w", err)
	}
	return nil
}

// LoadBatchState reads a previously saved state.
func LoadBatchState(path string) (*BatchState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load batch state: %w", err)
	}
	var state BatchState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse batch state: %w", err)
	}
	return &state, nil
}

// CostReport renders a human-readable summary of the batch's token usage and
// estimated spend.
func (s *BatchState) CostReport() string {
	var totalIn, totalOut int64
	for _, rec := range s.TokenTracking {
		totalIn += rec.InputTokens
		totalOut += rec.OutputTokens
	}
	total := CalculateCost(Usage{InputTokens: totalIn, OutputTokens: totalOut})

	divider := strings.Repeat("=", 60)
	rule := strings.Repeat("-", 60)

	var sb strings.Builder
	sb.WriteString(divider + "\n")
	sb.WriteString("REWRITE BATCH - COST REPORT\n")
	sb.WriteString(divider + "\n")
	fmt.Fprintf(&sb, "Batch ID: %s\n", s.BatchID)
	fmt.Fprintf(&sb, "Submission Time: %s\n", s.SubmissionTimestamp)
	fmt.Fprintf(&sb, "Completion Time: %s\n", s.CompletionTimestamp)
	fmt.Fprintf(&sb, "Status: %s\n", s.ProcessingStatus)
	sb.WriteString(rule + "\n")
	sb.WriteString("TOTAL STATISTICS:\n")
	fmt.Fprintf(&sb, "  - Total Requests: %d\n", len(s.TokenTracking))
	fmt.Fprintf(&sb, "  - Total Input Tokens: %d\n", totalIn)
	fmt.Fprintf(&sb, "  - Total Output Tokens: %d\n", totalOut)
	sb.WriteString(rule + "\n")
	sb.WriteString("PER-STORY BREAKDOWN:\n\n")

	ids := make([]string, 0, len(s.TokenTracking))
	for id := range s.TokenTracking {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		rec := s.TokenTracking[id]
		cost := CalculateCost(Usage(rec))
		fmt.Fprintf(&sb, "Story: %s\n", id)
		fmt.Fprintf(&sb, "  - Input Tokens: %d\n", rec.InputTokens)
		fmt.Fprintf(&sb, "  - Output Tokens: %d\n", rec.OutputTokens)
		fmt.Fprintf(&sb, "  - Estimated Cost: $%.4f\n\n", cost.Total)
	}

	sb.WriteString(rule + "\n")
	sb.WriteString("COST BREAKDOWN:\n")
	fmt.Fprintf(&sb, "  - Input Cost: $%.4f\n", total.Input)
	fmt.Fprintf(&sb, "  - Output Cost: $%.4f\n", total.Output)
	fmt.Fprintf(&sb, "  - TOTAL COST: $%.4f\n", total.Total)
	sb.WriteString(divider + "\n")
	return sb.String()
}
