package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"storyforge/internal/project"
	"storyforge/internal/rewrite"
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite [project_path]",
	Short: "Rewrite scraped transcripts into new stories",
	Long: `Rewrite every scraped transcript that has not been rewritten yet.

Each transcript is sent to the configured LLM provider, which produces a
rewritten story plus publishing metadata (title, thumbnail text, hook,
description, tags). Results land in the project's Rewritten/ folders and a
batch_state.json records token usage for cost reporting.

Examples:
  storyforge rewrite ./Projects/MyProject
  storyforge rewrite ./Projects/MyProject --provider gemini --language French
  storyforge rewrite ./Projects/MyProject --limit 5 --concurrency 2`,
	Args: cobra.ExactArgs(1),
	RunE: runRewrite,
}

func init() {
	rootCmd.AddCommand(rewriteCmd)

	rewriteCmd.Flags().String("provider", "", "LLM provider: anthropic or gemini")
	rewriteCmd.Flags().String("model", "", "Model override for the provider")
	rewriteCmd.Flags().String("language", "", "Target language for the rewritten story")
	rewriteCmd.Flags().StringP("api-key", "k", "", "Provider API key (or ANTHROPIC_API_KEY / GEMINI_API_KEY)")
	rewriteCmd.Flags().Int("limit", 0, "Rewrite at most this many transcripts (0 = all)")
	rewriteCmd.Flags().Int("concurrency", 3, "Concurrent rewrite requests")
	rewriteCmd.Flags().Bool("force", false, "Rewrite transcripts that already have a story")
}

func runRewrite(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	projectPath := args[0]

	providerStr, _ := cmd.Flags().GetString("provider")
	if providerStr == "" {
		providerStr = cfg.RewriteProvider
	}
	provider := rewrite.Provider(providerStr)

	apiKey, _ := cmd.Flags().GetString("api-key")
	if apiKey == "" {
		switch provider {
		case rewrite.ProviderAnthropic:
			apiKey = cfg.APIKey(cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
		case rewrite.ProviderGemini:
			apiKey = cfg.APIKey(cfg.GeminiAPIKey, "GEMINI_API_KEY")
		}
	}
	if apiKey == "" {
		return fmt.Errorf("API key for provider %s is required", provider)
	}

	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = cfg.RewriteModel
	}
	language, _ := cmd.Flags().GetString("language")
	if language == "" {
		language = cfg.TargetLanguage
	}

	rewriter, err := rewrite.Factory(ctx, provider, apiKey, rewrite.Options{
		Model:          model,
		TargetLanguage: language,
	})
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	limit, _ := cmd.Flags().GetInt("limit")
	stories, err := collectPending(projectPath, force, limit)
	if err != nil {
		return err
	}
	if len(stories) == 0 {
		logger.Infow("no transcripts waiting for rewrite", "project", projectPath)
		return nil
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	logger.Infow("rewriting transcripts",
		"count", len(stories), "provider", string(provider), "language", language)

	results, err := rewrite.RewriteAll(ctx, rewriter, stories, concurrency)
	if err != nil {
		return err
	}

	byIndex := make(map[int]rewrite.Story, len(stories))
	for _, s := range stories {
		byIndex[s.Index] = s
	}
	for _, res := range results {
		story := byIndex[res.Index]
		dir, err := project.StoryDir(projectPath, story.Channel, story.Index)
		if err != nil {
			return err
		}
		meta := project.StoryMetadata{
			Title:       res.Metadata.Title,
			Thumbnail:   res.Metadata.Thumbnail,
			Hook:        res.Metadata.Hook,
			Description: res.Metadata.Description,
			Tags:        res.Metadata.Tags,
		}
		if err := project.SaveStory(dir, res.Story, meta); err != nil {
			return fmt.Errorf("save story %d: %w", story.Index, err)
		}
		logger.Infow("story rewritten",
			"index", story.Index, "title", res.Metadata.Title,
			"input_tokens", res.Usage.InputTokens, "output_tokens", res.Usage.OutputTokens)
	}

	state := rewrite.NewBatchState(uuid.NewString(), stories)
	state.Complete(results)
	if err := state.Save(filepath.Join(projectPath, "batch_state.json")); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), state.CostReport())
	return nil
}

// collectPending turns un-rewritten transcripts into rewrite inputs,
// numbered after the highest existing story folder.
func collectPending(projectPath string, force bool, limit int) ([]rewrite.Story, error) {
	entries, err := project.ScanTranscripts(projectPath)
	if err != nil {
		return nil, fmt.Errorf("scan transcripts: %w", err)
	}
	existing, err := project.ScanStories(projectPath)
	if err != nil {
		return nil, fmt.Errorf("scan stories: %w", err)
	}
	next := 1
	for _, s := range existing {
		if s.Number >= next {
			next = s.Number + 1
		}
	}

	var stories []rewrite.Story
	for _, entry := range entries {
		if entry.AlreadyRewritten && !force {
			continue
		}
		text, err := os.ReadFile(entry.Path)
		if err != nil {
			return nil, fmt.Errorf("read transcript %s: %w", entry.Folder, err)
		}
		stories = append(stories, rewrite.Story{
			Index:      next,
			Channel:    entry.Channel,
			FolderName: entry.Folder,
			FolderPath: filepath.Dir(entry.Path),
			VideoTitle: entry.Title,
			Transcript: string(text),
		})
		next++
		if limit > 0 && len(stories) == limit {
			break
		}
	}
	return stories, nil
}
