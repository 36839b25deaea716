package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"storyforge/internal/project"
	"storyforge/internal/tts"
)

var speakCmd = &cobra.Command{
	Use:   "speak [project_path]",
	Short: "Narrate rewritten stories with the TTS service",
	Long: `Generate narration audio for every rewritten story that does not have
one yet. Each story.txt is sent to the kokoro TTS endpoint and the returned
speech is normalized to a standard stereo mp3 next to the story.

Examples:
  storyforge speak ./Projects/MyProject
  storyforge speak ./Projects/MyProject --voice af_bella`,
	Args: cobra.ExactArgs(1),
	RunE: runSpeak,
}

func init() {
	rootCmd.AddCommand(speakCmd)

	speakCmd.Flags().String("voice", "", "TTS voice name")
	speakCmd.Flags().Bool("force", false, "Re-narrate stories that already have audio")
}

func runSpeak(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	projectPath := args[0]

	voice, _ := cmd.Flags().GetString("voice")
	if voice == "" {
		voice = cfg.Voice
	}
	force, _ := cmd.Flags().GetBool("force")

	stories, err := project.ScanStories(projectPath)
	if err != nil {
		return fmt.Errorf("scan project: %w", err)
	}

	client := tts.NewClient(cfg.TTSEndpoint)
	var narrated, skipped, failed int
	for _, story := range stories {
		if story.HasAudio && !force {
			skipped++
			continue
		}
		text, err := os.ReadFile(story.TextPath)
		if err != nil {
			return fmt.Errorf("read story %d: %w", story.Number, err)
		}
		logger.Infow("narrating story", "index", story.Number, "voice", voice, "chars", len(text))
		outputPath := filepath.Join(story.Dir, project.AudioFileName(story.Number))
		if err := client.SynthesizeNormalized(ctx, string(text), voice, outputPath); err != nil {
			logger.Errorw("narration failed", "index", story.Number, "err", err)
			failed++
			continue
		}
		narrated++
	}

	logger.Infow("narration finished", "narrated", narrated, "skipped", skipped, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d narrations failed", failed, narrated+failed)
	}
	return nil
}
