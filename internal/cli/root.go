package cli

import (
	"storyforge/internal/config"
	"storyforge/internal/logging"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string

	logger *logging.Logger
	cfg    config.Config
)

var rootCmd = &cobra.Command{
	Use:   "storyforge",
	Short: "GPU-accelerated story video pipeline",
	Long: `Storyforge turns scraped YouTube transcripts into finished story
videos: rewrite via an LLM, synthesize narration, and assemble the final
video with NVENC encoding, karaoke captions, and green-screen overlays.

A project is a directory of channel folders, each holding transcripts/
and Rewritten/ story folders that the subcommands move content through.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		var err error
		cfg, err = config.Load(configPath)
		return err
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "storyforge.yaml", "Path to config file")
}
