package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"storyforge/internal/project"
	"storyforge/internal/scrape"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [project_path] [url...]",
	Short: "Scrape video transcripts into a project channel",
	Long: `Fetch transcripts for the given video URLs from the transcript service
and save them under the channel's transcripts/ folder, one numbered folder
per video. URLs can be passed as arguments or read from a file with one URL
per line.

Examples:
  storyforge scrape ./Projects/MyProject --channel Stories https://youtube.com/watch?v=abc
  storyforge scrape ./Projects/MyProject --channel Stories --file urls.txt --lang es`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().String("channel", "", "Channel name inside the project (required)")
	scrapeCmd.Flags().String("file", "", "File with one video URL per line")
	scrapeCmd.Flags().String("lang", "en", "Transcript language code")
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	projectPath := args[0]

	channel, _ := cmd.Flags().GetString("channel")
	if channel == "" {
		return fmt.Errorf("--channel is required")
	}
	lang, _ := cmd.Flags().GetString("lang")

	urls := args[1:]
	if urlFile, _ := cmd.Flags().GetString("file"); urlFile != "" {
		fromFile, err := readURLFile(urlFile)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no video URLs given: pass them as arguments or with --file")
	}

	if _, err := project.CreateChannelStructure(projectPath, channel); err != nil {
		return err
	}
	existing, err := project.ScanTranscripts(projectPath)
	if err != nil {
		return fmt.Errorf("scan transcripts: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	next := 1
	for _, entry := range existing {
		seen[entry.URL] = true
		if entry.Channel == channel {
			next++
		}
	}

	client := scrape.NewClient(cfg.TranscriptEndpoint, logger)
	var fetched, skipped, failed int
	for _, url := range urls {
		if seen[url] {
			logger.Infow("transcript already scraped", "url", url)
			skipped++
			continue
		}
		logger.Infow("fetching transcript", "url", url, "lang", lang)
		text, err := client.FetchTranscript(ctx, url, lang)
		if err != nil {
			logger.Errorw("transcript fetch failed", "url", url, "err", err)
			failed++
			continue
		}
		folder := fmt.Sprintf("%d", next)
		title := scrape.SanitizeFilename(url)
		if err := project.SaveTranscript(projectPath, channel, folder, text, title, url, 0); err != nil {
			return fmt.Errorf("save transcript for %s: %w", url, err)
		}
		seen[url] = true
		next++
		fetched++
	}

	logger.Infow("scrape finished", "fetched", fetched, "skipped", skipped, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d transcripts failed", failed, fetched+failed)
	}
	return nil
}

func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url file: %w", err)
	}
	return urls, nil
}
