// Package project defines the on-disk layout a content project moves
// through: scraped transcripts per channel, rewritten stories with
// narration, and rendered videos.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

const (
	transcriptsDirName = "transcripts"
	rewrittenDirName   = "Rewritten"
)

// StoryMetadata is the per-story metadata.json payload written after a
// rewrite.
type StoryMetadata struct {
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Hook        string `json:"hook,omitempty"`
	Description string `json:"description,omitempty"`
	Tags        string `json:"tags,omitempty"`
}

// Story is one rewritten story found under channel/Rewritten/<n>/.
type Story struct {
	Channel   string
	Number    int
	Dir       string
	TextPath  string
	AudioPath string
	VideoPath string
	HasAudio  bool
	HasVideo  bool
	Metadata  StoryMetadata
}

// TranscriptEntry is one scraped transcript under channel/transcripts/<n>/.
type TranscriptEntry struct {
	Channel          string
	Folder           string
	Path             string
	Title            string
	URL              string
	Views            int64
	AlreadyRewritten bool
}

// transcripts/metadata.json is a list keyed by folder name
type transcriptMeta struct {
	Folder string `json:"folder"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Views  int64  `json:"views"`
}

// CreateChannelStructure makes the transcripts and Rewritten directories for
// a channel and returns the channel path.
func CreateChannelStructure(projectPath, channel string) (string, error) {
	channelPath := filepath.Join(projectPath, channel)
	for _, dir := range []string{transcriptsDirName, rewrittenDirName} {
		if err := os.MkdirAll(filepath.Join(channelPath, dir), 0755); err != nil {
			return "", fmt.Errorf("create channel structure: %w", err)
		}
	}
	return channelPath, nil
}

// StoryDir returns (and creates) channel/Rewritten/<n>/.
func StoryDir(projectPath, channel string, number int) (string, error) {
	dir := filepath.Join(projectPath, channel, rewrittenDirName, strconv.Itoa(number))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create story dir: %w", err)
	}
	return dir, nil
}

// AudioFileName is the canonical narration name inside a story folder.
func AudioFileName(number int) string {
	return fmt.Sprintf("Story_%d.mp3", number)
}

// VideoFileName is the canonical render name inside a story folder.
func VideoFileName(number int) string {
	return fmt.Sprintf("Story_%d.mp4", number)
}

// SaveStory writes a rewritten story's text and metadata into its folder.
func SaveStory(dir, text string, meta StoryMetadata) error {
	if err := os.WriteFile(filepath.Join(dir, "story.txt"), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write story text: %w", err)
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal story metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), data, 0o644); err != nil {
		return fmt.Errorf("write story metadata: %w", err)
	}
	return nil
}

// ScanStories walks every channel's Rewritten folder and returns the stories
// found, ordered by channel then story number. Folders without a numeric
// name are skipped.
func ScanStories(projectPath string) ([]Story, error) {
	channels, err := listDirs(projectPath)
	if err != nil {
		return nil, err
	}

	var stories []Story
	for _, channel := range channels {
		rewrittenDir := filepath.Join(projectPath, channel, rewrittenDirName)
		folders, err := listDirs(rewrittenDir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}

		var numbered []int
		for _, f := range folders {
			if n, convErr := strconv.Atoi(f); convErr == nil {
				numbered = append(numbered, n)
			}
		}
		sort.Ints(numbered)

		for _, n := range numbered {
			dir := filepath.Join(rewrittenDir, strconv.Itoa(n))
			story := Story{
				Channel:   channel,
				Number:    n,
				Dir:       dir,
				TextPath:  filepath.Join(dir, "story.txt"),
				AudioPath: filepath.Join(dir, AudioFileName(n)),
				VideoPath: filepath.Join(dir, VideoFileName(n)),
			}
			story.HasAudio = fileExists(story.AudioPath)
			story.HasVideo = fileExists(story.VideoPath)

			if data, readErr := os.ReadFile(filepath.Join(dir, "metadata.json")); readErr == nil {
				// a corrupt metadata file leaves the defaults in place
				_ = json.Unmarshal(data, &story.Metadata)
			}
			if story.Metadata.Title == "" {
				story.Metadata.Title = fmt.Sprintf("Story %d", n)
			}
			stories = append(stories, story)
		}
	}
	return stories, nil
}

// RenderReady filters stories that have narration but no video yet.
func RenderReady(stories []Story) []Story {
	var ready []Story
	for _, s := range stories {
		if s.HasAudio && !s.HasVideo {
			ready = append(ready, s)
		}
	}
	return ready
}

// SaveTranscript writes a transcript into channel/transcripts/<folder>/ and
// appends its entry to the channel's metadata list.
func SaveTranscript(projectPath, channel, folder, text, title, url string, views int64) error {
	dir := filepath.Join(projectPath, channel, transcriptsDirName, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create transcript dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "transcript.txt"), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}

	metaPath := filepath.Join(projectPath, channel, transcriptsDirName, "metadata.json")
	var entries []transcriptMeta
	if data, err := os.ReadFile(metaPath); err == nil {
		_ = json.Unmarshal(data, &entries)
	}
	for i, e := range entries {
		if e.Folder == folder {
			entries = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	entries = append(entries, transcriptMeta{Folder: folder, Title: title, URL: url, Views: views})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript metadata: %w", err)
	}
	if err := os.WriteFile(metaPath, data, 0o644); err != nil {
		return fmt.Errorf("write transcript metadata: %w", err)
	}
	return nil
}

// ScanTranscripts returns every scraped transcript across the project's
// channels, marking the ones that already have a rewritten story.
func ScanTranscripts(projectPath string) ([]TranscriptEntry, error) {
	channels, err := listDirs(projectPath)
	if err != nil {
		return nil, err
	}

	var entries []TranscriptEntry
	for _, channel := range channels {
		transcriptsDir := filepath.Join(projectPath, channel, transcriptsDirName)
		folders, err := listDirs(transcriptsDir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}

		meta := map[string]transcriptMeta{}
		if data, readErr := os.ReadFile(filepath.Join(transcriptsDir, "metadata.json")); readErr == nil {
			var list []transcriptMeta
			if json.Unmarshal(data, &list) == nil {
				for _, m := range list {
					meta[m.Folder] = m
				}
			}
		}

		var numbered []int
		for _, f := range folders {
			if n, convErr := strconv.Atoi(f); convErr == nil {
				numbered = append(numbered, n)
			}
		}
		sort.Ints(numbered)

		for _, n := range numbered {
			folder := strconv.Itoa(n)
			path := filepath.Join(transcriptsDir, folder, "transcript.txt")
			if !fileExists(path) {
				continue
			}
			entry := TranscriptEntry{
				Channel:          channel,
				Folder:           folder,
				Path:             path,
				Title:            fmt.Sprintf("Story %s", folder),
				AlreadyRewritten: fileExists(filepath.Join(transcriptsDir, folder, "story.txt")),
			}
			if m, ok := meta[folder]; ok {
				if m.Title != "" {
					entry.Title = m.Title
				}
				entry.URL = m.URL
				entry.Views = m.Views
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func listDirs(path string) ([]string, error) {
	items, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, item := range items {
		if item.IsDir() && item.Name() != "__pycache__" && item.Name() != ".git" {
			dirs = append(dirs, item.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
