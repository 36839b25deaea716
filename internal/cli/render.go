package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"storyforge/internal/audio"
	"storyforge/internal/caption"
	"storyforge/internal/ffmpeg"
	"storyforge/internal/pipeline"
	"storyforge/internal/project"
	"storyforge/internal/transcribe"
	"storyforge/internal/video"
)

var renderCmd = &cobra.Command{
	Use:   "render [project_path]",
	Short: "Render story videos from narrated stories",
	Long: `Render a video for every story that has narration but no video yet.

Each story's background clip is scaled to 1080p, looped and trimmed to the
narration length, and re-encoded on the GPU. Optionally the narration is
transcribed and burned in as karaoke captions, and a green-screen overlay
clip can be composited on top.

Background videos are taken from --videos and assigned round-robin.

Examples:
  storyforge render ./Projects/MyProject --videos ./backgrounds
  storyforge render ./Projects/MyProject --videos ./bg --quality maximum_quality --workers 2
  storyforge render ./Projects/MyProject --videos ./bg --overlay rain.mp4 --overlay-position bottom_right`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().String("videos", "", "Directory of background video clips (required)")
	renderCmd.Flags().String("quality", "", "Quality preset: ultra_fast, high_quality, maximum_quality")
	renderCmd.Flags().Int("workers", 0, "Parallel GPU workers (capped at 6)")

	renderCmd.Flags().Bool("captions", true, "Transcribe narration and burn in captions")
	renderCmd.Flags().Bool("karaoke", true, "Color caption words as they are spoken")
	renderCmd.Flags().Int("font-size", 24, "Caption font size")
	renderCmd.Flags().String("font", "Arial", "Caption font family")
	renderCmd.Flags().String("main-color", "#FFFFFF", "Caption text color")
	renderCmd.Flags().String("speaking-color", "#FF0000", "Karaoke speaking-word color")
	renderCmd.Flags().String("outline-color", "#000000", "Caption outline color")
	renderCmd.Flags().Float64("fade", 0, "Caption fade in/out duration in seconds")
	renderCmd.Flags().Int("blur", 0, "Caption edge blur strength")
	renderCmd.Flags().StringP("api-key", "k", "", "OpenAI API key for transcription (or OPENAI_API_KEY)")

	renderCmd.Flags().String("overlay", "", "Green-screen overlay video to composite")
	renderCmd.Flags().String("overlay-position", "top_right", "Overlay position: top_left, top_right, bottom_left, bottom_right, center")
	renderCmd.Flags().String("overlay-timing", "full_duration", "Overlay timing: full_duration, overlay_duration, custom_time")
	renderCmd.Flags().Float64("overlay-start", 0, "Overlay start time in seconds")
	renderCmd.Flags().Float64("overlay-end", 0, "Overlay end time in seconds (0 = video end)")
	renderCmd.Flags().Int("overlay-size", 20, "Overlay size as percent of its own dimensions")
	renderCmd.Flags().Bool("keep-green", false, "Skip chroma-keying the overlay")
	renderCmd.Flags().Bool("keep-overlay-audio", false, "Mix overlay audio over the narration")
}

// renderOptions collects everything one render batch needs.
type renderOptions struct {
	preset      ffmpeg.QualityPreset
	captions    bool
	style       caption.Style
	transcriber transcribe.Transcriber
	overlayPath string
	overlaySpec video.OverlaySpec
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	projectPath := args[0]

	videosDir, _ := cmd.Flags().GetString("videos")
	if videosDir == "" {
		return fmt.Errorf("--videos is required")
	}
	backgrounds, err := listBackgroundVideos(videosDir)
	if err != nil {
		return err
	}

	qualityStr, _ := cmd.Flags().GetString("quality")
	if qualityStr == "" {
		qualityStr = cfg.QualityPreset
	}
	preset, err := ffmpeg.ParsePreset(qualityStr)
	if err != nil {
		return err
	}

	workers, _ := cmd.Flags().GetInt("workers")
	if workers <= 0 {
		workers = cfg.MaxWorkers
	}

	opts := renderOptions{preset: preset}
	opts.captions, _ = cmd.Flags().GetBool("captions")
	if opts.captions {
		if opts.style, err = captionStyleFromFlags(cmd); err != nil {
			return err
		}
		apiKey, _ := cmd.Flags().GetString("api-key")
		if apiKey == "" {
			apiKey = cfg.APIKey(cfg.OpenAIAPIKey, "OPENAI_API_KEY")
		}
		if apiKey == "" {
			return fmt.Errorf("OpenAI API key is required for captions: use --api-key, OPENAI_API_KEY, or --captions=false")
		}
		opts.transcriber, err = transcribe.Factory(transcribe.ProviderWhisper, apiKey, transcribe.Options{
			Model: cfg.WhisperModel,
		})
		if err != nil {
			return err
		}
	}

	opts.overlayPath, _ = cmd.Flags().GetString("overlay")
	if opts.overlayPath != "" {
		if opts.overlaySpec, err = overlaySpecFromFlags(cmd); err != nil {
			return err
		}
	}

	stories, err := project.ScanStories(projectPath)
	if err != nil {
		return fmt.Errorf("scan project: %w", err)
	}
	ready := project.RenderReady(stories)
	if len(ready) == 0 {
		logger.Infow("no stories ready to render", "project", projectPath)
		return nil
	}

	paths, err := ffmpeg.Ensure()
	if err != nil {
		return err
	}
	prober := ffmpeg.NewProber(paths.FFprobe)
	runner := ffmpeg.NewRunner(paths.FFmpeg)

	matcher := video.NewMatcher(prober, runner, preset, logger)
	matcher.ScratchDir = cfg.ScratchDir
	compositor := video.NewCompositor(prober, runner, preset, logger)

	tasks := make([]pipeline.Task, 0, len(ready))
	for i, story := range ready {
		tasks = append(tasks, pipeline.NewTask(
			backgrounds[i%len(backgrounds)],
			story.AudioPath,
			story.VideoPath,
		))
	}

	process := func(ctx context.Context, task pipeline.Task) (string, time.Duration, error) {
		return renderOne(ctx, task, opts, matcher, compositor, runner)
	}
	scheduler := pipeline.NewScheduler(process, func(ctx context.Context) error {
		return ffmpeg.CheckHardwareEncoder(ctx, paths.FFmpeg)
	}, workers, logger)

	logger.Infow("rendering stories",
		"count", len(tasks), "backgrounds", len(backgrounds), "quality", string(preset))

	summary, err := scheduler.Run(ctx, tasks)
	if err != nil {
		return err
	}
	for _, res := range summary.Results {
		if res.Status == pipeline.StatusFailed {
			logger.Errorw("render failed", "audio", res.AudioPath, "err", res.Err)
		}
	}
	logger.Infow("render batch finished",
		"mode", string(summary.Mode),
		"succeeded", summary.Successful,
		"failed", summary.Failed,
		"took", summary.TotalTime)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d renders failed", summary.Failed, len(summary.Results))
	}
	return nil
}

// renderOne runs the full per-story chain: duration match, optional caption
// burn, optional overlay. Intermediates live in a scratch dir removed on
// return.
func renderOne(
	ctx context.Context,
	task pipeline.Task,
	opts renderOptions,
	matcher *video.Matcher,
	compositor *video.Compositor,
	runner *ffmpeg.Runner,
) (string, time.Duration, error) {
	scratch, err := os.MkdirTemp(matcher.ScratchDir, "render-*")
	if err != nil {
		return "", 0, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	current := task.OutputPath
	if opts.captions || opts.overlayPath != "" {
		current = filepath.Join(scratch, "combined.mp4")
	}

	_, processing, err := matcher.MatchDuration(ctx, task.VideoPath, task.AudioPath, current)
	if err != nil {
		return "", 0, err
	}

	if opts.captions {
		next := task.OutputPath
		if opts.overlayPath != "" {
			next = filepath.Join(scratch, "captioned.mp4")
		}
		if err := burnCaptions(ctx, task.AudioPath, current, next, scratch, opts, runner); err != nil {
			return "", 0, err
		}
		current = next
	}

	if opts.overlayPath != "" {
		if _, err := compositor.Apply(ctx, current, opts.overlayPath, task.OutputPath, opts.overlaySpec); err != nil {
			return "", 0, err
		}
	}

	return task.OutputPath, processing, nil
}

// Narrations longer than this are sliced and transcribed in parallel so no
// single upload approaches the transcription API's file limit.
const (
	chunkThreshold = 20 * time.Minute
	chunkLength    = 10 * time.Minute
)

// burnCaptions transcribes the narration, chunks it into short caption
// lines, and burns the resulting ASS track into the video.
func burnCaptions(
	ctx context.Context,
	audioPath, inputVideo, outputVideo, scratch string,
	opts renderOptions,
	runner *ffmpeg.Runner,
) error {
	// a small mono upload transcribes faster and identically
	smallAudio := filepath.Join(scratch, "narration_16k.mp3")
	if err := audio.Downsample(ctx, audioPath, smallAudio, audio.DefaultDownsampleOptions()); err != nil {
		return err
	}

	result, err := transcribeNarration(ctx, opts.transcriber, smallAudio, scratch)
	if err != nil {
		return err
	}
	segments := caption.ChunkSegments(result.Segments, caption.MaxChunkWords)
	if len(segments) == 0 {
		return fmt.Errorf("transcription produced no caption segments for %s", audioPath)
	}

	assPath := filepath.Join(scratch, "captions.ass")
	if err := caption.WriteFile(assPath, opts.style, segments); err != nil {
		return err
	}

	_, err = video.BurnSubtitles(ctx, runner, opts.preset, inputVideo, assPath, outputVideo)
	return err
}

// transcribeNarration sends short tracks in one request and slices long ones
// into offset-shifted chunks transcribed in parallel.
func transcribeNarration(
	ctx context.Context,
	t transcribe.Transcriber,
	audioPath, scratch string,
) (*transcribe.Result, error) {
	duration, err := audio.GetDuration(audioPath)
	if err != nil {
		return nil, err
	}
	if duration <= chunkThreshold {
		return t.Transcribe(ctx, audioPath)
	}

	chunks, err := audio.ChunkAudio(ctx, audioPath, chunkLength, filepath.Join(scratch, "chunks"), 0)
	if err != nil {
		return nil, err
	}
	defer audio.CleanupChunks(chunks)
	return transcribe.TranscribeChunks(ctx, t, chunks, 3)
}

func captionStyleFromFlags(cmd *cobra.Command) (caption.Style, error) {
	style := caption.DefaultStyle()
	style.FontName, _ = cmd.Flags().GetString("font")
	style.FontSize, _ = cmd.Flags().GetInt("font-size")
	style.Karaoke, _ = cmd.Flags().GetBool("karaoke")
	style.BlurEdges, _ = cmd.Flags().GetInt("blur")
	fade, _ := cmd.Flags().GetFloat64("fade")
	style.FadeIn, style.FadeOut = fade, fade

	mainHex, _ := cmd.Flags().GetString("main-color")
	speakingHex, _ := cmd.Flags().GetString("speaking-color")
	outlineHex, _ := cmd.Flags().GetString("outline-color")

	main, err := caption.HexToASS(mainHex)
	if err != nil {
		return style, err
	}
	speaking, err := caption.HexToASS(speakingHex)
	if err != nil {
		return style, err
	}
	outline, err := caption.HexToASS(outlineHex)
	if err != nil {
		return style, err
	}

	style.PrimaryColor = main
	style.KaraokeMainColor = main
	style.KaraokeSpeakingColor = speaking
	style.OutlineColor = outline
	return style, nil
}

func overlaySpecFromFlags(cmd *cobra.Command) (video.OverlaySpec, error) {
	position, _ := cmd.Flags().GetString("overlay-position")
	timing, _ := cmd.Flags().GetString("overlay-timing")
	start, _ := cmd.Flags().GetFloat64("overlay-start")
	end, _ := cmd.Flags().GetFloat64("overlay-end")
	size, _ := cmd.Flags().GetInt("overlay-size")
	keepGreen, _ := cmd.Flags().GetBool("keep-green")
	keepAudio, _ := cmd.Flags().GetBool("keep-overlay-audio")

	switch video.TimingMode(timing) {
	case video.TimingFullDuration, video.TimingOverlayDuration, video.TimingCustom:
	default:
		return video.OverlaySpec{}, fmt.Errorf("unknown overlay timing %q", timing)
	}
	switch ffmpeg.OverlayPosition(position) {
	case ffmpeg.PositionTopLeft, ffmpeg.PositionTopRight, ffmpeg.PositionBottomLeft,
		ffmpeg.PositionBottomRight, ffmpeg.PositionCenter:
	default:
		return video.OverlaySpec{}, fmt.Errorf("unknown overlay position %q", position)
	}

	return video.OverlaySpec{
		Timing:           video.TimingMode(timing),
		Start:            start,
		End:              end,
		Position:         ffmpeg.OverlayPosition(position),
		SizePercent:      size,
		RemoveGreen:      !keepGreen,
		Similarity:       0.3,
		Blend:            0.1,
		KeepOverlayAudio: keepAudio,
	}, nil
}

func listBackgroundVideos(dir string) ([]string, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read videos directory: %w", err)
	}
	var videos []string
	for _, item := range items {
		if item.IsDir() {
			continue
		}
		path := filepath.Join(dir, item.Name())
		if audio.IsVideoFile(path) {
			videos = append(videos, path)
		}
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("no video files found in %s", dir)
	}
	sort.Strings(videos)
	return videos, nil
}
