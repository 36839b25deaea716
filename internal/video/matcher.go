package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"storyforge/internal/ffmpeg"
	"storyforge/internal/logging"
)

// Matcher assembles a final video whose length matches a narration track:
// scale to 1080p, loop the background clip past the audio length, trim, and
// mux. Intermediate renders live in a per-call scratch directory that is
// removed on return, success or failure.
type Matcher struct {
	prober *ffmpeg.Prober
	runner *ffmpeg.Runner
	preset ffmpeg.QualityPreset
	logger *logging.Logger

	// ScratchDir overrides where per-call temp dirs are created.
	// Defaults to the system temp dir.
	ScratchDir string
}

func NewMatcher(prober *ffmpeg.Prober, runner *ffmpeg.Runner, preset ffmpeg.QualityPreset, logger *logging.Logger) *Matcher {
	return &Matcher{
		prober: prober,
		runner: runner,
		preset: preset,
		logger: logger,
	}
}

// MatchDuration renders videoPath + audioPath into outputPath. When the
// audio outruns the video, the video is looped floor(audio/video)+1 times
// via a concat list, stream-copied, trimmed to the audio length, and then
// re-encoded with the narration muxed in. When the audio fits, the two are
// combined directly. Returns the output path and wall-clock elapsed time.
func (m *Matcher) MatchDuration(ctx context.Context, videoPath, audioPath, outputPath string) (string, time.Duration, error) {
	start := time.Now()

	scratch, err := os.MkdirTemp(m.ScratchDir, "match-*")
	if err != nil {
		return "", 0, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	scaled, err := m.scaleToCanonical(ctx, videoPath, scratch)
	if err != nil {
		return "", 0, err
	}

	videoDur, err := m.prober.Duration(ctx, scaled)
	if err != nil {
		return "", 0, err
	}
	audioDur, err := m.prober.Duration(ctx, audioPath)
	if err != nil {
		return "", 0, err
	}
	m.logger.Infow("matched durations probed",
		"video", videoDur, "audio", audioDur)

	source := scaled
	if audioDur > videoDur {
		loops, err := LoopsNeeded(videoDur, audioDur)
		if err != nil {
			return "", 0, fmt.Errorf("loop %s: %w", videoPath, err)
		}
		m.logger.Infow("looping video to cover narration", "loops", loops)

		looped, err := m.loopAndTrim(ctx, scaled, scratch, loops, audioDur)
		if err != nil {
			return "", 0, err
		}
		source = looped
	}

	if err := m.combine(ctx, source, audioPath, outputPath); err != nil {
		return "", 0, err
	}
	return outputPath, time.Since(start), nil
}

// scaleToCanonical re-encodes input to 1920x1080 with Lanczos resampling,
// skipping the encode entirely when the source is already canonical.
func (m *Matcher) scaleToCanonical(ctx context.Context, input, scratch string) (string, error) {
	w, h, err := m.prober.Resolution(ctx, input)
	if err != nil {
		return "", err
	}
	if w == ffmpeg.CanonicalWidth && h == ffmpeg.CanonicalHeight {
		return input, nil
	}

	out := filepath.Join(scratch, "scaled_"+filepath.Base(input))
	job := ffmpeg.EncodeJob{
		Inputs:      []ffmpeg.Input{{Path: input}},
		VideoFilter: ffmpeg.ScaleToCanonical(),
		Maps:        []string{"0:v", "0:a?"},
		VideoArgs:   m.preset.VideoArgs(),
		AudioArgs:   m.preset.AudioArgs(),
		Output:      out,
	}
	if err := m.runner.Run(ctx, "scale", job); err != nil {
		return "", err
	}
	return out, nil
}

// loopAndTrim concatenates loops copies of input with the concat demuxer,
// stream-copying both passes so no quality is lost before the final encode.
func (m *Matcher) loopAndTrim(ctx context.Context, input, scratch string, loops int, targetDur float64) (string, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", fmt.Errorf("resolve loop source: %w", err)
	}

	listPath := filepath.Join(scratch, "concat_list.txt")
	if err := os.WriteFile(listPath, []byte(concatList(abs, loops)), 0o644); err != nil {
		return "", fmt.Errorf("write concat list: %w", err)
	}

	looped := filepath.Join(scratch, "looped.mp4")
	err = m.runner.RunArgs(ctx, "concat", []string{
		"-y", "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", looped,
	})
	if err != nil {
		return "", err
	}

	trimmed := filepath.Join(scratch, "trimmed.mp4")
	err = m.runner.RunArgs(ctx, "trim", []string{
		"-y", "-i", looped,
		"-t", strconv.FormatFloat(targetDur, 'f', -1, 64),
		"-c", "copy", trimmed,
	})
	if err != nil {
		return "", err
	}
	return trimmed, nil
}

// combine muxes the narration over the video with a full NVENC re-encode,
// stopping at the shorter stream.
func (m *Matcher) combine(ctx context.Context, videoPath, audioPath, outputPath string) error {
	job := ffmpeg.EncodeJob{
		Inputs: []ffmpeg.Input{
			{Path: videoPath},
			{Path: audioPath},
		},
		Maps:      []string{"0:v", "1:a"},
		VideoArgs: m.preset.VideoArgs(),
		AudioArgs: m.preset.AudioArgs(),
		Extra:     []string{"-shortest"},
		Output:    outputPath,
	}
	return m.runner.Run(ctx, "combine", job)
}

// concatList renders a concat-demuxer list repeating path loops times.
// Single quotes in the path are escaped so the demuxer's quoted-string
// grammar survives arbitrary filenames.
func concatList(path string, loops int) string {
	escaped := strings.ReplaceAll(path, "'", `'\''`)
	var list strings.Builder
	for i := 0; i < loops; i++ {
		fmt.Fprintf(&list, "file '%s'\n", escaped)
	}
	return list.String()
}

// LoopsNeeded is the loop count required to cover audioDur seconds with a
// videoDur-second clip.
func LoopsNeeded(videoDur, audioDur float64) (int, error) {
	if videoDur <= 0 {
		return 0, fmt.Errorf("video duration %v is not positive", videoDur)
	}
	return int(audioDur/videoDur) + 1, nil
}
