package video

import (
	"context"

	"storyforge/internal/ffmpeg"
)

// BurnSubtitles renders an ASS caption track permanently into the video
// stream. Burning re-rasterizes every frame, so this is a full NVENC
// re-encode; the audio is encoded alongside at the preset's bitrate.
func BurnSubtitles(ctx context.Context, runner *ffmpeg.Runner, preset ffmpeg.QualityPreset, videoPath, assPath, outputPath string) (string, error) {
	job := ffmpeg.EncodeJob{
		Inputs:      []ffmpeg.Input{{Path: videoPath}},
		VideoFilter: ffmpeg.SubtitlesFilter(assPath),
		Maps:        []string{"0:v", "0:a?"},
		VideoArgs:   preset.VideoArgs(),
		AudioArgs:   preset.AudioArgs(),
		Output:      outputPath,
	}
	if err := runner.Run(ctx, "burn-subtitles", job); err != nil {
		return "", err
	}
	return outputPath, nil
}
