package video

import (
	"context"
	"fmt"

	"storyforge/internal/ffmpeg"
	"storyforge/internal/logging"
)

// TimingMode selects how the overlay window is derived.
type TimingMode string

const (
	// TimingFullDuration shows the overlay for the whole primary video.
	TimingFullDuration TimingMode = "full_duration"
	// TimingOverlayDuration starts at Start and plays the overlay once.
	TimingOverlayDuration TimingMode = "overlay_duration"
	// TimingCustom uses the explicit Start/End window.
	TimingCustom TimingMode = "custom_time"
)

// OverlaySpec describes one green-screen overlay pass.
type OverlaySpec struct {
	Timing      TimingMode
	Start       float64
	End         float64 // 0 means run to the end of the primary video
	Position    ffmpeg.OverlayPosition
	SizePercent int
	RemoveGreen bool
	Similarity  float64
	Blend       float64
	// KeepOverlayAudio mixes the overlay's audio over the primary track
	// instead of dropping it.
	KeepOverlayAudio bool
}

// Compositor burns a positioned, chroma-keyed overlay clip onto a primary
// video with a single full re-encode.
type Compositor struct {
	prober *ffmpeg.Prober
	runner *ffmpeg.Runner
	preset ffmpeg.QualityPreset
	logger *logging.Logger
}

func NewCompositor(prober *ffmpeg.Prober, runner *ffmpeg.Runner, preset ffmpeg.QualityPreset, logger *logging.Logger) *Compositor {
	return &Compositor{
		prober: prober,
		runner: runner,
		preset: preset,
		logger: logger,
	}
}

// Apply composites overlayPath onto mainPath per spec and writes outputPath.
// Outside the active window the primary video passes through unchanged; the
// output always keeps the primary's full duration.
func (c *Compositor) Apply(ctx context.Context, mainPath, overlayPath, outputPath string, spec OverlaySpec) (string, error) {
	mainDur, err := c.prober.Duration(ctx, mainPath)
	if err != nil {
		return "", err
	}
	overlayDur, err := c.prober.Duration(ctx, overlayPath)
	if err != nil {
		return "", err
	}

	start, end, err := resolveWindow(spec, mainDur, overlayDur)
	if err != nil {
		return "", err
	}
	c.logger.Infow("applying overlay",
		"window_start", start, "window_end", end,
		"position", string(spec.Position), "mix_audio", spec.KeepOverlayAudio)

	graph := ffmpeg.OverlayGraph{
		Position:    spec.Position,
		SizePercent: spec.SizePercent,
		RemoveGreen: spec.RemoveGreen,
		Similarity:  spec.Similarity,
		Blend:       spec.Blend,
		Start:       start,
		End:         end,
		MixAudio:    spec.KeepOverlayAudio,
	}

	maps := []string{"[vout]", "0:a?"}
	if spec.KeepOverlayAudio {
		maps = []string{"[vout]", "[aout]"}
	}

	job := ffmpeg.EncodeJob{
		Inputs: []ffmpeg.Input{
			{Path: mainPath},
			{Path: overlayPath},
		},
		FilterComplex: graph.String(),
		Maps:          maps,
		VideoArgs:     c.preset.VideoArgs(),
		AudioArgs:     c.preset.AudioArgs(),
		Output:        outputPath,
	}
	if err := c.runner.Run(ctx, "overlay", job); err != nil {
		return "", err
	}
	return outputPath, nil
}

// resolveWindow turns a spec into concrete [start,end) seconds. The end is
// always clamped to the primary video's duration.
func resolveWindow(spec OverlaySpec, mainDur, overlayDur float64) (start, end float64, err error) {
	switch spec.Timing {
	case TimingFullDuration:
		start, end = 0, mainDur
	case TimingOverlayDuration:
		start, end = spec.Start, spec.Start+overlayDur
	case TimingCustom, "":
		start = spec.Start
		end = spec.End
		if end <= 0 {
			end = mainDur
		}
	default:
		return 0, 0, fmt.Errorf("unknown overlay timing mode %q", spec.Timing)
	}
	if end > mainDur {
		end = mainDur
	}
	if start < 0 {
		start = 0
	}
	if start >= end {
		return 0, 0, fmt.Errorf("overlay window [%v,%v) is empty for a %vs video", start, end, mainDur)
	}
	return start, end, nil
}
