package ffmpeg

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// HardwareEncoder is the NVENC H.264 encoder the whole pipeline depends on.
// There is no software fallback: when it is missing the pipeline refuses to
// start instead of silently transcoding on the CPU.
const HardwareEncoder = "h264_nvenc"

const hwDetectTimeout = 10 * time.Second

// CheckHardwareEncoder probes ffmpeg's advertised encoder list for NVENC.
// Returns a HardwareUnavailableError when it is absent or the probe fails.
func CheckHardwareEncoder(ctx context.Context, ffmpegPath string) error {
	ctx, cancel := context.WithTimeout(ctx, hwDetectTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-encoders")
	output, err := cmd.Output()
	if err != nil {
		return &HardwareUnavailableError{Encoder: HardwareEncoder}
	}

	if !strings.Contains(string(output), HardwareEncoder) {
		return &HardwareUnavailableError{Encoder: HardwareEncoder}
	}
	return nil
}
