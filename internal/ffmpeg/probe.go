package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const probeTimeout = 30 * time.Second

// Prober queries media files for duration and resolution via ffprobe.
// Results are never cached: a file rewritten by a scale pass must be
// re-probed before its duration or resolution is trusted.
type Prober struct {
	ffprobePath string
}

func NewProber(ffprobePath string) *Prober {
	return &Prober{ffprobePath: ffprobePath}
}

// Duration returns the container duration in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return 0, &AssetMissingError{Path: path}
	}

	out, err := p.run(ctx, path,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, err
	}

	seconds, parseErr := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if parseErr != nil {
		return 0, &ProbeError{
			Path: path,
			Err:  fmt.Errorf("unable to parse duration %q: %w", strings.TrimSpace(out), parseErr),
		}
	}
	return seconds, nil
}

// Resolution returns the width and height of the first video stream.
func (p *Prober) Resolution(ctx context.Context, path string) (int, int, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return 0, 0, &AssetMissingError{Path: path}
	}

	out, err := p.run(ctx, path,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=p=0:s=x",
		path,
	)
	if err != nil {
		return 0, 0, err
	}

	parts := strings.Split(strings.TrimSpace(out), "x")
	if len(parts) != 2 {
		return 0, 0, &ProbeError{
			Path: path,
			Err:  fmt.Errorf("unable to parse resolution %q", strings.TrimSpace(out)),
		}
	}
	width, wErr := strconv.Atoi(parts[0])
	height, hErr := strconv.Atoi(parts[1])
	if wErr != nil || hErr != nil {
		return 0, 0, &ProbeError{
			Path: path,
			Err:  fmt.Errorf("unable to parse resolution %q", strings.TrimSpace(out)),
		}
	}
	return width, height, nil
}

func (p *Prober) run(ctx context.Context, path string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.ffprobePath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &ProbeError{
			Path:   path,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.String(), nil
}
