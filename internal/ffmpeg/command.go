package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// encodeTimeout bounds a single ffmpeg invocation. Long enough for a full
// story render, short enough that a wedged GPU job does not hang the batch.
const encodeTimeout = 3600 * time.Second

// Input is one -i entry with its preceding input options.
type Input struct {
	Path    string
	Options []string
}

// EncodeJob describes a single ffmpeg run. Args are assembled in ffmpeg's
// required order: global flags, inputs with their options, filters, maps,
// codec settings, trailing flags, output.
type EncodeJob struct {
	Inputs        []Input
	FilterComplex string
	VideoFilter   string
	Maps          []string
	VideoArgs     []string
	AudioArgs     []string
	Extra         []string
	Output        string
}

// Args renders the full argv, excluding the ffmpeg binary itself.
func (j EncodeJob) Args() []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	for _, in := range j.Inputs {
		args = append(args, in.Options...)
		args = append(args, "-i", in.Path)
	}
	if j.FilterComplex != "" {
		args = append(args, "-filter_complex", j.FilterComplex)
	}
	if j.VideoFilter != "" {
		args = append(args, "-vf", j.VideoFilter)
	}
	for _, m := range j.Maps {
		args = append(args, "-map", m)
	}
	args = append(args, j.VideoArgs...)
	args = append(args, j.AudioArgs...)
	args = append(args, j.Extra...)
	args = append(args, j.Output)
	return args
}

// Runner executes ffmpeg jobs against a resolved binary.
type Runner struct {
	ffmpegPath string
}

func NewRunner(ffmpegPath string) *Runner {
	return &Runner{ffmpegPath: ffmpegPath}
}

// Run executes one job to completion. A failed run surfaces ffmpeg's stderr
// verbatim inside the returned EncodeError; there is no retry.
func (r *Runner) Run(ctx context.Context, op string, job EncodeJob) error {
	return r.RunArgs(ctx, op, job.Args())
}

// RunArgs executes ffmpeg with a pre-built argv.
func (r *Runner) RunArgs(ctx context.Context, op string, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, encodeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = context.DeadlineExceeded
		}
		return &EncodeError{Op: op, Stderr: stderr.String(), Err: err}
	}
	return nil
}
