// Package pipeline schedules GPU render tasks across a bounded worker pool.
package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Task pairs one background video with one narration track and a
// destination for the rendered result.
type Task struct {
	ID         string
	VideoPath  string
	AudioPath  string
	OutputPath string
}

// NewTask builds a task with a fresh unique ID.
func NewTask(videoPath, audioPath, outputPath string) Task {
	return Task{
		ID:         uuid.NewString(),
		VideoPath:  videoPath,
		AudioPath:  audioPath,
		OutputPath: outputPath,
	}
}

// Status is the terminal state of one task.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Result records one task's outcome. Failed results carry Err and a zero
// ProcessingTime; TotalTime always covers queue wait plus processing.
type Result struct {
	TaskID         string
	Status         Status
	OutputPath     string
	VideoPath      string
	AudioPath      string
	Err            error
	ProcessingTime time.Duration
	TotalTime      time.Duration
}

// Mode records how a batch was dispatched.
type Mode string

const (
	ModeNone        Mode = "none"
	ModeSingleGPU   Mode = "single_gpu"
	ModeParallelGPU Mode = "parallel_gpu"
)

// Summary aggregates a whole batch.
type Summary struct {
	Results    []Result
	TotalTime  time.Duration
	Successful int
	Failed     int
	Mode       Mode
}
