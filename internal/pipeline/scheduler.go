package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"storyforge/internal/logging"
)

// workerCeiling caps concurrent NVENC sessions regardless of the requested
// worker count. Consumer GPUs reject encode sessions beyond this.
const workerCeiling = 6

// ProcessFunc renders one task and reports the path written and the time
// spent inside ffmpeg.
type ProcessFunc func(ctx context.Context, task Task) (outputPath string, processing time.Duration, err error)

// HardwareCheckFunc verifies the GPU encoder before any task is dispatched.
type HardwareCheckFunc func(ctx context.Context) error

// Scheduler dispatches render tasks, choosing single or parallel execution
// from the batch size. A task failure never aborts the batch; it becomes a
// failed Result and the remaining tasks proceed.
type Scheduler struct {
	Process       ProcessFunc
	HardwareCheck HardwareCheckFunc
	MaxWorkers    int

	logger  *logging.Logger
	stopped atomic.Bool
}

func NewScheduler(process ProcessFunc, hwCheck HardwareCheckFunc, maxWorkers int, logger *logging.Logger) *Scheduler {
	return &Scheduler{
		Process:       process,
		HardwareCheck: hwCheck,
		MaxWorkers:    maxWorkers,
		logger:        logger,
	}
}

// Stop requests a cooperative shutdown: tasks already running finish and
// report their results, queued tasks are abandoned.
func (s *Scheduler) Stop() {
	s.stopped.Store(true)
}

// Run executes the batch. The hardware check runs exactly once up front,
// even for an empty batch, so a missing GPU surfaces immediately rather
// than on first use. Every dispatch path produces the same Result shape.
func (s *Scheduler) Run(ctx context.Context, tasks []Task) (*Summary, error) {
	start := time.Now()

	if err := s.HardwareCheck(ctx); err != nil {
		return nil, err
	}

	switch len(tasks) {
	case 0:
		return &Summary{Mode: ModeNone}, nil
	case 1:
		s.logger.Infow("single task, dispatching directly")
		res := s.runTask(ctx, tasks[0])
		return s.summarize([]Result{res}, ModeSingleGPU, start), nil
	default:
		return s.runParallel(ctx, tasks, start), nil
	}
}

func (s *Scheduler) runParallel(ctx context.Context, tasks []Task, start time.Time) *Summary {
	workers := s.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > workerCeiling {
		workers = workerCeiling
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}
	s.logger.Infow("dispatching parallel batch",
		"tasks", len(tasks), "workers", workers)

	workChan := make(chan Task)
	resultChan := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range workChan {
				resultChan <- s.runTask(ctx, task)
			}
		}()
	}

	go func() {
		defer close(workChan)
		for _, task := range tasks {
			// the stop flag is honored at task boundaries only;
			// in-flight encodes run to completion
			if s.stopped.Load() || ctx.Err() != nil {
				return
			}
			workChan <- task
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]Result, 0, len(tasks))
	for res := range resultChan {
		if res.Status == StatusSuccess {
			s.logger.Infow("task complete",
				"task", res.TaskID, "output", res.OutputPath,
				"took", res.TotalTime)
		} else {
			s.logger.Errorw("task failed",
				"task", res.TaskID, "video", res.VideoPath, "err", res.Err)
		}
		results = append(results, res)
	}
	return s.summarize(results, ModeParallelGPU, start)
}

func (s *Scheduler) runTask(ctx context.Context, task Task) Result {
	taskStart := time.Now()
	output, processing, err := s.Process(ctx, task)
	if err != nil {
		return Result{
			TaskID:    task.ID,
			Status:    StatusFailed,
			VideoPath: task.VideoPath,
			AudioPath: task.AudioPath,
			Err:       err,
			TotalTime: time.Since(taskStart),
		}
	}
	return Result{
		TaskID:         task.ID,
		Status:         StatusSuccess,
		OutputPath:     output,
		VideoPath:      task.VideoPath,
		AudioPath:      task.AudioPath,
		ProcessingTime: processing,
		TotalTime:      time.Since(taskStart),
	}
}

func (s *Scheduler) summarize(results []Result, mode Mode, start time.Time) *Summary {
	sum := &Summary{
		Results:   results,
		TotalTime: time.Since(start),
		Mode:      mode,
	}
	for _, r := range results {
		if r.Status == StatusSuccess {
			sum.Successful++
		} else {
			sum.Failed++
		}
	}
	s.logger.Infow("batch complete",
		"mode", string(mode), "succeeded", sum.Successful,
		"failed", sum.Failed, "took", sum.TotalTime)
	return sum
}
