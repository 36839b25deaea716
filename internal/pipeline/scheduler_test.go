package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storyforge/internal/logging"
)

func okCheck(context.Context) error { return nil }

func newTestScheduler(process ProcessFunc, maxWorkers int) *Scheduler {
	return NewScheduler(process, okCheck, maxWorkers, logging.NewNop())
}

func TestRunHardwareCheckFailsFirst(t *testing.T) {
	hwErr := errors.New("no nvenc")
	called := false
	s := NewScheduler(
		func(context.Context, Task) (string, time.Duration, error) {
			called = true
			return "", 0, nil
		},
		func(context.Context) error { return hwErr },
		4, logging.NewNop(),
	)

	// even an empty batch must fail the precondition
	if _, err := s.Run(context.Background(), nil); !errors.Is(err, hwErr) {
		t.Fatalf("err = %v, want %v", err, hwErr)
	}
	if _, err := s.Run(context.Background(), []Task{NewTask("v", "a", "o")}); !errors.Is(err, hwErr) {
		t.Fatalf("err = %v, want %v", err, hwErr)
	}
	if called {
		t.Error("process must not run when hardware check fails")
	}
}

func TestRunEmptyBatch(t *testing.T) {
	s := newTestScheduler(func(context.Context, Task) (string, time.Duration, error) {
		t.Fatal("process must not be called")
		return "", 0, nil
	}, 4)

	sum, err := s.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Mode != ModeNone || len(sum.Results) != 0 || sum.Successful != 0 || sum.Failed != 0 {
		t.Errorf("empty batch summary = %+v", sum)
	}
}

func TestRunSingleTask(t *testing.T) {
	s := newTestScheduler(func(_ context.Context, task Task) (string, time.Duration, error) {
		return task.OutputPath, 42 * time.Millisecond, nil
	}, 4)

	task := NewTask("bg.mp4", "story.mp3", "out.mp4")
	sum, err := s.Run(context.Background(), []Task{task})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Mode != ModeSingleGPU {
		t.Errorf("mode = %q, want %q", sum.Mode, ModeSingleGPU)
	}
	if sum.Successful != 1 || sum.Failed != 0 {
		t.Errorf("counts = %d/%d, want 1/0", sum.Successful, sum.Failed)
	}
	res := sum.Results[0]
	if res.TaskID != task.ID || res.Status != StatusSuccess || res.OutputPath != "out.mp4" ||
		res.VideoPath != "bg.mp4" || res.AudioPath != "story.mp3" || res.Err != nil {
		t.Errorf("result = %+v", res)
	}
	if res.ProcessingTime != 42*time.Millisecond {
		t.Errorf("processing time = %v", res.ProcessingTime)
	}
}

func TestRunParallelPartialFailure(t *testing.T) {
	boom := errors.New("asset missing")
	s := newTestScheduler(func(_ context.Context, task Task) (string, time.Duration, error) {
		if task.AudioPath == "missing.mp3" {
			return "", 0, boom
		}
		return task.OutputPath, time.Millisecond, nil
	}, 4)

	tasks := []Task{
		NewTask("a.mp4", "a.mp3", "a_out.mp4"),
		NewTask("b.mp4", "missing.mp3", "b_out.mp4"),
		NewTask("c.mp4", "c.mp3", "c_out.mp4"),
	}
	sum, err := s.Run(context.Background(), tasks)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Mode != ModeParallelGPU {
		t.Errorf("mode = %q, want %q", sum.Mode, ModeParallelGPU)
	}
	if sum.Successful != 2 || sum.Failed != 1 {
		t.Errorf("counts = %d/%d, want 2/1", sum.Successful, sum.Failed)
	}
	if len(sum.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(sum.Results))
	}
	for _, res := range sum.Results {
		if res.Status == StatusFailed {
			if !errors.Is(res.Err, boom) {
				t.Errorf("failed result err = %v", res.Err)
			}
			if res.OutputPath != "" || res.ProcessingTime != 0 {
				t.Errorf("failed result must not carry output or processing time: %+v", res)
			}
		}
	}
}

func TestRunParallelWorkerCeiling(t *testing.T) {
	var active, peak int64
	s := newTestScheduler(func(_ context.Context, task Task) (string, time.Duration, error) {
		n := atomic.AddInt64(&active, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&active, -1)
		return task.OutputPath, 0, nil
	}, 20)

	var tasks []Task
	for i := 0; i < 20; i++ {
		tasks = append(tasks, NewTask("v.mp4", "a.mp3", "o.mp4"))
	}
	sum, err := s.Run(context.Background(), tasks)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Successful != 20 {
		t.Errorf("successful = %d, want 20", sum.Successful)
	}
	if p := atomic.LoadInt64(&peak); p > 6 {
		t.Errorf("peak concurrency = %d, must not exceed 6", p)
	}
}

func TestStopAbandonsQueuedTasks(t *testing.T) {
	var s *Scheduler
	var once sync.Once
	started := make(chan struct{})

	s = newTestScheduler(func(_ context.Context, task Task) (string, time.Duration, error) {
		once.Do(func() {
			s.Stop()
			close(started)
		})
		<-started
		time.Sleep(5 * time.Millisecond)
		return task.OutputPath, 0, nil
	}, 1)

	var tasks []Task
	for i := 0; i < 10; i++ {
		tasks = append(tasks, NewTask("v.mp4", "a.mp3", "o.mp4"))
	}
	sum, err := s.Run(context.Background(), tasks)
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Results) >= 10 {
		t.Errorf("stop should abandon queued tasks, got %d results", len(sum.Results))
	}
	for _, res := range sum.Results {
		if res.Status != StatusSuccess {
			t.Errorf("in-flight tasks must finish cleanly: %+v", res)
		}
	}
}

func TestNewTaskUniqueIDs(t *testing.T) {
	a := NewTask("v", "a", "o")
	b := NewTask("v", "a", "o")
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("task IDs must be unique and non-empty: %q vs %q", a.ID, b.ID)
	}
}
