package transcribe

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"storyforge/internal/audio"
	"storyforge/internal/caption"
)

// TranscribeChunk transcribes one chunk and shifts its timestamps back into
// the original track's timeline.
func TranscribeChunk(ctx context.Context, t Transcriber, chunk audio.ChunkInfo) (*Result, error) {
	result, err := t.Transcribe(ctx, chunk.Path)
	if err != nil {
		return nil, err
	}

	offset := chunk.StartTime.Seconds()
	shifted := make([]caption.Segment, len(result.Segments))
	for i, seg := range result.Segments {
		shifted[i] = caption.Segment{
			Start: seg.Start + offset,
			End:   seg.End + offset,
			Text:  seg.Text,
		}
	}
	return &Result{
		Segments: shifted,
		Language: result.Language,
		Duration: result.Duration,
	}, nil
}

type chunkResult struct {
	Index  int
	Result *Result
	Error  error
}

// TranscribeChunks transcribes chunks in parallel and merges the segments in
// chunk order. The first failure cancels the remaining work.
func TranscribeChunks(
	ctx context.Context,
	t Transcriber,
	chunks []audio.ChunkInfo,
	concurrency int,
) (*Result, error) {
	if len(chunks) == 0 {
		return &Result{}, nil
	}
	if concurrency <= 0 {
		concurrency = 3
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workChan := make(chan audio.ChunkInfo)
	resultChan := make(chan chunkResult, len(chunks))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case chunk, ok := <-workChan:
					if !ok {
						return
					}
					res, err := TranscribeChunk(ctx, t, chunk)
					if err != nil {
						cancel()
					}
					resultChan <- chunkResult{
						Index:  chunk.Index,
						Result: res,
						Error:  err,
					}
				}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for _, chunk := range chunks {
			select {
			case <-ctx.Done():
				return
			case workChan <- chunk:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]chunkResult, 0, len(chunks))
	var firstErr error
	for res := range resultChan {
		if res.Error != nil && firstErr == nil {
			firstErr = fmt.Errorf("chunk %d failed: %w", res.Index, res.Error)
			cancel()
		}
		if res.Error == nil {
			results = append(results, res)
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	merged := &Result{Duration: chunks[len(chunks)-1].EndTime}
	for _, r := range results {
		merged.Segments = append(merged.Segments, r.Result.Segments...)
		if merged.Language == "" {
			merged.Language = r.Result.Language
		}
	}
	return merged, nil
}
