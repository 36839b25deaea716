// Package caption turns timestamped transcript segments into a styled ASS
// subtitle track with optional per-word karaoke color progression.
package caption

import "strings"

// Segment is one timed span of transcript text, in seconds.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Duration returns the segment span in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// MaxChunkWords is the default word limit per caption line.
const MaxChunkWords = 5

// ChunkWords splits text into runs of at most maxWords whitespace-separated
// words. Empty or whitespace-only text yields no chunks.
func ChunkWords(text string, maxWords int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var chunks []string
	for len(words) > maxWords {
		chunks = append(chunks, strings.Join(words[:maxWords], " "))
		words = words[maxWords:]
	}
	return append(chunks, strings.Join(words, " "))
}

// ChunkSegments re-times each segment into word-limited chunks. Chunks pace
// the parent span evenly: a segment split N ways yields N chunks of equal
// duration, back to back. Natural speech rate variance inside a segment is
// intentionally ignored.
func ChunkSegments(segments []Segment, maxWords int) []Segment {
	var out []Segment
	for _, seg := range segments {
		chunks := ChunkWords(seg.Text, maxWords)
		if len(chunks) == 0 {
			continue
		}
		chunkDur := seg.Duration() / float64(len(chunks))
		for i, text := range chunks {
			start := seg.Start + float64(i)*chunkDur
			out = append(out, Segment{
				Start: start,
				End:   start + chunkDur,
				Text:  text,
			})
		}
	}
	return out
}
