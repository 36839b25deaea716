package caption

import (
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestChunkWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace only", "   \t ", nil},
		{"under limit", "one two three", []string{"one two three"}},
		{"exact limit", "a b c d e", []string{"a b c d e"}},
		{"over limit", "a b c d e f g", []string{"a b c d e", "f g"}},
		{"two full chunks", "a b c d e f g h i j", []string{"a b c d e", "f g h i j"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkWords(tt.text, MaxChunkWords)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ChunkWords(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestChunkSegmentsUniformPacing(t *testing.T) {
	in := []Segment{{Start: 10, End: 16, Text: "a b c d e f g h i j k l"}}
	got := ChunkSegments(in, MaxChunkWords)
	if len(got) != 3 {
		t.Fatalf("got %d chunks, want 3", len(got))
	}
	for i, seg := range got {
		wantStart := 10 + float64(i)*2
		if math.Abs(seg.Start-wantStart) > 1e-9 || math.Abs(seg.End-(wantStart+2)) > 1e-9 {
			t.Errorf("chunk %d timed [%v,%v], want [%v,%v]", i, seg.Start, seg.End, wantStart, wantStart+2)
		}
	}
	if got[2].Text != "k l" {
		t.Errorf("last chunk text = %q, want %q", got[2].Text, "k l")
	}
	if math.Abs(got[2].End-16) > 1e-9 {
		t.Errorf("chunks must cover the parent span, last end = %v", got[2].End)
	}
}

func TestChunkSegmentsSkipsEmpty(t *testing.T) {
	in := []Segment{
		{Start: 0, End: 1, Text: "  "},
		{Start: 1, End: 2, Text: "keep me"},
	}
	got := ChunkSegments(in, MaxChunkWords)
	if len(got) != 1 || got[0].Text != "keep me" {
		t.Errorf("ChunkSegments = %v, want single kept segment", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00:00.00"},
		{59.999, "0:00:59.99"},
		{3599.999, "0:59:59.99"},
		{3600.0, "1:00:00.00"},
		{3661.25, "1:01:01.25"},
		{-1, "0:00:00.00"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.seconds); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestHexToASS(t *testing.T) {
	got, err := HexToASS("#FF8000")
	if err != nil {
		t.Fatal(err)
	}
	if got != "&H000080FF" {
		t.Errorf("HexToASS(#FF8000) = %q, want &H000080FF", got)
	}
	if _, err := HexToASS("nope"); err == nil {
		t.Error("expected error for malformed hex")
	}
}

func TestHexToASSAlpha(t *testing.T) {
	got, err := HexToASSAlpha("#000000", 128)
	if err != nil {
		t.Fatal(err)
	}
	if got != "&H7F000000" {
		t.Errorf("HexToASSAlpha(#000000, 128) = %q, want &H7F000000", got)
	}
}

func TestWriteASSPlain(t *testing.T) {
	style := DefaultStyle()
	var sb strings.Builder
	err := WriteASS(&sb, style, []Segment{{Start: 1, End: 2.5, Text: "hello world"}})
	if err != nil {
		t.Fatal(err)
	}
	out := sb.String()

	for _, want := range []string{
		"PlayResX: 1920",
		"PlayResY: 1080",
		"WrapStyle: 0",
		"ScaledBorderAndShadow: yes",
		"Style: Default,Arial,24,&H00FFFFFF,&H00FFFFFF,&H00000000,&H80000000,-1,0,0,0,100,100,0,0,1,2,2,2,0,0,20,1",
		"Dialogue: 0,0:00:01.00,0:00:02.50,Default,,0,0,0,,hello world",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteASSKaraokeAndEffects(t *testing.T) {
	style := DefaultStyle()
	style.Karaoke = true
	style.FadeIn = 0.5
	style.FadeOut = 0.25
	style.BlurEdges = 1

	var sb strings.Builder
	err := WriteASS(&sb, style, []Segment{{Start: 0, End: 2, Text: "two words"}})
	if err != nil {
		t.Fatal(err)
	}
	out := sb.String()

	// each word gets a 100cs reveal timer, line wrapped in the resting color
	wantText := `{\fad(500,250)\be1}{\c&H00FFFFFF}{\k100\c&H000000FF}two {\k100\c&H000000FF}words`
	if !strings.Contains(out, wantText) {
		t.Errorf("karaoke line wrong, want substring %q in:\n%s", wantText, out)
	}
	if strings.Index(out, `\fad`) > strings.Index(out, `\be1`) {
		t.Error("fade must precede blur in the effect block")
	}
}
