package ffmpeg

import (
	"strings"
	"testing"
)

func TestOverlayPositionCoordinates(t *testing.T) {
	tests := []struct {
		pos  OverlayPosition
		want string
	}{
		{PositionTopLeft, "10:10"},
		{PositionTopRight, "main_w-overlay_w-10:10"},
		{PositionBottomLeft, "10:main_h-overlay_h-10"},
		{PositionBottomRight, "main_w-overlay_w-10:main_h-overlay_h-10"},
		{PositionCenter, "(main_w-overlay_w)/2:(main_h-overlay_h)/2"},
		{OverlayPosition("unknown"), "10:10"},
	}
	for _, tt := range tests {
		if got := tt.pos.Coordinates(); got != tt.want {
			t.Errorf("%s.Coordinates() = %q, want %q", tt.pos, got, tt.want)
		}
	}
}

func TestScaleFilters(t *testing.T) {
	if got := ScaleToCanonical(); got != "scale=1920:1080:flags=lanczos" {
		t.Errorf("ScaleToCanonical() = %q", got)
	}
	if got := ScalePercent(20); got != "scale=iw*0.2:ih*0.2" {
		t.Errorf("ScalePercent(20) = %q", got)
	}
	if got := ScalePercent(100); got != "scale=iw*1:ih*1" {
		t.Errorf("ScalePercent(100) = %q", got)
	}
}

func TestChromaKey(t *testing.T) {
	if got := ChromaKey(0.3, 0.1); got != "colorkey=0x00FF00:0.3:0.1" {
		t.Errorf("ChromaKey(0.3, 0.1) = %q", got)
	}
}

func TestOverlayGraph(t *testing.T) {
	g := OverlayGraph{
		Position:    PositionBottomRight,
		SizePercent: 20,
		RemoveGreen: true,
		Similarity:  0.3,
		Blend:       0.1,
		Start:       5,
		End:         25.5,
	}
	want := "[1:v]format=yuv420p,scale=iw*0.2:ih*0.2,colorkey=0x00FF00:0.3:0.1[ovr];" +
		"[0:v][ovr]overlay=main_w-overlay_w-10:main_h-overlay_h-10:enable='between(t,5,25.5)'[vout]"
	if got := g.String(); got != want {
		t.Errorf("OverlayGraph.String() =\n%s\nwant\n%s", got, want)
	}
}

func TestOverlayGraphNoKeyWithAudioMix(t *testing.T) {
	g := OverlayGraph{
		Position:    PositionCenter,
		SizePercent: 50,
		Start:       0,
		End:         10,
		MixAudio:    true,
	}
	got := g.String()
	if strings.Contains(got, "colorkey") {
		t.Errorf("chroma key present without RemoveGreen: %s", got)
	}
	if !strings.HasSuffix(got, "amix=inputs=2:duration=first:dropout_transition=2[aout]") {
		t.Errorf("missing amix tail: %s", got)
	}
}

func TestSubtitlesFilterEscaping(t *testing.T) {
	got := SubtitlesFilter(`C:\renders\captions.ass`)
	want := `ass=C\:\\renders\\captions.ass`
	if got != want {
		t.Errorf("SubtitlesFilter = %q, want %q", got, want)
	}
	if got := SubtitlesFilter("/tmp/out.ass"); got != "ass=/tmp/out.ass" {
		t.Errorf("plain path should pass through: %q", got)
	}
}

func TestEncodeJobArgOrder(t *testing.T) {
	job := EncodeJob{
		Inputs: []Input{
			{Path: "video.mp4", Options: []string{"-stream_loop", "2"}},
			{Path: "audio.mp3"},
		},
		Maps:      []string{"0:v", "1:a"},
		VideoArgs: QualityUltraFast.VideoArgs(),
		AudioArgs: QualityUltraFast.AudioArgs(),
		Extra:     []string{"-shortest"},
		Output:    "out.mp4",
	}
	args := job.Args()
	joined := strings.Join(args, " ")

	if !strings.HasPrefix(joined, "-y -hide_banner -loglevel error -stream_loop 2 -i video.mp4 -i audio.mp3") {
		t.Errorf("input order wrong: %s", joined)
	}
	if args[len(args)-1] != "out.mp4" {
		t.Errorf("output must be last arg, got %q", args[len(args)-1])
	}
	if strings.Index(joined, "-map 0:v") > strings.Index(joined, "-c:v") {
		t.Errorf("maps must precede codec args: %s", joined)
	}
	if strings.Index(joined, "-shortest") < strings.Index(joined, "-c:a") {
		t.Errorf("trailing flags must follow codec args: %s", joined)
	}
}

func TestEncodeJobFilterPlacement(t *testing.T) {
	job := EncodeJob{
		Inputs:        []Input{{Path: "a.mp4"}, {Path: "b.mov"}},
		FilterComplex: "[0:v][1:v]overlay[vout]",
		Maps:          []string{"[vout]", "0:a?"},
		Output:        "out.mp4",
	}
	joined := strings.Join(job.Args(), " ")
	if !strings.Contains(joined, "-i b.mov -filter_complex [0:v][1:v]overlay[vout] -map [vout]") {
		t.Errorf("filter_complex placement wrong: %s", joined)
	}
}
