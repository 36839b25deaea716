package video

import (
	"strings"
	"testing"
)

func TestLoopsNeeded(t *testing.T) {
	tests := []struct {
		videoDur float64
		audioDur float64
		want     int
		wantErr  bool
	}{
		{10, 25, 3, false},
		{10, 30, 4, false}, // exact multiple still gets one extra loop
		{10, 9, 1, false},
		{60, 61, 2, false},
		{0, 30, 0, true},
		{-1, 30, 0, true},
	}
	for _, tt := range tests {
		got, err := LoopsNeeded(tt.videoDur, tt.audioDur)
		if tt.wantErr {
			if err == nil {
				t.Errorf("LoopsNeeded(%v, %v) expected an error", tt.videoDur, tt.audioDur)
			}
			continue
		}
		if err != nil {
			t.Errorf("LoopsNeeded(%v, %v): %v", tt.videoDur, tt.audioDur, err)
			continue
		}
		if got != tt.want {
			t.Errorf("LoopsNeeded(%v, %v) = %d, want %d", tt.videoDur, tt.audioDur, got, tt.want)
		}
	}
}

func TestConcatList(t *testing.T) {
	got := concatList("/renders/clip.mp4", 3)
	want := "file '/renders/clip.mp4'\nfile '/renders/clip.mp4'\nfile '/renders/clip.mp4'\n"
	if got != want {
		t.Errorf("concatList = %q, want %q", got, want)
	}
}

func TestConcatListEscapesQuotes(t *testing.T) {
	got := concatList("/renders/John's clip.mp4", 1)
	want := `file '/renders/John'\''s clip.mp4'` + "\n"
	if got != want {
		t.Errorf("concatList = %q, want %q", got, want)
	}
}

func TestResolveWindow(t *testing.T) {
	tests := []struct {
		name       string
		spec       OverlaySpec
		mainDur    float64
		overlayDur float64
		wantStart  float64
		wantEnd    float64
		wantErr    string
	}{
		{
			name:    "full duration",
			spec:    OverlaySpec{Timing: TimingFullDuration},
			mainDur: 120, overlayDur: 10,
			wantStart: 0, wantEnd: 120,
		},
		{
			name:    "overlay duration from offset",
			spec:    OverlaySpec{Timing: TimingOverlayDuration, Start: 30},
			mainDur: 120, overlayDur: 15,
			wantStart: 30, wantEnd: 45,
		},
		{
			name:    "overlay duration clamped to main",
			spec:    OverlaySpec{Timing: TimingOverlayDuration, Start: 50},
			mainDur: 60, overlayDur: 40,
			wantStart: 50, wantEnd: 60,
		},
		{
			name:    "custom window clamped",
			spec:    OverlaySpec{Timing: TimingCustom, Start: 10, End: 90},
			mainDur: 60, overlayDur: 5,
			wantStart: 10, wantEnd: 60,
		},
		{
			name:    "custom with zero end runs to main end",
			spec:    OverlaySpec{Timing: TimingCustom, Start: 5},
			mainDur: 45, overlayDur: 5,
			wantStart: 5, wantEnd: 45,
		},
		{
			name:    "empty mode defaults to custom",
			spec:    OverlaySpec{Start: 1, End: 2},
			mainDur: 10, overlayDur: 5,
			wantStart: 1, wantEnd: 2,
		},
		{
			name:    "start past end of video",
			spec:    OverlaySpec{Timing: TimingCustom, Start: 70},
			mainDur: 60, overlayDur: 5,
			wantErr: "empty",
		},
		{
			name:    "unknown mode",
			spec:    OverlaySpec{Timing: "sideways"},
			mainDur: 60, overlayDur: 5,
			wantErr: "unknown overlay timing mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := resolveWindow(tt.spec, tt.mainDur, tt.overlayDur)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("window = [%v,%v), want [%v,%v)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestResolveWindowNegativeStartClamped(t *testing.T) {
	start, end, err := resolveWindow(OverlaySpec{Timing: TimingCustom, Start: -3, End: 10}, 60, 5)
	if err != nil {
		t.Fatal(err)
	}
	if start != 0 || end != 10 {
		t.Errorf("window = [%v,%v), want [0,10)", start, end)
	}
}
