package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"
)

// Canonical output resolution for the whole pipeline.
const (
	CanonicalWidth  = 1920
	CanonicalHeight = 1080
)

// Reference color removed by chroma-keying (pure green screen).
const chromaKeyColor = "0x00FF00"

// OverlayPosition anchors a composited overlay on the primary video.
type OverlayPosition string

const (
	PositionTopLeft     OverlayPosition = "top_left"
	PositionTopRight    OverlayPosition = "top_right"
	PositionBottomLeft  OverlayPosition = "bottom_left"
	PositionBottomRight OverlayPosition = "bottom_right"
	PositionCenter      OverlayPosition = "center"
)

// Coordinates returns the overlay filter x:y expression, with a 10px inset
// from the chosen edge. Unknown positions fall back to top_left.
func (p OverlayPosition) Coordinates() string {
	switch p {
	case PositionTopLeft:
		return "10:10"
	case PositionTopRight:
		return "main_w-overlay_w-10:10"
	case PositionBottomLeft:
		return "10:main_h-overlay_h-10"
	case PositionBottomRight:
		return "main_w-overlay_w-10:main_h-overlay_h-10"
	case PositionCenter:
		return "(main_w-overlay_w)/2:(main_h-overlay_h)/2"
	default:
		return "10:10"
	}
}

// ScaleToCanonical scales to 1920x1080 with Lanczos resampling.
func ScaleToCanonical() string {
	return fmt.Sprintf("scale=%d:%d:flags=lanczos", CanonicalWidth, CanonicalHeight)
}

// ScalePercent scales a stream to a percentage of its own dimensions.
func ScalePercent(percent int) string {
	f := formatFloat(float64(percent) / 100)
	return fmt.Sprintf("scale=iw*%s:ih*%s", f, f)
}

// ChromaKey keys out the green reference color with the given tolerances.
func ChromaKey(similarity, blend float64) string {
	return fmt.Sprintf("colorkey=%s:%s:%s",
		chromaKeyColor, formatFloat(similarity), formatFloat(blend))
}

// OverlayGraph builds the complete filter_complex for compositing stream 1
// onto stream 0: percent scale, optional chroma key, anchored overlay active
// only inside [start,end). The overlay is hidden outside the window, not
// trimmed out of the output timeline.
type OverlayGraph struct {
	Position    OverlayPosition
	SizePercent int
	RemoveGreen bool
	Similarity  float64
	Blend       float64
	Start       float64
	End         float64
	MixAudio    bool
}

func (g OverlayGraph) String() string {
	chain := []string{"format=yuv420p", ScalePercent(g.SizePercent)}
	if g.RemoveGreen {
		chain = append(chain, ChromaKey(g.Similarity, g.Blend))
	}

	var sb strings.Builder
	sb.WriteString("[1:v]")
	sb.WriteString(strings.Join(chain, ","))
	sb.WriteString("[ovr];[0:v][ovr]overlay=")
	sb.WriteString(g.Position.Coordinates())
	fmt.Fprintf(&sb, ":enable='between(t,%s,%s)'[vout]",
		formatFloat(g.Start), formatFloat(g.End))

	if g.MixAudio {
		sb.WriteString(";[0:a][1:a]amix=inputs=2:duration=first:dropout_transition=2[aout]")
	}
	return sb.String()
}

// SubtitlesFilter burns an ASS caption track into the video stream. The path
// is escaped for filter-graph syntax (colons and quotes are specials there).
func SubtitlesFilter(assPath string) string {
	return "ass=" + escapeFilterPath(assPath)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, `\`, `\\`)
	p = strings.ReplaceAll(p, `'`, `\'`)
	p = strings.ReplaceAll(p, `:`, `\:`)
	return p
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
