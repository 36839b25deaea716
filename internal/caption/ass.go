package caption

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// assHeader matches the canonical 1080p playfield the encoder renders at.
const assHeader = `[Script Info]
Title: Generated Subtitles
ScriptType: v4.00+
WrapStyle: 0
PlayResX: 1920
PlayResY: 1080
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
`

// FormatTimestamp renders seconds as an ASS timestamp, H:MM:SS.cc. Fractions
// beyond centiseconds are truncated, never rounded up, so a caption cannot
// gain a timecode past its real boundary: 59.999 formats as "0:00:59.99".
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	cs := int(seconds*100 + 1e-6)
	return fmt.Sprintf("%d:%02d:%02d.%02d",
		cs/360000, cs%360000/6000, cs%6000/100, cs%100)
}

// WriteASS writes a complete subtitle script: header, one style entry, and
// one dialogue event per segment. Effect tags compose fade first, then blur,
// in a single override block ahead of the text payload.
func WriteASS(w io.Writer, style Style, segments []Segment) error {
	var sb strings.Builder
	sb.WriteString(assHeader)
	sb.WriteString(style.styleLine())
	sb.WriteString("\n\n[Events]\nFormat: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if style.Karaoke {
			text = karaokeText(style, seg)
		}
		if effects := effectTags(style); effects != "" {
			text = "{" + effects + "}" + text
		}
		fmt.Fprintf(&sb, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			FormatTimestamp(seg.Start), FormatTimestamp(seg.End), text)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteFile renders the track to path, creating or truncating it.
func WriteFile(path string, style Style, segments []Segment) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create caption file: %w", err)
	}
	if err := WriteASS(f, style, segments); err != nil {
		f.Close()
		return fmt.Errorf("write caption file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close caption file: %w", err)
	}
	return nil
}

func effectTags(style Style) string {
	var sb strings.Builder
	if style.FadeIn > 0 || style.FadeOut > 0 {
		fmt.Fprintf(&sb, `\fad(%d,%d)`, int(style.FadeIn*1000), int(style.FadeOut*1000))
	}
	if style.BlurEdges > 0 {
		fmt.Fprintf(&sb, `\be%d`, style.BlurEdges)
	}
	return sb.String()
}

// karaokeText re-emits a segment as one styled run where each word carries a
// reveal timer and the speaking color. Timers split the span evenly by word
// count, in centiseconds. The whole line is wrapped in the resting color.
func karaokeText(style Style, seg Segment) string {
	words := strings.Fields(seg.Text)
	if len(words) == 0 {
		return ""
	}
	kTime := int(seg.Duration() / float64(len(words)) * 100)

	var sb strings.Builder
	fmt.Fprintf(&sb, "{\\c%s}", style.KaraokeMainColor)
	for i, word := range words {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "{\\k%d\\c%s}%s", kTime, style.KaraokeSpeakingColor, word)
	}
	return sb.String()
}
