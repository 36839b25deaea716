package caption

import (
	"fmt"
	"strconv"
	"strings"
)

// Alignment is the numpad-style ASS alignment value.
type Alignment int

const (
	AlignBottomLeft   Alignment = 1
	AlignBottomCenter Alignment = 2
	AlignBottomRight  Alignment = 3
	AlignMiddleLeft   Alignment = 4
	AlignMiddleCenter Alignment = 5
	AlignMiddleRight  Alignment = 6
	AlignTopLeft      Alignment = 7
	AlignTopCenter    Alignment = 8
	AlignTopRight     Alignment = 9
)

// Style bundles every visual parameter of the rendered caption track.
// Colors are ASS-encoded (&HAABBGGRR); use HexToASS to build them.
type Style struct {
	FontName     string
	FontSize     int
	PrimaryColor string
	OutlineColor string
	BackColor    string
	Bold         bool
	Italic       bool
	Underline    bool
	ScaleX       int
	ScaleY       int
	Spacing      int
	OutlineWidth int
	ShadowDepth  int
	Alignment    Alignment
	MarginH      int
	MarginV      int

	// per-line effects
	BlurEdges int
	FadeIn    float64 // seconds
	FadeOut   float64

	// karaoke word-reveal coloring
	Karaoke              bool
	KaraokeMainColor     string
	KaraokeSpeakingColor string
}

// DefaultStyle is the stock look: bold white Arial over a black outline,
// bottom-centered, red speaking-word highlight when karaoke is enabled.
func DefaultStyle() Style {
	return Style{
		FontName:             "Arial",
		FontSize:             24,
		PrimaryColor:         "&H00FFFFFF",
		OutlineColor:         "&H00000000",
		BackColor:            "&H80000000",
		Bold:                 true,
		ScaleX:               100,
		ScaleY:               100,
		OutlineWidth:         2,
		ShadowDepth:          2,
		Alignment:            AlignBottomCenter,
		MarginV:              20,
		KaraokeMainColor:     "&H00FFFFFF",
		KaraokeSpeakingColor: "&H000000FF",
	}
}

// styleLine renders the single [V4+ Styles] entry. ASS encodes booleans as
// -1/0 and orders color channels BGR.
func (s Style) styleLine() string {
	return fmt.Sprintf("Style: Default,%s,%d,%s,%s,%s,%s,%d,%d,%d,0,%d,%d,%d,0,1,%d,%d,%d,%d,%d,%d,1",
		s.FontName, s.FontSize,
		s.PrimaryColor, s.PrimaryColor, s.OutlineColor, s.BackColor,
		assBool(s.Bold), assBool(s.Italic), assBool(s.Underline),
		s.ScaleX, s.ScaleY, s.Spacing,
		s.OutlineWidth, s.ShadowDepth, int(s.Alignment),
		s.MarginH, s.MarginH, s.MarginV)
}

func assBool(b bool) int {
	if b {
		return -1
	}
	return 0
}

// HexToASS converts "#RRGGBB" to an opaque ASS color "&H00BBGGRR".
func HexToASS(hex string) (string, error) {
	r, g, b, err := parseHex(hex)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("&H00%02X%02X%02X", b, g, r), nil
}

// HexToASSAlpha converts "#RRGGBB" plus an opacity (0 transparent, 255
// opaque) to an ASS color. ASS stores transparency, so the alpha channel is
// inverted.
func HexToASSAlpha(hex string, opacity uint8) (string, error) {
	r, g, b, err := parseHex(hex)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("&H%02X%02X%02X%02X", 255-opacity, b, g, r), nil
}

func parseHex(hex string) (r, g, b uint8, err error) {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q", hex)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}
