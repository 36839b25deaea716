package ffmpeg

import "fmt"

// QualityPreset selects a fixed tuple of NVENC encoder parameters.
type QualityPreset string

const (
	QualityUltraFast QualityPreset = "ultra_fast"
	QualityHigh      QualityPreset = "high_quality"
	QualityMaximum   QualityPreset = "maximum_quality"
)

// encoderSettings is the parameter tuple one preset maps to.
type encoderSettings struct {
	gpuPreset    string // NVENC speed preset (p4/p6/p7)
	cq           string // constant-quality value
	multipass    string // "disabled" skips the flag entirely
	spatialAQ    string
	temporalAQ   string
	audioBitrate string
	extendedRefs bool // -b_ref_mode middle -dpb_size 4
}

var qualitySettings = map[QualityPreset]encoderSettings{
	QualityUltraFast: {
		gpuPreset:    "p4",
		cq:           "23",
		multipass:    "disabled",
		spatialAQ:    "0",
		temporalAQ:   "0",
		audioBitrate: "256k",
	},
	QualityHigh: {
		gpuPreset:    "p6",
		cq:           "19",
		multipass:    "fullres",
		spatialAQ:    "1",
		temporalAQ:   "1",
		audioBitrate: "320k",
	},
	QualityMaximum: {
		gpuPreset:    "p7",
		cq:           "17",
		multipass:    "fullres",
		spatialAQ:    "1",
		temporalAQ:   "1",
		audioBitrate: "320k",
		extendedRefs: true,
	},
}

// settings resolves a preset, falling back to high_quality for unknown names.
func (q QualityPreset) settings() encoderSettings {
	if s, ok := qualitySettings[q]; ok {
		return s
	}
	return qualitySettings[QualityHigh]
}

// VideoArgs returns the NVENC encoder arguments for this preset.
func (q QualityPreset) VideoArgs() []string {
	s := q.settings()
	args := []string{
		"-c:v", HardwareEncoder,
		"-preset", s.gpuPreset,
		"-tune", "hq",
		"-profile:v", "high",
		"-rc", "vbr",
		"-cq", s.cq,
		"-rc-lookahead", "32",
		"-spatial-aq", s.spatialAQ,
		"-temporal-aq", s.temporalAQ,
		"-bf", "3",
		"-gpu", "0",
	}
	if s.multipass != "disabled" {
		args = append(args, "-multipass", s.multipass)
	}
	if s.extendedRefs {
		args = append(args, "-b_ref_mode", "middle", "-dpb_size", "4")
	}
	return args
}

// AudioArgs returns the AAC encoder arguments for this preset.
func (q QualityPreset) AudioArgs() []string {
	return []string{"-c:a", "aac", "-b:a", q.settings().audioBitrate}
}

// ParsePreset validates a preset name from config or flags.
func ParsePreset(s string) (QualityPreset, error) {
	switch QualityPreset(s) {
	case QualityUltraFast, QualityHigh, QualityMaximum:
		return QualityPreset(s), nil
	default:
		return "", fmt.Errorf(
			"unknown quality preset %q: use ultra_fast, high_quality, or maximum_quality", s)
	}
}
