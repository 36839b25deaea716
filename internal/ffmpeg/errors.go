package ffmpeg

import "fmt"

// ProbeError reports a failed or unparsable ffprobe invocation.
type ProbeError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("probe %s: %s", e.Path, e.Stderr)
	}
	return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// EncodeError reports a failed or timed-out ffmpeg invocation. Stderr carries
// the subprocess output verbatim.
type EncodeError struct {
	Op     string
	Stderr string
	Err    error
}

func (e *EncodeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed: %s", e.Op, e.Stderr)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// HardwareUnavailableError means the required hardware encoder was not found
// in ffmpeg's encoder list. Fatal at pipeline start, never per task.
type HardwareUnavailableError struct {
	Encoder string
}

func (e *HardwareUnavailableError) Error() string {
	return fmt.Sprintf(
		"hardware encoder %s not available: NVIDIA GPU with NVENC support is required",
		e.Encoder,
	)
}

// AssetMissingError means an input path did not exist at time of use.
type AssetMissingError struct {
	Path string
}

func (e *AssetMissingError) Error() string {
	return fmt.Sprintf("media file not found: %s", e.Path)
}
