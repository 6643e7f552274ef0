package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary the caption pipeline invokes.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Tools names the configured binaries.
type Tools struct {
	FFmpeg        string
	FFprobe       string
	UVX           string
	Transcription bool
}

// Requirements lists the binaries needed for the given tool configuration.
// uvx is only required when transcription is enabled.
func Requirements(tools Tools) []Requirement {
	ffmpeg := firstNonEmpty(tools.FFmpeg, "ffmpeg")
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpeg, Description: "Decodes audio and burns captions"},
		{Name: "FFprobe", Command: firstNonEmpty(tools.FFprobe, ResolveFFprobe(ffmpeg)), Description: "Reads frame size and duration", Optional: true},
		{Name: "uvx", Command: firstNonEmpty(tools.UVX, "uvx"), Description: "Runs WhisperX transcription", Optional: !tools.Transcription},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch {
		case cmd == "":
			status.Detail = "command not configured"
		default:
			if resolved, err := exec.LookPath(cmd); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else {
				status.Command = resolved
				status.Available = true
			}
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
