package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"captioner/internal/audio"
	"captioner/internal/config"
	"captioner/internal/media/audiotrack"
	"captioner/internal/media/ffprobe"
)

// CheckVoiceActivity reports whether speech detection can run with this
// build and config.
func CheckVoiceActivity(cfg *config.Config) Result {
	const name = "Voice activity"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Audio.VADEnabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if !audio.VADAvailable() {
		return Result{Name: name, Detail: "built without cgo; set audio.vad_enabled = false"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("mode %d, %d ms frames", cfg.Audio.VADMode, cfg.Audio.VADFrameMS)}
}

// SourceProbe summarises a media file for status output.
type SourceProbe struct {
	Path     string
	Width    int
	Height   int
	FPS      float64
	Duration float64
	HasAudio bool
	Audio    audiotrack.Selection
}

// Detail renders a display-friendly summary.
func (p SourceProbe) Detail() string {
	if p.Width > 0 {
		return fmt.Sprintf("%dx%d @ %.3g fps, %.1fs", p.Width, p.Height, p.FPS, p.Duration)
	}
	return fmt.Sprintf("audio only, %.1fs", p.Duration)
}

// CheckSource verifies that path is a readable media file with an audio
// stream and selects the dialogue track for preferredLanguage. A nil runner
// executes ffprobe.
func CheckSource(ctx context.Context, run ffprobe.Runner, ffprobeBinary, path, preferredLanguage string) (SourceProbe, Result) {
	const name = "Source media"

	probe := SourceProbe{Path: path, Audio: audiotrack.None}
	path = strings.TrimSpace(path)
	info, err := os.Stat(path)
	if err != nil {
		return probe, Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if info.IsDir() {
		return probe, Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}

	var result ffprobe.Result
	if run == nil {
		result, err = ffprobe.Inspect(ctx, ffprobeBinary, path)
	} else {
		result, err = ffprobe.InspectWith(ctx, run, ffprobeBinary, path)
	}
	if err != nil {
		return probe, Result{Name: name, Detail: err.Error()}
	}
	probe.Width, probe.Height = result.FrameSize()
	probe.FPS = result.FrameRate()
	probe.Duration = result.DurationSeconds()
	probe.Audio = audiotrack.Select(result.Streams, preferredLanguage)
	probe.HasAudio = probe.Audio.Found()
	if !probe.HasAudio {
		return probe, Result{Name: name, Detail: fmt.Sprintf("%s (error: no audio stream)", path)}
	}
	return probe, Result{Name: name, Passed: true, Detail: probe.Detail()}
}
