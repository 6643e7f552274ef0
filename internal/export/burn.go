package export

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner runs an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Burner hard-codes an ASS subtitle file into a video with ffmpeg.
type Burner struct {
	ffmpegBinary string
	run          CommandRunner
}

// NewBurner returns a Burner. An empty binary defaults to "ffmpeg"; a nil
// runner executes the command.
func NewBurner(ffmpegBinary string, run CommandRunner) *Burner {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if run == nil {
		run = runFFmpeg
	}
	return &Burner{ffmpegBinary: ffmpegBinary, run: run}
}

// Burn renders subtitlePath over inputPath into outputPath, copying audio.
func (b *Burner) Burn(ctx context.Context, inputPath, subtitlePath, outputPath string) error {
	if inputPath == "" || subtitlePath == "" || outputPath == "" {
		return fmt.Errorf("burn captions: input, subtitle and output paths are required")
	}
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", inputPath,
		"-vf", "ass=" + escapeFilterPath(subtitlePath),
		"-c:a", "copy",
		outputPath,
	}
	if err := b.run(ctx, b.ffmpegBinary, args...); err != nil {
		return fmt.Errorf("burn captions: %w", err)
	}
	return nil
}

// escapeFilterPath quotes characters special to the ffmpeg filter graph.
func escapeFilterPath(path string) string {
	r := strings.NewReplacer(`\`, `\\`, `:`, `\:`, `'`, `\'`, `,`, `\,`, `[`, `\[`, `]`, `\]`)
	return r.Replace(path)
}

func runFFmpeg(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
