package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultSampleRate is the analysis sample rate used for decoded audio. It is
// also a rate WebRTC VAD accepts.
const DefaultSampleRate = 16000

// Range selects a portion of one audio stream. A zero Duration means "to
// the end"; Stream is the position among the input's audio streams.
type Range struct {
	Start    float64
	Duration float64
	Stream   int
}

// CommandRunner runs an external command and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Decoder extracts mono PCM from any media file ffmpeg can read.
type Decoder struct {
	ffmpegBinary string
	sampleRate   int
	run          CommandRunner
}

// DecoderOption customises a Decoder.
type DecoderOption func(*Decoder)

// WithCommandRunner overrides command execution; tests use it to avoid ffmpeg.
func WithCommandRunner(run CommandRunner) DecoderOption {
	return func(d *Decoder) {
		if run != nil {
			d.run = run
		}
	}
}

// NewDecoder builds a decoder. An empty binary defaults to "ffmpeg" and a
// non-positive sample rate to DefaultSampleRate.
func NewDecoder(ffmpegBinary string, sampleRate int, opts ...DecoderOption) *Decoder {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	d := &Decoder{ffmpegBinary: ffmpegBinary, sampleRate: sampleRate, run: runCommand}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SampleRate returns the rate decoded signals are resampled to.
func (d *Decoder) SampleRate() int {
	return d.sampleRate
}

// Decode returns the first audio stream of path as a mono Signal.
func (d *Decoder) Decode(ctx context.Context, path string, r Range) (Signal, error) {
	data, err := d.DecodeRaw(ctx, path, r)
	if err != nil {
		return Signal{}, err
	}
	signal := DecodePCM16(data, 1)
	if signal.Frames() == 0 {
		return Signal{}, &SignalError{Reason: fmt.Sprintf("no audio decoded from %s", path)}
	}
	return signal, nil
}

// DecodeRaw returns raw s16le mono PCM bytes for path.
func (d *Decoder) DecodeRaw(ctx context.Context, path string, r Range) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("decode audio: empty input path")
	}
	return d.run(ctx, d.ffmpegBinary, d.args(path, r)...)
}

func (d *Decoder) args(path string, r Range) []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if r.Start > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", r.Start))
	}
	if r.Duration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", r.Duration))
	}
	return append(args,
		"-i", path,
		"-map", fmt.Sprintf("0:a:%d", max(r.Stream, 0)),
		"-vn",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", d.sampleRate),
		"-f", "s16le",
		"-",
	)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg pcm extract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
