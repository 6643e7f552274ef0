package audio

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

const testRate = 16000

// burst returns silence, a constant-magnitude square wave, then silence.
// Lengths are in samples.
func burst(silence, tone, tail int, amplitude float64) Signal {
	var samples []float64
	for i := 0; i < silence; i++ {
		samples = append(samples, 0)
	}
	for i := 0; i < tone; i++ {
		v := amplitude
		if i%2 == 1 {
			v = -amplitude
		}
		samples = append(samples, v)
	}
	for i := 0; i < tail; i++ {
		samples = append(samples, 0)
	}
	return Signal{Samples: samples, Channels: 1}
}

func TestExtractEnvelopeAndOnset(t *testing.T) {
	features, err := Extract(burst(4800, 4800, 4800, 0.5), testRate)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if features.Len() != 30 {
		t.Fatalf("expected 30 windows, got %d", features.Len())
	}
	if math.Abs(features.Envelope[12].Magnitude-0.5) > 1e-9 {
		t.Fatalf("tone window rms = %v, want 0.5", features.Envelope[12].Magnitude)
	}
	if features.Envelope[3].Magnitude != 0 {
		t.Fatalf("silent window rms = %v, want 0", features.Envelope[3].Magnitude)
	}
	if len(features.OnsetTimes) != 1 {
		t.Fatalf("expected a single onset, got %v", features.OnsetTimes)
	}
	if got := features.OnsetTimes[0]; math.Abs(got-0.315) > 1e-9 {
		t.Fatalf("onset at %v, want 0.315", got)
	}
}

func TestExtractTimesStrictlyIncrease(t *testing.T) {
	features, err := NewExtractor(Options{Window: 20 * time.Millisecond}).Extract(burst(1600, 8000, 800, 0.2), testRate)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	for i := 1; i < features.Len(); i++ {
		if features.Envelope[i].Time <= features.Envelope[i-1].Time {
			t.Fatalf("envelope times not increasing at %d: %v <= %v", i, features.Envelope[i].Time, features.Envelope[i-1].Time)
		}
	}
	if features.Window != 20*time.Millisecond {
		t.Fatalf("window = %s", features.Window)
	}
}

func TestExtractPartialTrailingWindow(t *testing.T) {
	signal := Signal{Samples: make([]float64, 500), Channels: 1}
	features, err := Extract(signal, testRate)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if features.Len() != 2 {
		t.Fatalf("expected 2 windows, got %d", features.Len())
	}
	want := (480.0 + 10.0) / testRate
	if math.Abs(features.Envelope[1].Time-want) > 1e-12 {
		t.Fatalf("trailing window time = %v, want %v", features.Envelope[1].Time, want)
	}
	if len(features.OnsetTimes) != 0 {
		t.Fatalf("silence produced onsets: %v", features.OnsetTimes)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	signal := burst(3200, 6400, 3200, 0.3)
	a, _ := Extract(signal, testRate)
	b, _ := Extract(signal, testRate)
	if len(a.Envelope) != len(b.Envelope) || len(a.OnsetTimes) != len(b.OnsetTimes) {
		t.Fatal("repeated extraction differs")
	}
	for i := range a.Envelope {
		if a.Envelope[i] != b.Envelope[i] {
			t.Fatalf("envelope sample %d differs", i)
		}
	}
}

func TestExtractRejectsBadSignal(t *testing.T) {
	tests := []struct {
		name   string
		signal Signal
		rate   int
	}{
		{"empty", Signal{}, testRate},
		{"zero rate", Signal{Samples: []float64{0.1}}, 0},
		{"negative channels", Signal{Samples: []float64{0.1}, Channels: -1}, testRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.signal, tt.rate)
			if !errors.Is(err, ErrSignal) {
				t.Fatalf("expected ErrSignal, got %v", err)
			}
		})
	}
}

func TestMonoAveragesChannels(t *testing.T) {
	s := Signal{Samples: []float64{1, 0, 0.5, 0.5, -1, 1}, Channels: 2}
	mono := s.Mono()
	want := []float64{0.5, 0.5, 0}
	for i := range want {
		if mono[i] != want[i] {
			t.Fatalf("mono = %v, want %v", mono, want)
		}
	}
	if s.DurationSeconds(3) != 1 {
		t.Fatalf("duration = %v", s.DurationSeconds(3))
	}
}

func TestDecodePCM16(t *testing.T) {
	s := DecodePCM16([]byte{0x00, 0x80, 0x00, 0x40, 0xff}, 1)
	if len(s.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(s.Samples))
	}
	if s.Samples[0] != -1 || s.Samples[1] != 0.5 {
		t.Fatalf("unexpected samples %v", s.Samples)
	}
}

func TestFeatureHelpers(t *testing.T) {
	f := Features{
		Envelope: []EnergySample{{0.1, 1}, {0.2, 2}, {0.3, 3}},
		OnsetTimes: []float64{
			0.1, 0.5, 0.9,
		},
	}
	if idx := f.SearchTime(0.15); idx != 1 {
		t.Fatalf("SearchTime = %d", idx)
	}
	if idx := f.SearchTime(0.2); idx != 1 {
		t.Fatalf("SearchTime exact = %d", idx)
	}
	if idx := f.SearchTime(1); idx != 3 {
		t.Fatalf("SearchTime past end = %d", idx)
	}
	if m := f.MeanMagnitude(0, 3); m != 2 {
		t.Fatalf("MeanMagnitude = %v", m)
	}
	if got := f.OnsetsBetween(0.1, 0.9); len(got) != 2 {
		t.Fatalf("OnsetsBetween = %v", got)
	}
}

func TestDecoderUsesFFmpegPCM(t *testing.T) {
	var gotArgs []string
	run := func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != "ffmpeg" {
			t.Fatalf("unexpected binary %q", name)
		}
		gotArgs = args
		return []byte{0x00, 0x40, 0x00, 0x40}, nil
	}
	dec := NewDecoder("", 0, WithCommandRunner(run))
	signal, err := dec.Decode(context.Background(), "clip.mp4", Range{Start: 1.5, Duration: 2, Stream: 1})
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if signal.Frames() != 2 {
		t.Fatalf("expected 2 frames, got %d", signal.Frames())
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-ss 1.500", "-t 2.000", "-i clip.mp4", "-map 0:a:1", "-ar 16000", "-f s16le -"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
}

func TestDecoderEmptyOutput(t *testing.T) {
	run := func(context.Context, string, ...string) ([]byte, error) { return nil, nil }
	_, err := NewDecoder("ffmpeg", testRate, WithCommandRunner(run)).Decode(context.Background(), "x.wav", Range{})
	if !errors.Is(err, ErrSignal) {
		t.Fatalf("expected ErrSignal, got %v", err)
	}
}
