package timing

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"captioner/internal/audio"
	"captioner/internal/caption"
)

// envelope builds 30 ms features over [0, total) with loud energy inside
// [loudFrom, loudTo) and a quiet floor elsewhere.
func envelope(total, loudFrom, loudTo float64) audio.Features {
	var samples []audio.EnergySample
	for t := 0.015; t < total; t += 0.03 {
		mag := 0.01
		if t >= loudFrom && t < loudTo {
			mag = 1
		}
		samples = append(samples, audio.EnergySample{Time: t, Magnitude: mag})
	}
	return audio.Features{Envelope: samples}
}

func ptr(v float64) *float64 { return &v }

func TestRefineExtendsToLastVoicedSample(t *testing.T) {
	features := envelope(10, 1.0, 2.0)
	r := NewRefiner(Options{LookAhead: 1})
	got, outcome := r.Explain(caption.Word{Text: "hi", Start: 1.0, End: 1.2}, features, nil)
	if outcome != Extended {
		t.Fatalf("outcome = %s, want extended", outcome)
	}
	if got.End < 1.9 || got.End >= 2.0 {
		t.Fatalf("refined end = %v, want last loud sample just before 2.0", got.End)
	}
}

func TestRefineRespectsGuardGap(t *testing.T) {
	features := envelope(10, 1.0, 2.0)
	r := NewRefiner(Options{LookAhead: 1})
	got := r.Refine(caption.Word{Text: "hi", Start: 1.0, End: 1.2}, features, ptr(1.6))
	if math.Abs(got.End-1.5) > 1e-9 {
		t.Fatalf("refined end = %v, want 1.5 (next start minus guard gap)", got.End)
	}
}

func TestRefineRespectsDurationCap(t *testing.T) {
	features := envelope(20, 1.0, 9.0)
	r := NewRefiner(Options{LookAhead: 10})
	got := r.Refine(caption.Word{Text: "long", Start: 1.0, End: 1.2}, features, nil)
	if math.Abs(got.End-6.0) > 1e-9 {
		t.Fatalf("refined end = %v, want capped 6.0", got.End)
	}
}

func TestRefineWithoutLookAheadStaysNearOriginalEnd(t *testing.T) {
	features := envelope(10, 1.0, 2.0)
	got := Refine(caption.Word{Text: "hi", Start: 1.0, End: 1.5}, features, nil)
	if got.End < 1.5 || got.End > 1.53 {
		t.Fatalf("refined end = %v, want within one window of 1.5", got.End)
	}
}

func TestRefineFallbacks(t *testing.T) {
	features := envelope(3, 1.0, 2.0)
	silent := envelope(3, 10, 11)
	for i := range silent.Envelope {
		silent.Envelope[i].Magnitude = 0
	}
	tests := []struct {
		name     string
		word     caption.Word
		features audio.Features
		next     *float64
		want     Outcome
	}{
		{"reversed", caption.Word{Start: 2, End: 1}, features, nil, SkippedInvalid},
		{"nan", caption.Word{Start: math.NaN(), End: 1}, features, nil, SkippedInvalid},
		{"empty envelope", caption.Word{Start: 1, End: 1.2}, audio.Features{}, nil, SkippedOutOfRange},
		{"past envelope", caption.Word{Start: 2.8, End: 3.5}, features, nil, SkippedOutOfRange},
		{"silent", caption.Word{Start: 1, End: 1.2}, silent, nil, SkippedSilent},
		{"already overlaps next", caption.Word{Start: 1, End: 1.5}, features, ptr(1.55), SkippedClamped},
		{"already beyond cap", caption.Word{Start: 0, End: 5.5}, envelope(10, 0, 10), nil, SkippedClamped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outcome := NewRefiner(Options{}).Explain(tt.word, tt.features, tt.next)
			if outcome != tt.want {
				t.Fatalf("outcome = %s, want %s", outcome, tt.want)
			}
			if got.End != tt.word.End && !math.IsNaN(tt.word.Start) {
				t.Fatalf("fallback modified end: %v -> %v", tt.word.End, got.End)
			}
		})
	}
}

func TestRefineProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	features := envelope(60, 0, 0)
	for i := range features.Envelope {
		features.Envelope[i].Magnitude = rng.Float64()
	}
	r := NewRefiner(Options{LookAhead: 2})
	for i := 0; i < 500; i++ {
		start := rng.Float64() * 50
		end := start + rng.Float64()*3
		word := caption.Word{Text: "w", Start: start, End: end}
		var next *float64
		if rng.Intn(2) == 0 {
			next = ptr(end + rng.Float64()*2)
		}
		got := r.Refine(word, features, next)
		if got.End < word.End {
			t.Fatalf("refine shortened %v -> %v", word.End, got.End)
		}
		if got.Start != word.Start || got.Text != word.Text {
			t.Fatalf("refine changed start or text: %+v", got)
		}
		if got.End > word.End {
			if got.End > start+DefaultMaxWordDuration+1e-9 {
				t.Fatalf("refine exceeded cap: start=%v end=%v", start, got.End)
			}
			if next != nil && got.End > *next-DefaultGuardGap+1e-9 {
				t.Fatalf("refine violated guard gap: end=%v next=%v", got.End, *next)
			}
		}
	}
}

func TestRefineAllThreadsNextStart(t *testing.T) {
	features := envelope(10, 1.0, 3.0)
	words := []caption.Word{
		{Text: "a", Start: 1.0, End: 1.2},
		{Text: "b", Start: 1.8, End: 2.0},
		{Text: "c", Start: 2.05, End: 2.1},
	}
	out, rep := NewRefiner(Options{LookAhead: 2}).RefineAll(words, features)
	if math.Abs(out[0].End-1.7) > 1e-9 {
		t.Fatalf("first word end = %v, want 1.7", out[0].End)
	}
	if words[0].End != 1.2 {
		t.Fatal("RefineAll modified its input")
	}
	if rep.Examined != 3 {
		t.Fatalf("examined = %d", rep.Examined)
	}
	if rep.Extended < 1 || rep.Skipped[SkippedClamped.String()] != 1 {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func TestRefineTimingsRejectsBadAudio(t *testing.T) {
	_, _, err := RefineTimings([]caption.Word{{Start: 0, End: 1}}, audio.Signal{}, 16000, Options{})
	if !errors.Is(err, audio.ErrSignal) {
		t.Fatalf("expected ErrSignal, got %v", err)
	}
	var sigErr *audio.SignalError
	if !errors.As(err, &sigErr) {
		t.Fatalf("expected *audio.SignalError, got %T", err)
	}
}

func TestRefineTimingsEndToEnd(t *testing.T) {
	const rate = 16000
	samples := make([]float64, rate*3)
	for i := rate; i < rate*2; i++ {
		samples[i] = 0.5
		if i%2 == 1 {
			samples[i] = -0.5
		}
	}
	words := []caption.Word{{Text: "tone", Start: 1.0, End: 1.3}}
	out, rep, err := RefineTimings(words, audio.Signal{Samples: samples, Channels: 1}, rate, Options{LookAhead: 0.9})
	if err != nil {
		t.Fatalf("RefineTimings returned error: %v", err)
	}
	if rep.Extended != 1 {
		t.Fatalf("expected the word to be extended, report %+v", rep)
	}
	if out[0].End < 1.9 || out[0].End > 2.0 {
		t.Fatalf("refined end = %v, want near 2.0", out[0].End)
	}
}
