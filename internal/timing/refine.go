// Package timing corrects word end times that speech-recognition engines
// tend to truncate, by looking for the last voiced energy inside each word.
package timing

import (
	"fmt"
	"math"

	"captioner/internal/audio"
	"captioner/internal/caption"
)

// Refinement defaults.
const (
	DefaultVoicedRatio     = 0.3
	DefaultGuardGap        = 0.1
	DefaultMaxWordDuration = 5.0
)

// Options tune refinement. Zero values fall back to the defaults; LookAhead
// defaults to zero.
type Options struct {
	// VoicedRatio scales the mean energy of the word window into the voicing
	// threshold.
	VoicedRatio float64
	// GuardGap is the minimum silence kept before the next word starts.
	GuardGap float64
	// MaxWordDuration caps how far past its start a word may extend.
	MaxWordDuration float64
	// LookAhead widens the analysed window past the word's original end.
	LookAhead float64
	// Features configures the underlying energy analysis.
	Features audio.Options
}

func (o Options) withDefaults() Options {
	if o.VoicedRatio <= 0 {
		o.VoicedRatio = DefaultVoicedRatio
	}
	if o.GuardGap <= 0 {
		o.GuardGap = DefaultGuardGap
	}
	if o.MaxWordDuration <= 0 {
		o.MaxWordDuration = DefaultMaxWordDuration
	}
	if o.LookAhead < 0 || math.IsNaN(o.LookAhead) {
		o.LookAhead = 0
	}
	return o
}

// Outcome classifies what refinement did to a word.
type Outcome int

const (
	Unchanged Outcome = iota
	Extended
	SkippedInvalid
	SkippedOutOfRange
	SkippedSilent
	SkippedClamped
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Extended:
		return "extended"
	case SkippedInvalid:
		return "invalid"
	case SkippedOutOfRange:
		return "out_of_range"
	case SkippedSilent:
		return "silent"
	case SkippedClamped:
		return "clamped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Refiner applies end-time refinement with fixed options. It is stateless.
type Refiner struct {
	opts Options
}

// NewRefiner returns a Refiner with defaults applied to opts.
func NewRefiner(opts Options) *Refiner {
	return &Refiner{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (r *Refiner) Options() Options {
	return r.opts
}

// Refine refines one word with default options.
func Refine(word caption.Word, features audio.Features, nextWordStart *float64) caption.Word {
	refined, _ := NewRefiner(Options{}).Explain(word, features, nextWordStart)
	return refined
}

// Refine returns the word with its end moved to the last voiced envelope
// sample, never earlier than the original end.
func (r *Refiner) Refine(word caption.Word, features audio.Features, nextWordStart *float64) caption.Word {
	refined, _ := r.Explain(word, features, nextWordStart)
	return refined
}

// Explain is Refine plus the outcome that produced the result.
//
// The analysed slice runs from the first envelope sample at or after the
// word's start through the first sample at or after its end (plus
// LookAhead), inclusive. The new end is the last sample in the slice whose
// magnitude exceeds VoicedRatio times the slice mean, clamped to
// start+MaxWordDuration and, when a next word exists, to
// nextWordStart-GuardGap. Words whose original end already violates a clamp
// are returned unchanged.
func (r *Refiner) Explain(word caption.Word, features audio.Features, nextWordStart *float64) (caption.Word, Outcome) {
	if !word.Valid() || (nextWordStart != nil && math.IsNaN(*nextWordStart)) {
		return word, SkippedInvalid
	}
	n := features.Len()
	if n == 0 {
		return word, SkippedOutOfRange
	}

	limit := word.Start + r.opts.MaxWordDuration
	if nextWordStart != nil {
		limit = math.Min(limit, *nextWordStart-r.opts.GuardGap)
	}
	if word.End > limit {
		return word, SkippedClamped
	}

	startIdx := features.SearchTime(word.Start)
	endIdx := features.SearchTime(word.End + r.opts.LookAhead)
	if startIdx >= n || endIdx >= n {
		return word, SkippedOutOfRange
	}

	mean := features.MeanMagnitude(startIdx, endIdx+1)
	if !(mean > 0) {
		return word, SkippedSilent
	}
	threshold := mean * r.opts.VoicedRatio
	last := -1
	for i := endIdx; i >= startIdx; i-- {
		if features.Envelope[i].Magnitude > threshold {
			last = i
			break
		}
	}
	if last < 0 {
		return word, SkippedSilent
	}

	candidate := math.Min(features.Envelope[last].Time, limit)
	if candidate <= word.End {
		return word, Unchanged
	}
	return word.WithEnd(candidate), Extended
}

// Report summarises a batch refinement.
type Report struct {
	Examined int            `json:"examined"`
	Extended int            `json:"extended"`
	Skipped  map[string]int `json:"skipped,omitempty"`
	// AddedSeconds is the total duration added across all extended words.
	AddedSeconds float64 `json:"added_seconds"`
}

func (rep *Report) record(before, after caption.Word, outcome Outcome) {
	rep.Examined++
	switch outcome {
	case Extended:
		rep.Extended++
		rep.AddedSeconds += after.End - before.End
	case Unchanged:
	default:
		if rep.Skipped == nil {
			rep.Skipped = make(map[string]int)
		}
		rep.Skipped[outcome.String()]++
	}
}

// RefineAll refines every word, using the following word's start as the
// guard for each one. The input slice is not modified.
func (r *Refiner) RefineAll(words []caption.Word, features audio.Features) ([]caption.Word, Report) {
	out := make([]caption.Word, len(words))
	var rep Report
	for i, w := range words {
		var next *float64
		if i+1 < len(words) {
			start := words[i+1].Start
			next = &start
		}
		refined, outcome := r.Explain(w, features, next)
		rep.record(w, refined, outcome)
		out[i] = refined
	}
	return out, rep
}

// RefineTimings extracts features from signal and refines every word. Bad
// audio yields an *audio.SignalError; callers should keep the raw timestamps.
func RefineTimings(words []caption.Word, signal audio.Signal, sampleRate int, opts Options) ([]caption.Word, Report, error) {
	refiner := NewRefiner(opts)
	features, err := audio.NewExtractor(refiner.opts.Features).Extract(signal, sampleRate)
	if err != nil {
		return nil, Report{}, err
	}
	refined, rep := refiner.RefineAll(words, features)
	return refined, rep, nil
}
