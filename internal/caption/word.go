package caption

import (
	"fmt"
	"math"
	"strings"
)

// Word is a single transcribed token with a display window in seconds.
// Start <= End; a zero-length word is a decorative marker shown instantaneously.
type Word struct {
	Text       string   `json:"word"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Duration returns End-Start, never negative.
func (w Word) Duration() float64 {
	if w.End <= w.Start {
		return 0
	}
	return w.End - w.Start
}

// Valid reports whether the word carries finite, ordered timestamps.
func (w Word) Valid() bool {
	if math.IsNaN(w.Start) || math.IsNaN(w.End) || math.IsInf(w.Start, 0) || math.IsInf(w.End, 0) {
		return false
	}
	return w.Start <= w.End
}

// WithEnd returns a copy of the word with a new end time.
func (w Word) WithEnd(end float64) Word {
	w.End = end
	if w.Confidence != nil {
		c := *w.Confidence
		w.Confidence = &c
	}
	return w
}

// Float64 returns a pointer to v; handy for optional fields like Confidence.
func Float64(v float64) *float64 {
	return &v
}

// TrimWords strips whitespace from word text and drops words that end up
// empty. Transcribers commonly emit leading spaces and bare punctuation tokens.
func TrimWords(words []Word) []Word {
	out := make([]Word, 0, len(words))
	for _, w := range words {
		w.Text = strings.TrimSpace(w.Text)
		if w.Text == "" {
			continue
		}
		out = append(out, w)
	}
	return out
}

// WordError identifies the first word that breaks the ordering invariants.
type WordError struct {
	Index  int
	Word   Word
	Reason string
}

func (e *WordError) Error() string {
	return fmt.Sprintf("word %d (%q %.3f-%.3f): %s", e.Index, e.Word.Text, e.Word.Start, e.Word.End, e.Reason)
}

// ValidateWords checks that every word has ordered timestamps and that starts
// never move backwards through the sequence.
func ValidateWords(words []Word) error {
	prevStart := math.Inf(-1)
	for i, w := range words {
		if !w.Valid() {
			return &WordError{Index: i, Word: w, Reason: "start after end or non-finite timestamp"}
		}
		if w.Start < prevStart {
			return &WordError{Index: i, Word: w, Reason: "start precedes previous word"}
		}
		prevStart = w.Start
	}
	return nil
}
