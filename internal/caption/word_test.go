package caption

import (
	"errors"
	"math"
	"testing"
)

func TestValidateWords(t *testing.T) {
	tests := []struct {
		name  string
		words []Word
		index int
	}{
		{"ordered", []Word{{Text: "a", Start: 0, End: 1}, {Text: "b", Start: 1, End: 1}}, -1},
		{"reversed window", []Word{{Text: "a", Start: 0, End: 1}, {Text: "b", Start: 2, End: 1.5}}, 1},
		{"start moves backwards", []Word{{Text: "a", Start: 1, End: 2}, {Text: "b", Start: 0.5, End: 3}}, 1},
		{"nan", []Word{{Text: "a", Start: math.NaN(), End: 1}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWords(tt.words)
			if tt.index < 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var wordErr *WordError
			if !errors.As(err, &wordErr) {
				t.Fatalf("expected WordError, got %v", err)
			}
			if wordErr.Index != tt.index {
				t.Fatalf("error index = %d, want %d", wordErr.Index, tt.index)
			}
		})
	}
}

func TestTrimWordsDropsBlankTokens(t *testing.T) {
	words := TrimWords([]Word{{Text: " hello "}, {Text: "  "}, {Text: "world"}})
	if len(words) != 2 || words[0].Text != "hello" || words[1].Text != "world" {
		t.Fatalf("unexpected trimmed words: %+v", words)
	}
}

func TestWithEndCopiesConfidence(t *testing.T) {
	w := Word{Text: "a", Start: 0, End: 1, Confidence: Float64(0.9)}
	extended := w.WithEnd(2)
	*extended.Confidence = 0.1
	if *w.Confidence != 0.9 {
		t.Fatalf("WithEnd shares confidence pointer")
	}
	if extended.End != 2 || w.End != 1 {
		t.Fatalf("unexpected ends: %v %v", extended.End, w.End)
	}
	if w.Duration() != 1 || (Word{Start: 2, End: 1}).Duration() != 0 {
		t.Fatalf("unexpected durations")
	}
}
