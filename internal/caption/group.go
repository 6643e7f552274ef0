package caption

import (
	"encoding/json"
	"errors"
	"strings"
)

// Grouping defaults observed in production captioning runs.
const (
	DefaultMaxWords     = 5
	DefaultGapThreshold = 0.5
)

var (
	// ErrEmptyInput reports that there were no words to group. Callers should
	// skip caption generation for the segment entirely.
	ErrEmptyInput = errors.New("caption: no words to group")
	// ErrInvalidThreshold reports a non-positive word limit or gap threshold.
	ErrInvalidThreshold = errors.New("caption: grouping thresholds must be positive")
)

// Group is a contiguous run of words rendered together as one caption line.
type Group struct {
	words []Word
}

// NewGroup copies words into an immutable group. It returns ErrEmptyInput
// when words is empty.
func NewGroup(words []Word) (Group, error) {
	if len(words) == 0 {
		return Group{}, ErrEmptyInput
	}
	cp := make([]Word, len(words))
	copy(cp, words)
	return Group{words: cp}, nil
}

// Words returns a copy of the group's words.
func (g Group) Words() []Word {
	cp := make([]Word, len(g.words))
	copy(cp, g.words)
	return cp
}

// Len returns the number of words in the group.
func (g Group) Len() int { return len(g.words) }

// Word returns the i-th word.
func (g Group) Word(i int) Word { return g.words[i] }

// Start is the first word's start time.
func (g Group) Start() float64 {
	if len(g.words) == 0 {
		return 0
	}
	return g.words[0].Start
}

// End is the last word's end time.
func (g Group) End() float64 {
	if len(g.words) == 0 {
		return 0
	}
	return g.words[len(g.words)-1].End
}

// Contains reports whether t falls inside [Start, End], inclusive at both ends.
func (g Group) Contains(t float64) bool {
	return len(g.words) > 0 && g.Start() <= t && t <= g.End()
}

// Text joins the group's words with single spaces.
func (g Group) Text() string {
	parts := make([]string, len(g.words))
	for i, w := range g.words {
		parts[i] = strings.TrimSpace(w.Text)
	}
	return strings.Join(parts, " ")
}

// Build partitions an ordered word stream into caption groups.
//
// Words accumulate into the current group; before a word is appended the
// group is closed when it already holds maxWords words, or when the silence
// between the previous word's end and this word's start exceeds gapThreshold.
// A full group closes regardless of the gap that follows it.
func Build(words []Word, maxWords int, gapThreshold float64) ([]Group, error) {
	if len(words) == 0 {
		return nil, ErrEmptyInput
	}
	if maxWords <= 0 || !(gapThreshold > 0) {
		return nil, ErrInvalidThreshold
	}

	groups := make([]Group, 0, len(words)/maxWords+1)
	current := make([]Word, 0, maxWords)
	flush := func() {
		if len(current) == 0 {
			return
		}
		g, _ := NewGroup(current)
		groups = append(groups, g)
		current = current[:0]
	}

	for _, w := range words {
		if len(current) >= maxWords {
			flush()
		} else if len(current) > 0 && w.Start-current[len(current)-1].End > gapThreshold {
			flush()
		}
		current = append(current, w)
	}
	flush()
	return groups, nil
}

// BuildCaptionGroups is the pipeline-facing name for Build.
func BuildCaptionGroups(words []Word, maxWords int, gapThreshold float64) ([]Group, error) {
	return Build(words, maxWords, gapThreshold)
}

// Flatten returns every word of every group, in order.
func Flatten(groups []Group) []Word {
	total := 0
	for _, g := range groups {
		total += g.Len()
	}
	out := make([]Word, 0, total)
	for _, g := range groups {
		out = append(out, g.words...)
	}
	return out
}

// Ordered reports whether groups are time-ordered and non-overlapping, which
// lets lookups binary-search on group end times.
func Ordered(groups []Group) bool {
	for i := 1; i < len(groups); i++ {
		if groups[i].Start() < groups[i-1].End() || groups[i].End() < groups[i-1].End() {
			return false
		}
	}
	return true
}

type groupJSON struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words"`
}

// MarshalJSON encodes the group with its derived window and text.
func (g Group) MarshalJSON() ([]byte, error) {
	return json.Marshal(groupJSON{Start: g.Start(), End: g.End(), Text: g.Text(), Words: g.words})
}

// UnmarshalJSON decodes a group from its words; the window is re-derived.
func (g *Group) UnmarshalJSON(data []byte) error {
	var payload groupJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	built, err := NewGroup(payload.Words)
	if err != nil {
		return err
	}
	*g = built
	return nil
}
