package animation

import (
	"fmt"
	"strings"

	"captioner/internal/caption"
)

// Kind selects the animation applied to caption words.
type Kind int

const (
	KindNone Kind = iota
	KindFade
	KindBounce
	KindColor
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindFade:
		return "fade"
	case KindBounce:
		return "bounce"
	case KindColor:
		return "color"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a config value onto a Kind. Empty means none.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none":
		return KindNone, nil
	case "fade", "word_by_word_fade":
		return KindFade, nil
	case "bounce":
		return KindBounce, nil
	case "color", "colour", "highlight":
		return KindColor, nil
	default:
		return KindNone, fmt.Errorf("unknown animation %q", value)
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText accepts anything ParseKind accepts.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Point is a 2D offset in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// State is the visual state of one word at one instant.
type State struct {
	Opacity float64 `json:"opacity"`
	Scale   float64 `json:"scale"`
	Color   RGB     `json:"color"`
	Offset  Point   `json:"offset"`
}

// Visible reports whether the word contributes any pixels.
func (s State) Visible() bool {
	return s.Opacity > 0 && s.Scale > 0
}

// Config selects and parameterises an animation.
type Config struct {
	Kind         Kind
	FadeDuration float64
	Bounce       BounceParams
	ColorFade    float64
	Base         RGB
	Active       RGB
	// DimSustained lowers the opacity of words that last longer than five
	// seconds.
	DimSustained bool
}

// DefaultConfig returns a static white caption style.
func DefaultConfig() Config {
	return Config{
		Kind:         KindNone,
		FadeDuration: DefaultFadeDuration,
		Bounce:       DefaultBounce,
		ColorFade:    DefaultColorFade,
		Base:         White,
		Active:       Lime,
	}
}

// Target is the word being animated and the group that displays it.
type Target struct {
	Word       caption.Word
	GroupStart float64
	GroupEnd   float64
	// Height is the unscaled rendered height, used to keep a scaled word
	// vertically centred on its line.
	Height float64
}

// TargetFor builds a Target for word i of g.
func TargetFor(g caption.Group, i int, height float64) Target {
	return Target{Word: g.Word(i), GroupStart: g.Start(), GroupEnd: g.End(), Height: height}
}

// Evaluate returns the visual state of target at playback time t.
//
// Fade is timed from the word's own start so words reveal one by one; a
// zero-length word is fully opaque from its start. Bounce
// is timed from the group start so the whole line scales in together. Color
// uses the word's absolute window.
func Evaluate(cfg Config, target Target, t float64) State {
	state := State{Opacity: 1, Scale: 1, Color: cfg.Base}
	switch cfg.Kind {
	case KindFade:
		state.Opacity = Fade(t-target.Word.Start, cfg.FadeDuration)
		// Zero-length markers appear at their start instead of fading.
		if target.Word.Duration() <= 0 && t >= target.Word.Start {
			state.Opacity = 1
		}
	case KindBounce:
		params := cfg.Bounce
		if params.Duration <= 0 {
			params = DefaultBounce
		}
		state.Scale = BounceWith(t-target.GroupStart, params)
		state.Offset.Y = (1 - state.Scale) * target.Height / 2
	case KindColor:
		state.Color = ColorEmphasis(t, target.Word.Start, target.Word.End, cfg.Base, cfg.Active, cfg.ColorFade)
	}
	if cfg.DimSustained {
		state.Opacity *= DimSustained(target.Word.Duration())
	}
	return state
}
