// Package compositor lays out the active caption group for a playback time.
//
// A Compositor indexes caption groups once and answers Render(t) with a fresh
// Layout: the group on screen at t and the position, size and animation
// state of each of its words. It never draws; renderers consume the Layout
// and the Handles it references.
package compositor

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"captioner/internal/animation"
	"captioner/internal/caption"
)

// Layout defaults.
const (
	DefaultWordSpacing = 20
	DefaultMargin      = 50
	DefaultFontSize    = 70
	DefaultFrameWidth  = 1920
	DefaultFrameHeight = 1080
)

// Anchor is the vertical placement of the caption line.
type Anchor int

const (
	AnchorBottom Anchor = iota
	AnchorCenter
	AnchorTop
)

func (a Anchor) String() string {
	switch a {
	case AnchorTop:
		return "top"
	case AnchorCenter:
		return "center"
	default:
		return "bottom"
	}
}

// ParseAnchor maps a config value onto an Anchor. Empty means bottom.
func ParseAnchor(value string) (Anchor, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "bottom":
		return AnchorBottom, nil
	case "center", "centre", "middle":
		return AnchorCenter, nil
	case "top":
		return AnchorTop, nil
	default:
		return AnchorBottom, fmt.Errorf("unknown caption position %q", value)
	}
}

// TextCase transforms word text before measurement.
type TextCase int

const (
	CaseNone TextCase = iota
	CaseUpper
	CaseLower
	CaseTitle
)

// ParseTextCase maps a config value onto a TextCase. Empty means none.
func ParseTextCase(value string) (TextCase, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none":
		return CaseNone, nil
	case "upper":
		return CaseUpper, nil
	case "lower":
		return CaseLower, nil
	case "title":
		return CaseTitle, nil
	default:
		return CaseNone, fmt.Errorf("unknown text case %q", value)
	}
}

// Apply transforms text. Casers are not safe for concurrent use, so one is
// built per call.
func (c TextCase) Apply(text string) string {
	switch c {
	case CaseUpper:
		return cases.Upper(language.Und).String(text)
	case CaseLower:
		return cases.Lower(language.Und).String(text)
	case CaseTitle:
		return cases.Title(language.Und).String(text)
	default:
		return text
	}
}

// Size is a frame size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Config holds everything layout depends on. Measurer and Cache are
// optional; nil values get an EstimateMeasurer and a private cache.
type Config struct {
	Frame       Size
	Anchor      Anchor
	Margin      float64
	WordSpacing float64
	FontSize    float64
	TextCase    TextCase
	Animation   animation.Config
	Measurer    Measurer
	Cache       *HandleCache
}

// DefaultConfig returns a 1080p bottom-anchored layout with no animation.
func DefaultConfig() Config {
	return Config{
		Frame:       Size{Width: DefaultFrameWidth, Height: DefaultFrameHeight},
		Anchor:      AnchorBottom,
		Margin:      DefaultMargin,
		WordSpacing: DefaultWordSpacing,
		FontSize:    DefaultFontSize,
		Animation:   animation.DefaultConfig(),
	}
}

// WithDefaults fills unset fields with the package defaults.
func (c Config) WithDefaults() Config {
	if c.Frame.Width <= 0 {
		c.Frame.Width = DefaultFrameWidth
	}
	if c.Frame.Height <= 0 {
		c.Frame.Height = DefaultFrameHeight
	}
	if c.FontSize <= 0 {
		c.FontSize = DefaultFontSize
	}
	if c.WordSpacing < 0 {
		c.WordSpacing = 0
	}
	if c.Margin < 0 {
		c.Margin = 0
	}
	if c.Measurer == nil {
		c.Measurer = NewEstimateMeasurer(0)
	}
	if c.Cache == nil {
		c.Cache = NewHandleCache(0)
	}
	return c
}

// Placement is one word positioned in the frame. X and Y are the top-left
// corner of the scaled word; Width and Height are scaled.
type Placement struct {
	Word   caption.Word    `json:"word"`
	Text   string          `json:"text"`
	State  animation.State `json:"state"`
	X      float64         `json:"x"`
	Y      float64         `json:"y"`
	Width  float64         `json:"width"`
	Height float64         `json:"height"`
	Handle Handle          `json:"-"`
}

// Layout is the composited caption at one instant. Group is -1 and Items is
// empty when no caption is on screen.
type Layout struct {
	Time  float64     `json:"time"`
	Frame Size        `json:"frame"`
	Group int         `json:"group"`
	Items []Placement `json:"items,omitempty"`
}

// Empty reports whether nothing is drawn.
func (l Layout) Empty() bool { return len(l.Items) == 0 }

// Compositor answers layout queries over a fixed set of groups. It is safe
// for concurrent use.
type Compositor struct {
	groups  []caption.Group
	ordered bool
	cfg     Config
}

// New indexes groups for lookup. The slice is copied.
func New(groups []caption.Group, cfg Config) *Compositor {
	cp := make([]caption.Group, len(groups))
	copy(cp, groups)
	return &Compositor{groups: cp, ordered: caption.Ordered(cp), cfg: cfg.WithDefaults()}
}

// Groups returns the number of indexed groups.
func (c *Compositor) Groups() int { return len(c.groups) }

// Config returns the effective configuration.
func (c *Compositor) Config() Config { return c.cfg }

// CacheStats reports handle-cache effectiveness.
func (c *Compositor) CacheStats() CacheStats { return c.cfg.Cache.Stats() }

// Find returns the index of the first group with Start <= t <= End, or -1.
func (c *Compositor) Find(t float64) int {
	if math.IsNaN(t) || len(c.groups) == 0 {
		return -1
	}
	if !c.ordered {
		for i, g := range c.groups {
			if g.Contains(t) {
				return i
			}
		}
		return -1
	}
	i := sort.Search(len(c.groups), func(i int) bool { return c.groups[i].End() >= t })
	if i < len(c.groups) && c.groups[i].Start() <= t {
		return i
	}
	return -1
}

// Render lays out the group on screen at t.
func (c *Compositor) Render(t float64) Layout {
	layout := Layout{Time: t, Frame: c.cfg.Frame, Group: c.Find(t)}
	if layout.Group < 0 {
		return layout
	}
	g := c.groups[layout.Group]
	cfg := c.cfg

	items := make([]Placement, g.Len())
	lineWidth, lineHeight := 0.0, 0.0
	for i := range items {
		word := g.Word(i)
		text := cfg.TextCase.Apply(strings.TrimSpace(word.Text))
		baseW, baseH := cfg.Cache.Measure(cfg.Measurer, text, cfg.FontSize)
		state := animation.Evaluate(cfg.Animation, animation.TargetFor(g, i, baseH), t)
		handle := cfg.Cache.Get(makeKey(text, cfg.FontSize, state), func() Handle {
			return Handle{Text: text, Width: baseW, Height: baseH, Color: state.Color, Opacity: state.Opacity}
		})
		items[i] = Placement{
			Word:   word,
			Text:   text,
			State:  state,
			Width:  baseW * state.Scale,
			Height: baseH * state.Scale,
			Handle: handle,
		}
		lineWidth += items[i].Width
		if baseH > lineHeight {
			lineHeight = baseH
		}
	}
	if len(items) > 1 {
		lineWidth += cfg.WordSpacing * float64(len(items)-1)
	}

	x := (float64(cfg.Frame.Width) - lineWidth) / 2
	lineY := lineTop(cfg, lineHeight)
	for i := range items {
		items[i].X = x + items[i].State.Offset.X
		items[i].Y = lineY + items[i].State.Offset.Y
		x += items[i].Width + cfg.WordSpacing
	}
	layout.Items = items
	return layout
}

func lineTop(cfg Config, lineHeight float64) float64 {
	switch cfg.Anchor {
	case AnchorTop:
		return cfg.Margin
	case AnchorCenter:
		return (float64(cfg.Frame.Height) - lineHeight) / 2
	default:
		return float64(cfg.Frame.Height) - cfg.Margin - lineHeight
	}
}

// RenderFrame is the stateless form of Render. Callers rendering many frames
// should build a Compositor once.
func RenderFrame(groups []caption.Group, t float64, cfg Config) Layout {
	return New(groups, cfg).Render(t)
}
