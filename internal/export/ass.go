// Package export writes caption groups in formats external renderers
// consume: Advanced SubStation Alpha, SubRip, and a JSON-lines frame manifest.
package export

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"captioner/internal/animation"
	"captioner/internal/caption"
	"captioner/internal/compositor"
)

// Format is an output file format.
type Format string

const (
	FormatASS    Format = "ass"
	FormatSRT    Format = "srt"
	FormatFrames Format = "frames"
)

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	if f == FormatFrames {
		return ".frames.jsonl"
	}
	return "." + string(f)
}

// ParseFormat validates a format name.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case FormatASS, FormatSRT, FormatFrames:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q", value)
	}
}

// Style carries the presentation settings shared by the subtitle writers.
type Style struct {
	Layout       compositor.Config
	Font         string
	Outline      animation.RGB
	OutlineWidth float64
}

// DefaultStyle returns Arial on a black four-pixel outline.
func DefaultStyle() Style {
	return Style{Layout: compositor.DefaultConfig(), Font: "Arial", Outline: animation.Black, OutlineWidth: 4}
}

// WriteASS renders groups as one dialogue event per group. The configured
// animation is expressed with override tags: karaoke fill for color, per-word
// alpha transforms for fade and a line scale transform for bounce.
func WriteASS(w io.Writer, groups []caption.Group, style Style) error {
	style.Layout = style.Layout.WithDefaults()
	bw := bufio.NewWriter(w)
	bw.WriteString(assHeader(style))
	bw.WriteString("\n[Events]\n")
	bw.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, g := range groups {
		fmt.Fprintf(bw, "Dialogue: 0,%s,%s,Caption,,0,0,0,,%s\n",
			assTime(g.Start()), assTime(g.End()), assText(g, style))
	}
	return bw.Flush()
}

func assText(g caption.Group, style Style) string {
	anim := style.Layout.Animation
	textCase := style.Layout.TextCase
	var b strings.Builder
	switch anim.Kind {
	case animation.KindBounce:
		p := anim.Bounce
		if p.Duration <= 0 {
			p = animation.DefaultBounce
		}
		from := int(math.Round(p.StartScale * 100))
		to := int(math.Round(p.EndScale * 100))
		fmt.Fprintf(&b, "{\\fscx%d\\fscy%d\\t(0,%d,\\fscx%d\\fscy%d)}", from, from, int(math.Round(p.Duration*1000)), to, to)
	}

	prevEnd := 0
	for i := 0; i < g.Len(); i++ {
		word := g.Word(i)
		text := sanitizeASS(textCase.Apply(word.Text))
		if i > 0 {
			b.WriteByte(' ')
		}
		switch anim.Kind {
		case animation.KindColor:
			startCS := centis(word.Start - g.Start())
			endCS := centis(word.End - g.Start())
			if gap := startCS - prevEnd; gap > 0 {
				fmt.Fprintf(&b, "{\\k%d}", gap)
			}
			dur := endCS - startCS
			if dur < 1 {
				dur = 1
			}
			fmt.Fprintf(&b, "{\\k%d}%s", dur, text)
			prevEnd = startCS + dur
		case animation.KindFade:
			startMS := int(math.Round((word.Start - g.Start()) * 1000))
			fadeMS := int(math.Round(anim.FadeDuration * 1000))
			fmt.Fprintf(&b, "{\\alpha&HFF&\\t(%d,%d,\\alpha&H00&)}%s{\\alpha&H00&}", startMS, startMS+fadeMS, text)
		default:
			b.WriteString(text)
		}
	}
	return b.String()
}

func assHeader(style Style) string {
	layout := style.Layout
	anim := layout.Animation
	primary, secondary := anim.Base, anim.Base
	if anim.Kind == animation.KindColor {
		primary = anim.Active
	}
	font := style.Font
	if strings.TrimSpace(font) == "" {
		font = "Arial"
	}
	var b strings.Builder
	b.WriteString("[Script Info]\n")
	b.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", layout.Frame.Width)
	fmt.Fprintf(&b, "PlayResY: %d\n", layout.Frame.Height)
	b.WriteString("ScaledBorderAndShadow: yes\n\n")
	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&b, "Style: Caption,%s,%d,%s,%s,%s,&H64000000,1,0,0,0,100,100,0,0,1,%s,0,%d,80,80,%d,1\n",
		font,
		int(math.Round(layout.FontSize)),
		assColor(primary), assColor(secondary), assColor(style.Outline),
		trimFloat(style.OutlineWidth),
		assAlignment(layout.Anchor),
		int(math.Round(layout.Margin)),
	)
	return b.String()
}

// assAlignment maps anchors onto numpad-style ASS alignment, horizontally
// centred.
func assAlignment(a compositor.Anchor) int {
	switch a {
	case compositor.AnchorTop:
		return 8
	case compositor.AnchorCenter:
		return 5
	default:
		return 2
	}
}

// assColor encodes &HAABBGGRR with full opacity.
func assColor(c animation.RGB) string {
	return fmt.Sprintf("&H00%02X%02X%02X", c.B, c.G, c.R)
}

func assTime(sec float64) string {
	d := seconds(sec)
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func centis(sec float64) int {
	return int(math.Round(sec * 100))
}

// seconds converts to a Duration rounded to the millisecond, clamping
// negatives to zero.
func seconds(sec float64) time.Duration {
	if !(sec > 0) {
		return 0
	}
	return time.Duration(math.Round(sec*1000)) * time.Millisecond
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%.2f", v)
}
