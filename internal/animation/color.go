package animation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RGB is an 8-bit-per-channel colour.
type RGB struct {
	R, G, B uint8
}

// Common colours.
var (
	White = RGB{255, 255, 255}
	Black = RGB{0, 0, 0}
	// Lime is the default emphasis colour for the word being spoken.
	Lime = RGB{50, 255, 0}
)

var namedColors = map[string]RGB{
	"white":   White,
	"black":   Black,
	"lime":    Lime,
	"green":   {0, 128, 0},
	"yellow":  {255, 255, 0},
	"red":     {255, 0, 0},
	"blue":    {0, 0, 255},
	"cyan":    {0, 255, 255},
	"magenta": {255, 0, 255},
	"orange":  {255, 165, 0},
	"gray":    {128, 128, 128},
	"grey":    {128, 128, 128},
}

// Hex formats the colour as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c RGB) String() string { return c.Hex() }

// MarshalText encodes the colour as #rrggbb.
func (c RGB) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText accepts anything ParseColor accepts.
func (c *RGB) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Lerp blends a toward b per channel. p is clamped to [0, 1]; p=0 yields a
// and p=1 yields b.
func Lerp(a, b RGB, p float64) RGB {
	p = clamp01(p)
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*p))
	}
	return RGB{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B)}
}

// ParseColor accepts a colour name, #rrggbb, #rgb, or rgb(r, g, b).
func ParseColor(value string) (RGB, error) {
	s := strings.ToLower(strings.TrimSpace(value))
	if s == "" {
		return RGB{}, fmt.Errorf("parse color: empty value")
	}
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:], value)
	}
	if strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")") {
		parts := strings.Split(s[4:len(s)-1], ",")
		if len(parts) != 3 {
			return RGB{}, fmt.Errorf("parse color %q: expected three components", value)
		}
		var ch [3]uint8
		for i, part := range parts {
			n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
			if err != nil {
				return RGB{}, fmt.Errorf("parse color %q: %w", value, err)
			}
			ch[i] = uint8(n)
		}
		return RGB{ch[0], ch[1], ch[2]}, nil
	}
	return RGB{}, fmt.Errorf("parse color %q: unknown format", value)
}

func parseHex(hex, original string) (RGB, error) {
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("parse color %q: expected 3 or 6 hex digits", original)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("parse color %q: %w", original, err)
	}
	return RGB{uint8(n >> 16), uint8(n >> 8), uint8(n)}, nil
}

// MustParseColor is ParseColor for constants; it panics on error.
func MustParseColor(value string) RGB {
	c, err := ParseColor(value)
	if err != nil {
		panic(err)
	}
	return c
}
