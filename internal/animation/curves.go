// Package animation maps playback time onto per-word visual state.
//
// The curve functions (Fade, Bounce, ColorEmphasis) are pure and take time in
// their own domain. Evaluate applies the configured curve to a word, mapping
// wall-clock time into that domain.
package animation

import "math"

// DefaultFadeDuration is the reveal length for the fade animation.
const DefaultFadeDuration = 0.5

// DefaultColorFade is the blend zone at each end of a highlighted word.
const DefaultColorFade = 0.1

// BounceParams shape the scale-in animation.
type BounceParams struct {
	StartScale float64
	EndScale   float64
	Duration   float64
}

// DefaultBounce grows from 80% to full size over 200 ms.
var DefaultBounce = BounceParams{StartScale: 0.8, EndScale: 1.0, Duration: 0.2}

// Fade returns opacity for t seconds after reveal: linear from 0 to 1 over
// fadeDuration, clamped. A non-positive duration is an instant reveal.
func Fade(t, fadeDuration float64) float64 {
	if fadeDuration <= 0 {
		if t >= 0 {
			return 1
		}
		return 0
	}
	return clamp01(t / fadeDuration)
}

// Bounce returns the DefaultBounce scale t seconds after the caption appears.
func Bounce(t float64) float64 {
	return BounceWith(t, DefaultBounce)
}

// BounceWith eases from StartScale to EndScale over Duration with a quadratic
// ease-out. Before zero it holds StartScale; after Duration it holds EndScale.
func BounceWith(t float64, p BounceParams) float64 {
	if t >= p.Duration {
		return p.EndScale
	}
	if t <= 0 {
		return p.StartScale
	}
	progress := t / p.Duration
	eased := 1 - (1-progress)*(1-progress)
	return p.StartScale + (p.EndScale-p.StartScale)*eased
}

// ColorEmphasis highlights a word while it is spoken. Outside [start, end)
// the colour is base. Inside, it blends base to active over the first
// fadeZone seconds, holds active, and blends back over the last fadeZone
// seconds. Words shorter than two fade zones split their length between the
// two blends.
func ColorEmphasis(t, start, end float64, base, active RGB, fadeZone float64) RGB {
	if t < start || t >= end {
		return base
	}
	if fz := (end - start) / 2; fadeZone > fz {
		fadeZone = fz
	}
	if fadeZone <= 0 {
		return active
	}
	switch {
	case t < start+fadeZone:
		return Lerp(base, active, (t-start)/fadeZone)
	case t < end-fadeZone:
		return active
	default:
		return Lerp(active, base, 1-(end-t)/fadeZone)
	}
}

// DimSustained returns an opacity multiplier for long words: full opacity up
// to five seconds, then fading linearly to zero at fifteen.
func DimSustained(duration float64) float64 {
	return clamp01(1.5 - duration/10)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
