package audio

import (
	"math"
	"sort"
	"time"
)

// Analysis defaults.
const (
	DefaultWindow        = 30 * time.Millisecond
	DefaultSensitivity   = 1.5
	DefaultThresholdSpan = 5
	// DefaultFloor is the minimum onset strength (in normalised RMS units)
	// that can register as an onset. It keeps digital silence from producing
	// spurious onsets on quantisation noise.
	DefaultFloor = 1e-3
)

// EnergySample is the RMS magnitude of one analysis window, stamped at the
// window centre.
type EnergySample struct {
	Time      float64 `json:"time"`
	Magnitude float64 `json:"magnitude"`
}

// Features holds the derived onset and energy data for one signal.
type Features struct {
	OnsetTimes    []float64      `json:"onset_times"`
	Envelope      []EnergySample `json:"envelope"`
	OnsetStrength []float64      `json:"onset_strength"`
	Window        time.Duration  `json:"window"`
	SampleRate    int            `json:"sample_rate"`
}

// Options tune feature extraction.
type Options struct {
	// Window is the analysis window length. Zero means DefaultWindow.
	Window time.Duration
	// Sensitivity multiplies the local mean onset strength to obtain the
	// adaptive peak threshold. Zero means DefaultSensitivity.
	Sensitivity float64
	// ThresholdSpan is the number of windows on each side used for the local
	// mean. Zero means DefaultThresholdSpan.
	ThresholdSpan int
	// Floor is the absolute minimum onset strength. Zero means DefaultFloor.
	Floor float64
}

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.Sensitivity <= 0 {
		o.Sensitivity = DefaultSensitivity
	}
	if o.ThresholdSpan <= 0 {
		o.ThresholdSpan = DefaultThresholdSpan
	}
	if o.Floor <= 0 {
		o.Floor = DefaultFloor
	}
	return o
}

// Extractor computes Features with fixed options. It holds no mutable state
// and is safe for concurrent use.
type Extractor struct {
	opts Options
}

// NewExtractor returns an Extractor with defaults applied to opts.
func NewExtractor(opts Options) *Extractor {
	return &Extractor{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (e *Extractor) Options() Options {
	return e.opts
}

// Extract computes features using default options.
func Extract(signal Signal, sampleRate int) (Features, error) {
	return NewExtractor(Options{}).Extract(signal, sampleRate)
}

// Extract computes the RMS envelope, onset strength, and onset times for the
// signal. Windows do not overlap; a trailing partial window is analysed over
// the samples it has. Envelope times are strictly increasing.
func (e *Extractor) Extract(signal Signal, sampleRate int) (Features, error) {
	if err := validateSignal(signal, sampleRate); err != nil {
		return Features{}, err
	}
	mono := signal.Mono()
	windowSamples := int(math.Round(e.opts.Window.Seconds() * float64(sampleRate)))
	if windowSamples < 1 {
		windowSamples = 1
	}

	envelope := rmsEnvelope(mono, sampleRate, windowSamples)
	strength := onsetStrength(envelope)
	onsets := pickOnsets(envelope, strength, e.opts)

	return Features{
		OnsetTimes:    onsets,
		Envelope:      envelope,
		OnsetStrength: strength,
		Window:        e.opts.Window,
		SampleRate:    sampleRate,
	}, nil
}

func rmsEnvelope(mono []float64, sampleRate, windowSamples int) []EnergySample {
	count := (len(mono) + windowSamples - 1) / windowSamples
	envelope := make([]EnergySample, 0, count)
	rate := float64(sampleRate)
	for start := 0; start < len(mono); start += windowSamples {
		end := start + windowSamples
		if end > len(mono) {
			end = len(mono)
		}
		var sum float64
		for _, s := range mono[start:end] {
			sum += s * s
		}
		n := end - start
		envelope = append(envelope, EnergySample{
			Time:      (float64(start) + float64(n)/2) / rate,
			Magnitude: math.Sqrt(sum / float64(n)),
		})
	}
	return envelope
}

// onsetStrength is the half-wave rectified first difference of the envelope.
func onsetStrength(envelope []EnergySample) []float64 {
	strength := make([]float64, len(envelope))
	for i := 1; i < len(envelope); i++ {
		if d := envelope[i].Magnitude - envelope[i-1].Magnitude; d > 0 {
			strength[i] = d
		}
	}
	return strength
}

// pickOnsets selects local maxima of the onset strength that exceed
// sensitivity times the mean strength of the surrounding windows.
func pickOnsets(envelope []EnergySample, strength []float64, opts Options) []float64 {
	n := len(strength)
	if n == 0 {
		return nil
	}
	prefix := make([]float64, n+1)
	for i, s := range strength {
		prefix[i+1] = prefix[i] + s
	}

	var onsets []float64
	for i, s := range strength {
		if s < opts.Floor {
			continue
		}
		lo := i - opts.ThresholdSpan
		if lo < 0 {
			lo = 0
		}
		hi := i + opts.ThresholdSpan + 1
		if hi > n {
			hi = n
		}
		mean := (prefix[hi] - prefix[lo]) / float64(hi-lo)
		if s <= mean*opts.Sensitivity {
			continue
		}
		if i > 0 && strength[i-1] > s {
			continue
		}
		if i+1 < n && strength[i+1] >= s {
			continue
		}
		onsets = append(onsets, envelope[i].Time)
	}
	return onsets
}

// Len returns the number of envelope samples.
func (f Features) Len() int { return len(f.Envelope) }

// Times returns the envelope timestamps.
func (f Features) Times() []float64 {
	out := make([]float64, len(f.Envelope))
	for i, s := range f.Envelope {
		out[i] = s.Time
	}
	return out
}

// SearchTime returns the index of the first envelope sample whose time is at
// or after t. It returns Len() when every sample precedes t.
func (f Features) SearchTime(t float64) int {
	return sort.Search(len(f.Envelope), func(i int) bool {
		return f.Envelope[i].Time >= t
	})
}

// MeanMagnitude returns the mean RMS over envelope[lo:hi]. It returns 0 for
// an empty range.
func (f Features) MeanMagnitude(lo, hi int) float64 {
	if lo < 0 {
		lo = 0
	}
	if hi > len(f.Envelope) {
		hi = len(f.Envelope)
	}
	if hi <= lo {
		return 0
	}
	var sum float64
	for _, s := range f.Envelope[lo:hi] {
		sum += s.Magnitude
	}
	return sum / float64(hi-lo)
}

// OnsetsBetween returns the onset times in [from, to).
func (f Features) OnsetsBetween(from, to float64) []float64 {
	lo := sort.SearchFloat64s(f.OnsetTimes, from)
	hi := sort.SearchFloat64s(f.OnsetTimes, to)
	if hi <= lo {
		return nil
	}
	out := make([]float64, hi-lo)
	copy(out, f.OnsetTimes[lo:hi])
	return out
}
