package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrSignal matches every SignalError via errors.Is.
var ErrSignal = errors.New("invalid audio signal")

// SignalError reports audio input that cannot be analysed. It is fatal to the
// refinement step; callers fall back to raw transcription timestamps.
type SignalError struct {
	Reason string
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("audio signal: %s", e.Reason)
}

// Is lets errors.Is(err, ErrSignal) match.
func (e *SignalError) Is(target error) bool {
	return target == ErrSignal
}

// Signal is PCM audio normalised to [-1, 1]. Multi-channel audio is
// interleaved frame by frame.
type Signal struct {
	Samples  []float64
	Channels int
}

// Frames returns the number of per-channel sample frames.
func (s Signal) Frames() int {
	ch := s.channels()
	return len(s.Samples) / ch
}

func (s Signal) channels() int {
	if s.Channels <= 0 {
		return 1
	}
	return s.Channels
}

// Mono averages interleaved channels into a single channel. A mono signal is
// returned as-is without copying.
func (s Signal) Mono() []float64 {
	ch := s.channels()
	if ch == 1 {
		return s.Samples
	}
	frames := len(s.Samples) / ch
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		base := i * ch
		for c := 0; c < ch; c++ {
			sum += s.Samples[base+c]
		}
		out[i] = sum / float64(ch)
	}
	return out
}

// DurationSeconds returns the signal length at the given sample rate.
func (s Signal) DurationSeconds(sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(s.Frames()) / float64(sampleRate)
}

// DecodePCM16 converts little-endian signed 16-bit PCM into a Signal. A
// trailing odd byte is ignored.
func DecodePCM16(data []byte, channels int) Signal {
	if channels <= 0 {
		channels = 1
	}
	count := len(data) / 2
	samples := make([]float64, count)
	for i := 0; i < count; i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = float64(v) / 32768.0
	}
	return Signal{Samples: samples, Channels: channels}
}

// EncodePCM16 converts mono samples back into little-endian signed 16-bit PCM,
// clamping to the representable range.
func EncodePCM16(samples []float64) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

func validateSignal(signal Signal, sampleRate int) error {
	if sampleRate <= 0 {
		return &SignalError{Reason: fmt.Sprintf("sample rate must be positive, got %d", sampleRate)}
	}
	if signal.Channels < 0 {
		return &SignalError{Reason: fmt.Sprintf("invalid channel count %d", signal.Channels)}
	}
	if signal.Frames() == 0 {
		return &SignalError{Reason: "signal is empty"}
	}
	return nil
}
