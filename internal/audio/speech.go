package audio

import (
	"fmt"
	"time"
)

// SpeechMask is a per-frame voice activity decision over a signal.
type SpeechMask struct {
	Frame  time.Duration `json:"frame"`
	Voiced []bool        `json:"voiced"`
}

// Ratio returns the fraction of frames classified as speech.
func (m SpeechMask) Ratio() float64 {
	if len(m.Voiced) == 0 {
		return 0
	}
	n := 0
	for _, v := range m.Voiced {
		if v {
			n++
		}
	}
	return float64(n) / float64(len(m.Voiced))
}

// VoicedAt reports whether the frame covering t (seconds) holds speech.
func (m SpeechMask) VoicedAt(t float64) bool {
	if m.Frame <= 0 || t < 0 {
		return false
	}
	idx := int(t / m.Frame.Seconds())
	return idx < len(m.Voiced) && m.Voiced[idx]
}

// Spans merges consecutive voiced frames into [start, end] second pairs.
func (m SpeechMask) Spans() [][2]float64 {
	frame := m.Frame.Seconds()
	var spans [][2]float64
	open := -1
	for i, v := range m.Voiced {
		switch {
		case v && open < 0:
			open = i
		case !v && open >= 0:
			spans = append(spans, [2]float64{float64(open) * frame, float64(i) * frame})
			open = -1
		}
	}
	if open >= 0 {
		spans = append(spans, [2]float64{float64(open) * frame, float64(len(m.Voiced)) * frame})
	}
	return spans
}

// DetectSpeech classifies fixed frames of a mono signal with WebRTC VAD.
// sampleRate must be 8, 16, 32 or 48 kHz and frame 10, 20 or 30 ms. Frames
// the detector rejects are counted as silence.
func DetectSpeech(signal Signal, sampleRate int, mode int, frame time.Duration) (SpeechMask, error) {
	if err := validateSignal(signal, sampleRate); err != nil {
		return SpeechMask{}, err
	}
	switch sampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return SpeechMask{}, &SignalError{Reason: fmt.Sprintf("vad sample rate %d unsupported", sampleRate)}
	}
	frameMs := int(frame / time.Millisecond)
	switch frameMs {
	case 10, 20, 30:
	default:
		return SpeechMask{}, fmt.Errorf("vad frame must be 10, 20 or 30 ms, got %s", frame)
	}
	if mode < 0 {
		mode = 0
	} else if mode > 3 {
		mode = 3
	}
	vad, err := newVAD(mode)
	if err != nil {
		return SpeechMask{}, fmt.Errorf("init vad: %w", err)
	}
	data := EncodePCM16(signal.Mono())
	return SpeechMask{Frame: frame, Voiced: vadFrames(vad, data, sampleRate, frameMs)}, nil
}

func vadFrames(vad *vadProcessor, data []byte, sampleRate, frameMs int) []bool {
	samplesPerFrame := sampleRate * frameMs / 1000
	frameBytes := samplesPerFrame * 2
	if vad == nil || frameBytes <= 0 {
		return nil
	}
	flags := make([]bool, 0, len(data)/frameBytes)
	for offset := 0; offset+frameBytes <= len(data); offset += frameBytes {
		isSpeech, err := vad.Process(sampleRate, data[offset:offset+frameBytes])
		flags = append(flags, err == nil && isSpeech)
	}
	return flags
}
