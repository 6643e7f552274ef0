package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"captioner/internal/audio"
	"captioner/internal/caption"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Words builds caption words from text/start/end triples.
func Words(spans ...Span) []caption.Word {
	words := make([]caption.Word, len(spans))
	for i, s := range spans {
		words[i] = caption.Word{Text: s.Text, Start: s.Start, End: s.End}
	}
	return words
}

// Span is a word with timing.
type Span struct {
	Text       string
	Start, End float64
}

// ToneSignal returns a mono signal of the given length in seconds that is
// silent except for a 440 Hz tone over each [start, end) span.
func ToneSignal(sampleRate int, seconds float64, spans ...[2]float64) audio.Signal {
	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	for _, span := range spans {
		from := int(span[0] * float64(sampleRate))
		to := int(span[1] * float64(sampleRate))
		for i := max(from, 0); i < min(to, n); i++ {
			samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate))
		}
	}
	return audio.Signal{Samples: samples, Channels: 1}
}

// PCM16 encodes a signal as little-endian 16-bit PCM, the format ffmpeg
// produces for the decoder.
func PCM16(signal audio.Signal) []byte {
	return audio.EncodePCM16(signal.Samples)
}
