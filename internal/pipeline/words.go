package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"captioner/internal/caption"
	"captioner/internal/services/whisperx"
)

// LoadWords reads word timings from a WhisperX JSON file or from a JSON
// array of {"word", "start", "end"} objects.
func LoadWords(path string) ([]caption.Word, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var words []caption.Word
		if err := json.Unmarshal(trimmed, &words); err != nil {
			return nil, fmt.Errorf("parse words %s: %w", path, err)
		}
		return words, nil
	}
	segments, err := whisperx.LoadSegments(path)
	if err != nil {
		return nil, err
	}
	return whisperx.Words(segments), nil
}

// WriteWords writes words as an indented JSON array readable by LoadWords.
func WriteWords(w io.Writer, words []caption.Word) error {
	if words == nil {
		words = []caption.Word{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(words)
}
