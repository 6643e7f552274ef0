package queue

import "encoding/json"

// Metadata summarises what a job produced. It is stored as JSON.
type Metadata struct {
	Words         int            `json:"words"`
	Groups        int            `json:"groups"`
	Extended      int            `json:"extended,omitempty"`
	Skipped       map[string]int `json:"skipped,omitempty"`
	AddedSeconds  float64        `json:"added_seconds,omitempty"`
	RefineSkipped string         `json:"refine_skipped,omitempty"`
	SpeechRatio   *float64       `json:"speech_ratio,omitempty"`
	AudioStream   string         `json:"audio_stream,omitempty"`
	FrameWidth    int            `json:"frame_width,omitempty"`
	FrameHeight   int            `json:"frame_height,omitempty"`
	Duration      float64        `json:"duration,omitempty"`
	Frames        int            `json:"frames,omitempty"`
}

// MetadataFromJSON decodes stored metadata. Invalid or empty input yields the
// zero value.
func MetadataFromJSON(data string) Metadata {
	var meta Metadata
	if data == "" {
		return meta
	}
	_ = json.Unmarshal([]byte(data), &meta)
	return meta
}

// JSON encodes the metadata. The zero value encodes as an empty string.
func (m Metadata) JSON() string {
	if m.Words == 0 && m.Groups == 0 && m.Duration == 0 && m.FrameWidth == 0 && m.RefineSkipped == "" && m.SpeechRatio == nil && m.AudioStream == "" {
		return ""
	}
	data, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(data)
}
