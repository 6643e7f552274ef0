package audiotrack

import (
	"strconv"
	"strings"

	"captioner/internal/language"
	"captioner/internal/media/ffprobe"
)

// Selection is the audio stream chosen for a job.
type Selection struct {
	Stream ffprobe.Stream
	// Ordinal is the position among audio streams, or -1 when the source
	// has no audio.
	Ordinal  int
	Language string
	// Candidates is the number of audio streams considered.
	Candidates int
}

// None is the selection for a source without audio.
var None = Selection{Ordinal: -1}

// Found reports whether a stream was selected.
func (s Selection) Found() bool { return s.Ordinal >= 0 }

// Label summarises the selected stream for logs and status output.
func (s Selection) Label() string {
	if !s.Found() {
		return "none"
	}
	parts := []string{"#" + strconv.Itoa(s.Ordinal), language.DisplayName(s.Language)}
	if codec := strings.TrimSpace(s.Stream.CodecName); codec != "" {
		parts = append(parts, codec)
	}
	if ch := channelCount(s.Stream); ch > 0 {
		parts = append(parts, strconv.Itoa(ch)+"ch")
	}
	if title := streamTitle(s.Stream.Tags); title != "" {
		parts = append(parts, title)
	}
	return strings.Join(parts, " | ")
}

// Select ranks the audio streams and returns the best dialogue track for
// preferredLanguage. An empty preferredLanguage skips language ranking.
func Select(streams []ffprobe.Stream, preferredLanguage string) Selection {
	audio := make([]ffprobe.Stream, 0, len(streams))
	for _, stream := range streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			audio = append(audio, stream)
		}
	}
	if len(audio) == 0 {
		return None
	}

	best, bestScore := 0, score(audio[0], 0, preferredLanguage)
	for i := 1; i < len(audio); i++ {
		if s := score(audio[i], i, preferredLanguage); s > bestScore {
			best, bestScore = i, s
		}
	}
	return Selection{
		Stream:     audio[best],
		Ordinal:    best,
		Language:   language.FromTags(audio[best].Tags),
		Candidates: len(audio),
	}
}

func score(stream ffprobe.Stream, order int, preferred string) float64 {
	total := 0.0
	if preferred != "" && language.Matches(language.FromTags(stream.Tags), preferred) {
		total += 1000
	}
	if isSecondary(stream) {
		total -= 500
	}
	if stream.Disposition["default"] == 1 {
		total += 100
	}
	total += float64(min(channelCount(stream), 6)) * 5
	return total - float64(order)*0.1
}

var secondaryKeywords = []string{"commentary", "description", "descriptive", "narration", "karaoke", "instrumental"}

// isSecondary reports whether a stream is commentary or an accessibility
// track rather than the programme dialogue.
func isSecondary(stream ffprobe.Stream) bool {
	for _, key := range []string{"comment", "visual_impaired", "karaoke"} {
		if stream.Disposition[key] == 1 {
			return true
		}
	}
	title := strings.ToLower(streamTitle(stream.Tags))
	for _, keyword := range secondaryKeywords {
		if strings.Contains(title, keyword) {
			return true
		}
	}
	return false
}

func streamTitle(tags map[string]string) string {
	for _, key := range []string{"title", "TITLE", "handler_name", "HANDLER_NAME"} {
		if value := strings.TrimSpace(tags[key]); value != "" {
			return value
		}
	}
	return ""
}

func channelCount(stream ffprobe.Stream) int {
	if stream.Channels > 0 {
		return stream.Channels
	}
	layout := strings.ToLower(strings.TrimSpace(stream.ChannelLayout))
	switch {
	case layout == "":
		return 0
	case layout == "mono":
		return 1
	case layout == "stereo":
		return 2
	}
	main, lfe, found := strings.Cut(layout, ".")
	if !found {
		return 0
	}
	lfe = strings.TrimRight(lfe, "abcdefghijklmnopqrstuvwxyz() ")
	a, errA := strconv.Atoi(main)
	b, errB := strconv.Atoi(lfe)
	if errA != nil || errB != nil {
		return 0
	}
	return a + b
}
