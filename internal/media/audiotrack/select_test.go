package audiotrack

import (
	"testing"

	"captioner/internal/media/ffprobe"
)

func TestSelect(t *testing.T) {
	video := ffprobe.Stream{Index: 0, CodecType: "video"}
	tests := []struct {
		name      string
		streams   []ffprobe.Stream
		preferred string
		ordinal   int
		lang      string
	}{
		{
			name:    "no audio",
			streams: []ffprobe.Stream{video},
			ordinal: -1,
		},
		{
			name: "language beats default flag",
			streams: []ffprobe.Stream{
				video,
				{Index: 1, CodecType: "audio", Channels: 6, Tags: map[string]string{"language": "spa"}, Disposition: map[string]int{"default": 1}},
				{Index: 2, CodecType: "audio", Channels: 2, Tags: map[string]string{"language": "eng"}},
			},
			preferred: "en-US",
			ordinal:   1,
			lang:      "en",
		},
		{
			name: "commentary is skipped",
			streams: []ffprobe.Stream{
				{Index: 0, CodecType: "audio", Channels: 2, Tags: map[string]string{"language": "eng", "title": "Director's Commentary"}, Disposition: map[string]int{"default": 1}},
				{Index: 1, CodecType: "audio", Channels: 2, Tags: map[string]string{"language": "eng"}},
			},
			preferred: "en",
			ordinal:   1,
			lang:      "en",
		},
		{
			name: "description disposition is skipped",
			streams: []ffprobe.Stream{
				{Index: 0, CodecType: "audio", Channels: 2, Disposition: map[string]int{"visual_impaired": 1}},
				{Index: 1, CodecType: "audio", ChannelLayout: "mono"},
			},
			ordinal: 1,
		},
		{
			name: "surround preferred when otherwise equal",
			streams: []ffprobe.Stream{
				{Index: 0, CodecType: "audio", ChannelLayout: "stereo"},
				{Index: 1, CodecType: "audio", ChannelLayout: "5.1(side)"},
			},
			ordinal: 1,
		},
		{
			name: "earlier stream wins ties",
			streams: []ffprobe.Stream{
				{Index: 3, CodecType: "audio", Channels: 2},
				{Index: 4, CodecType: "audio", Channels: 2},
			},
			ordinal: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := Select(tt.streams, tt.preferred)
			if sel.Ordinal != tt.ordinal {
				t.Fatalf("ordinal = %d, want %d (%s)", sel.Ordinal, tt.ordinal, sel.Label())
			}
			if sel.Language != tt.lang {
				t.Fatalf("language = %q, want %q", sel.Language, tt.lang)
			}
		})
	}
}

func TestSelectionLabel(t *testing.T) {
	sel := Select([]ffprobe.Stream{
		{Index: 1, CodecType: "audio", CodecName: "aac", Channels: 2, Tags: map[string]string{"language": "fre", "title": "Stereo"}},
	}, "")
	if got := sel.Label(); got != "#0 | French | aac | 2ch | Stereo" {
		t.Fatalf("label = %q", got)
	}
	if None.Label() != "none" || None.Found() {
		t.Fatal("unexpected None selection")
	}
}

func TestChannelCount(t *testing.T) {
	tests := map[string]int{
		"7.1":       8,
		"5.1(side)": 6,
		"2.1":       3,
		"quad":      0,
	}
	for layout, want := range tests {
		if got := channelCount(ffprobe.Stream{ChannelLayout: layout}); got != want {
			t.Errorf("channelCount(%q) = %d, want %d", layout, got, want)
		}
	}
}
