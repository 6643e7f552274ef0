package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Episode 1: Pilot", "Episode 1- Pilot"},
		{`What? "Now" <ok>|`, "What Now ok"},
		{"  tabs\tand\nnewlines  ", "tabsandnewlines"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.input); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFileStem(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/media/clip.mp4", "clip"},
		{"/media/talk.final.mov", "talk.final"},
		{"/media/Q&A: live?.mkv", "Q&A- live"},
		{"/media/.hidden", "hidden"},
		{"/media/noext", "noext"},
		{"/", "captions"},
		{"", "captions"},
	}
	for _, tt := range tests {
		if got := FileStem(tt.input); got != tt.want {
			t.Errorf("FileStem(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
