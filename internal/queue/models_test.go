package queue

import (
	"path/filepath"
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
		ok   bool
	}{
		{" Refining ", StatusRefining, true},
		{"review", StatusReview, true},
		{"", "", false},
		{"encoding", "encoding", false},
	}
	for _, tt := range tests {
		got, ok := ParseStatus(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseStatus(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if len(AllStatuses()) != 8 {
		t.Fatalf("unexpected status count %d", len(AllStatuses()))
	}
}

func TestJobLifecycleHelpers(t *testing.T) {
	job := NewJob(" /v/clip.mp4 ")
	if job.SourcePath != "/v/clip.mp4" || job.IsProcessing() || job.IsTerminal() {
		t.Fatalf("unexpected new job %#v", job)
	}
	job.Begin(StatusGrouping, "Grouping words")
	if !job.IsProcessing() || job.ProgressStage != "grouping" {
		t.Fatalf("Begin did not start processing: %#v", job)
	}
	job.SetFailed(StatusGrouping, "boom")
	if job.Status != StatusFailed || job.ErrorMessage != "boom" {
		t.Fatalf("non-terminal failure status should collapse to failed, got %#v", job)
	}
	if got := job.WorkDir("/tmp/work"); got != filepath.Join("/tmp/work", job.RunID) {
		t.Fatalf("WorkDir = %q", got)
	}
	if (Job{}).WorkDir("") != "" {
		t.Fatal("expected empty work dir for empty base")
	}
}

func TestMetadataJSON(t *testing.T) {
	if (Metadata{}).JSON() != "" {
		t.Fatal("zero metadata should encode empty")
	}
	meta := MetadataFromJSON(Metadata{Words: 3, Groups: 1, FrameWidth: 1920}.JSON())
	if meta.Words != 3 || meta.FrameWidth != 1920 {
		t.Fatalf("round trip = %#v", meta)
	}
	if MetadataFromJSON("{not json").Words != 0 {
		t.Fatal("invalid JSON should decode to zero value")
	}
}
