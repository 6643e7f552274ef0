package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"captioner/internal/config"
	"captioner/internal/deps"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestDependencyResultsOptional(t *testing.T) {
	results := DependencyResults([]deps.Status{
		{Name: "FFmpeg", Command: "/usr/bin/ffmpeg", Available: true},
		{Name: "uvx", Command: "uvx", Detail: `binary "uvx" not found`, Optional: true},
		{Name: "FFprobe", Command: "ffprobe", Detail: `binary "ffprobe" not found`},
	})
	if !results[0].Passed || results[0].Detail != "/usr/bin/ffmpeg" {
		t.Fatalf("unexpected available result %+v", results[0])
	}
	if !results[1].Passed || !strings.HasSuffix(results[1].Detail, "(optional)") {
		t.Fatalf("optional dependency should pass with note, got %+v", results[1])
	}
	if results[2].Passed {
		t.Fatal("required missing dependency should fail")
	}
	if failed := Failed(results); len(failed) != 1 || failed[0].Name != "FFprobe" {
		t.Fatalf("Failed() = %+v", failed)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_Directories(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.StateDir = filepath.Join(t.TempDir(), "missing")

	results := RunAll(context.Background(), &cfg)
	byName := make(map[string]Result, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}
	if !byName["Work directory"].Passed || !byName["Output directory"].Passed {
		t.Fatalf("expected directory checks to pass: %+v", results)
	}
	if byName["State directory"].Passed {
		t.Fatal("expected missing state dir to fail")
	}
	if _, ok := byName["FFmpeg"]; !ok {
		t.Fatal("expected dependency results")
	}
	if vad := byName["Voice activity"]; !vad.Passed || vad.Detail != "Disabled" {
		t.Fatalf("unexpected voice activity result %+v", vad)
	}
}

func TestCheckSource(t *testing.T) {
	media := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(media, []byte("not really"), 0o644); err != nil {
		t.Fatal(err)
	}
	probeJSON := `{"streams":[{"codec_type":"video","width":1280,"height":720,"avg_frame_rate":"25/1"},{"codec_type":"audio","tags":{"language":"spa"}},{"codec_type":"audio","tags":{"language":"eng"}}],"format":{"duration":"12.0"}}`
	run := func(context.Context, string, ...string) ([]byte, error) { return []byte(probeJSON), nil }

	probe, result := CheckSource(context.Background(), run, "ffprobe", media, "en")
	if !result.Passed {
		t.Fatalf("expected pass, got %s", result.Detail)
	}
	if probe.Width != 1280 || probe.FPS != 25 || probe.Duration != 12 {
		t.Fatalf("unexpected probe %+v", probe)
	}
	if probe.Audio.Ordinal != 1 || probe.Audio.Language != "en" {
		t.Fatalf("expected the English track, got %s", probe.Audio.Label())
	}

	silent := func(context.Context, string, ...string) ([]byte, error) {
		return []byte(`{"streams":[{"codec_type":"video"}]}`), nil
	}
	if _, result := CheckSource(context.Background(), silent, "ffprobe", media, ""); result.Passed {
		t.Fatal("expected failure without audio stream")
	}
	if _, result := CheckSource(context.Background(), run, "ffprobe", filepath.Dir(media), ""); result.Passed {
		t.Fatal("expected failure for directory")
	}
}
