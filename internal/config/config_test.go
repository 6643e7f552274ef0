package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"captioner/internal/animation"
	"captioner/internal/compositor"
	"captioner/internal/config"
	"captioner/internal/export"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("HF_TOKEN", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "captioner", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if want := filepath.Join(tempHome, ".local", "state", "captioner"); cfg.Paths.StateDir != want {
		t.Fatalf("state dir = %q, want %q", cfg.Paths.StateDir, want)
	}
	if cfg.QueueDBPath() != filepath.Join(cfg.Paths.StateDir, "jobs.db") {
		t.Fatalf("unexpected queue path %q", cfg.QueueDBPath())
	}
	if cfg.Grouping.MaxWords != 5 || cfg.Grouping.GapThreshold != 0.5 {
		t.Fatalf("unexpected grouping defaults %+v", cfg.Grouping)
	}
	if cfg.Refinement.GuardGap != 0.1 || cfg.Refinement.MaxWordDuration != 5 || cfg.Refinement.VoicedRatio != 0.3 {
		t.Fatalf("unexpected refinement defaults %+v", cfg.Refinement)
	}
	if cfg.FFmpegBinary() != "ffmpeg" || cfg.FFprobeBinary() != "ffprobe" {
		t.Fatal("expected default tool names")
	}
	if len(cfg.Render.Formats) != 2 {
		t.Fatalf("unexpected default formats %v", cfg.Render.Formats)
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "captioner.toml")
	body := `
[paths]
state_dir = "` + filepath.Join(dir, "state") + `"

[grouping]
max_words = 3
gap_threshold = 0.8

[animation]
style = "word_by_word_fade"
active_color = "#ff0000"

[style]
position = "TOP"
text_case = "Upper"

[render]
formats = ["ASS", "frames", "ass", " "]

[logging]
format = "yaml"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved=%q exists=%v", resolved, exists)
	}
	if cfg.Grouping.MaxWords != 3 {
		t.Fatalf("max_words = %d", cfg.Grouping.MaxWords)
	}
	if got := strings.Join(cfg.Render.Formats, ","); got != "ass,frames" {
		t.Fatalf("formats normalized to %q", got)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unknown log format should fall back to console, got %q", cfg.Logging.Format)
	}

	anim, err := cfg.AnimationConfig()
	if err != nil {
		t.Fatalf("AnimationConfig: %v", err)
	}
	if anim.Kind != animation.KindFade || anim.Active != (animation.RGB{R: 255}) {
		t.Fatalf("unexpected animation %+v", anim)
	}
	layout, err := cfg.LayoutConfig(compositor.Size{Width: 1080, Height: 1920})
	if err != nil {
		t.Fatalf("LayoutConfig: %v", err)
	}
	if layout.Anchor != compositor.AnchorTop || layout.TextCase != compositor.CaseUpper {
		t.Fatalf("unexpected layout %+v", layout)
	}
	if layout.Frame.Width != 1080 || layout.Cache == nil || layout.Measurer == nil {
		t.Fatalf("layout not filled: %+v", layout)
	}
	formats, err := cfg.ExportFormats()
	if err != nil || len(formats) != 2 || formats[1] != export.FormatFrames {
		t.Fatalf("ExportFormats = %v, %v", formats, err)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[grouping]\nmax_wrods = 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "max_wrods") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"max words", func(c *config.Config) { c.Grouping.MaxWords = 0 }, "grouping.max_words"},
		{"gap", func(c *config.Config) { c.Grouping.GapThreshold = -1 }, "grouping.gap_threshold"},
		{"voiced ratio", func(c *config.Config) { c.Refinement.VoicedRatio = 1.5 }, "refinement.voiced_ratio"},
		{"animation", func(c *config.Config) { c.Animation.Style = "wiggle" }, "animation.style"},
		{"color", func(c *config.Config) { c.Animation.BaseColor = "#12" }, "animation.base_color"},
		{"position", func(c *config.Config) { c.Style.Position = "left" }, "style.position"},
		{"format", func(c *config.Config) { c.Render.Formats = []string{"vtt"} }, "render.formats"},
		{"no outputs", func(c *config.Config) { c.Render.Formats = nil }, "render.formats"},
		{"fps", func(c *config.Config) { c.Render.FPS = 0 }, "render.fps"},
		{"vad rate", func(c *config.Config) { c.Audio.VADEnabled = true; c.Audio.SampleRate = 22050 }, "audio.sample_rate"},
		{"vad frame", func(c *config.Config) { c.Audio.VADEnabled = true; c.Audio.VADFrameMS = 25 }, "audio.vad_frame_ms"},
		{"pyannote token", func(c *config.Config) { c.Transcription.VADMethod = "pyannote" }, "transcription.hf_token"},
		{"language", func(c *config.Config) { c.Transcription.Language = "klingon" }, "transcription.language"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestHFTokenEnvFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HUGGING_FACE_HUB_TOKEN", "")
	os.Unsetenv("HUGGING_FACE_HUB_TOKEN")
	t.Setenv("HF_TOKEN", " hf_env ")
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[transcription]\nvad_method = \"pyannote\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transcription.HFToken != "hf_env" {
		t.Fatalf("expected token from env, got %q", cfg.Transcription.HFToken)
	}
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(string(encoded), "hf_env") {
		t.Fatal("encoded config leaked the token")
	}
}

func TestSampleConfigParsesAndValidates(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	for _, section := range []string{"paths", "transcription", "audio", "refinement", "grouping", "animation", "style", "render", "logging"} {
		if _, ok := raw[section]; !ok {
			t.Errorf("sample config missing [%s]", section)
		}
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.Paths{
		WorkDir:   filepath.Join(root, "work"),
		OutputDir: filepath.Join(root, "out"),
		StateDir:  filepath.Join(root, "state"),
		LogDir:    filepath.Join(root, "state", "logs"),
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.OutputDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s", dir)
		}
	}
}

func TestExpandPathHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/captions")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "captions") {
		t.Fatalf("ExpandPath = %q", got)
	}
}
