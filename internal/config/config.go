package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains working, output, and state directories.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// Tools names the external binaries the pipeline invokes.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Transcription contains WhisperX settings.
type Transcription struct {
	Enabled     bool   `toml:"enabled"`
	Model       string `toml:"model"`
	CUDAEnabled bool   `toml:"cuda_enabled"`
	VADMethod   string `toml:"vad_method"`
	HFToken     string `toml:"hf_token"`
	Language    string `toml:"language"`
}

// Audio contains decoding and feature extraction settings.
type Audio struct {
	SampleRate  int     `toml:"sample_rate"`
	WindowMS    int     `toml:"window_ms"`
	Sensitivity float64 `toml:"sensitivity"`
	VADEnabled  bool    `toml:"vad_enabled"`
	VADMode     int     `toml:"vad_mode"`
	VADFrameMS  int     `toml:"vad_frame_ms"`
}

// Refinement contains word-end extension settings.
type Refinement struct {
	Enabled         bool    `toml:"enabled"`
	VoicedRatio     float64 `toml:"voiced_ratio"`
	GuardGap        float64 `toml:"guard_gap"`
	MaxWordDuration float64 `toml:"max_word_duration"`
	LookAhead       float64 `toml:"lookahead"`
}

// Grouping contains caption group boundaries.
type Grouping struct {
	MaxWords     int     `toml:"max_words"`
	GapThreshold float64 `toml:"gap_threshold"`
}

// Animation selects the per-word animation.
type Animation struct {
	Style        string  `toml:"style"`
	FadeDuration float64 `toml:"fade_duration"`
	ColorFade    float64 `toml:"color_fade"`
	BaseColor    string  `toml:"base_color"`
	ActiveColor  string  `toml:"active_color"`
	DimSustained bool    `toml:"dim_sustained"`
}

// Style contains font and placement settings.
type Style struct {
	Font        string  `toml:"font"`
	FontSize    float64 `toml:"font_size"`
	StrokeColor string  `toml:"stroke_color"`
	StrokeWidth float64 `toml:"stroke_width"`
	TextCase    string  `toml:"text_case"`
	WordSpacing float64 `toml:"word_spacing"`
	Position    string  `toml:"position"`
	Margin      float64 `toml:"margin"`
	FrameWidth  int     `toml:"frame_width"`
	FrameHeight int     `toml:"frame_height"`
}

// Render contains export and frame sampling settings.
type Render struct {
	FPS             float64  `toml:"fps"`
	Workers         int      `toml:"workers"`
	CacheEntries    int      `toml:"cache_entries"`
	Formats         []string `toml:"formats"`
	BurnIn          bool     `toml:"burn_in"`
	SkipEmptyFrames bool     `toml:"skip_empty_frames"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for captioner.
//
// Configuration sections by subsystem:
//   - Paths: work, output, state, and log directories
//   - Tools: ffmpeg and ffprobe binaries
//   - Transcription: WhisperX model and device
//   - Audio: decode rate, energy window, and voice activity detection
//   - Refinement: word-end extension thresholds
//   - Grouping: words per caption and pause threshold
//   - Animation: fade, bounce, or color emphasis parameters
//   - Style: font, stroke, casing, and placement
//   - Render: output formats, frame sampling, and burn-in
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Tools         Tools         `toml:"tools"`
	Transcription Transcription `toml:"transcription"`
	Audio         Audio         `toml:"audio"`
	Refinement    Refinement    `toml:"refinement"`
	Grouping      Grouping      `toml:"grouping"`
	Animation     Animation     `toml:"animation"`
	Style         Style         `toml:"style"`
	Render        Render        `toml:"render"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strings.TrimSpace(strict.String()))
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("captioner.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the work, output, state, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutputDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for decoding and burn-in.
func (c *Config) FFmpegBinary() string {
	if v := strings.TrimSpace(c.Tools.FFmpeg); v != "" {
		return v
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	if v := strings.TrimSpace(c.Tools.FFprobe); v != "" {
		return v
	}
	return "ffprobe"
}

// QueueDBPath returns the job database location.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.StateDir, "jobs.db")
}

// LockPath returns the single-runner lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "captioner.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode writes the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	redacted := *c
	if redacted.Transcription.HFToken != "" {
		redacted.Transcription.HFToken = "***"
	}
	data, err := toml.Marshal(redacted)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
