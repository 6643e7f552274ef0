package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscription()
	c.normalizeStyle()
	c.normalizeRender()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(orDefault(c.Paths.WorkDir, defaultWorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(orDefault(c.Paths.OutputDir, defaultOutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(orDefault(c.Paths.StateDir, defaultStateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(orDefault(c.Paths.LogDir, defaultLogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	return nil
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Model = orDefault(c.Transcription.Model, defaultWhisperXModel)
	c.Transcription.VADMethod = strings.ToLower(orDefault(c.Transcription.VADMethod, defaultVADMethod))
	c.Transcription.Language = strings.TrimSpace(c.Transcription.Language)
	c.Transcription.HFToken = strings.TrimSpace(c.Transcription.HFToken)
	if c.Transcription.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeStyle() {
	c.Animation.Style = strings.ToLower(orDefault(c.Animation.Style, defaultAnimationStyle))
	c.Animation.BaseColor = orDefault(c.Animation.BaseColor, defaultBaseColor)
	c.Animation.ActiveColor = orDefault(c.Animation.ActiveColor, defaultActiveColor)
	c.Style.Font = orDefault(c.Style.Font, defaultFont)
	c.Style.StrokeColor = orDefault(c.Style.StrokeColor, defaultStrokeColor)
	c.Style.TextCase = strings.ToLower(orDefault(c.Style.TextCase, defaultTextCase))
	c.Style.Position = strings.ToLower(orDefault(c.Style.Position, defaultPosition))
}

func (c *Config) normalizeRender() {
	if c.Render.Workers <= 0 {
		c.Render.Workers = defaultWorkers
	}
	if c.Render.CacheEntries <= 0 {
		c.Render.CacheEntries = defaultCacheEntries
	}
	formats := make([]string, 0, len(c.Render.Formats))
	seen := make(map[string]struct{}, len(c.Render.Formats))
	for _, f := range c.Render.Formats {
		normalized := strings.ToLower(strings.TrimSpace(f))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		formats = append(formats, normalized)
	}
	c.Render.Formats = formats
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
