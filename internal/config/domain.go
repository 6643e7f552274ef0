package config

import (
	"fmt"
	"time"

	"captioner/internal/animation"
	"captioner/internal/audio"
	"captioner/internal/compositor"
	"captioner/internal/deps"
	"captioner/internal/export"
	"captioner/internal/services/whisperx"
	"captioner/internal/timing"
)

// FeatureOptions returns the energy analysis options.
func (c *Config) FeatureOptions() audio.Options {
	return audio.Options{
		Window:      time.Duration(c.Audio.WindowMS) * time.Millisecond,
		Sensitivity: c.Audio.Sensitivity,
	}
}

// VADFrame returns the voice activity frame length.
func (c *Config) VADFrame() time.Duration {
	return time.Duration(c.Audio.VADFrameMS) * time.Millisecond
}

// RefineOptions returns the word timing refinement options.
func (c *Config) RefineOptions() timing.Options {
	return timing.Options{
		VoicedRatio:     c.Refinement.VoicedRatio,
		GuardGap:        c.Refinement.GuardGap,
		MaxWordDuration: c.Refinement.MaxWordDuration,
		LookAhead:       c.Refinement.LookAhead,
		Features:        c.FeatureOptions(),
	}
}

// AnimationConfig returns the parsed animation settings.
func (c *Config) AnimationConfig() (animation.Config, error) {
	kind, err := animation.ParseKind(c.Animation.Style)
	if err != nil {
		return animation.Config{}, fmt.Errorf("animation.style: %w", err)
	}
	base, err := animation.ParseColor(c.Animation.BaseColor)
	if err != nil {
		return animation.Config{}, fmt.Errorf("animation.base_color: %w", err)
	}
	active, err := animation.ParseColor(c.Animation.ActiveColor)
	if err != nil {
		return animation.Config{}, fmt.Errorf("animation.active_color: %w", err)
	}
	cfg := animation.DefaultConfig()
	cfg.Kind = kind
	cfg.FadeDuration = c.Animation.FadeDuration
	cfg.ColorFade = c.Animation.ColorFade
	cfg.Base = base
	cfg.Active = active
	cfg.DimSustained = c.Animation.DimSustained
	return cfg, nil
}

// LayoutConfig returns the compositor configuration with a handle cache
// sized by render.cache_entries. A non-zero frame overrides the configured
// frame size.
func (c *Config) LayoutConfig(frame compositor.Size) (compositor.Config, error) {
	anim, err := c.AnimationConfig()
	if err != nil {
		return compositor.Config{}, err
	}
	anchor, err := compositor.ParseAnchor(c.Style.Position)
	if err != nil {
		return compositor.Config{}, fmt.Errorf("style.position: %w", err)
	}
	textCase, err := compositor.ParseTextCase(c.Style.TextCase)
	if err != nil {
		return compositor.Config{}, fmt.Errorf("style.text_case: %w", err)
	}
	if frame.Width <= 0 || frame.Height <= 0 {
		frame = compositor.Size{Width: c.Style.FrameWidth, Height: c.Style.FrameHeight}
	}
	return compositor.Config{
		Frame:       frame,
		Anchor:      anchor,
		Margin:      c.Style.Margin,
		WordSpacing: c.Style.WordSpacing,
		FontSize:    c.Style.FontSize,
		TextCase:    textCase,
		Animation:   anim,
		Measurer:    compositor.NewEstimateMeasurer(c.Style.StrokeWidth),
		Cache:       compositor.NewHandleCache(c.Render.CacheEntries),
	}.WithDefaults(), nil
}

// ExportStyle returns the subtitle writer style for the given frame.
func (c *Config) ExportStyle(frame compositor.Size) (export.Style, error) {
	layout, err := c.LayoutConfig(frame)
	if err != nil {
		return export.Style{}, err
	}
	outline, err := animation.ParseColor(c.Style.StrokeColor)
	if err != nil {
		return export.Style{}, fmt.Errorf("style.stroke_color: %w", err)
	}
	return export.Style{
		Layout:       layout,
		Font:         c.Style.Font,
		Outline:      outline,
		OutlineWidth: c.Style.StrokeWidth,
	}, nil
}

// ExportFormats returns the parsed output formats.
func (c *Config) ExportFormats() ([]export.Format, error) {
	formats := make([]export.Format, 0, len(c.Render.Formats))
	for _, value := range c.Render.Formats {
		f, err := export.ParseFormat(value)
		if err != nil {
			return nil, fmt.Errorf("render.formats: %w", err)
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// WhisperX returns the transcription service configuration.
func (c *Config) WhisperX() whisperx.Config {
	return whisperx.Config{
		Model:       c.Transcription.Model,
		CUDAEnabled: c.Transcription.CUDAEnabled,
		VADMethod:   c.Transcription.VADMethod,
		HFToken:     c.Transcription.HFToken,
		Language:    c.Transcription.Language,
	}
}

// DependencyTools describes the binaries for the dependency check.
func (c *Config) DependencyTools() deps.Tools {
	return deps.Tools{
		FFmpeg:        c.FFmpegBinary(),
		FFprobe:       c.Tools.FFprobe,
		Transcription: c.Transcription.Enabled,
	}
}
