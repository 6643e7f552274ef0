package config

import (
	"errors"
	"fmt"
	"strings"

	"captioner/internal/animation"
	"captioner/internal/compositor"
	"captioner/internal/export"
	"captioner/internal/language"
	"captioner/internal/services/whisperx"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateRefinement(); err != nil {
		return err
	}
	if err := c.validateGrouping(); err != nil {
		return err
	}
	if err := c.validateAnimation(); err != nil {
		return err
	}
	if err := c.validateStyle(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.VADMethod {
	case whisperx.VADMethodSilero:
	case whisperx.VADMethodPyannote:
		if c.Transcription.Enabled && c.Transcription.HFToken == "" {
			return errors.New("transcription.hf_token must be set when transcription.vad_method is pyannote (or set HF_TOKEN)")
		}
	default:
		return fmt.Errorf("transcription.vad_method must be silero or pyannote, got %q", c.Transcription.VADMethod)
	}
	if lang := c.Transcription.Language; lang != "" && language.Normalize(lang) == "" {
		return fmt.Errorf("transcription.language %q is not a recognised language code", lang)
	}
	return nil
}

func (c *Config) validateAudio() error {
	if err := ensurePositiveMap(map[string]int{
		"audio.sample_rate": c.Audio.SampleRate,
		"audio.window_ms":   c.Audio.WindowMS,
	}); err != nil {
		return err
	}
	if c.Audio.Sensitivity <= 0 {
		return errors.New("audio.sensitivity must be positive")
	}
	if !c.Audio.VADEnabled {
		return nil
	}
	switch c.Audio.SampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return fmt.Errorf("audio.sample_rate must be 8000, 16000, 32000 or 48000 when audio.vad_enabled is true, got %d", c.Audio.SampleRate)
	}
	if c.Audio.VADMode < 0 || c.Audio.VADMode > 3 {
		return errors.New("audio.vad_mode must be between 0 and 3")
	}
	switch c.Audio.VADFrameMS {
	case 10, 20, 30:
	default:
		return fmt.Errorf("audio.vad_frame_ms must be 10, 20 or 30, got %d", c.Audio.VADFrameMS)
	}
	return nil
}

func (c *Config) validateRefinement() error {
	r := c.Refinement
	if r.VoicedRatio <= 0 || r.VoicedRatio > 1 {
		return errors.New("refinement.voiced_ratio must be in (0, 1]")
	}
	if r.GuardGap < 0 {
		return errors.New("refinement.guard_gap must be >= 0")
	}
	if r.MaxWordDuration <= 0 {
		return errors.New("refinement.max_word_duration must be positive (seconds)")
	}
	if r.LookAhead < 0 {
		return errors.New("refinement.lookahead must be >= 0")
	}
	return nil
}

func (c *Config) validateGrouping() error {
	if c.Grouping.MaxWords <= 0 {
		return errors.New("grouping.max_words must be positive")
	}
	if c.Grouping.GapThreshold <= 0 {
		return errors.New("grouping.gap_threshold must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateAnimation() error {
	if _, err := animation.ParseKind(c.Animation.Style); err != nil {
		return fmt.Errorf("animation.style: %w", err)
	}
	if c.Animation.FadeDuration < 0 {
		return errors.New("animation.fade_duration must be >= 0")
	}
	if c.Animation.ColorFade < 0 {
		return errors.New("animation.color_fade must be >= 0")
	}
	if _, err := animation.ParseColor(c.Animation.BaseColor); err != nil {
		return fmt.Errorf("animation.base_color: %w", err)
	}
	if _, err := animation.ParseColor(c.Animation.ActiveColor); err != nil {
		return fmt.Errorf("animation.active_color: %w", err)
	}
	return nil
}

func (c *Config) validateStyle() error {
	if c.Style.FontSize <= 0 {
		return errors.New("style.font_size must be positive")
	}
	if c.Style.StrokeWidth < 0 {
		return errors.New("style.stroke_width must be >= 0")
	}
	if c.Style.WordSpacing < 0 || c.Style.Margin < 0 {
		return errors.New("style.word_spacing and style.margin must be >= 0")
	}
	if _, err := animation.ParseColor(c.Style.StrokeColor); err != nil {
		return fmt.Errorf("style.stroke_color: %w", err)
	}
	if _, err := compositor.ParseTextCase(c.Style.TextCase); err != nil {
		return fmt.Errorf("style.text_case: %w", err)
	}
	if _, err := compositor.ParseAnchor(c.Style.Position); err != nil {
		return fmt.Errorf("style.position: %w", err)
	}
	if c.Style.FrameWidth < 0 || c.Style.FrameHeight < 0 {
		return errors.New("style.frame_width and style.frame_height must be >= 0")
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.FPS <= 0 {
		return errors.New("render.fps must be positive")
	}
	if len(c.Render.Formats) == 0 && !c.Render.BurnIn {
		return errors.New("render.formats must include at least one format when render.burn_in is false")
	}
	for _, f := range c.Render.Formats {
		if _, err := export.ParseFormat(f); err != nil {
			return fmt.Errorf("render.formats: %w", err)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
