package pipeline

import (
	"context"
	"errors"

	"captioner/internal/audio"
	"captioner/internal/logging"
	"captioner/internal/media/audiotrack"
	"captioner/internal/preflight"
	"captioner/internal/services"
)

// Analysis describes the audio of a media file.
type Analysis struct {
	Source      preflight.SourceProbe
	Samples     int
	Windows     int
	Onsets      []float64
	MeanEnergy  float64
	SpeechRatio *float64
	SpeechSpans [][2]float64
}

// Analyze probes mediaPath and extracts the energy envelope, onsets and,
// when available, voice activity of its dialogue track.
func (s *Service) Analyze(ctx context.Context, mediaPath string) (Analysis, error) {
	var out Analysis
	probe, result := preflight.CheckSource(ctx, s.probe, s.cfg.FFprobeBinary(), mediaPath, s.cfg.Transcription.Language)
	out.Source = probe
	if !result.Passed {
		return out, services.Wrap(services.ErrValidation, "analyze", "probe source", result.Detail, nil)
	}

	signal, err := s.decoder.Decode(ctx, mediaPath, audio.Range{Stream: probe.Audio.Ordinal})
	if err != nil {
		marker := services.ErrExternalTool
		if errors.Is(err, audio.ErrSignal) {
			marker = services.ErrValidation
		}
		return out, services.Wrap(marker, "analyze", "decode audio", "", err)
	}
	out.Samples = signal.Frames()

	features, err := audio.NewExtractor(s.cfg.FeatureOptions()).Extract(signal, s.decoder.SampleRate())
	if err != nil {
		return out, services.Wrap(services.ErrValidation, "analyze", "extract features", "", err)
	}
	out.Windows = features.Len()
	out.Onsets = features.OnsetTimes
	out.MeanEnergy = features.MeanMagnitude(0, features.Len())

	logger := logging.WithContext(ctx, s.logger)
	if mask, ok := s.detectSpeech(logger, signal); ok {
		ratio := mask.Ratio()
		out.SpeechRatio = &ratio
		out.SpeechSpans = mask.Spans()
	}
	return out, nil
}

// SelectAudio probes mediaPath and returns the audio stream captions are
// timed against.
func (s *Service) SelectAudio(ctx context.Context, mediaPath string) (audiotrack.Selection, error) {
	src, err := s.probeSource(ctx, mediaPath)
	if err != nil {
		return audiotrack.None, err
	}
	if !src.audio.Found() {
		return audiotrack.None, services.Wrap(services.ErrValidation, "refine", "select audio", "Source has no audio stream", nil)
	}
	return src.audio, nil
}
