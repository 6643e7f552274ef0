package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"captioner/internal/audio"
	"captioner/internal/caption"
	"captioner/internal/logging"
	"captioner/internal/services"
	"captioner/internal/timing"
)

// RefineOutcome is the result of refining a transcript against its audio.
type RefineOutcome struct {
	Words  []caption.Word
	Report timing.Report
	// Skipped explains why the words were left untouched.
	Skipped     string
	SpeechRatio *float64
}

// Refine decodes audio stream number stream of mediaPath and extends word
// ends into trailing voiced audio. Unusable audio leaves the words as
// transcribed and sets Skipped.
func (s *Service) Refine(ctx context.Context, mediaPath string, stream int, words []caption.Word) (RefineOutcome, error) {
	out := RefineOutcome{Words: words}
	logger := logging.WithContext(ctx, s.logger)

	signal, err := s.decoder.Decode(ctx, mediaPath, audio.Range{Stream: stream})
	if err != nil {
		if errors.Is(err, audio.ErrSignal) {
			out.Skipped = err.Error()
			warnRefineSkipped(logger, err)
			return out, nil
		}
		return out, services.Wrap(services.ErrExternalTool, "refine", "decode audio", "ffmpeg could not decode the audio stream", err)
	}

	refined, report, err := timing.RefineTimings(words, signal, s.decoder.SampleRate(), s.cfg.RefineOptions())
	switch {
	case errors.Is(err, audio.ErrSignal):
		out.Skipped = err.Error()
		warnRefineSkipped(logger, err)
	case err != nil:
		return out, services.Wrap(services.ErrTransient, "refine", "refine timings", "", err)
	default:
		out.Words = refined
		out.Report = report
	}

	if mask, ok := s.detectSpeech(logger, signal); ok {
		ratio := mask.Ratio()
		out.SpeechRatio = &ratio
	}
	return out, nil
}

func warnRefineSkipped(logger *slog.Logger, err error) {
	logging.WarnWithContext(logger, "audio unusable; keeping transcription timestamps", "refine_skipped",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check that the source has an audible audio track"),
		logging.String(logging.FieldImpact, "captions may disappear before words finish"),
	)
}

// detectSpeech runs voice activity detection when enabled. Failures are
// logged and reported as not ok.
func (s *Service) detectSpeech(logger *slog.Logger, signal audio.Signal) (audio.SpeechMask, bool) {
	if !s.cfg.Audio.VADEnabled {
		return audio.SpeechMask{}, false
	}
	if !audio.VADAvailable() {
		logger.Debug("voice activity detection unavailable in this build")
		return audio.SpeechMask{}, false
	}
	mask, err := audio.DetectSpeech(signal, s.decoder.SampleRate(), s.cfg.Audio.VADMode, s.cfg.VADFrame())
	if err != nil {
		logging.WarnWithContext(logger, "voice activity detection failed", "vad_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "speech ratio omitted from job metadata"),
		)
		return audio.SpeechMask{}, false
	}
	return mask, true
}
