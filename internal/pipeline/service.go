package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"captioner/internal/audio"
	"captioner/internal/caption"
	"captioner/internal/config"
	"captioner/internal/export"
	"captioner/internal/logging"
	"captioner/internal/media/ffprobe"
	"captioner/internal/queue"
	"captioner/internal/services"
	"captioner/internal/services/whisperx"
	"captioner/internal/staging"
)

// StaleWorkDirAge is how long an abandoned job work directory survives.
const StaleWorkDirAge = 24 * time.Hour

// Transcriber produces aligned words for one audio stream of a media file.
// stream is the position among audio streams; workDir receives any
// intermediate files.
type Transcriber interface {
	Transcribe(ctx context.Context, source string, stream int, workDir string) (whisperx.Result, error)
}

// Service runs caption jobs.
type Service struct {
	cfg         *config.Config
	store       *queue.Store
	logger      *slog.Logger
	transcriber Transcriber
	decoder     *audio.Decoder
	probe       ffprobe.Runner
	burner      *export.Burner
	now         func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithTranscriber replaces the WhisperX transcriber.
func WithTranscriber(t Transcriber) Option {
	return func(s *Service) { s.transcriber = t }
}

// WithAudioRunner replaces the ffmpeg runner used to decode audio.
func WithAudioRunner(run audio.CommandRunner) Option {
	return func(s *Service) {
		s.decoder = audio.NewDecoder(s.cfg.FFmpegBinary(), s.cfg.Audio.SampleRate, audio.WithCommandRunner(run))
	}
}

// WithProbeRunner replaces the ffprobe runner.
func WithProbeRunner(run ffprobe.Runner) Option {
	return func(s *Service) { s.probe = run }
}

// WithBurnRunner replaces the ffmpeg runner used for burn-in.
func WithBurnRunner(run export.CommandRunner) Option {
	return func(s *Service) { s.burner = export.NewBurner(s.cfg.FFmpegBinary(), run) }
}

// WithClock overrides the completion timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a Service. store may be nil for the single-step helpers.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Service{
		cfg:     cfg,
		store:   store,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
		decoder: audio.NewDecoder(cfg.FFmpegBinary(), cfg.Audio.SampleRate),
		burner:  export.NewBurner(cfg.FFmpegBinary(), nil),
		now:     time.Now,
	}
	if cfg.Transcription.Enabled {
		s.transcriber = whisperx.NewService(cfg.WhisperX(), cfg.FFmpegBinary())
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recover fails jobs left mid-pipeline by a previous run and removes work
// directories that no longer belong to a job in progress.
func (s *Service) Recover(ctx context.Context) error {
	if s.store == nil {
		return fmt.Errorf("recover: job store unavailable")
	}
	reset, err := s.store.ResetStuckProcessing(ctx)
	if err != nil {
		return fmt.Errorf("recover: %w", err)
	}
	if reset > 0 {
		logging.WarnWithContext(s.logger, "interrupted jobs marked failed", "jobs_interrupted",
			logging.Int64("jobs", reset),
			logging.String(logging.FieldErrorHint, "rerun captioner caption for the affected sources"),
			logging.String(logging.FieldImpact, "partial outputs may exist"),
		)
	}

	processing, err := s.store.List(ctx, queue.StatusTranscribing, queue.StatusRefining, queue.StatusGrouping, queue.StatusExporting)
	if err != nil {
		return fmt.Errorf("recover: %w", err)
	}
	active := make(map[string]struct{}, len(processing))
	for _, job := range processing {
		active[strings.ToLower(job.RunID)] = struct{}{}
	}
	staging.CleanOrphaned(ctx, s.cfg.Paths.WorkDir, active, s.logger)
	staging.CleanStale(ctx, s.cfg.Paths.WorkDir, StaleWorkDirAge, s.logger)
	return nil
}

// LoadOrTranscribe returns trimmed, validated words for audio stream number
// stream of source. A non-empty wordsPath is read instead of running the
// transcriber.
func (s *Service) LoadOrTranscribe(ctx context.Context, source string, stream int, wordsPath, workDir string) ([]caption.Word, string, error) {
	var (
		words     []caption.Word
		audioPath string
	)
	if strings.TrimSpace(wordsPath) != "" {
		loaded, err := LoadWords(wordsPath)
		if err != nil {
			return nil, "", services.Wrap(services.ErrValidation, "transcribe", "load words", "Word timings file unreadable", err)
		}
		words = loaded
	} else {
		if s.transcriber == nil {
			return nil, "", services.Wrap(services.ErrConfiguration, "transcribe", "transcriber",
				"Transcription disabled; enable [transcription] or pass --words", nil)
		}
		result, err := s.transcriber.Transcribe(ctx, source, stream, workDir)
		if err != nil {
			return nil, "", services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "WhisperX transcription failed", err)
		}
		words = result.Words
		audioPath = result.AudioPath
	}
	words = caption.TrimWords(words)
	if err := caption.ValidateWords(words); err != nil {
		return nil, "", services.Wrap(services.ErrValidation, "transcribe", "validate words", "Word timestamps out of order", err)
	}
	return words, audioPath, nil
}
