package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"captioner/internal/caption"
	"captioner/internal/compositor"
	"captioner/internal/export"
	"captioner/internal/fileutil"
	"captioner/internal/logging"
	"captioner/internal/media/audiotrack"
	"captioner/internal/media/ffprobe"
	"captioner/internal/queue"
	"captioner/internal/services"
	"captioner/internal/textutil"
	"captioner/internal/timing"
)

// Request describes one caption job.
type Request struct {
	Source string
	// WordsPath points at pre-aligned words and skips transcription.
	WordsPath string
	// OutputDir overrides paths.output_dir.
	OutputDir string
}

// Result is a finished job and what it produced.
type Result struct {
	Job     *queue.Job
	Outputs []string
	Groups  []caption.Group
	Report  timing.Report
}

// source holds what the probe learned about the input.
type source struct {
	frame    compositor.Size
	fps      float64
	duration float64
	audio    audiotrack.Selection
}

// run is the mutable state threaded through the stages of one job.
type run struct {
	req       Request
	job       *queue.Job
	src       source
	workDir   string
	outputDir string
	audioPath string
	words     []caption.Word
	groups    []caption.Group
	report    timing.Report
	outputs   []string
}

// Generate runs a full caption job for req.Source. The job is persisted
// before any work starts; on failure the returned Result still carries it.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	if s.store == nil {
		return Result{}, fmt.Errorf("generate: job store unavailable")
	}
	req.Source = strings.TrimSpace(req.Source)
	if abs, err := filepath.Abs(req.Source); err == nil {
		req.Source = abs
	}

	job := queue.NewJob(req.Source)
	if err := s.store.Create(ctx, job); err != nil {
		return Result{}, fmt.Errorf("generate: %w", err)
	}
	ctx = services.WithJobID(ctx, job.RunID)

	r := &run{
		req:       req,
		job:       job,
		workDir:   job.WorkDir(s.cfg.Paths.WorkDir),
		outputDir: strings.TrimSpace(req.OutputDir),
	}
	if r.outputDir == "" {
		r.outputDir = s.cfg.Paths.OutputDir
	}

	logger := logging.WithContext(ctx, s.logger)
	logger.Info("caption job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("source_file", req.Source),
		logging.Int64("job", job.ID),
	)

	stages := []stage{
		{name: "transcribe", processing: queue.StatusTranscribing, message: "Transcribing audio", run: s.transcribeStage},
		{name: "refine", processing: queue.StatusRefining, message: "Refining word timings", run: s.refineStage},
		{name: "group", processing: queue.StatusGrouping, message: "Grouping captions", run: s.groupStage},
		{name: "export", processing: queue.StatusExporting, message: "Writing captions", run: s.exportStage},
	}
	for _, st := range stages {
		if err := s.runStage(ctx, r, st); err != nil {
			return r.result(), err
		}
	}

	job.Outputs = r.outputs
	job.SetCompleted(s.now(), fmt.Sprintf("%d captions written", len(r.groups)))
	if err := s.store.Update(ctx, job); err != nil {
		return r.result(), fmt.Errorf("persist completion: %w", err)
	}
	if r.workDir != "" {
		if err := os.RemoveAll(r.workDir); err != nil {
			logger.Debug("work directory cleanup failed", logging.Error(err))
		}
	}
	logger.Info("caption job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.Int("groups", len(r.groups)),
		logging.Int("outputs", len(r.outputs)),
	)
	return r.result(), nil
}

func (r *run) result() Result {
	return Result{Job: r.job, Outputs: r.outputs, Groups: r.groups, Report: r.report}
}

func (s *Service) transcribeStage(ctx context.Context, logger *slog.Logger, r *run) error {
	src, err := s.probeSource(ctx, r.job.SourcePath)
	if err != nil {
		return err
	}
	r.src = src
	r.job.Metadata.FrameWidth = src.frame.Width
	r.job.Metadata.FrameHeight = src.frame.Height
	r.job.Metadata.Duration = src.duration
	r.job.Metadata.AudioStream = src.audio.Label()
	if !src.audio.Found() && strings.TrimSpace(r.req.WordsPath) == "" {
		return services.Wrap(services.ErrValidation, "transcribe", "probe source", "Source has no audio stream to transcribe", nil)
	}

	if err := os.MkdirAll(r.workDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "transcribe", "work dir", "Unable to create job work directory", err)
	}
	words, audioPath, err := s.LoadOrTranscribe(ctx, r.job.SourcePath, src.audio.Ordinal, r.req.WordsPath, r.workDir)
	if err != nil {
		return err
	}
	r.words = words
	r.audioPath = audioPath
	r.job.Metadata.Words = len(words)
	r.job.SetProgress(r.job.ProgressStage, fmt.Sprintf("%d words transcribed", len(words)), 100)

	logger.Info("transcript ready",
		logging.Int("words", len(words)),
		logging.Float64("duration_seconds", src.duration),
		logging.String("audio_stream", src.audio.Label()),
		logging.String("audio", audioPath),
	)
	return nil
}

func (s *Service) probeSource(ctx context.Context, path string) (source, error) {
	if _, err := os.Stat(path); err != nil {
		return source{}, services.Wrap(services.ErrNotFound, "transcribe", "stat source", "Source file not readable", err)
	}
	var (
		result ffprobe.Result
		err    error
	)
	if s.probe == nil {
		result, err = ffprobe.Inspect(ctx, s.cfg.FFprobeBinary(), path)
	} else {
		result, err = ffprobe.InspectWith(ctx, s.probe, s.cfg.FFprobeBinary(), path)
	}
	if err != nil {
		return source{}, services.Wrap(services.ErrExternalTool, "transcribe", "probe source", "ffprobe could not read the source", err)
	}
	var src source
	src.frame.Width, src.frame.Height = result.FrameSize()
	src.fps = result.FrameRate()
	if d := result.DurationSeconds(); d > 0 && !math.IsInf(d, 0) {
		src.duration = d
	}
	src.audio = audiotrack.Select(result.Streams, s.cfg.Transcription.Language)
	return src, nil
}

func (s *Service) refineStage(ctx context.Context, logger *slog.Logger, r *run) error {
	if !s.cfg.Refinement.Enabled {
		r.job.Metadata.RefineSkipped = "disabled"
		r.job.SetProgress(r.job.ProgressStage, "Refinement disabled", 100)
		logger.Info("word timing refinement disabled")
		return nil
	}
	mediaPath, stream := r.audioPath, 0
	if mediaPath == "" {
		if !r.src.audio.Found() {
			r.job.Metadata.RefineSkipped = "no audio stream"
			r.job.SetProgress(r.job.ProgressStage, "No audio to refine against", 100)
			logger.Info("word timing refinement skipped", logging.String("reason", "no audio stream"))
			return nil
		}
		mediaPath, stream = r.job.SourcePath, r.src.audio.Ordinal
	}
	outcome, err := s.Refine(ctx, mediaPath, stream, r.words)
	if err != nil {
		return err
	}
	r.words = outcome.Words
	r.report = outcome.Report

	meta := &r.job.Metadata
	meta.RefineSkipped = outcome.Skipped
	meta.Extended = outcome.Report.Extended
	meta.Skipped = outcome.Report.Skipped
	meta.AddedSeconds = outcome.Report.AddedSeconds
	meta.SpeechRatio = outcome.SpeechRatio
	r.job.SetProgress(r.job.ProgressStage, fmt.Sprintf("%d of %d words extended", outcome.Report.Extended, len(r.words)), 100)

	attrs := []logging.Attr{
		logging.Int("examined", outcome.Report.Examined),
		logging.Int("extended", outcome.Report.Extended),
		logging.Float64("added_seconds", math.Round(outcome.Report.AddedSeconds*1000)/1000),
	}
	if outcome.SpeechRatio != nil {
		attrs = append(attrs, logging.Float64("speech_ratio", math.Round(*outcome.SpeechRatio*1000)/1000))
	}
	logger.Info("word timings refined", logging.Args(attrs...)...)
	return nil
}

func (s *Service) groupStage(_ context.Context, logger *slog.Logger, r *run) error {
	groups, err := caption.Build(r.words, s.cfg.Grouping.MaxWords, s.cfg.Grouping.GapThreshold)
	if err != nil {
		return services.Wrap(services.ErrValidation, "group", "build groups", "No words to caption", err)
	}
	r.groups = groups
	r.job.Metadata.Groups = len(groups)
	r.job.SetProgress(r.job.ProgressStage, fmt.Sprintf("%d caption groups", len(groups)), 100)
	logger.Info("captions grouped",
		logging.Int("groups", len(groups)),
		logging.Int("max_words", s.cfg.Grouping.MaxWords),
		logging.Float64("gap_threshold", s.cfg.Grouping.GapThreshold),
	)
	return nil
}

func (s *Service) exportStage(ctx context.Context, logger *slog.Logger, r *run) error {
	formats, err := s.cfg.ExportFormats()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "export", "formats", "", err)
	}
	style, err := s.cfg.ExportStyle(r.src.frame)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "export", "style", "", err)
	}
	r.job.Metadata.FrameWidth = style.Layout.Frame.Width
	r.job.Metadata.FrameHeight = style.Layout.Frame.Height

	base := textutil.FileStem(r.job.SourcePath)
	sampler := logging.NewProgressSampler(25)
	var assPath string
	for i, format := range formats {
		path := filepath.Join(r.outputDir, base+format.Extension())
		if err := s.writeFormat(ctx, logger, r, format, style, path); err != nil {
			return err
		}
		if format == export.FormatASS {
			assPath = path
		}
		r.outputs = append(r.outputs, path)

		percent := float64(i+1) / float64(len(formats)) * 100
		r.job.SetProgress(r.job.ProgressStage, fmt.Sprintf("Wrote %s", filepath.Base(path)), percent)
		if err := s.store.Update(ctx, r.job); err != nil {
			return fmt.Errorf("persist export progress: %w", err)
		}
		if sampler.ShouldLog("export", percent) {
			logger.Info("caption file written",
				logging.String("format", string(format)),
				logging.String("path", path),
			)
		}
	}

	if !s.cfg.Render.BurnIn {
		return nil
	}
	return s.burnIn(ctx, logger, r, style, base, assPath)
}

func (s *Service) writeFormat(ctx context.Context, logger *slog.Logger, r *run, format export.Format, style export.Style, path string) error {
	var err error
	switch format {
	case export.FormatASS:
		err = fileutil.WriteAtomic(path, func(w io.Writer) error {
			return export.WriteASS(w, r.groups, style)
		})
	case export.FormatSRT:
		err = fileutil.WriteAtomic(path, func(w io.Writer) error {
			return export.WriteSRT(w, r.groups, style.Layout.TextCase)
		})
	case export.FormatFrames:
		opts := export.FrameOptions{
			FPS:       s.frameRate(r.src),
			End:       r.src.duration,
			Workers:   s.cfg.Render.Workers,
			SkipEmpty: s.cfg.Render.SkipEmptyFrames,
		}
		if last := r.groups[len(r.groups)-1].End(); opts.End < last {
			opts.End = last
		}
		comp := compositor.New(r.groups, style.Layout)
		var summary export.FrameSummary
		err = fileutil.WriteAtomic(path, func(w io.Writer) error {
			var werr error
			summary, werr = export.SampleFrames(ctx, comp, opts, w)
			return werr
		})
		if err == nil {
			r.job.Metadata.Frames = summary.Frames
			logger.Debug("frame manifest sampled",
				logging.Int("frames", summary.Frames),
				logging.Int("written", summary.Written),
				logging.Int("captioned", summary.Captions),
				logging.Int64("cache_hits", int64(summary.Cache.Hits)),
				logging.Int64("cache_misses", int64(summary.Cache.Misses)),
				logging.Int64("measured_words", int64(summary.Cache.Measured)),
			)
		}
	default:
		return services.Wrap(services.ErrConfiguration, "export", "format", fmt.Sprintf("unsupported format %q", format), nil)
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrTransient, "export", "write "+string(format), path, err)
	}
	return nil
}

// frameRate prefers the probed source rate over render.fps.
func (s *Service) frameRate(src source) float64 {
	if src.fps > 0 && !math.IsInf(src.fps, 0) {
		return src.fps
	}
	return s.cfg.Render.FPS
}

func (s *Service) burnIn(ctx context.Context, logger *slog.Logger, r *run, style export.Style, base, assPath string) error {
	if r.src.frame.Width <= 0 {
		return services.Wrap(services.ErrValidation, "export", "burn-in", "Burn-in requires a video stream", nil)
	}
	if assPath == "" {
		assPath = filepath.Join(r.workDir, base+export.FormatASS.Extension())
		if err := fileutil.WriteAtomic(assPath, func(w io.Writer) error {
			return export.WriteASS(w, r.groups, style)
		}); err != nil {
			return services.Wrap(services.ErrTransient, "export", "burn-in subtitles", assPath, err)
		}
	}
	out := filepath.Join(r.outputDir, base+".captioned"+filepath.Ext(r.job.SourcePath))
	r.job.SetProgress(r.job.ProgressStage, "Burning captions into video", r.job.ProgressPercent)
	if err := s.store.Update(ctx, r.job); err != nil {
		return fmt.Errorf("persist burn-in progress: %w", err)
	}
	if err := s.burner.Burn(ctx, r.job.SourcePath, assPath, out); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrExternalTool, "export", "burn-in", "ffmpeg burn-in failed", err)
	}
	r.outputs = append(r.outputs, out)
	logger.Info("captions burned into video", logging.String("path", out))
	return nil
}
