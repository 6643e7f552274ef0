package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"captioner/internal/logging"
	"captioner/internal/queue"
	"captioner/internal/services"
)

// stage is one persisted step of a caption job.
type stage struct {
	name       string
	processing queue.Status
	message    string
	run        func(ctx context.Context, logger *slog.Logger, r *run) error
}

// runStage moves the job into the stage's processing status, executes it and
// persists the result. Failures are recorded on the job before returning.
func (s *Service) runStage(ctx context.Context, r *run, st stage) error {
	stageCtx := services.WithStage(ctx, st.name)
	stageLogger := logging.WithContext(stageCtx, s.logger)
	started := time.Now()

	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(st.processing)),
		logging.String("source_file", strings.TrimSpace(r.job.SourcePath)),
	)

	r.job.Begin(st.processing, st.message)
	if err := s.store.Update(stageCtx, r.job); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}

	if err := st.run(stageCtx, stageLogger, r); err != nil {
		return s.handleFailure(stageCtx, stageLogger, r.job, err)
	}
	if err := s.store.Update(stageCtx, r.job); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("progress_message", strings.TrimSpace(r.job.ProgressMessage)),
		logging.Duration("stage_duration", time.Since(started).Round(time.Millisecond)),
	)
	return nil
}

func (s *Service) handleFailure(ctx context.Context, logger *slog.Logger, job *queue.Job, stageErr error) error {
	status := services.FailureStatus(stageErr)
	message := strings.TrimSpace(stageErr.Error())
	if errors.Is(stageErr, context.Canceled) || errors.Is(stageErr, context.DeadlineExceeded) {
		status = queue.StatusFailed
		message = queue.InterruptedReason
	}
	job.SetFailed(status, message)

	logger.Error(
		"stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("resolved_status", string(status)),
		logging.String("error_message", message),
		logging.Error(stageErr),
	)
	if err := s.store.Update(context.WithoutCancel(ctx), job); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	}
	return stageErr
}
