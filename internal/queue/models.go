package queue

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle of a caption job.
type Status string

const (
	StatusPending      Status = "pending"
	StatusTranscribing Status = "transcribing"
	StatusRefining     Status = "refining"
	StatusGrouping     Status = "grouping"
	StatusExporting    Status = "exporting"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusReview       Status = "review"
)

// InterruptedReason is the error message set on jobs left in a processing
// state by a process that exited.
const InterruptedReason = "Interrupted before completion"

var allStatuses = []Status{
	StatusPending,
	StatusTranscribing,
	StatusRefining,
	StatusGrouping,
	StatusExporting,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusTranscribing: {},
	StatusRefining:     {},
	StatusGrouping:     {},
	StatusExporting:    {},
}

// Job is one caption generation run persisted in SQLite.
type Job struct {
	ID              int64
	RunID           string
	SourcePath      string
	Status          Status
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	Outputs         []string
	Metadata        Metadata
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

// NewJob returns a pending job for source with a fresh run ID.
func NewJob(source string) *Job {
	return &Job{
		RunID:      uuid.NewString(),
		SourcePath: strings.TrimSpace(source),
		Status:     StatusPending,
	}
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsProcessing returns true when the job is mid-pipeline.
func (j Job) IsProcessing() bool {
	return IsProcessingStatus(j.Status)
}

// IsTerminal reports whether the job will not progress further.
func (j Job) IsTerminal() bool {
	switch j.Status {
	case StatusCompleted, StatusFailed, StatusReview:
		return true
	default:
		return false
	}
}

// Begin moves the job into a processing status and resets progress.
func (j *Job) Begin(status Status, message string) {
	j.Status = status
	j.SetProgress(string(status), message, 0)
	j.ErrorMessage = ""
}

// SetProgress updates all three progress fields together.
func (j *Job) SetProgress(stage, message string, percent float64) {
	j.ProgressStage = stage
	j.ProgressMessage = message
	j.ProgressPercent = percent
}

// SetCompleted marks the job completed at now.
func (j *Job) SetCompleted(now time.Time, message string) {
	j.Status = StatusCompleted
	j.SetProgress("Completed", message, 100)
	t := now.UTC()
	j.CompletedAt = &t
}

// SetFailed records a failure with the given terminal status.
func (j *Job) SetFailed(status Status, message string) {
	if status != StatusReview {
		status = StatusFailed
	}
	j.Status = status
	j.ErrorMessage = message
	j.ProgressMessage = message
	j.ProgressPercent = 0
	if status == StatusReview {
		j.ProgressStage = "Needs review"
	} else {
		j.ProgressStage = "Failed"
	}
}

// WorkDir returns the per-job scratch directory rooted at base.
func (j Job) WorkDir(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	segment := strings.TrimSpace(j.RunID)
	if segment == "" {
		segment = "job"
	}
	return filepath.Join(base, segment)
}
