package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Create inserts job and assigns its ID and timestamps.
func (s *Store) Create(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("create job: nil job")
	}
	if strings.TrimSpace(job.SourcePath) == "" {
		return errors.New("create job: source path required")
	}
	if strings.TrimSpace(job.RunID) == "" {
		return errors.New("create job: run id required")
	}
	if job.Status == "" {
		job.Status = StatusPending
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	ts := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (run_id, source_path, status, progress_stage, progress_percent, progress_message,
            outputs_json, metadata_json, error_message, created_at, updated_at, completed_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.RunID,
		job.SourcePath,
		job.Status,
		nullableString(job.ProgressStage),
		job.ProgressPercent,
		nullableString(job.ProgressMessage),
		encodeOutputs(job.Outputs),
		nullableString(job.Metadata.JSON()),
		nullableString(job.ErrorMessage),
		ts,
		ts,
		nullableTime(job.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("job id: %w", err)
	}
	job.ID = id
	return nil
}

// Update persists every mutable field of job.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if job == nil || job.ID == 0 {
		return errors.New("update job: job has no id")
	}
	job.UpdatedAt = time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, progress_stage = ?, progress_percent = ?, progress_message = ?,
            outputs_json = ?, metadata_json = ?, error_message = ?, updated_at = ?, completed_at = ?
         WHERE id = ?`,
		job.Status,
		nullableString(job.ProgressStage),
		job.ProgressPercent,
		nullableString(job.ProgressMessage),
		encodeOutputs(job.Outputs),
		nullableString(job.Metadata.JSON()),
		nullableString(job.ErrorMessage),
		job.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(job.CompletedAt),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job %d: %w", job.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update job %d: not found", job.ID)
	}
	return nil
}

// GetByID returns the job with id, or nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, err)
	}
	return job, nil
}

// GetByRunID returns the job with runID (or a unique prefix of it), or nil
// when absent.
func (s *Store) GetByRunID(ctx context.Context, runID string) (*Job, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+jobColumns+" FROM jobs WHERE run_id LIKE ? ESCAPE '\\' ORDER BY id LIMIT 2",
		escapeLike(runID)+"%")
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", runID, err)
	}
	defer rows.Close()
	var found []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		found = append(found, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", runID)
	}
}

// List returns jobs newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := "SELECT " + jobColumns + " FROM jobs"
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += " WHERE status IN (" + makePlaceholders(len(statuses)) + ")"
		for _, st := range statuses {
			args = append(args, st)
		}
	}
	query += " ORDER BY id DESC"

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Remove deletes the jobs with the given IDs and reports how many existed.
func (s *Store) Remove(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := s.execWithRetry(ctx, "DELETE FROM jobs WHERE id IN ("+makePlaceholders(len(ids))+")", args...)
	if err != nil {
		return 0, fmt.Errorf("remove jobs: %w", err)
	}
	return res.RowsAffected()
}

func escapeLike(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(value)
}
