package queue

import (
	"context"
	"fmt"
	"time"
)

// Stats returns job counts keyed by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), "SELECT status, COUNT(1) FROM jobs GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan job stats: %w", err)
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}

// ClearByStatus removes every job in the given statuses.
func (s *Store) ClearByStatus(ctx context.Context, statuses ...Status) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(statuses))
	for _, st := range statuses {
		args = append(args, st)
	}
	res, err := s.execWithRetry(ctx, "DELETE FROM jobs WHERE status IN ("+makePlaceholders(len(statuses))+")", args...)
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	return res.RowsAffected()
}

// ResetStuckProcessing fails jobs left in a processing status. Callers hold
// the runner lock, so any such job belongs to a process that exited.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, error_message = ?, progress_stage = 'Failed', progress_percent = 0,
             progress_message = ?, updated_at = ?
         WHERE status IN (?, ?, ?, ?)`,
		StatusFailed,
		InterruptedReason,
		InterruptedReason,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusTranscribing,
		StatusRefining,
		StatusGrouping,
		StatusExporting,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// IntegrityCheck runs SQLite's integrity check.
func (s *Store) IntegrityCheck(ctx context.Context) error {
	var result string
	if err := s.db.QueryRowContext(ensureContext(ctx), "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}
	return nil
}
