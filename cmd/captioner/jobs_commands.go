package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"captioner/internal/queue"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage caption job history",
	}

	jobsCmd.AddCommand(newJobsStatusCommand(ctx))
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsRemoveCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))

	return jobsCmd
}

func newJobsStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show job counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				var rows [][]string
				for _, status := range queue.AllStatuses() {
					if count := stats[status]; count > 0 {
						rows = append(rows, []string{string(status), strconv.Itoa(count)})
					}
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List caption jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(listStatuses)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				jobs, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
					return nil
				}
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						strconv.FormatInt(job.ID, 10),
						shortRunID(job.RunID),
						string(job.Status),
						truncateText(job.SourcePath, captionColumnWidth),
						formatTimestamp(job.CreatedAt),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Run", "Status", "Source", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by job status (repeatable)")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|run-id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				job, err := lookupJob(cmd, store, args[0])
				if err != nil {
					return err
				}
				printJobDetail(cmd.OutOrStdout(), job)
				return nil
			})
		},
	}
}

func newJobsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id|run-id>...",
		Short: "Remove jobs from history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				ids := make([]int64, 0, len(args))
				for _, arg := range args {
					job, err := lookupJob(cmd, store, arg)
					if err != nil {
						return err
					}
					if job.IsProcessing() {
						return fmt.Errorf("job %d is %s; wait for it to finish", job.ID, job.Status)
					}
					ids = append(ids, job.ID)
				}
				removed, err := store.Remove(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d jobs\n", removed)
				return nil
			})
		},
	}
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished jobs from history",
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := 0
			for _, set := range []bool{clearCompleted, clearFailed, clearAll} {
				if set {
					selected++
				}
			}
			if selected != 1 {
				return errors.New("specify exactly one of --completed, --failed or --all")
			}
			var statuses []queue.Status
			label := "finished"
			switch {
			case clearCompleted:
				statuses = []queue.Status{queue.StatusCompleted}
				label = "completed"
			case clearFailed:
				statuses = []queue.Status{queue.StatusFailed, queue.StatusReview}
				label = "failed"
			default:
				statuses = []queue.Status{queue.StatusCompleted, queue.StatusFailed, queue.StatusReview}
			}
			return ctx.withStore(func(store *queue.Store) error {
				removed, err := store.ClearByStatus(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s jobs\n", removed, label)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove completed jobs")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove failed and review jobs")
	cmd.Flags().BoolVar(&clearAll, "all", false, "Remove every finished job")
	return cmd
}

// lookupJob resolves a numeric ID or a run ID prefix.
func lookupJob(cmd *cobra.Command, store *queue.Store, ref string) (*queue.Job, error) {
	ref = strings.TrimSpace(ref)
	var (
		job *queue.Job
		err error
	)
	if id, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil {
		job, err = store.GetByID(cmd.Context(), id)
	}
	if err == nil && job == nil {
		job, err = store.GetByRunID(cmd.Context(), ref)
	}
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job %s not found", ref)
	}
	return job, nil
}

func printJobDetail(out io.Writer, job *queue.Job) {
	meta := job.Metadata
	rows := [][]string{
		{"ID", strconv.FormatInt(job.ID, 10)},
		{"Run", job.RunID},
		{"Source", job.SourcePath},
		{"Status", string(job.Status)},
		{"Progress", fmt.Sprintf("%s %.0f%% %s", job.ProgressStage, job.ProgressPercent, job.ProgressMessage)},
		{"Created", formatTimestamp(job.CreatedAt)},
		{"Updated", formatTimestamp(job.UpdatedAt)},
	}
	if job.CompletedAt != nil {
		rows = append(rows, []string{"Completed", formatTimestamp(*job.CompletedAt)})
	}
	if job.ErrorMessage != "" {
		rows = append(rows, []string{"Error", job.ErrorMessage})
	}
	if meta.FrameWidth > 0 {
		rows = append(rows, []string{"Frame", fmt.Sprintf("%dx%d", meta.FrameWidth, meta.FrameHeight)})
	}
	if meta.AudioStream != "" {
		rows = append(rows, []string{"Audio stream", meta.AudioStream})
	}
	if meta.Duration > 0 {
		rows = append(rows, []string{"Duration", formatSeconds(meta.Duration) + "s"})
	}
	rows = append(rows,
		[]string{"Words", strconv.Itoa(meta.Words)},
		[]string{"Captions", strconv.Itoa(meta.Groups)},
		[]string{"Extended", fmt.Sprintf("%d (+%ss)", meta.Extended, formatSeconds(meta.AddedSeconds))},
	)
	if meta.RefineSkipped != "" {
		rows = append(rows, []string{"Refine skipped", meta.RefineSkipped})
	}
	if meta.SpeechRatio != nil {
		rows = append(rows, []string{"Speech ratio", fmt.Sprintf("%.1f%%", *meta.SpeechRatio*100)})
	}
	if meta.Frames > 0 {
		rows = append(rows, []string{"Frames", strconv.Itoa(meta.Frames)})
	}
	for i, path := range job.Outputs {
		label := ""
		if i == 0 {
			label = "Outputs"
		}
		rows = append(rows, []string{label, path})
	}
	fmt.Fprint(out, renderTable([]string{"Field", "Value"}, rows, nil))
}
