package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"captioner/internal/preflight"
	"captioner/internal/queue"
	"captioner/internal/staging"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, external tools and the job store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failed := 0

			fmt.Fprintln(out, renderSectionHeader("Environment", colorize))
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
					failed++
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}

			fmt.Fprintln(out, renderSectionHeader("Job store", colorize))
			storeErr := ctx.withStore(func(store *queue.Store) error {
				if err := store.IntegrityCheck(cmd.Context()); err != nil {
					return err
				}
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				total := 0
				for _, n := range stats {
					total += n
				}
				fmt.Fprintln(out, renderStatusLine("Database", statusOK, fmt.Sprintf("%s (%d jobs)", store.Path(), total), colorize))
				if active := countProcessing(stats); active > 0 {
					fmt.Fprintln(out, renderStatusLine("In progress", statusWarn,
						fmt.Sprintf("%d jobs; interrupted runs are failed on the next caption", active), colorize))
				}
				return nil
			})
			if storeErr != nil {
				failed++
				fmt.Fprintln(out, renderStatusLine("Database", statusError, storeErr.Error(), colorize))
			}

			fmt.Fprintln(out, renderSectionHeader("Work directory", colorize))
			dirs, err := staging.ListDirectories(cfg.Paths.WorkDir)
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Job directories", statusWarn, err.Error(), colorize))
			} else {
				kind := statusOK
				if len(dirs) > 0 {
					kind = statusInfo
				}
				fmt.Fprintln(out, renderStatusLine("Job directories", kind,
					fmt.Sprintf("%d using %s", len(dirs), formatBytes(staging.TotalSize(dirs))), colorize))
			}

			if failed > 0 {
				return errors.New("doctor found problems")
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}

func countProcessing(stats map[queue.Status]int) int {
	total := 0
	for status, n := range stats {
		if queue.IsProcessingStatus(status) {
			total += n
		}
	}
	return total
}
