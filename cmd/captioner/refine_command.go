package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"captioner/internal/fileutil"
	"captioner/internal/pipeline"
)

func newRefineCommand(ctx *commandContext) *cobra.Command {
	var wordsPath string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "refine <media>",
		Short: "Extend word end times into trailing voiced audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(wordsPath) == "" {
				return fmt.Errorf("--words is required")
			}
			words, err := pipeline.LoadWords(wordsPath)
			if err != nil {
				return fmt.Errorf("load words: %w", err)
			}
			svc := ctx.newPipeline(nil)
			track, err := svc.SelectAudio(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			outcome, err := svc.Refine(cmd.Context(), args[0], track.Ordinal, words)
			if err != nil {
				return err
			}

			summary := cmd.ErrOrStderr()
			fmt.Fprintf(summary, "Audio stream: %s\n", track.Label())
			if outcome.Skipped != "" {
				fmt.Fprintf(summary, "Refinement skipped: %s\n", outcome.Skipped)
			} else {
				rep := outcome.Report
				fmt.Fprintf(summary, "Examined %d words, extended %d (+%ss)\n", rep.Examined, rep.Extended, formatSeconds(rep.AddedSeconds))
				reasons := make([]string, 0, len(rep.Skipped))
				for reason := range rep.Skipped {
					reasons = append(reasons, reason)
				}
				sort.Strings(reasons)
				for _, reason := range reasons {
					fmt.Fprintf(summary, "  %s: %d\n", reason, rep.Skipped[reason])
				}
			}
			if outcome.SpeechRatio != nil {
				fmt.Fprintf(summary, "Speech ratio: %.1f%%\n", *outcome.SpeechRatio*100)
			}

			if strings.TrimSpace(outputPath) == "" || outputPath == "-" {
				return pipeline.WriteWords(cmd.OutOrStdout(), outcome.Words)
			}
			if err := fileutil.WriteAtomic(outputPath, func(w io.Writer) error {
				return pipeline.WriteWords(w, outcome.Words)
			}); err != nil {
				return fmt.Errorf("write %s: %w", outputPath, err)
			}
			fmt.Fprintf(summary, "Wrote %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&wordsPath, "words", "w", "", "Word timings JSON to refine")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write refined words here instead of stdout")
	_ = cmd.MarkFlagFilename("words", "json")
	return cmd
}
