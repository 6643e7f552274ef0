package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"captioner/internal/caption"
	"captioner/internal/pipeline"
)

func newGroupCommand(ctx *commandContext) *cobra.Command {
	var wordsPath string
	var maxWords int
	var gap float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "group",
		Short: "Split word timings into caption groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(wordsPath) == "" {
				return fmt.Errorf("--words is required")
			}
			if !cmd.Flags().Changed("max-words") {
				maxWords = cfg.Grouping.MaxWords
			}
			if !cmd.Flags().Changed("gap") {
				gap = cfg.Grouping.GapThreshold
			}

			words, err := pipeline.LoadWords(wordsPath)
			if err != nil {
				return fmt.Errorf("load words: %w", err)
			}
			words = caption.TrimWords(words)
			groups, err := caption.Build(words, maxWords, gap)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(groups)
			}
			if len(groups) == 0 {
				fmt.Fprintln(out, "No captions")
				return nil
			}
			rows := make([][]string, 0, len(groups))
			for i, g := range groups {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					formatSeconds(g.Start()),
					formatSeconds(g.End()),
					strconv.Itoa(g.Len()),
					truncateText(g.Text(), captionColumnWidth),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"#", "Start", "End", "Words", "Text"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "%d captions from %d words\n", len(groups), len(words))
			return nil
		},
	}

	cmd.Flags().StringVarP(&wordsPath, "words", "w", "", "Word timings JSON")
	cmd.Flags().IntVar(&maxWords, "max-words", 0, "Maximum words per caption (default grouping.max_words)")
	cmd.Flags().Float64Var(&gap, "gap", 0, "Pause in seconds that starts a new caption (default grouping.gap_threshold)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print groups as JSON")
	return cmd
}
