package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

const maxListedOnsets = 12

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <media>",
		Short: "Report audio energy, onsets and voice activity for a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis, err := ctx.newPipeline(nil).Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Source", analysis.Source.Path},
				{"Media", analysis.Source.Detail()},
				{"Audio stream", analysis.Source.Audio.Label()},
				{"Other audio streams", yesNo(analysis.Source.Audio.Candidates > 1)},
				{"Samples", strconv.Itoa(analysis.Samples)},
				{"Energy windows", strconv.Itoa(analysis.Windows)},
				{"Mean energy", fmt.Sprintf("%.4f", analysis.MeanEnergy)},
				{"Onsets", strconv.Itoa(len(analysis.Onsets))},
			}
			if analysis.SpeechRatio != nil {
				rows = append(rows,
					[]string{"Speech ratio", fmt.Sprintf("%.1f%%", *analysis.SpeechRatio*100)},
					[]string{"Speech spans", strconv.Itoa(len(analysis.SpeechSpans))},
				)
			} else {
				rows = append(rows, []string{"Speech ratio", "unavailable"})
			}
			fmt.Fprint(out, renderTable([]string{"Field", "Value"}, rows, nil))

			if len(analysis.Onsets) > 0 {
				shown := analysis.Onsets
				if len(shown) > maxListedOnsets {
					shown = shown[:maxListedOnsets]
				}
				fmt.Fprint(out, "Onsets:")
				for _, t := range shown {
					fmt.Fprintf(out, " %s", formatSeconds(t))
				}
				if len(analysis.Onsets) > len(shown) {
					fmt.Fprintf(out, " ... (+%d)", len(analysis.Onsets)-len(shown))
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
