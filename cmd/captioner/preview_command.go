package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"captioner/internal/caption"
	"captioner/internal/compositor"
	"captioner/internal/pipeline"
)

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var wordsPath string
	var at float64
	var animationStyle string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the composited caption layout at one instant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(wordsPath) == "" {
				return fmt.Errorf("--words is required")
			}
			if cmd.Flags().Changed("animation") {
				cfg.Animation.Style = strings.ToLower(strings.TrimSpace(animationStyle))
			}
			layoutCfg, err := cfg.LayoutConfig(compositor.Size{})
			if err != nil {
				return err
			}

			words, err := pipeline.LoadWords(wordsPath)
			if err != nil {
				return fmt.Errorf("load words: %w", err)
			}
			groups, err := caption.Build(caption.TrimWords(words), cfg.Grouping.MaxWords, cfg.Grouping.GapThreshold)
			if err != nil {
				return err
			}
			layout := compositor.New(groups, layoutCfg).Render(at)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(layout)
			}
			if layout.Empty() {
				fmt.Fprintf(out, "No caption at %ss\n", formatSeconds(at))
				return nil
			}
			fmt.Fprintf(out, "Caption %d at %ss (%dx%d)\n", layout.Group+1, formatSeconds(at), layout.Frame.Width, layout.Frame.Height)
			rows := make([][]string, 0, len(layout.Items))
			for _, item := range layout.Items {
				rows = append(rows, []string{
					truncateText(item.Text, captionColumnWidth),
					fmt.Sprintf("%.1f", item.X),
					fmt.Sprintf("%.1f", item.Y),
					fmt.Sprintf("%.1f", item.Width),
					fmt.Sprintf("%.1f", item.Height),
					fmt.Sprintf("%.2f", item.State.Scale),
					fmt.Sprintf("%.2f", item.State.Opacity),
					item.State.Color.Hex(),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Text", "X", "Y", "W", "H", "Scale", "Opacity", "Color"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&wordsPath, "words", "w", "", "Word timings JSON")
	cmd.Flags().Float64Var(&at, "at", 0, "Time in seconds to render")
	cmd.Flags().StringVar(&animationStyle, "animation", "", "Animation style: none, bounce, fade, color")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the layout as JSON")
	return cmd
}
