package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"captioner/internal/config"
	"captioner/internal/pipeline"
	"captioner/internal/preflight"
	"captioner/internal/queue"
)

type captionOverrides struct {
	animation string
	formats   []string
	burnIn    bool
	maxWords  int
}

func (o captionOverrides) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("animation") {
		cfg.Animation.Style = strings.ToLower(strings.TrimSpace(o.animation))
	}
	if flags.Changed("format") {
		cfg.Render.Formats = o.formats
	}
	if flags.Changed("burn-in") {
		cfg.Render.BurnIn = o.burnIn
	}
	if flags.Changed("max-words") {
		cfg.Grouping.MaxWords = o.maxWords
	}
	return cfg.Validate()
}

func newCaptionCommand(ctx *commandContext) *cobra.Command {
	var wordsPath string
	var outputDir string
	var overrides captionOverrides

	cmd := &cobra.Command{
		Use:   "caption <media>",
		Short: "Generate captions for a media file",
		Long: "Transcribe a media file (or read --words), refine word timings against its audio,\n" +
			"group words into captions and write the configured output formats.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := overrides.apply(cmd, cfg); err != nil {
				return err
			}
			if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
				problems := make([]string, 0, len(failed))
				for _, r := range failed {
					problems = append(problems, r.Name+": "+r.Detail)
				}
				return fmt.Errorf("preflight failed (run captioner doctor): %s", strings.Join(problems, "; "))
			}
			return ctx.withLock(func() error {
				return ctx.withStore(func(store *queue.Store) error {
					svc := ctx.newPipeline(store)
					if err := svc.Recover(cmd.Context()); err != nil {
						return err
					}
					res, err := svc.Generate(cmd.Context(), pipeline.Request{
						Source:    args[0],
						WordsPath: wordsPath,
						OutputDir: outputDir,
					})
					if res.Job != nil {
						printJobSummary(cmd.OutOrStdout(), res.Job)
					}
					return err
				})
			})
		},
	}

	cmd.Flags().StringVarP(&wordsPath, "words", "w", "", "Word timings JSON (WhisperX output or word array); skips transcription")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for caption files (default paths.output_dir)")
	cmd.Flags().StringVar(&overrides.animation, "animation", "", "Animation style: none, bounce, fade, color")
	cmd.Flags().StringSliceVar(&overrides.formats, "format", nil, "Output formats: ass, srt, frames")
	cmd.Flags().BoolVar(&overrides.burnIn, "burn-in", false, "Burn captions into a copy of the video")
	cmd.Flags().IntVar(&overrides.maxWords, "max-words", 0, "Maximum words per caption")
	return cmd
}

func printJobSummary(out io.Writer, job *queue.Job) {
	fmt.Fprintf(out, "Job %d (%s): %s\n", job.ID, shortRunID(job.RunID), job.Status)
	if job.ErrorMessage != "" {
		fmt.Fprintf(out, "Error: %s\n", job.ErrorMessage)
	}
	meta := job.Metadata
	fmt.Fprintf(out, "Words: %d  Groups: %d  Extended: %d\n", meta.Words, meta.Groups, meta.Extended)
	if meta.RefineSkipped != "" {
		fmt.Fprintf(out, "Refinement skipped: %s\n", meta.RefineSkipped)
	}
	if len(job.Outputs) > 0 {
		fmt.Fprintln(out, "Outputs:")
		for _, path := range job.Outputs {
			fmt.Fprintf(out, "  %s\n", path)
		}
	}
}
