package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"scribe/internal/export"
	"scribe/internal/pipeline"
	"scribe/internal/preflight"
	"scribe/internal/queue"
)

const summaryCSVName = "summary.csv"

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run queued recordings through the full pipeline",
		Long: "Drains the queue: downloads media, transcribes it, labels the\n" +
			"sections, and writes the per-video JSON plus the shared summary CSV.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, ctx, skipPreflight)
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start processing without running preflight checks")
	return cmd
}

// runPipeline gates on preflight, wires the collaborator services into the
// four pipeline stages, and drains the queue.
func runPipeline(cmd *cobra.Command, ctx *commandContext, skipPreflight bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if !skipPreflight {
		results := preflight.RunAll(cmd.Context(), cfg)
		printPreflight(out, results)
		if !preflight.AllPassed(results) {
			return fmt.Errorf("preflight checks failed")
		}
	}

	logger, err := ctx.logger()
	if err != nil {
		return err
	}

	zoomClient, err := ctx.zoomClient()
	if err != nil {
		return err
	}
	transcriber, err := ctx.whisperService()
	if err != nil {
		return err
	}
	labeler, err := ctx.classifierClient()
	if err != nil {
		return err
	}
	accumulator := export.NewAccumulator(filepath.Join(cfg.Paths.ArchiveDir, summaryCSVName))

	return ctx.withStore(func(store *queue.Store) error {
		runner := pipeline.NewRunner(cfg, store, logger,
			pipeline.NewDownloadStage(cfg, zoomClient),
			pipeline.NewTranscribeStage(cfg, transcriber),
			pipeline.NewClassifyStage(cfg, labeler),
			pipeline.NewExportStage(cfg, accumulator, logger),
		)

		summary, err := runner.Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Run %s: %d processed, %d completed, %d failed, %d for review\n",
			summary.RunID, summary.Processed, summary.Completed, summary.Failed, summary.Review)
		if summary.Failed > 0 || summary.Review > 0 {
			fmt.Fprintln(out, "Inspect failures with: scribe queue list")
		}
		return nil
	})
}
