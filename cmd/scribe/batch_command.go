package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribe/internal/queue"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var catalogPath string
	var fromFlag string
	var toFlag string
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Resolve a catalog and process every confident match",
		Long: "Runs the whole flow in one invocation: matches the roster CSV\n" +
			"against the provider's recordings, enqueues EXACT and TIME_WINDOW\n" +
			"matches, then drains the queue through the pipeline. Ambiguous and\n" +
			"unmatched rows are reported and left for the operator.",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, rowErrs, err := resolveCatalog(cmd, ctx, catalogPath, fromFlag, toFlag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderResolveTable(results))
			fmt.Fprintln(out, resolveSummaryLine(results, len(rowErrs)))
			for _, rowErr := range rowErrs {
				fmt.Fprintf(out, "  skipped %s\n", rowErr.Error())
			}

			err = ctx.withStore(func(store *queue.Store) error {
				added, err := enqueueMatches(cmd.Context(), store, results)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Enqueued %d recording(s)\n", added)
				return nil
			})
			if err != nil {
				return err
			}

			return runPipeline(cmd, ctx, skipPreflight)
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Path to the roster CSV")
	cmd.Flags().StringVar(&fromFlag, "from", "", "Start of the listing range (YYYY-MM-DD, default derived from the catalog)")
	cmd.Flags().StringVar(&toFlag, "to", "", "End of the listing range (YYYY-MM-DD, default derived from the catalog)")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start processing without running preflight checks")
	_ = cmd.MarkFlagRequired("catalog")
	return cmd
}
