package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scribe/internal/catalog"
	"scribe/internal/queue"
	"scribe/internal/resolve"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var catalogPath string
	var fromFlag string
	var toFlag string
	var enqueue bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Match catalog rows against canonical recordings",
		Long: "Reads the roster CSV, lists recordings from the provider over the\n" +
			"covered date range, and reports the match confidence for every row.\n" +
			"With --enqueue, EXACT and TIME_WINDOW matches are added to the queue.",
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

			if !enqueue {
				return nil
			}
			return ctx.withStore(func(store *queue.Store) error {
				added, err := enqueueMatches(cmd.Context(), store, results)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Enqueued %d recording(s)\n", added)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Path to the roster CSV")
	cmd.Flags().StringVar(&fromFlag, "from", "", "Start of the listing range (YYYY-MM-DD, default derived from the catalog)")
	cmd.Flags().StringVar(&toFlag, "to", "", "End of the listing range (YYYY-MM-DD, default derived from the catalog)")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "Add confident matches to the processing queue")
	_ = cmd.MarkFlagRequired("catalog")
	return cmd
}

// resolveCatalog loads the roster, lists provider recordings over the covered
// range, and matches the two.
func resolveCatalog(cmd *cobra.Command, ctx *commandContext, catalogPath, fromFlag, toFlag string) ([]resolve.MatchResult, []catalog.RowError, error) {
	records, rowErrs, err := catalog.Load(catalogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("catalog %s contains no usable rows", catalogPath)
	}

	from, to, err := resolveDateRange(records, fromFlag, toFlag)
	if err != nil {
		return nil, nil, err
	}

	client, err := ctx.zoomClient()
	if err != nil {
		return nil, nil, err
	}
	canonical, err := client.ListRecordings(cmd.Context(), from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("list recordings: %w", err)
	}

	cfg := ctx.configValue()
	policy := resolve.Policy{
		Window:                   time.Duration(cfg.Matching.WindowMinutes) * time.Minute,
		StrictWindow:             time.Duration(cfg.Matching.StrictWindowMinutes) * time.Minute,
		TopicSimilarityThreshold: cfg.Matching.TopicSimilarityThreshold,
	}
	return resolve.Resolve(records, canonical, policy), rowErrs, nil
}

// enqueueMatches adds EXACT and TIME_WINDOW matches to the queue.
func enqueueMatches(ctx context.Context, store *queue.Store, results []resolve.MatchResult) (int, error) {
	added := 0
	for _, result := range results {
		if result.Confidence != resolve.ConfidenceExact && result.Confidence != resolve.ConfidenceTimeWindow {
			continue
		}
		_, err := store.Add(ctx,
			result.MatchedUUID,
			result.Record.VideoName,
			result.Record.Date.Format("2006-01-02"),
			result.Record.Teacher,
			result.Record.ShareURL,
		)
		if err != nil {
			return added, fmt.Errorf("enqueue %q: %w", result.Record.VideoName, err)
		}
		added++
	}
	return added, nil
}

// resolveDateRange derives the provider listing range. Explicit flags win;
// otherwise the catalog's own date span is used, padded by one day on each
// side so recordings that started near midnight still list.
func resolveDateRange(records []catalog.Record, fromFlag, toFlag string) (time.Time, time.Time, error) {
	var from, to time.Time
	for _, record := range records {
		if record.Date.IsZero() {
			continue
		}
		if from.IsZero() || record.Date.Before(from) {
			from = record.Date
		}
		if to.IsZero() || record.Date.After(to) {
			to = record.Date
		}
	}

	if fromFlag != "" {
		parsed, err := time.Parse("2006-01-02", fromFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse --from: %w", err)
		}
		from = parsed
	}
	if toFlag != "" {
		parsed, err := time.Parse("2006-01-02", toFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse --to: %w", err)
		}
		to = parsed
	}

	if from.IsZero() || to.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("no dates in catalog; pass --from and --to")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("range end %s precedes start %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	return from.AddDate(0, 0, -1), to.AddDate(0, 0, 1), nil
}

func renderResolveTable(results []resolve.MatchResult) string {
	headers := []string{"Row", "Video", "Date", "Confidence", "Recording UUID", "Detail"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}

	rows := make([][]string, 0, len(results))
	for _, result := range results {
		date := ""
		if !result.Record.Date.IsZero() {
			date = result.Record.Date.Format("2006-01-02")
		}
		detail := result.Reason
		if result.Err != nil {
			detail = result.Err.Error()
		} else if result.Confidence == resolve.ConfidenceAmbiguous {
			detail = fmt.Sprintf("%d candidates: %s", len(result.Candidates), result.Reason)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", result.Record.Row),
			result.Record.VideoName,
			date,
			string(result.Confidence),
			result.MatchedUUID,
			detail,
		})
	}
	return renderTable(headers, rows, aligns)
}

func resolveSummaryLine(results []resolve.MatchResult, skippedRows int) string {
	counts := map[resolve.Confidence]int{}
	errored := 0
	for _, result := range results {
		if result.Err != nil {
			errored++
			continue
		}
		counts[result.Confidence]++
	}
	parts := []string{
		fmt.Sprintf("%d exact", counts[resolve.ConfidenceExact]),
		fmt.Sprintf("%d time-window", counts[resolve.ConfidenceTimeWindow]),
		fmt.Sprintf("%d ambiguous", counts[resolve.ConfidenceAmbiguous]),
		fmt.Sprintf("%d unmatched", counts[resolve.ConfidenceNone]),
	}
	if errored > 0 {
		parts = append(parts, fmt.Sprintf("%d malformed", errored))
	}
	if skippedRows > 0 {
		parts = append(parts, fmt.Sprintf("%d rows skipped", skippedRows))
	}
	return "Resolved " + strings.Join(parts, ", ")
}
