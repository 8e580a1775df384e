package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRecordingsCommand(ctx *commandContext) *cobra.Command {
	var fromFlag string
	var toFlag string

	cmd := &cobra.Command{
		Use:   "recordings",
		Short: "List canonical recordings from the provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			to := time.Now()
			from := to.AddDate(0, -1, 0)
			if fromFlag != "" {
				parsed, err := time.Parse("2006-01-02", fromFlag)
				if err != nil {
					return fmt.Errorf("parse --from: %w", err)
				}
				from = parsed
			}
			if toFlag != "" {
				parsed, err := time.Parse("2006-01-02", toFlag)
				if err != nil {
					return fmt.Errorf("parse --to: %w", err)
				}
				to = parsed
			}

			client, err := ctx.zoomClient()
			if err != nil {
				return err
			}
			recordings, err := client.ListRecordings(cmd.Context(), from, to)
			if err != nil {
				return fmt.Errorf("list recordings: %w", err)
			}

			headers := []string{"UUID", "Topic", "Started", "Duration", "Files"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight}
			rows := make([][]string, 0, len(recordings))
			for _, rec := range recordings {
				rows = append(rows, []string{
					rec.UUID,
					rec.Topic,
					rec.StartTime.Format("2006-01-02 15:04"),
					fmt.Sprintf("%dm", rec.DurationSeconds/60),
					fmt.Sprintf("%d", len(rec.FileVariants)),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			fmt.Fprintf(out, "%d recording(s) between %s and %s\n",
				len(recordings), from.Format("2006-01-02"), to.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().StringVar(&fromFlag, "from", "", "Start of the listing range (YYYY-MM-DD, default one month ago)")
	cmd.Flags().StringVar(&toFlag, "to", "", "End of the listing range (YYYY-MM-DD, default today)")
	return cmd
}
