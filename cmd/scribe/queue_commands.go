package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the work queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]queue.Status, 0, len(listStatuses))
			for _, raw := range listStatuses {
				status, ok := queue.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				statuses = append(statuses, status)
			}

			return ctx.withStore(func(store *queue.Store) error {
				var items []*queue.Item
				var err error
				if len(statuses) > 0 {
					items, err = store.ListByStatus(cmd.Context(), statuses...)
				} else {
					items, err = store.List(cmd.Context())
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, item := range items {
					detail := item.ProgressMessage
					if item.ErrorMessage != "" {
						detail = item.ErrorMessage
					}
					if item.NeedsReview && item.ReviewReason != "" {
						detail = item.ReviewReason
					}
					rows = append(rows, []string{
						fmt.Sprintf("%d", item.ID),
						item.VideoName,
						item.RecordedDate,
						string(item.Status),
						detail,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Video", "Date", "Status", "Detail"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	return cmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintln(out, renderStatusLine("Total", statusInfo, fmt.Sprintf("%d", health.Total), colorize))
				fmt.Fprintln(out, renderStatusLine("Pending", statusInfo, fmt.Sprintf("%d", health.Pending), colorize))
				fmt.Fprintln(out, renderStatusLine("Processing", statusInfo, fmt.Sprintf("%d", health.Processing), colorize))
				fmt.Fprintln(out, renderStatusLine("Completed", statusOK, fmt.Sprintf("%d", health.Completed), colorize))
				failedKind := statusOK
				if health.Failed > 0 {
					failedKind = statusError
				}
				fmt.Fprintln(out, renderStatusLine("Failed", failedKind, fmt.Sprintf("%d", health.Failed), colorize))
				reviewKind := statusOK
				if health.Review > 0 {
					reviewKind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Needs review", reviewKind, fmt.Sprintf("%d", health.Review), colorize))
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to clear the queue without --force")
			}
			return ctx.withStore(func(store *queue.Store) error {
				if err := store.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Queue cleared")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm removal of every queue item")
	return cmd
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return in-flight items to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				updated, err := store.ResetStuck(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d stuck item(s)\n", updated)
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [itemID...]",
		Short: "Retry failed or review queue items",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
				if err != nil {
					return fmt.Errorf("invalid item id %q", arg)
				}
				ids = append(ids, id)
			}

			return ctx.withStore(func(store *queue.Store) error {
				out := cmd.OutOrStdout()

				var items []*queue.Item
				var err error
				if len(ids) == 0 {
					items, err = store.ListByStatus(cmd.Context(), queue.StatusFailed, queue.StatusReview)
					if err != nil {
						return err
					}
				} else {
					for _, id := range ids {
						item, err := store.GetByID(cmd.Context(), id)
						if errors.Is(err, queue.ErrNotFound) {
							fmt.Fprintf(out, "Item %d not found\n", id)
							continue
						}
						if err != nil {
							return err
						}
						if item.Status != queue.StatusFailed && item.Status != queue.StatusReview {
							fmt.Fprintf(out, "Item %d is not failed or in review\n", id)
							continue
						}
						items = append(items, item)
					}
				}

				retried := 0
				for _, item := range items {
					item.Status = resumeStatus(item)
					item.ErrorMessage = ""
					item.NeedsReview = false
					item.ReviewReason = ""
					item.SetProgress("", "")
					if err := store.Update(cmd.Context(), item); err != nil {
						return err
					}
					retried++
				}
				fmt.Fprintf(out, "Retried %d item(s)\n", retried)
				return nil
			})
		},
	}
}

// resumeStatus picks the furthest completed stage a retried item can resume
// from, based on which artifacts survived the failed run.
func resumeStatus(item *queue.Item) queue.Status {
	switch {
	case item.LabelsPath != "":
		return queue.StatusClassified
	case item.TranscriptPath != "":
		return queue.StatusTranscribed
	case item.MediaPath != "":
		return queue.StatusDownloaded
	default:
		return queue.StatusPending
	}
}
