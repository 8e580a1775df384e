package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/queue"
	"scribe/internal/services"
)

// Runner moves queue items through the stage chain with a bounded worker
// pool. A failing item is marked failed (or review, for validation-class
// errors) and the batch continues.
type Runner struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	stages []stageDef
}

// NewRunner assembles a runner over the given stage handlers, in pipeline
// order.
func NewRunner(cfg *config.Config, store *queue.Store, logger *slog.Logger, download, transcribe, classify, exportStage Handler) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:    cfg,
		store:  store,
		logger: logging.WithComponent(logger, "pipeline"),
		stages: []stageDef{
			{name: "download", handler: download, processingStatus: queue.StatusDownloading, doneStatus: queue.StatusDownloaded},
			{name: "transcribe", handler: transcribe, processingStatus: queue.StatusTranscribing, doneStatus: queue.StatusTranscribed},
			{name: "classify", handler: classify, processingStatus: queue.StatusClassifying, doneStatus: queue.StatusClassified},
			{name: "export", handler: exportStage, processingStatus: queue.StatusExporting, doneStatus: queue.StatusCompleted},
		},
	}
}

// Summary aggregates the outcome of one run.
type Summary struct {
	RunID     string
	Processed int
	Completed int
	Failed    int
	Review    int
}

// Run processes every pending queue item to completion. Items already past
// a stage resume from where they stopped.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	summary := Summary{RunID: runID}

	items, err := r.store.ListByStatus(ctx,
		queue.StatusPending, queue.StatusDownloaded, queue.StatusTranscribed, queue.StatusClassified)
	if err != nil {
		return summary, err
	}
	if len(items) == 0 {
		return summary, nil
	}

	workers := r.cfg.Workflow.MaxConcurrent
	if workers < 1 {
		workers = 1
	}
	logger := r.logger.With(logging.String(logging.FieldCorrelationID, runID))
	logger.Info("run started",
		logging.Int("items", len(items)),
		logging.Int("workers", workers))

	type outcome struct{ status queue.Status }
	results := make(chan outcome, len(items))
	work := make(chan *queue.Item)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				status := r.processItem(ctx, logger, item)
				results <- outcome{status: status}
			}
		}()
	}

dispatch:
	for _, item := range items {
		select {
		case <-ctx.Done():
			break dispatch
		case work <- item:
		}
	}
	close(work)
	wg.Wait()
	close(results)

	for res := range results {
		summary.Processed++
		switch res.status {
		case queue.StatusCompleted:
			summary.Completed++
		case queue.StatusReview:
			summary.Review++
		case queue.StatusFailed:
			summary.Failed++
		}
	}
	logger.Info("run finished",
		logging.Int("processed", summary.Processed),
		logging.Int("completed", summary.Completed),
		logging.Int("failed", summary.Failed),
		logging.Int("review", summary.Review))
	if ctx.Err() != nil {
		return summary, ctx.Err()
	}
	return summary, nil
}

// ProcessItem runs a single item through all remaining stages.
func (r *Runner) ProcessItem(ctx context.Context, item *queue.Item) queue.Status {
	return r.processItem(ctx, r.logger, item)
}

func (r *Runner) processItem(ctx context.Context, logger *slog.Logger, item *queue.Item) queue.Status {
	itemLogger := logger.With(
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldRecordingUUID, item.RecordingUUID))

	for {
		stage, ok := r.stageForStatus(item.Status)
		if !ok {
			return item.Status
		}
		if err := r.runStage(ctx, itemLogger, stage, item); err != nil {
			if errors.Is(err, context.Canceled) {
				return item.Status
			}
			r.recordFailure(ctx, itemLogger, stage, item, err)
			return item.Status
		}
	}
}

func (r *Runner) stageForStatus(status queue.Status) (stageDef, bool) {
	var entry queue.Status
	switch status {
	case queue.StatusPending:
		entry = queue.StatusPending
	case queue.StatusDownloaded, queue.StatusTranscribed, queue.StatusClassified:
		entry = status
	default:
		return stageDef{}, false
	}
	for i, stage := range r.stages {
		switch entry {
		case queue.StatusPending:
			if i == 0 {
				return stage, true
			}
		case queue.StatusDownloaded:
			if stage.processingStatus == queue.StatusTranscribing {
				return stage, true
			}
		case queue.StatusTranscribed:
			if stage.processingStatus == queue.StatusClassifying {
				return stage, true
			}
		case queue.StatusClassified:
			if stage.processingStatus == queue.StatusExporting {
				return stage, true
			}
		}
	}
	return stageDef{}, false
}

func (r *Runner) runStage(ctx context.Context, logger *slog.Logger, stage stageDef, item *queue.Item) error {
	stageCtx := services.WithStage(ctx, stage.name)
	stageLogger := logger.With(logging.String(logging.FieldStage, stage.name))

	item.Status = stage.processingStatus
	if err := r.store.Update(stageCtx, item); err != nil {
		return fmt.Errorf("persist %s start: %w", stage.name, err)
	}
	stageLogger.Info("stage started")

	if err := stage.handler.Prepare(stageCtx, item); err != nil {
		return err
	}
	if err := r.store.Update(stageCtx, item); err != nil {
		return fmt.Errorf("persist %s preparation: %w", stage.name, err)
	}
	if err := stage.handler.Execute(stageCtx, item); err != nil {
		return err
	}

	item.Status = stage.doneStatus
	item.ErrorMessage = ""
	if err := r.store.Update(stageCtx, item); err != nil {
		return fmt.Errorf("persist %s completion: %w", stage.name, err)
	}
	stageLogger.Info("stage finished", logging.String("status", string(item.Status)))
	return nil
}

func (r *Runner) recordFailure(ctx context.Context, logger *slog.Logger, stage stageDef, item *queue.Item, err error) {
	status := services.FailureStatus(err)
	if status == queue.StatusReview {
		item.SetReview(err.Error())
	} else {
		item.SetFailed(err.Error())
	}
	logger.Error("stage failed",
		logging.String(logging.FieldStage, stage.name),
		logging.String("status", string(item.Status)),
		logging.Error(err))
	if updateErr := r.store.Update(ctx, item); updateErr != nil {
		logger.Error("failed to persist stage failure", logging.Error(updateErr))
	}
}

// HealthCheck reports the readiness of every stage.
func (r *Runner) HealthCheck(ctx context.Context) []Health {
	out := make([]Health, 0, len(r.stages))
	for _, stage := range r.stages {
		out = append(out, stage.handler.HealthCheck(ctx))
	}
	return out
}
