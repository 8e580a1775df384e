package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/queue"
	"scribe/internal/services"
)

type stubStage struct {
	name    string
	prepErr error
	execErr error
	calls   *int32
	onExec  func(item *queue.Item)
}

func (s *stubStage) Prepare(ctx context.Context, item *queue.Item) error { return s.prepErr }

func (s *stubStage) Execute(ctx context.Context, item *queue.Item) error {
	if s.calls != nil {
		atomic.AddInt32(s.calls, 1)
	}
	if s.onExec != nil {
		s.onExec(item)
	}
	return s.execErr
}

func (s *stubStage) HealthCheck(ctx context.Context) Health { return Healthy(s.name) }

func testRunner(t *testing.T, download, transcribe, classify, exportStage Handler) (*Runner, *queue.Store) {
	t.Helper()
	store, err := queue.OpenPath(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	cfg := config.Default()
	cfg.Workflow.MaxConcurrent = 2
	return NewRunner(&cfg, store, logging.NewNop(), download, transcribe, classify, exportStage), store
}

func TestRunProcessesAllStages(t *testing.T) {
	var calls int32
	stage := func(name string) Handler { return &stubStage{name: name, calls: &calls} }
	runner, store := testRunner(t, stage("download"), stage("transcribe"), stage("classify"), stage("export"))

	ctx := context.Background()
	for _, name := range []string{"one", "two", "three"} {
		if _, err := store.Add(ctx, "uuid-"+name, name, "2024-09-08", "Teacher", ""); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	summary, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 3 || summary.Completed != 3 {
		t.Fatalf("summary = %+v", summary)
	}
	if got := atomic.LoadInt32(&calls); got != 12 {
		t.Errorf("expected 12 stage executions, got %d", got)
	}
	if summary.RunID == "" {
		t.Error("missing run id")
	}

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, item := range items {
		if item.Status != queue.StatusCompleted {
			t.Errorf("item %s status = %s", item.VideoName, item.Status)
		}
	}
}

func TestRunContinuesPastFailures(t *testing.T) {
	boom := errors.New("network down")
	download := &stubStage{name: "download", onExec: func(item *queue.Item) {}}
	transcribe := &stubStage{name: "transcribe"}
	classify := &stubStage{name: "classify"}
	exp := &stubStage{name: "export"}

	runner, store := testRunner(t, download, transcribe, classify, exp)
	ctx := context.Background()
	good, err := store.Add(ctx, "uuid-good", "Good", "2024-09-08", "Teacher", "")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	bad, err := store.Add(ctx, "uuid-bad", "Bad", "2024-09-08", "Teacher", "")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	download.onExec = func(item *queue.Item) {
		if item.RecordingUUID == "uuid-bad" {
			download.execErr = boom
		} else {
			download.execErr = nil
		}
	}

	runner.cfg.Workflow.MaxConcurrent = 1
	summary, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Completed != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	goodItem, _ := store.GetByID(ctx, good.ID)
	if goodItem.Status != queue.StatusCompleted {
		t.Errorf("good item status = %s", goodItem.Status)
	}
	badItem, _ := store.GetByID(ctx, bad.ID)
	if badItem.Status != queue.StatusFailed {
		t.Errorf("bad item status = %s", badItem.Status)
	}
	if badItem.ErrorMessage == "" {
		t.Error("failure message not persisted")
	}
}

func TestRunRoutesValidationErrorsToReview(t *testing.T) {
	download := &stubStage{name: "download",
		execErr: services.Wrap(services.ErrValidation, "download", "execute", "uuid rejected", nil)}
	runner, store := testRunner(t, download, &stubStage{name: "t"}, &stubStage{name: "c"}, &stubStage{name: "e"})

	ctx := context.Background()
	item, err := store.Add(ctx, "uuid-1", "Video", "2024-09-08", "Teacher", "")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	summary, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Review != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	got, _ := store.GetByID(ctx, item.ID)
	if got.Status != queue.StatusReview || !got.NeedsReview {
		t.Errorf("item = %+v", got)
	}
}

func TestRunResumesFromIntermediateStatus(t *testing.T) {
	var downloadCalls, exportCalls int32
	download := &stubStage{name: "download", calls: &downloadCalls}
	exp := &stubStage{name: "export", calls: &exportCalls}
	runner, store := testRunner(t, download, &stubStage{name: "t"}, &stubStage{name: "c"}, exp)

	ctx := context.Background()
	item, err := store.Add(ctx, "uuid-1", "Video", "2024-09-08", "Teacher", "")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	item.Status = queue.StatusClassified
	item.TranscriptPath = "/tmp/t.json"
	item.LabelsPath = "/tmp/l.json"
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	summary, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Completed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if atomic.LoadInt32(&downloadCalls) != 0 {
		t.Error("download ran for an already-downloaded item")
	}
	if atomic.LoadInt32(&exportCalls) != 1 {
		t.Error("export stage did not run")
	}
}

func TestHealthCheckAggregatesStages(t *testing.T) {
	runner, _ := testRunner(t,
		&stubStage{name: "download"},
		&stubStage{name: "transcribe"},
		&stubStage{name: "classify"},
		&stubStage{name: "export"})
	health := runner.HealthCheck(context.Background())
	if len(health) != 4 {
		t.Fatalf("expected 4 health records, got %d", len(health))
	}
	for _, h := range health {
		if !h.Ready {
			t.Errorf("stage %s not ready: %s", h.Name, h.Detail)
		}
	}
}
