package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scribe/internal/config"
	"scribe/internal/export"
	"scribe/internal/queue"
	"scribe/internal/transcript"
)

func writeLabelsFile(t *testing.T, path string, file labelsFile) {
	t.Helper()
	data, err := json.Marshal(file)
	if err != nil {
		t.Fatalf("marshal labels: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write labels: %v", err)
	}
}

func TestExportStageWarnsOnLabelIntegrity(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ArchiveDir = dir

	transcriptPath := filepath.Join(dir, "transcript.json")
	err := transcript.Save(transcript.Transcript{
		Spans: []transcript.Span{
			{Start: 0, End: 120, Text: "opening"},
			{Start: 120, End: 200, Text: "middle"},
			{Start: 200, End: 260, Text: "unlabeled tail"},
		},
	}, transcriptPath)
	if err != nil {
		t.Fatalf("save transcript: %v", err)
	}

	// Overlapping labels: the second must be clipped, the third is fully
	// swallowed, and the transcript tail is uncovered.
	labelsPath := filepath.Join(dir, "labels.json")
	writeLabelsFile(t, labelsPath, labelsFile{
		OverallSummary: "weekly class",
		DetectedOrder:  []string{"Arabic", "Worship"},
		Sections: []labelsRecord{
			{Type: "Arabic", Start: 0, End: 130, Summary: "letters"},
			{Type: "Worship", Start: 120, End: 200, Summary: "dua"},
			{Type: "Quran Recitation", Start: 125, End: 128, Summary: "short"},
		},
	})

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	acc := export.NewAccumulator(filepath.Join(dir, "summary.csv"))
	stage := NewExportStage(&cfg, acc, logger)

	item := &queue.Item{
		ID:              7,
		VideoName:       "Week 1",
		RecordedDate:    "2024-09-08",
		Teacher:         "Ustadha Fatima",
		DurationSeconds: 260,
		TranscriptPath:  transcriptPath,
		LabelsPath:      labelsPath,
	}
	if err := stage.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if item.ExportPath == "" {
		t.Error("export path not recorded")
	}

	logged := buf.String()
	for _, want := range []string{"label clipped", "label skipped", "coverage gap", "Week 1"} {
		if !strings.Contains(logged, want) {
			t.Errorf("log output missing %q:\n%s", want, logged)
		}
	}
	if !strings.Contains(logged, "level=WARN") {
		t.Errorf("integrity findings not logged at warn:\n%s", logged)
	}
}
