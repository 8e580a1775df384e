package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"scribe/internal/config"
	"scribe/internal/export"
	"scribe/internal/logging"
	"scribe/internal/queue"
	"scribe/internal/segment"
	"scribe/internal/services/classifier"
	"scribe/internal/services/whisper"
	"scribe/internal/services/zoom"
	"scribe/internal/textutil"
	"scribe/internal/transcript"
)

// Downloader fetches a recording's media by canonical UUID, falling back to
// the share URL when the API cannot see the recording.
type Downloader interface {
	Download(ctx context.Context, uuid, shareURL, dir string) (string, error)
	HealthCheck(ctx context.Context) error
}

// Transcriber turns a media file into a timestamped transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, source, workDir string) (transcript.Transcript, error)
}

// Classifier labels a transcript with section time ranges.
type Classifier interface {
	Classify(ctx context.Context, spans []transcript.Span) (classifier.Classification, error)
	HealthCheck(ctx context.Context) error
}

var _ Downloader = (*zoom.Client)(nil)
var _ Transcriber = (*whisper.Service)(nil)
var _ Classifier = (*classifier.Client)(nil)

func itemWorkDir(cfg *config.Config, item *queue.Item) string {
	name := textutil.SanitizeFileName(item.VideoName)
	if name == "" {
		name = textutil.SanitizeFileName(item.RecordingUUID)
	}
	return filepath.Join(cfg.Paths.StagingDir, name)
}

type downloadStage struct {
	cfg    *config.Config
	client Downloader
}

// NewDownloadStage fetches recording media into the staging directory.
func NewDownloadStage(cfg *config.Config, client Downloader) Handler {
	return &downloadStage{cfg: cfg, client: client}
}

func (s *downloadStage) Prepare(ctx context.Context, item *queue.Item) error {
	if strings.TrimSpace(item.RecordingUUID) == "" {
		return errors.New("download: item has no recording uuid")
	}
	item.SetProgress("download", "fetching media")
	return nil
}

func (s *downloadStage) Execute(ctx context.Context, item *queue.Item) error {
	dir := itemWorkDir(s.cfg, item)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("download: create staging dir: %w", err)
	}
	path, err := s.client.Download(ctx, item.RecordingUUID, item.ShareURL, dir)
	if err != nil {
		return err
	}
	item.MediaPath = path
	item.SetProgress("download", "media downloaded")
	return nil
}

func (s *downloadStage) HealthCheck(ctx context.Context) Health {
	if err := s.client.HealthCheck(ctx); err != nil {
		return Unhealthy("download", err.Error())
	}
	return Healthy("download")
}

type transcribeStage struct {
	cfg *config.Config
	svc Transcriber
}

// NewTranscribeStage produces the timestamped transcript for an item.
func NewTranscribeStage(cfg *config.Config, svc Transcriber) Handler {
	return &transcribeStage{cfg: cfg, svc: svc}
}

func (s *transcribeStage) Prepare(ctx context.Context, item *queue.Item) error {
	if item.MediaPath == "" {
		return errors.New("transcribe: item has no media path")
	}
	if _, err := os.Stat(item.MediaPath); err != nil {
		return fmt.Errorf("transcribe: media missing: %w", err)
	}
	item.SetProgress("transcribe", "transcribing audio")
	return nil
}

func (s *transcribeStage) Execute(ctx context.Context, item *queue.Item) error {
	workDir := itemWorkDir(s.cfg, item)
	result, err := s.svc.Transcribe(ctx, item.MediaPath, workDir)
	if err != nil {
		return err
	}
	if len(result.Spans) == 0 {
		return errors.New("transcribe: empty transcript")
	}
	path := filepath.Join(workDir, "transcript.json")
	if err := transcript.Save(result, path); err != nil {
		return err
	}
	item.TranscriptPath = path
	if item.DurationSeconds == 0 {
		_, end := transcript.Extent(result.Spans)
		item.DurationSeconds = int(end)
	}
	item.SetProgress("transcribe", fmt.Sprintf("%d spans transcribed", len(result.Spans)))
	return nil
}

func (s *transcribeStage) HealthCheck(ctx context.Context) Health {
	if _, err := exec.LookPath(s.cfg.FFmpegBinary()); err != nil {
		return Unhealthy("transcribe", err.Error())
	}
	return Healthy("transcribe")
}

// labelsFile is the persisted classifier output for one item.
type labelsFile struct {
	OverallSummary string         `json:"overall_summary"`
	DetectedOrder  []string       `json:"detected_order"`
	Unrecognized   []string       `json:"unrecognized,omitempty"`
	Sections       []labelsRecord `json:"sections"`
}

type labelsRecord struct {
	Type    string  `json:"type"`
	Start   float64 `json:"start_seconds"`
	End     float64 `json:"end_seconds"`
	Summary string  `json:"summary"`
}

type classifyStage struct {
	cfg    *config.Config
	client Classifier
}

// NewClassifyStage labels an item's transcript with section time ranges.
func NewClassifyStage(cfg *config.Config, client Classifier) Handler {
	return &classifyStage{cfg: cfg, client: client}
}

func (s *classifyStage) Prepare(ctx context.Context, item *queue.Item) error {
	if item.TranscriptPath == "" {
		return errors.New("classify: item has no transcript path")
	}
	item.SetProgress("classify", "labeling sections")
	return nil
}

func (s *classifyStage) Execute(ctx context.Context, item *queue.Item) error {
	t, err := transcript.Load(item.TranscriptPath)
	if err != nil {
		return err
	}
	result, err := s.client.Classify(ctx, t.Spans)
	if err != nil {
		return err
	}

	file := labelsFile{
		OverallSummary: result.OverallSummary,
		Unrecognized:   result.Unrecognized,
	}
	for _, cat := range result.DetectedOrder {
		file.DetectedOrder = append(file.DetectedOrder, string(cat))
	}
	for _, label := range result.Labels {
		file.Sections = append(file.Sections, labelsRecord{
			Type:    string(label.Category),
			Start:   label.Start,
			End:     label.End,
			Summary: label.Summary,
		})
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("classify: encode labels: %w", err)
	}
	path := filepath.Join(itemWorkDir(s.cfg, item), "labels.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("classify: write labels: %w", err)
	}
	item.LabelsPath = path
	item.SetProgress("classify", fmt.Sprintf("%d sections detected", len(file.Sections)))
	return nil
}

func (s *classifyStage) HealthCheck(ctx context.Context) Health {
	if err := s.client.HealthCheck(ctx); err != nil {
		return Unhealthy("classify", err.Error())
	}
	return Healthy("classify")
}

type exportStage struct {
	cfg    *config.Config
	acc    *export.Accumulator
	logger *slog.Logger
}

// NewExportStage writes the structured file and the shared CSV row. Label
// integrity findings from alignment are logged at warn level.
func NewExportStage(cfg *config.Config, acc *export.Accumulator, logger *slog.Logger) Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &exportStage{cfg: cfg, acc: acc, logger: logging.WithComponent(logger, "export")}
}

func (s *exportStage) Prepare(ctx context.Context, item *queue.Item) error {
	if item.TranscriptPath == "" || item.LabelsPath == "" {
		return errors.New("export: item missing transcript or labels")
	}
	item.SetProgress("export", "writing archive")
	return nil
}

func (s *exportStage) Execute(ctx context.Context, item *queue.Item) error {
	t, err := transcript.Load(item.TranscriptPath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(item.LabelsPath)
	if err != nil {
		return fmt.Errorf("export: read labels: %w", err)
	}
	var file labelsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("export: parse labels: %w", err)
	}

	var labels []segment.Label
	var order []segment.Category
	for _, raw := range file.Sections {
		cat, err := segment.ParseCategory(raw.Type)
		if err != nil {
			continue
		}
		labels = append(labels, segment.Label{
			Category: cat,
			Start:    raw.Start,
			End:      raw.End,
			Summary:  raw.Summary,
		})
	}
	for _, name := range file.DetectedOrder {
		if cat, err := segment.ParseCategory(name); err == nil {
			order = append(order, cat)
		}
	}

	aligned := segment.Align(t.Spans, labels)
	alignLogger := s.logger.With(logging.String(logging.FieldItemID, fmt.Sprint(item.ID)),
		logging.String("video", item.VideoName))
	for _, detail := range aligned.Clipped {
		alignLogger.Warn("label clipped", logging.String("detail", detail))
	}
	for _, detail := range aligned.Skipped {
		alignLogger.Warn("label skipped", logging.String("detail", detail))
	}
	for _, detail := range aligned.Gaps {
		alignLogger.Warn("coverage gap", logging.String("detail", detail))
	}
	rec := export.NewVideoRecord(
		item.VideoName,
		item.RecordedDate,
		item.Teacher,
		(item.DurationSeconds+30)/60,
		file.OverallSummary,
		order,
		aligned.Sections,
	)
	path, err := export.WriteStructured(rec, s.cfg.Paths.ArchiveDir)
	if err != nil {
		return err
	}
	if err := s.acc.Upsert(rec); err != nil {
		return err
	}
	item.ExportPath = path

	message := "archived"
	if n := len(aligned.Gaps); n > 0 {
		message = fmt.Sprintf("archived with %d coverage gaps", n)
	}
	item.SetProgress("export", message)
	return nil
}

func (s *exportStage) HealthCheck(ctx context.Context) Health {
	if s.cfg.Paths.ArchiveDir == "" {
		return Unhealthy("export", "archive directory not configured")
	}
	return Healthy("export")
}
