// Package export serializes aligned recordings into the archive.
//
// Two redundant forms are written: one structured JSON file per recording
// and one shared wide CSV with a row per recording. Both are derived caches;
// re-exporting a recording overwrites its file and replaces its row.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"scribe/internal/segment"
	"scribe/internal/textutil"
	"scribe/internal/transcript"
)

// SectionRecord is one exported (video, category) block.
type SectionRecord struct {
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Summary   string `json:"summary"`
}

// VideoRecord aggregates one recording's exported data. Sections holds only
// the categories actually detected; absence means "not found", never an
// empty placeholder.
type VideoRecord struct {
	VideoName       string                   `json:"video_name"`
	Date            string                   `json:"date"`
	Teacher         string                   `json:"teacher"`
	DurationMinutes int                      `json:"duration_minutes"`
	OverallSummary  string                   `json:"overall_summary"`
	DetectedOrder   []string                 `json:"detected_order"`
	Sections        map[string]SectionRecord `json:"sections"`
}

// NewVideoRecord builds the export form from an alignment result.
func NewVideoRecord(videoName, date, teacher string, durationMinutes int, overallSummary string, order []segment.Category, sections map[segment.Category]segment.Section) VideoRecord {
	rec := VideoRecord{
		VideoName:       videoName,
		Date:            date,
		Teacher:         teacher,
		DurationMinutes: durationMinutes,
		OverallSummary:  overallSummary,
		Sections:        make(map[string]SectionRecord, len(sections)),
	}
	for _, cat := range order {
		rec.DetectedOrder = append(rec.DetectedOrder, string(cat))
	}
	for cat, sec := range sections {
		rec.Sections[cat.Key()] = SectionRecord{
			Text:      sec.Text,
			WordCount: sec.WordCount,
			StartTime: transcript.FormatTimestamp(sec.Start),
			EndTime:   transcript.FormatTimestamp(sec.End),
			Summary:   sec.Summary,
		}
	}
	return rec
}

// Section returns the record for a category, if detected.
func (v VideoRecord) Section(cat segment.Category) (SectionRecord, bool) {
	sec, ok := v.Sections[cat.Key()]
	return sec, ok
}

// StructuredPath returns the per-recording JSON path inside dir.
func StructuredPath(dir, videoName string) string {
	return filepath.Join(dir, textutil.SanitizeFileName(videoName)+".json")
}

// WriteStructured writes the per-recording JSON file atomically. Re-exports
// overwrite the prior file.
func WriteStructured(rec VideoRecord, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create directory: %w", err)
	}
	target := StructuredPath(dir, rec.VideoName)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export: encode record: %w", err)
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("export: write record: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("export: finalize record: %w", err)
	}
	return target, nil
}

// ReadStructured loads a previously exported per-recording file.
func ReadStructured(path string) (VideoRecord, error) {
	var rec VideoRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("export: read record: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("export: parse record: %w", err)
	}
	return rec, nil
}
