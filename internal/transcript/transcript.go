// Package transcript models timestamped speech-to-text output.
//
// Upstream transcription services promise ordered, non-overlapping spans, but
// the pipeline never assumes that: Normalize sorts and clips so alignment
// downstream can rely on a clean timeline.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Span is one utterance unit with offsets in seconds from recording start.
type Span struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns the span length in seconds.
func (s Span) Duration() float64 {
	return s.End - s.Start
}

// Transcript is an ordered sequence of spans plus recording-level metadata.
type Transcript struct {
	Spans    []Span  `json:"segments"`
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// Normalize returns a copy of the spans sorted by start time with
// empty-text and non-positive-duration spans dropped and overlaps against
// the preceding span clipped away. The input is not modified.
func Normalize(spans []Span) []Span {
	cleaned := make([]Span, 0, len(spans))
	for _, span := range spans {
		if strings.TrimSpace(span.Text) == "" {
			continue
		}
		if span.End <= span.Start {
			continue
		}
		span.Text = strings.TrimSpace(span.Text)
		cleaned = append(cleaned, span)
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].Start < cleaned[j].Start
	})
	out := cleaned[:0]
	for _, span := range cleaned {
		if len(out) > 0 {
			prev := out[len(out)-1]
			if span.Start < prev.End {
				span.Start = prev.End
			}
			if span.End <= span.Start {
				continue
			}
		}
		out = append(out, span)
	}
	return out
}

// PlainText renders spans as a single space-joined string.
func PlainText(spans []Span) string {
	parts := make([]string, 0, len(spans))
	for _, span := range spans {
		if text := strings.TrimSpace(span.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Timestamped renders spans one per line as "[MM:SS] text", the form the
// section classifier consumes.
func Timestamped(spans []Span) string {
	var b strings.Builder
	for i, span := range spans {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteByte('[')
		b.WriteString(FormatTimestamp(span.Start))
		b.WriteString("] ")
		b.WriteString(span.Text)
	}
	return b.String()
}

// FormatTimestamp formats seconds as MM:SS, rolling into H:MM:SS past an hour.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// Extent returns the time range covered by the spans.
func Extent(spans []Span) (start, end float64) {
	if len(spans) == 0 {
		return 0, 0
	}
	return spans[0].Start, spans[len(spans)-1].End
}

// Save writes the transcript as indented JSON.
func Save(t Transcript, path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// Load reads a transcript JSON file and normalizes its spans.
func Load(path string) (Transcript, error) {
	var t Transcript
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read transcript: %w", err)
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse transcript: %w", err)
	}
	t.Spans = Normalize(t.Spans)
	if t.Text == "" {
		t.Text = PlainText(t.Spans)
	}
	return t, nil
}
