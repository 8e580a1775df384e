package classifier

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"scribe/internal/segment"
	"scribe/internal/transcript"
)

// Classification is the validated output of one classify call. Unrecognized
// holds reports for sections the model invented or malformed; they are
// surfaced, never silently accepted.
type Classification struct {
	OverallSummary string
	Labels         []segment.Label
	DetectedOrder  []segment.Category
	Unrecognized   []string
	Raw            string
}

type sectionPayload struct {
	OverallSummary string             `json:"overall_summary"`
	Sections       []segment.RawLabel `json:"sections"`
}

// Classify asks the model to segment the transcript and validates the reply
// against the fixed section types.
func (c *Client) Classify(ctx context.Context, spans []transcript.Span) (Classification, error) {
	var out Classification
	if len(spans) == 0 {
		return out, errors.New("classify: empty transcript")
	}

	content, err := c.CompleteJSON(ctx, sectionPrompt, transcript.Timestamped(spans))
	if err != nil {
		return out, err
	}
	out.Raw = content

	var payload sectionPayload
	if err := DecodeJSON(content, &payload); err != nil {
		return out, fmt.Errorf("classify: parse payload: %w", err)
	}
	out.OverallSummary = strings.TrimSpace(payload.OverallSummary)
	out.Labels, out.Unrecognized = segment.ParseLabels(payload.Sections)
	if len(out.Labels) == 0 {
		return out, fmt.Errorf("classify: no usable sections in reply (%d rejected)", len(out.Unrecognized))
	}
	out.DetectedOrder = detectOrder(out.Labels)
	return out, nil
}

// detectOrder lists categories by first chronological appearance.
func detectOrder(labels []segment.Label) []segment.Category {
	ordered := make([]segment.Label, len(labels))
	copy(ordered, labels)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })
	seen := make(map[segment.Category]bool, len(ordered))
	var order []segment.Category
	for _, label := range ordered {
		if !seen[label.Category] {
			seen[label.Category] = true
			order = append(order, label.Category)
		}
	}
	return order
}
