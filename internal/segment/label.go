package segment

import (
	"fmt"
	"strconv"
	"strings"
)

// Label is one classifier-produced time-range annotation with offsets in
// seconds from recording start.
type Label struct {
	Category Category
	Start    float64
	End      float64
	Summary  string
}

// RawLabel is the classifier wire form before validation.
type RawLabel struct {
	Type    string `json:"type"`
	Start   string `json:"start_time"`
	End     string `json:"end_time"`
	Summary string `json:"summary"`
}

// ParseClock converts "MM:SS" or "HH:MM:SS" into seconds.
func ParseClock(value string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	fields := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		fields[i] = n
	}
	if len(fields) == 2 {
		return float64(fields[0]*60 + fields[1]), nil
	}
	return float64(fields[0]*3600 + fields[1]*60 + fields[2]), nil
}

// ParseLabel validates one raw label. The category must be one of the fixed
// section types and the range must have positive duration.
func ParseLabel(raw RawLabel) (Label, error) {
	cat, err := ParseCategory(raw.Type)
	if err != nil {
		return Label{}, err
	}
	start, err := ParseClock(raw.Start)
	if err != nil {
		return Label{}, fmt.Errorf("section %q: %w", raw.Type, err)
	}
	end, err := ParseClock(raw.End)
	if err != nil {
		return Label{}, fmt.Errorf("section %q: %w", raw.Type, err)
	}
	if end <= start {
		return Label{}, fmt.Errorf("section %q: end %s not after start %s", raw.Type, raw.End, raw.Start)
	}
	return Label{Category: cat, Start: start, End: end, Summary: strings.TrimSpace(raw.Summary)}, nil
}

// ParseLabels validates a batch of raw labels. Invalid labels are skipped and
// reported; the valid remainder is returned in input order.
func ParseLabels(raws []RawLabel) (labels []Label, skipped []string) {
	for _, raw := range raws {
		label, err := ParseLabel(raw)
		if err != nil {
			skipped = append(skipped, err.Error())
			continue
		}
		labels = append(labels, label)
	}
	return labels, skipped
}
