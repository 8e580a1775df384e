package segment

import (
	"fmt"
	"sort"
	"strings"

	"scribe/internal/transcript"
)

// Section is one aligned (category, text) block with its reporting extent.
type Section struct {
	Text      string
	WordCount int
	Start     float64
	End       float64
	Summary   string
}

// Result carries the aligned sections plus integrity diagnostics. Gaps and
// Clipped record what the aligner observed and how it resolved overlaps;
// they never block export.
type Result struct {
	Sections map[Category]Section
	Gaps     []string
	Clipped  []string
	Skipped  []string
}

// Gap is a transcript interval no label claimed.
type Gap struct {
	Start float64
	End   float64
}

// Align attributes transcript spans to section labels and merges duplicate
// categories. Overlapping labels are resolved by clipping the later label's
// start to the earlier label's end. A span belongs to the label covering at
// least half the span's duration; when a span sits exactly on a boundary the
// later label wins.
func Align(spans []transcript.Span, labels []Label) Result {
	res := Result{Sections: make(map[Category]Section)}
	spans = transcript.Normalize(spans)

	ordered := make([]Label, len(labels))
	copy(ordered, labels)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start < ordered[j].Start
	})

	// Clip overlaps, dropping labels fully swallowed by an earlier one.
	clipped := ordered[:0]
	for _, label := range ordered {
		if len(clipped) > 0 {
			prev := clipped[len(clipped)-1]
			if label.Start < prev.End {
				res.Clipped = append(res.Clipped, fmt.Sprintf(
					"%s start clipped from %s to %s (overlaps %s)",
					label.Category,
					transcript.FormatTimestamp(label.Start),
					transcript.FormatTimestamp(prev.End),
					prev.Category))
				label.Start = prev.End
			}
			if label.End <= label.Start {
				res.Skipped = append(res.Skipped, fmt.Sprintf(
					"%s skipped: fully covered by earlier labels", label.Category))
				continue
			}
		}
		clipped = append(clipped, label)
	}

	texts := make(map[Category][]string)
	for _, span := range spans {
		idx := attribute(span, clipped)
		if idx < 0 {
			continue
		}
		label := clipped[idx]
		texts[label.Category] = append(texts[label.Category], span.Text)
	}

	// Merge duplicate categories chronologically. Texts were accumulated in
	// span order, so only the extents and summaries need combining here.
	for _, label := range clipped {
		sec, seen := res.Sections[label.Category]
		if !seen {
			sec = Section{Start: label.Start, End: label.End, Summary: label.Summary}
		} else {
			if label.Start < sec.Start {
				sec.Start = label.Start
			}
			if label.End > sec.End {
				sec.End = label.End
			}
			if label.Summary != "" && !strings.Contains(sec.Summary, label.Summary) {
				if sec.Summary != "" {
					sec.Summary += " "
				}
				sec.Summary += label.Summary
			}
		}
		res.Sections[label.Category] = sec
	}
	for cat, parts := range texts {
		sec := res.Sections[cat]
		sec.Text = strings.Join(parts, " ")
		sec.WordCount = len(strings.Fields(sec.Text))
		res.Sections[cat] = sec
	}

	for _, gap := range coverageGaps(spans, clipped) {
		res.Gaps = append(res.Gaps, fmt.Sprintf("no label covers %s-%s",
			transcript.FormatTimestamp(gap.Start),
			transcript.FormatTimestamp(gap.End)))
	}
	return res
}

// attribute picks the label with the largest overlap against the span,
// requiring at least half the span's duration. Ties go to the later label.
func attribute(span transcript.Span, labels []Label) int {
	best := -1
	bestOverlap := 0.0
	for i, label := range labels {
		o := overlap(span.Start, span.End, label.Start, label.End)
		if o >= bestOverlap && o > 0 {
			best = i
			bestOverlap = o
		}
	}
	if best < 0 || bestOverlap < span.Duration()/2 {
		return -1
	}
	return best
}

func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}

// coverageGaps reports transcript time not claimed by any label. Labels are
// assumed sorted and non-overlapping (post clipping).
func coverageGaps(spans []transcript.Span, labels []Label) []Gap {
	if len(spans) == 0 || len(labels) == 0 {
		return nil
	}
	extentStart, extentEnd := transcript.Extent(spans)
	var gaps []Gap
	cursor := extentStart
	for _, label := range labels {
		if label.Start > cursor {
			end := label.Start
			if end > extentEnd {
				end = extentEnd
			}
			if end > cursor {
				gaps = append(gaps, Gap{Start: cursor, End: end})
			}
		}
		if label.End > cursor {
			cursor = label.End
		}
	}
	if cursor < extentEnd {
		gaps = append(gaps, Gap{Start: cursor, End: extentEnd})
	}
	return gaps
}
