package segment

import (
	"strings"
	"testing"

	"scribe/internal/transcript"
)

func TestAlignBoundaryTieGoesToLaterLabel(t *testing.T) {
	spans := []transcript.Span{
		{Start: 0, End: 150, Text: "Welcome everyone"},
		{Start: 150, End: 1500, Text: "Today we discuss Surah Al-Kahf"},
		{Start: 1500, End: 1800, Text: "Let's recite together"},
	}
	labels := []Label{
		{Category: CategorySalam, Start: 0, End: 150},
		{Category: CategoryQuran, Start: 150, End: 1800},
	}
	res := Align(spans, labels)
	salam, ok := res.Sections[CategorySalam]
	if !ok {
		t.Fatal("missing salam section")
	}
	if salam.Text != "Welcome everyone" {
		t.Errorf("salam text = %q", salam.Text)
	}
	quran := res.Sections[CategoryQuran]
	want := "Today we discuss Surah Al-Kahf Let's recite together"
	if quran.Text != want {
		t.Errorf("quran text = %q, want %q", quran.Text, want)
	}
	if len(res.Gaps) != 0 {
		t.Errorf("unexpected gaps: %v", res.Gaps)
	}
}

func TestAlignClipsOverlappingLabels(t *testing.T) {
	spans := []transcript.Span{
		{Start: 0, End: 600, Text: "first block"},
		{Start: 600, End: 630, Text: "straddle"},
		{Start: 630, End: 1200, Text: "second block"},
	}
	labels := []Label{
		{Category: CategoryDiscussion, Start: 0, End: 630},
		{Category: CategoryArabic, Start: 600, End: 1200},
	}
	res := Align(spans, labels)
	if len(res.Clipped) != 1 {
		t.Fatalf("expected 1 clip report, got %v", res.Clipped)
	}
	disc := res.Sections[CategoryDiscussion]
	arabic := res.Sections[CategoryArabic]
	if strings.Contains(disc.Text, "straddle") == strings.Contains(arabic.Text, "straddle") {
		t.Errorf("span attributed to both or neither: disc=%q arabic=%q", disc.Text, arabic.Text)
	}
	if !strings.Contains(disc.Text, "straddle") {
		t.Errorf("straddle span should stay with the earlier label after clipping, got arabic=%q", arabic.Text)
	}
}

func TestAlignRoundTripCoverage(t *testing.T) {
	spans := []transcript.Span{
		{Start: 0, End: 60, Text: "a"},
		{Start: 60, End: 300, Text: "b"},
		{Start: 300, End: 400, Text: "c"},
		{Start: 400, End: 900, Text: "d"},
		{Start: 900, End: 1000, Text: "e"},
	}
	labels := []Label{
		{Category: CategorySalam, Start: 0, End: 300},
		{Category: CategoryDiscussion, Start: 300, End: 900},
		{Category: CategoryWorship, Start: 900, End: 1000},
	}
	res := Align(spans, labels)
	var all []string
	for _, cat := range Categories() {
		if sec, ok := res.Sections[cat]; ok {
			all = append(all, sec.Text)
		}
	}
	got := strings.Join(all, " ")
	if got != "a b c d e" {
		t.Errorf("round trip text = %q", got)
	}
	total := 0
	for _, sec := range res.Sections {
		total += sec.WordCount
	}
	if total != 5 {
		t.Errorf("total word count = %d", total)
	}
}

func TestAlignMergesDuplicateCategories(t *testing.T) {
	spans := []transcript.Span{
		{Start: 0, End: 100, Text: "topic one"},
		{Start: 100, End: 200, Text: "recite"},
		{Start: 200, End: 300, Text: "topic two"},
	}
	labels := []Label{
		{Category: CategoryDiscussion, Start: 0, End: 100, Summary: "intro"},
		{Category: CategoryQuran, Start: 100, End: 200},
		{Category: CategoryDiscussion, Start: 200, End: 300, Summary: "outro"},
	}
	res := Align(spans, labels)
	disc := res.Sections[CategoryDiscussion]
	if disc.Text != "topic one topic two" {
		t.Errorf("merged text = %q", disc.Text)
	}
	if disc.Start != 0 || disc.End != 300 {
		t.Errorf("merged extent = [%v,%v]", disc.Start, disc.End)
	}
	if disc.WordCount != 4 {
		t.Errorf("merged word count = %d", disc.WordCount)
	}
	if !strings.Contains(disc.Summary, "intro") || !strings.Contains(disc.Summary, "outro") {
		t.Errorf("merged summary = %q", disc.Summary)
	}
}

func TestAlignReportsGaps(t *testing.T) {
	spans := []transcript.Span{
		{Start: 0, End: 100, Text: "covered"},
		{Start: 100, End: 200, Text: "uncovered"},
		{Start: 200, End: 300, Text: "covered again"},
	}
	labels := []Label{
		{Category: CategorySalam, Start: 0, End: 100},
		{Category: CategoryWorship, Start: 200, End: 300},
	}
	res := Align(spans, labels)
	if len(res.Gaps) != 1 {
		t.Fatalf("expected 1 gap, got %v", res.Gaps)
	}
	if !strings.Contains(res.Gaps[0], "01:40") || !strings.Contains(res.Gaps[0], "03:20") {
		t.Errorf("gap report = %q", res.Gaps[0])
	}
	if _, ok := res.Sections[CategoryDiscussion]; ok {
		t.Error("absent category should not be materialized")
	}
}

func TestAlignOmitsAbsentCategories(t *testing.T) {
	spans := []transcript.Span{{Start: 0, End: 100, Text: "only salam"}}
	labels := []Label{{Category: CategorySalam, Start: 0, End: 100}}
	res := Align(spans, labels)
	if len(res.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(res.Sections))
	}
}

func TestAlignExactHalfOverlapGoesToLaterLabel(t *testing.T) {
	spans := []transcript.Span{{Start: 100, End: 200, Text: "split evenly"}}
	labels := []Label{
		{Category: CategorySalam, Start: 0, End: 150},
		{Category: CategoryDiscussion, Start: 150, End: 300},
	}
	res := Align(spans, labels)
	if _, ok := res.Sections[CategorySalam]; ok {
		if res.Sections[CategorySalam].Text != "" {
			t.Errorf("earlier label won the tie: %+v", res.Sections[CategorySalam])
		}
	}
	if res.Sections[CategoryDiscussion].Text != "split evenly" {
		t.Errorf("later label text = %q", res.Sections[CategoryDiscussion].Text)
	}
}

func TestAlignDropsFullySwallowedLabel(t *testing.T) {
	labels := []Label{
		{Category: CategorySalam, Start: 0, End: 600},
		{Category: CategoryArabic, Start: 100, End: 500},
	}
	spans := []transcript.Span{{Start: 0, End: 600, Text: "all salam"}}
	res := Align(spans, labels)
	if len(res.Skipped) != 1 {
		t.Fatalf("expected 1 skip report, got %v", res.Skipped)
	}
	if _, ok := res.Sections[CategoryArabic]; ok {
		t.Error("swallowed label should not produce a section")
	}
}
