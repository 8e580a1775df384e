package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"scribe/internal/segment"
)

// LoadArchive reads every structured record in dir, ordered by date then
// video name so combined output is stable across runs.
func LoadArchive(dir string) ([]VideoRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read archive dir: %w", err)
	}

	var records []VideoRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		rec, err := ReadStructured(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date < records[j].Date
		}
		return records[i].VideoName < records[j].VideoName
	})
	return records, nil
}

// SectionTexts extracts the text of one category from every record that has
// it, in record order.
func SectionTexts(records []VideoRecord, cat segment.Category) []string {
	var texts []string
	for _, rec := range records {
		if section, ok := rec.Section(cat); ok && section.Text != "" {
			texts = append(texts, section.Text)
		}
	}
	return texts
}

// CombineSection writes a single markdown document containing every video's
// text for one category, one heading per video.
func CombineSection(records []VideoRecord, cat segment.Category, path string) error {
	type entry struct {
		title string
		date  string
		text  string
	}
	var entries []entry
	for _, rec := range records {
		section, ok := rec.Section(cat)
		if !ok || section.Text == "" {
			continue
		}
		title := rec.VideoName
		if title == "" {
			title = fmt.Sprintf("Video %d", len(entries)+1)
		}
		entries = append(entries, entry{title: title, date: rec.Date, text: section.Text})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s - Combined Content\n\n", cat)
	fmt.Fprintf(&b, "Total videos: %d\n", len(entries))
	b.WriteString(strings.Repeat("=", 70) + "\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "## %s\n\n", e.title)
		if e.date != "" {
			fmt.Fprintf(&b, "_%s_\n\n", e.date)
		}
		fmt.Fprintf(&b, "%s\n\n", e.text)
		b.WriteString(strings.Repeat("-", 70) + "\n\n")
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write combined section: %w", err)
	}
	return nil
}
