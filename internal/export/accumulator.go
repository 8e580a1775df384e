package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"scribe/internal/segment"
)

// csvHeader is the fixed wide-format column set. Category columns stay in
// canonical order regardless of which sections a recording has.
func csvHeader() []string {
	header := []string{"Video_Name", "Date", "Teacher", "Duration_Minutes", "Overall_Summary"}
	for _, cat := range segment.Categories() {
		header = append(header, cat.Column())
	}
	return header
}

// Accumulator maintains the shared wide CSV, one row per recording keyed by
// video name. Upsert replaces an existing row rather than appending a
// duplicate. A mutex serializes goroutines in-process and a lock file
// serializes concurrent pipeline processes.
type Accumulator struct {
	path string

	mu   sync.Mutex
	lock *flock.Flock
}

// NewAccumulator creates an accumulator writing to path.
func NewAccumulator(path string) *Accumulator {
	return &Accumulator{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the CSV location.
func (a *Accumulator) Path() string {
	return a.path
}

// Upsert inserts or replaces the row for rec.VideoName. The whole file is
// rewritten under the lock; rosters are small enough that this is cheaper
// than being clever.
func (a *Accumulator) Upsert(rec VideoRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.lock.Lock(); err != nil {
		return fmt.Errorf("csv accumulator: acquire lock: %w", err)
	}
	defer a.lock.Unlock()

	rows, err := a.readRows()
	if err != nil {
		return err
	}

	row := a.buildRow(rec)
	replaced := false
	for i, existing := range rows {
		if len(existing) > 0 && existing[0] == rec.VideoName {
			rows[i] = row
			replaced = true
			break
		}
	}
	if !replaced {
		rows = append(rows, row)
	}
	return a.writeRows(rows)
}

// Rows returns the current data rows (header excluded).
func (a *Accumulator) Rows() ([][]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.lock.RLock(); err != nil {
		return nil, fmt.Errorf("csv accumulator: acquire read lock: %w", err)
	}
	defer a.lock.Unlock()
	return a.readRows()
}

func (a *Accumulator) readRows() ([][]string, error) {
	f, err := os.Open(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("csv accumulator: open: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv accumulator: read: %w", err)
	}
	if len(all) > 0 && len(all[0]) > 0 && all[0][0] == "Video_Name" {
		all = all[1:]
	}
	return all, nil
}

func (a *Accumulator) writeRows(rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("csv accumulator: create directory: %w", err)
	}
	tmp := a.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("csv accumulator: create: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader()); err != nil {
		f.Close()
		return fmt.Errorf("csv accumulator: write header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("csv accumulator: write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return fmt.Errorf("csv accumulator: flush: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("csv accumulator: close: %w", err)
	}
	if err := os.Rename(tmp, a.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("csv accumulator: finalize: %w", err)
	}
	return nil
}

// buildRow renders one recording as a CSV row. Categories the recording
// lacks yield empty cells.
func (a *Accumulator) buildRow(rec VideoRecord) []string {
	row := []string{
		rec.VideoName,
		rec.Date,
		rec.Teacher,
		fmt.Sprintf("%d", rec.DurationMinutes),
		rec.OverallSummary,
	}
	for _, cat := range segment.Categories() {
		if sec, ok := rec.Section(cat); ok {
			row = append(row, sec.Text)
		} else {
			row = append(row, "")
		}
	}
	return row
}
