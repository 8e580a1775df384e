// Package catalog reads the human-maintained recording roster.
//
// The roster is a CSV exported from a shared spreadsheet, so the reader
// tolerates header variations, blank lines, and per-row problems without
// abandoning the batch.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Record is one human-cataloged recording reference. SecondaryID is the
// recurring meeting number embedded in the share link; it is NOT unique
// across recordings of the same series.
type Record struct {
	Row          int
	VideoName    string
	AccountEmail string
	Teacher      string
	MeetingType  string
	Date         time.Time
	ShareURL     string
	SecondaryID  string
	ShareToken   string
	Topic        string
}

// RowError describes one roster row that could not be used.
type RowError struct {
	Row    int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

var headerAliases = map[string]string{
	"video name":          "video_name",
	"video_name":          "video_name",
	"name":                "video_name",
	"name of the meeting": "video_name",
	"meeting name":        "video_name",
	"title":               "video_name",
	"account email":       "email",
	"account":             "email",
	"email":               "email",
	"meeting id":          "meeting_id",
	"meeting_id":          "meeting_id",
	"teacher":             "teacher",
	"instructor":          "teacher",
	"date":                "date",
	"recorded":            "date",
	"recorded date":       "date",
	"time":                "time",
	"start time":          "time",
	"type":                "type",
	"link":                "share_url",
	"share link":          "share_url",
	"share_url":           "share_url",
	"url":                 "share_url",
	"zoom link":           "share_url",
	"topic":               "topic",
	"meeting topic":       "topic",
}

// Load reads roster rows from a CSV file. Malformed rows are collected as
// RowErrors; the usable remainder is returned in file order.
func Load(path string) ([]Record, []RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads roster rows from CSV data. The first row is treated as a
// header when its cells match known column names; otherwise columns are
// taken positionally as meeting name, account email, meeting ID, date,
// time, type, teacher, share link.
func Parse(r io.Reader) ([]Record, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read catalog: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	columns, hasHeader := detectHeader(rows[0])
	start := 0
	if hasHeader {
		start = 1
	}

	var records []Record
	var rowErrs []RowError
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if blankRow(row) {
			continue
		}
		rec, err := parseRow(i+1, row, columns)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: i + 1, Reason: err.Error()})
			continue
		}
		records = append(records, rec)
	}
	return records, rowErrs, nil
}

func detectHeader(row []string) (map[string]int, bool) {
	columns := make(map[string]int)
	matched := 0
	for i, cell := range row {
		key := strings.ToLower(strings.TrimSpace(cell))
		if canonical, ok := headerAliases[key]; ok {
			if _, dup := columns[canonical]; !dup {
				columns[canonical] = i
				matched++
			}
		}
	}
	if matched >= 2 {
		return columns, true
	}
	// Positional fallback matching the spreadsheet export: meeting name,
	// account email, meeting ID, date, time, type, teacher, share link.
	return map[string]int{
		"video_name": 0,
		"email":      1,
		"meeting_id": 2,
		"date":       3,
		"time":       4,
		"type":       5,
		"teacher":    6,
		"share_url":  7,
	}, false
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseRow(line int, row []string, columns map[string]int) (Record, error) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rec := Record{
		Row:          line,
		VideoName:    cell("video_name"),
		AccountEmail: cell("email"),
		Teacher:      NormalizeName(cell("teacher")),
		MeetingType:  cell("type"),
		ShareURL:     cell("share_url"),
		Topic:        cell("topic"),
	}
	if rec.VideoName == "" {
		return Record{}, fmt.Errorf("missing video name")
	}

	rawDate := cell("date")
	if rawDate == "" {
		return Record{}, fmt.Errorf("missing date")
	}
	rawTime := cell("time")
	when, err := parseWhen(rawDate, rawTime)
	if err != nil {
		return Record{}, err
	}
	rec.Date = when

	rec.SecondaryID = digitsOnly(cell("meeting_id"))
	if rec.ShareURL != "" {
		id, token := ParseShareURL(rec.ShareURL)
		if rec.SecondaryID == "" {
			rec.SecondaryID = id
		}
		rec.ShareToken = token
	}
	return rec, nil
}

// parseWhen merges a separate time-of-day cell into the date so the
// result carries the catalogued start time, not just midnight.
func parseWhen(rawDate, rawTime string) (time.Time, error) {
	if rawTime != "" {
		if when, err := dateparse.ParseLocal(rawDate + " " + rawTime); err == nil {
			return when, nil
		}
	}
	when, err := dateparse.ParseLocal(rawDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparsable date %q", rawDate)
	}
	return when, nil
}

// ParseShareURL extracts the recurring meeting number and the opaque share
// token from a recording share link. Links look like
// https://example.zoom.us/rec/share/<token>?pwd=... or carry the meeting
// number in a /j/<number> or meeting_id query form. Either part may be
// absent.
func ParseShareURL(raw string) (secondaryID, shareToken string) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, part := range parts {
		switch part {
		case "share", "play":
			if i > 0 && i+1 < len(parts) && parts[i-1] == "rec" {
				shareToken = parts[i+1]
			}
		case "j":
			if i+1 < len(parts) {
				secondaryID = digitsOnly(parts[i+1])
			}
		}
	}
	if secondaryID == "" {
		for _, key := range []string{"meeting_id", "meetingId", "mid"} {
			if v := u.Query().Get(key); v != "" {
				secondaryID = digitsOnly(v)
				break
			}
		}
	}
	return secondaryID, shareToken
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// NormalizeName trims and title-cases a teacher name so the same person
// cataloged as "ustadha FATIMA" and "Ustadha Fatima" exports identically.
func NormalizeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	if name == strings.ToLower(name) || name == strings.ToUpper(name) {
		return titleCaser.String(strings.ToLower(name))
	}
	return name
}
