package catalog

import (
	"strings"
	"testing"
)

func TestParseWithHeader(t *testing.T) {
	data := `Video Name,Date,Teacher,Share Link
Week 1 - Patience,2024-09-08,ustadha fatima,https://example.zoom.us/rec/share/abc123token?pwd=x
Week 2 - Gratitude,9/15/2024,Ustadha Fatima,https://example.zoom.us/j/81234567890
`
	records, rowErrs, err := Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rowErrs) != 0 {
		t.Fatalf("unexpected row errors: %v", rowErrs)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	first := records[0]
	if first.VideoName != "Week 1 - Patience" {
		t.Errorf("video name = %q", first.VideoName)
	}
	if first.Teacher != "Ustadha Fatima" {
		t.Errorf("teacher not normalized: %q", first.Teacher)
	}
	if first.Date.Year() != 2024 || first.Date.Month() != 9 || first.Date.Day() != 8 {
		t.Errorf("date = %v", first.Date)
	}
	if first.ShareToken != "abc123token" {
		t.Errorf("share token = %q", first.ShareToken)
	}
	second := records[1]
	if second.SecondaryID != "81234567890" {
		t.Errorf("secondary id = %q", second.SecondaryID)
	}
	if second.Date.Month() != 9 || second.Date.Day() != 15 {
		t.Errorf("human date not parsed: %v", second.Date)
	}
}

func TestParseRosterHeader(t *testing.T) {
	data := `Name of the Meeting,Account Email,Meeting ID,Date,Time,Type,Teacher,Share Link
Week 4 - Mercy,admin@example.org,812 3456 7890,2024-09-29,15:00,Recurring,ustadh bilal,https://example.zoom.us/rec/share/tok4
`
	records, rowErrs, err := Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rowErrs) != 0 {
		t.Fatalf("unexpected row errors: %v", rowErrs)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.VideoName != "Week 4 - Mercy" {
		t.Errorf("video name = %q", rec.VideoName)
	}
	if rec.AccountEmail != "admin@example.org" {
		t.Errorf("account email = %q", rec.AccountEmail)
	}
	if rec.SecondaryID != "81234567890" {
		t.Errorf("secondary id = %q", rec.SecondaryID)
	}
	if rec.MeetingType != "Recurring" {
		t.Errorf("meeting type = %q", rec.MeetingType)
	}
	if rec.Date.Hour() != 15 || rec.Date.Minute() != 0 {
		t.Errorf("time-of-day not merged into date: %v", rec.Date)
	}
	if rec.Date.Year() != 2024 || rec.Date.Month() != 9 || rec.Date.Day() != 29 {
		t.Errorf("date = %v", rec.Date)
	}
	if rec.ShareToken != "tok4" {
		t.Errorf("share token = %q", rec.ShareToken)
	}
}

func TestParsePositionalFallback(t *testing.T) {
	data := `Week 3,admin@example.org,9988776655,2024-09-22,15:00,Recurring,Ustadh Bilal,https://example.zoom.us/rec/share/tok
`
	records, rowErrs, err := Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rowErrs) != 0 {
		t.Fatalf("unexpected row errors: %v", rowErrs)
	}
	if len(records) != 1 {
		t.Fatalf("positional parse failed: %+v", records)
	}
	rec := records[0]
	if rec.VideoName != "Week 3" {
		t.Errorf("video name = %q", rec.VideoName)
	}
	if rec.AccountEmail != "admin@example.org" {
		t.Errorf("account email = %q", rec.AccountEmail)
	}
	if rec.SecondaryID != "9988776655" {
		t.Errorf("secondary id = %q", rec.SecondaryID)
	}
	if rec.Teacher != "Ustadh Bilal" {
		t.Errorf("teacher = %q", rec.Teacher)
	}
	if rec.Date.Hour() != 15 {
		t.Errorf("time-of-day not merged into date: %v", rec.Date)
	}
}

func TestParseCollectsRowErrors(t *testing.T) {
	data := `Video Name,Date,Teacher,Share Link
,2024-09-08,Someone,https://example.com
Week 2,not a date,Someone,https://example.com
Week 3,2024-09-22,Someone,https://example.com

`
	records, rowErrs, err := Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 usable record, got %d", len(records))
	}
	if len(rowErrs) != 2 {
		t.Fatalf("expected 2 row errors, got %v", rowErrs)
	}
	if rowErrs[0].Row != 2 || rowErrs[1].Row != 3 {
		t.Errorf("row numbers = %d, %d", rowErrs[0].Row, rowErrs[1].Row)
	}
}

func TestParseShareURL(t *testing.T) {
	cases := []struct {
		url       string
		wantID    string
		wantToken string
	}{
		{"https://example.zoom.us/rec/share/Abc-123_x?pwd=secret", "", "Abc-123_x"},
		{"https://example.zoom.us/j/812 3456 7890", "81234567890", ""},
		{"https://example.zoom.us/rec/play/tok123?meeting_id=9988776655", "9988776655", "tok123"},
		{"not a url at all", "", ""},
	}
	for _, tc := range cases {
		id, token := ParseShareURL(tc.url)
		if id != tc.wantID || token != tc.wantToken {
			t.Errorf("ParseShareURL(%q) = (%q, %q), want (%q, %q)",
				tc.url, id, token, tc.wantID, tc.wantToken)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"ustadha fatima":   "Ustadha Fatima",
		"USTADH BILAL":     "Ustadh Bilal",
		"  Shaykh   Omar ": "Shaykh Omar",
		"McAllister":       "McAllister",
		"":                 "",
	}
	for in, want := range cases {
		if got := NormalizeName(in); got != want {
			t.Errorf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}
