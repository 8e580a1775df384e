package main

import (
	"strings"
	"testing"
)

func TestRenderStatusLinePlain(t *testing.T) {
	line := renderStatusLine("Staging directory", statusOK, "ready", false)
	if !strings.Contains(line, "Staging directory:") {
		t.Fatalf("missing label in %q", line)
	}
	if !strings.Contains(line, "[OK] ready") {
		t.Fatalf("missing status text in %q", line)
	}
	if strings.Contains(line, ansiGreen) {
		t.Fatalf("unexpected color codes in %q", line)
	}
}

func TestRenderStatusLineColorized(t *testing.T) {
	line := renderStatusLine("Classifier", statusError, "missing api key", true)
	if !strings.HasPrefix(line, ansiRed) || !strings.HasSuffix(line, ansiReset) {
		t.Fatalf("expected red wrapping in %q", line)
	}
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader("Preflight", false)
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %d", len(lines))
	}
	if lines[0] != "== Preflight ==" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if len(lines[1]) != len(lines[0]) {
		t.Fatalf("rule length %d does not match header length %d", len(lines[1]), len(lines[0]))
	}
}

func TestRenderTableCapsCellWidth(t *testing.T) {
	long := strings.Repeat("verylongsharelinktoken", 5)
	out := renderTable(
		[]string{"Video", "Link"},
		[][]string{{"Week 1", long}},
		nil,
	)
	for _, line := range strings.Split(out, "\n") {
		if len(line) > maxCellWidth*2+10 {
			t.Fatalf("line exceeds width cap: %q", line)
		}
	}
}

func TestRenderTableFillsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"ID", "Video", "Status"},
		[][]string{{"1", "Week 1"}},
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	)
	if !strings.Contains(out, "Week 1") {
		t.Fatalf("missing row content in %q", out)
	}
	if !strings.Contains(out, "ID") {
		t.Fatalf("missing header in %q", out)
	}
}
