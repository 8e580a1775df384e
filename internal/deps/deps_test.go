package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheck(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	statuses := Check([]Tool{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: ""},
	})
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}

	if !statuses[0].Found {
		t.Fatalf("expected present tool to be found, got %#v", statuses[0])
	}
	if statuses[0].Path != present {
		t.Fatalf("unexpected resolved path %q", statuses[0].Path)
	}

	if statuses[1].Found {
		t.Fatal("expected missing binary to be absent")
	}
	if statuses[1].Detail == "" {
		t.Fatal("expected detail for missing binary")
	}

	if statuses[2].Found {
		t.Fatal("expected unset command to be absent")
	}
	if statuses[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail %q", statuses[2].Detail)
	}
}
