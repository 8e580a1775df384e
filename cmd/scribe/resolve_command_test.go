package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/queue"
)

func newFakeZoomServer(t *testing.T, meetingsJSON string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"tok","expires_in":3600}`)
	})
	mux.HandleFunc("/users/me/recordings", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"next_page_token":"","meetings":%s}`, meetingsJSON)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestResolveCommandMatchesAndEnqueues(t *testing.T) {
	env := setupCLITestEnv(t)

	server := newFakeZoomServer(t, `[
		{
			"uuid": "uuid-sunday",
			"id": 88811122233,
			"topic": "Sunday School",
			"start_time": "2024-09-08T15:01:00Z",
			"duration": 30,
			"recording_files": [{"file_type": "M4A"}]
		},
		{
			"uuid": "uuid-far",
			"id": 99911122233,
			"topic": "Board Meeting",
			"start_time": "2024-09-08T20:00:00Z",
			"duration": 60,
			"recording_files": [{"file_type": "MP4"}]
		}
	]`)

	env.cfg.Zoom.UserID = "me"
	env.cfg.Zoom.BaseURL = server.URL
	env.cfg.Zoom.AuthURL = server.URL + "/oauth/token"
	writeTestConfig(t, env.configPath, env.cfg)

	catalogPath := filepath.Join(t.TempDir(), "catalog.csv")
	catalogCSV := "Video Name,Date,Teacher,Link\n" +
		"Week 1 Patience,2024-09-08T15:00:00Z,sr. amina,https://zoom.us/rec/share/abc?meeting_id=88811122233\n"
	if err := os.WriteFile(catalogPath, []byte(catalogCSV), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	out, _, err := runCLI(t, []string{"resolve", "--catalog", catalogPath}, env.configPath)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	requireContains(t, out, "EXACT")
	requireContains(t, out, "uuid-sunday")
	requireContains(t, out, "1 exact")

	out, _, err = runCLI(t, []string{"resolve", "--catalog", catalogPath, "--enqueue"}, env.configPath)
	if err != nil {
		t.Fatalf("resolve --enqueue: %v", err)
	}
	requireContains(t, out, "Enqueued 1 recording(s)")

	item, err := env.store.GetByUUID(context.Background(), "uuid-sunday")
	if err != nil {
		t.Fatalf("expected enqueued item: %v", err)
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending item, got %s", item.Status)
	}
	if item.VideoName != "Week 1 Patience" {
		t.Fatalf("unexpected video name %q", item.VideoName)
	}
}

func TestResolveCommandReportsUnmatched(t *testing.T) {
	env := setupCLITestEnv(t)

	server := newFakeZoomServer(t, `[]`)
	env.cfg.Zoom.UserID = "me"
	env.cfg.Zoom.BaseURL = server.URL
	env.cfg.Zoom.AuthURL = server.URL + "/oauth/token"
	writeTestConfig(t, env.configPath, env.cfg)

	catalogPath := filepath.Join(t.TempDir(), "catalog.csv")
	catalogCSV := "Video Name,Date,Teacher,Link\n" +
		"Week 2 Gratitude,2024-09-15T15:00:00Z,Sr. Amina,https://zoom.us/rec/share/def\n"
	if err := os.WriteFile(catalogPath, []byte(catalogCSV), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	out, _, err := runCLI(t, []string{"resolve", "--catalog", catalogPath}, env.configPath)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	requireContains(t, out, "NONE")
	requireContains(t, out, "1 unmatched")
}

func TestResolveCommandRequiresCatalog(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"resolve"}, env.configPath); err == nil {
		t.Fatal("expected missing --catalog to fail")
	}
}
