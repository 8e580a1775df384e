package zoom

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scribe/internal/services"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(Config{
		AccountID:    "acct",
		ClientID:     "id",
		ClientSecret: "secret",
		BaseURL:      server.URL,
		AuthURL:      server.URL + "/oauth/token",
	})
	return client, server
}

func authOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`))
}

func TestAccessTokenCached(t *testing.T) {
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		if r.Method != http.MethodPost {
			t.Errorf("token request method = %s", r.Method)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Basic ") {
			t.Error("missing basic auth header")
		}
		if r.URL.Query().Get("grant_type") != "account_credentials" {
			t.Errorf("grant_type = %q", r.URL.Query().Get("grant_type"))
		}
		authOK(w)
	})
	client, _ := newTestClient(t, mux)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := client.accessToken(ctx); err != nil {
			t.Fatalf("accessToken: %v", err)
		}
	}
	if tokenCalls != 1 {
		t.Errorf("expected 1 token fetch, got %d", tokenCalls)
	}
}

func TestAccessTokenRefreshAfterExpiry(t *testing.T) {
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		authOK(w)
	})
	now := time.Now()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client := NewClient(Config{
		AccountID: "a", ClientID: "b", ClientSecret: "c",
		BaseURL: server.URL, AuthURL: server.URL + "/oauth/token",
	}, WithClock(func() time.Time { return now }))

	ctx := context.Background()
	if _, err := client.accessToken(ctx); err != nil {
		t.Fatalf("accessToken: %v", err)
	}
	now = now.Add(2 * time.Hour)
	if _, err := client.accessToken(ctx); err != nil {
		t.Fatalf("accessToken after expiry: %v", err)
	}
	if tokenCalls != 2 {
		t.Errorf("expected refresh after expiry, got %d fetches", tokenCalls)
	}
}

func TestListRecordingsPaginates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) { authOK(w) })
	mux.HandleFunc("/users/me/recordings", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			t.Errorf("bad bearer token: %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("next_page_token") == "" {
			w.Write([]byte(`{"next_page_token":"page2","meetings":[
				{"uuid":"uuid-1","id":81234567890,"topic":"Week 1","start_time":"2024-09-08T10:00:00Z","duration":60,
				 "recording_files":[{"file_type":"MP4","download_url":"http://x/v.mp4"}]}]}`))
			return
		}
		w.Write([]byte(`{"next_page_token":"","meetings":[
			{"uuid":"uuid-2","id":81234567890,"topic":"Week 2","start_time":"2024-09-15T10:00:00Z","duration":55}]}`))
	})
	client, _ := newTestClient(t, mux)

	recordings, err := client.ListRecordings(context.Background(), time.Now().AddDate(0, -1, 0), time.Now())
	if err != nil {
		t.Fatalf("ListRecordings: %v", err)
	}
	if len(recordings) != 2 {
		t.Fatalf("expected 2 recordings across pages, got %d", len(recordings))
	}
	first := recordings[0]
	if first.UUID != "uuid-1" || first.SecondaryID != "81234567890" {
		t.Errorf("unexpected first recording: %+v", first)
	}
	if first.DurationSeconds != 3600 {
		t.Errorf("duration minutes not converted: %d", first.DurationSeconds)
	}
	if len(first.FileVariants) != 1 || first.FileVariants[0] != "MP4" {
		t.Errorf("file variants = %v", first.FileVariants)
	}
}

func TestDownloadPrefersAudioOnly(t *testing.T) {
	dir := t.TempDir()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) { authOK(w) })
	var server *httptest.Server
	mux.HandleFunc("/meetings/", func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.EscapedPath(), "uuid%252Fwith%252Fslash") {
			t.Errorf("uuid not double encoded: %s", r.URL.EscapedPath())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"uuid":"uuid-1","topic":"Week 1: Patience","recording_files":[
			{"file_type":"MP4","file_extension":"MP4","download_url":"` + server.URL + `/media/video"},
			{"file_type":"M4A","file_extension":"M4A","download_url":"` + server.URL + `/media/audio"}]}`))
	})
	mux.HandleFunc("/media/audio", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio-bytes"))
	})
	client, srv := newTestClient(t, mux)
	server = srv

	path, err := client.Download(context.Background(), "uuid/with/slash", "", dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Ext(path) != ".m4a" {
		t.Errorf("expected audio variant, got %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "audio-bytes" {
		t.Errorf("downloaded content = %q", data)
	}
	if _, err := os.Stat(path + ".partial"); !os.IsNotExist(err) {
		t.Error("partial file left behind")
	}
}

func TestDownloadNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) { authOK(w) })
	mux.HandleFunc("/meetings/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":3301,"message":"recording not found"}`, http.StatusNotFound)
	})
	client, _ := newTestClient(t, mux)

	_, err := client.Download(context.Background(), "missing", "", t.TempDir())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDownloadFallsBackToSharePage(t *testing.T) {
	dir := t.TempDir()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) { authOK(w) })
	mux.HandleFunc("/meetings/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":3301,"message":"recording not found"}`, http.StatusNotFound)
	})
	var server *httptest.Server
	mux.HandleFunc("/rec/share/tok", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><video><source src="` + server.URL + `/media/share.mp4"></video></body></html>`))
	})
	mux.HandleFunc("/media/share.mp4", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("share media must be fetched without API credentials")
		}
		w.Write([]byte("share-bytes"))
	})
	client, srv := newTestClient(t, mux)
	server = srv

	path, err := client.Download(context.Background(), "uuid-hidden", server.URL+"/rec/share/tok", dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Ext(path) != ".mp4" {
		t.Errorf("unexpected extension: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "share-bytes" {
		t.Errorf("downloaded content = %q", data)
	}
}

func TestAuthFailureClassifiedAsConfiguration(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"reason":"Invalid client_id or client_secret"}`, http.StatusUnauthorized)
	})
	client, _ := newTestClient(t, mux)

	err := client.HealthCheck(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestResolveShareDownload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) { authOK(w) })
	mux.HandleFunc("/rec/share/tok", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head></head><body>
			<script>window.__data = {"viewMp4Url":"https:\/\/example.com\/rec\/download\/abc?tk=1&2"};</script>
			</body></html>`))
	})
	client, server := newTestClient(t, mux)

	got, err := client.ResolveShareDownload(context.Background(), server.URL+"/rec/share/tok")
	if err != nil {
		t.Fatalf("ResolveShareDownload: %v", err)
	}
	want := "https://example.com/rec/download/abc?tk=1&2"
	if got != want {
		t.Errorf("url = %q, want %q", got, want)
	}
}

func TestResolveShareDownloadNoMedia(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rec/share/tok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>This recording has expired.</p></body></html>`))
	})
	client, server := newTestClient(t, mux)

	_, err := client.ResolveShareDownload(context.Background(), server.URL+"/rec/share/tok")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
