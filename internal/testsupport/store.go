package testsupport

import (
	"context"
	"testing"

	"scribe/internal/config"
	"scribe/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewItem adds a recording item for tests using the provided store.
func NewItem(t testing.TB, store *queue.Store, recordingUUID, videoName string) *queue.Item {
	t.Helper()

	item, err := store.Add(context.Background(), recordingUUID, videoName, "2024-09-08", "Test Teacher", "")
	if err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return item
}
