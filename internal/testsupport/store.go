package testsupport

import (
	"context"
	"testing"

	"captioner/internal/config"
	"captioner/internal/queue"
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

// NewJob creates and persists a pending job for source.
func NewJob(t testing.TB, store *queue.Store, source string) *queue.Job {
	t.Helper()

	job := queue.NewJob(source)
	if err := store.Create(context.Background(), job); err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return job
}
